// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sevenseg drives a bare 4-digit, 7-segment LED display from 12 GPIO
// lines: one digit-select line per digit and one line per segment (a to g
// plus the decimal point).
//
// The segment lines are shared by all digits, so only one digit can be lit at
// a time. Show lights one digit; something else (see package multiplex) must
// call it for each digit in turn fast enough for the eye to see all four.
//
// # Wiring
//
// Digit 1 is the rightmost digit and digit 4 the leftmost. With the default
// options a line driven High is active, which matches digit lines switching
// the common cathode through a transistor and segment lines sourcing the LED
// current through a resistor. Use Opts to invert either group.
package sevenseg
