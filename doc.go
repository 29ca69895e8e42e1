// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segclock is a container for the packages of a multiplexed 4-digit
// 7-segment clock.
//
// segment and sevenseg light one digit at a time; multiplex scans the four
// digits from the shared register in timereg; timesource, ds1307 and netsync
// keep that register current. The daemon is cmd/segclock.
package segclock
