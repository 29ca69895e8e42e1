// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segment maps digit values to the segments of a 7-segment digit.
//
// Segments are named the usual way:
//
//	 aaa
//	f   b
//	 ggg
//	e   c
//	 ddd  dp
package segment

import "strings"

// Set is the set of lit segments of one digit.
//
// Bit order: DP.G.F.E.D.C.B.A (MSB to LSB: bit7=DP, bit6=G, ..., bit0=A).
type Set byte

// Segment flags.
const (
	A Set = 1 << iota
	B
	C
	D
	E
	F
	G
	DP
)

// NumSegments is the number of lines needed to drive one digit, decimal
// point included.
const NumSegments = 8

// Value is the value shown on one digit. 0 to 9 are decimal digits.
type Value int

const (
	// DecimalPoint lights the decimal point only.
	DecimalPoint Value = 10
	// Blank turns every segment off. Any Value that is not a digit or
	// DecimalPoint renders as Blank.
	Blank Value = 11

	// BlankPattern is the pattern of Blank.
	BlankPattern Set = 0
)

var digits = [10]Set{
	A | B | C | D | E | F,     // 0x3f
	B | C,                     // 0x06
	A | B | D | E | G,         // 0x5b
	A | B | C | D | G,         // 0x4f
	B | C | F | G,             // 0x66
	A | C | D | F | G,         // 0x6d
	A | C | D | E | F | G,     // 0x7d
	A | B | C,                 // 0x07
	A | B | C | D | E | F | G, // 0x7f
	A | B | C | D | F | G,     // 0x6f
}

// PatternFor returns the segments to light for v. It is defined for every v.
func PatternFor(v Value) Set {
	switch {
	case v >= 0 && v <= 9:
		return digits[v]
	case v == DecimalPoint:
		return DP
	default:
		return BlankPattern
	}
}

// Has reports whether every segment in o is lit in s.
func (s Set) Has(o Set) bool {
	return s&o == o
}

// Rune decodes s back to the character it shows: '0' to '9', '.', ' ' or '?'
// for a pattern that is none of them. A lit decimal point on top of a digit
// is ignored.
func (s Set) Rune() rune {
	switch s {
	case BlankPattern:
		return ' '
	case DP:
		return '.'
	}
	body := s &^ DP
	for i, p := range digits {
		if p == body {
			return rune('0' + i)
		}
	}
	return '?'
}

func (s Set) String() string {
	if s == BlankPattern {
		return "-"
	}
	var b strings.Builder
	for i, name := range []string{"a", "b", "c", "d", "e", "f", "g", "dp"} {
		if s&(1<<i) != 0 {
			b.WriteString(name)
		}
	}
	return b.String()
}
