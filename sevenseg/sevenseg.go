// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sevenseg

import (
	"errors"
	"fmt"
	"strings"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/GermanBionicSystems/segclock/segment"
)

// NumDigits is the number of digit positions.
const NumDigits = 4

// Position selects a digit, from 1 (rightmost) to NumDigits (leftmost).
type Position int

var (
	// ErrPosition is returned by Show for a Position outside 1..NumDigits.
	ErrPosition = errors.New("sevenseg: invalid digit position")
)

// Lines are the 12 output lines of the display.
type Lines struct {
	// Digits are the digit-select lines; Digits[0] selects Position 1.
	Digits [NumDigits]gpio.PinOut
	// Segments are the lines for a, b, c, d, e, f, g and dp, in that order.
	Segments [segment.NumSegments]gpio.PinOut
}

// Opts sets the line polarity.
type Opts struct {
	// DigitActiveLow selects a digit by driving its line Low.
	DigitActiveLow bool
	// SegmentActiveLow lights a segment by driving its line Low.
	SegmentActiveLow bool
}

// Dev is a 4-digit 7-segment display.
//
// Dev is the only user of its lines. It is not safe for concurrent use; one
// task calls Show.
type Dev struct {
	digits   [NumDigits]gpio.PinOut
	segments [segment.NumSegments]gpio.PinOut

	digitOn, digitOff     gpio.Level
	segmentOn, segmentOff gpio.Level
}

// New returns a Dev driving lines. Every line must be set and used once.
//
// The display is dark when New returns.
func New(lines *Lines, opts *Opts) (*Dev, error) {
	if lines == nil {
		return nil, errors.New("sevenseg: no lines")
	}
	if opts == nil {
		opts = &Opts{}
	}
	all := make([]gpio.PinOut, 0, NumDigits+segment.NumSegments)
	all = append(all, lines.Digits[:]...)
	all = append(all, lines.Segments[:]...)
	for i, p := range all {
		if p == nil {
			return nil, fmt.Errorf("sevenseg: line %d is not set", i)
		}
		for _, q := range all[:i] {
			if p == q {
				return nil, fmt.Errorf("sevenseg: line %s is used twice", p)
			}
		}
	}
	d := &Dev{
		digits:     lines.Digits,
		segments:   lines.Segments,
		digitOn:    gpio.Level(!opts.DigitActiveLow),
		digitOff:   gpio.Level(opts.DigitActiveLow),
		segmentOn:  gpio.Level(!opts.SegmentActiveLow),
		segmentOff: gpio.Level(opts.SegmentActiveLow),
	}
	if err := d.clear(); err != nil {
		return nil, fmt.Errorf("sevenseg: %w", err)
	}
	return d, nil
}

// Show lights v on the digit at pos and nothing else.
//
// All lines are first turned off, then the digit line of pos is turned on,
// then the segments of segment.PatternFor(v). A line that fails to accept a
// write does not stop the sequence; the first such error is returned.
func (d *Dev) Show(pos Position, v segment.Value) error {
	err := d.clear()
	if pos < 1 || pos > NumDigits {
		return ErrPosition
	}
	if e := d.digits[pos-1].Out(d.digitOn); err == nil {
		err = e
	}
	p := segment.PatternFor(v)
	for i, s := range d.segments {
		if p&(1<<i) == 0 {
			continue
		}
		if e := s.Out(d.segmentOn); err == nil {
			err = e
		}
	}
	if err != nil {
		return fmt.Errorf("sevenseg: %w", err)
	}
	return nil
}

// Halt turns the display off. Implements conn.Resource.
func (d *Dev) Halt() error {
	if err := d.clear(); err != nil {
		return fmt.Errorf("sevenseg: %w", err)
	}
	return nil
}

func (d *Dev) String() string {
	names := make([]string, 0, NumDigits)
	for _, p := range d.digits {
		names = append(names, p.Name())
	}
	return "sevenseg{" + strings.Join(names, ",") + "}"
}

// clear drives every digit line then every segment line inactive. Digits go
// first so no digit ever shows a partially cleared pattern.
func (d *Dev) clear() error {
	var err error
	for _, p := range d.digits {
		if e := p.Out(d.digitOff); err == nil {
			err = e
		}
	}
	for _, p := range d.segments {
		if e := p.Out(d.segmentOff); err == nil {
			err = e
		}
	}
	return err
}

var _ conn.Resource = &Dev{}
