// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package multiplex refreshes a 4-digit 7-segment display one digit at a
// time, fast enough that all four appear lit.
//
// The shared time value is read once at the start of each scan, so the four
// digits shown during one scan always belong to the same value.
package multiplex

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

// DefaultDwell is how long each digit stays lit. A full scan of four digits
// takes a little under 3ms.
const DefaultDwell = 700 * time.Microsecond

// Displayer lights one digit. *sevenseg.Dev implements it.
type Displayer interface {
	Show(pos sevenseg.Position, v segment.Value) error
}

// Source provides the value to display. *timereg.Register implements it.
type Source interface {
	Load() uint16
}

// Opts configures a Scanner.
type Opts struct {
	// Dwell is the time each digit stays lit. Defaults to DefaultDwell.
	Dwell time.Duration
	// Logger receives display errors. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// Frame holds the four digits of a value, most significant first.
type Frame [sevenseg.NumDigits]segment.Value

// Decompose splits v into its thousands, hundreds, tens and units digits.
//
// Values above 9999 are outside the display range; the thousands digit then
// exceeds 9 and renders blank.
func Decompose(v uint16) Frame {
	return Frame{
		segment.Value(v / 1000),
		segment.Value(v % 1000 / 100),
		segment.Value(v % 100 / 10),
		segment.Value(v % 10),
	}
}

// Value recomposes the digits of f.
func (f Frame) Value() uint16 {
	var v uint16
	for _, d := range f {
		v = v*10 + uint16(d)
	}
	return v
}

// Position returns where f[i] is shown: the most significant digit goes to
// the leftmost position.
func Position(i int) sevenseg.Position {
	return sevenseg.Position(sevenseg.NumDigits - i)
}

// Scanner cycles through the digit positions.
type Scanner struct {
	d     Displayer
	src   Source
	dwell time.Duration
	log   logrus.FieldLogger
	sleep func(time.Duration)

	failed bool
}

// New returns a Scanner showing the values of src on d.
func New(d Displayer, src Source, opts *Opts) *Scanner {
	if opts == nil {
		opts = &Opts{}
	}
	s := &Scanner{
		d:     d,
		src:   src,
		dwell: opts.Dwell,
		log:   opts.Logger,
		sleep: time.Sleep,
	}
	if s.dwell <= 0 {
		s.dwell = DefaultDwell
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Dwell returns the time each digit stays lit.
func (s *Scanner) Dwell() time.Duration {
	return s.dwell
}

// Cycle loads the value once and shows its digits from position 4 down to
// position 1, each for the dwell time.
func (s *Scanner) Cycle() {
	f := Decompose(s.src.Load())
	for i, v := range f {
		if err := s.d.Show(Position(i), v); err != nil && !s.failed {
			// Only the first failure is logged.
			s.failed = true
			s.log.WithError(err).Warn("display write failed")
		}
		s.sleep(s.dwell)
	}
}

// Run repeats Cycle until ctx is done. On a device ctx is never cancelled.
//
// The context is only checked between cycles.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.WithField("dwell", s.dwell).Debug("multiplexing started")
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		s.Cycle()
	}
}
