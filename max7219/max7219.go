// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package max7219 shows the time register on a 4-digit 7-segment display
// scanned by a Maxim MAX7219/MAX7221.
//
// The chip multiplexes the digits itself, so no dwell loop runs on the host:
// the digit registers are rewritten only when the displayed value changes.
// Registers are used in raw (no-decode) mode so the same patterns as the
// directly driven display are shown.
//
// # Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/MAX7219-MAX7221.pdf
package max7219

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/GermanBionicSystems/segclock/multiplex"
	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

const (
	regDecodeMode  byte = 0x9
	regIntensity   byte = 0xa
	regScanLimit   byte = 0xb
	regShutdown    byte = 0xc
	regDisplayTest byte = 0xf
)

// DefaultInterval is how often Run samples the register.
const DefaultInterval = 50 * time.Millisecond

// Opts holds the configuration options.
type Opts struct {
	// Intensity is the brightness, 0 to 15.
	Intensity byte
}

// Dev is a MAX7219 wired to the 4 digits of the display. DIG0 is position 1
// (rightmost).
type Dev struct {
	conn  spi.Conn
	shown [sevenseg.NumDigits]byte
	valid bool
}

// NewSPI returns a Dev on p. The display is blank when it returns.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{Intensity: 8}
	}
	if opts.Intensity > 15 {
		return nil, errors.New("max7219: intensity must be 0 to 15")
	}
	// It works in Mode0, Mode2 and Mode3.
	c, err := p.Connect(10*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("max7219: %w", err)
	}
	d := &Dev{conn: c}
	for _, cmd := range [][2]byte{
		{regDisplayTest, 0},
		{regShutdown, 0},
		{regDecodeMode, 0},
		{regIntensity, opts.Intensity},
		{regScanLimit, sevenseg.NumDigits - 1},
	} {
		if err := d.send(cmd[0], cmd[1]); err != nil {
			return nil, err
		}
	}
	if err := d.Show([sevenseg.NumDigits]segment.Set{}); err != nil {
		return nil, err
	}
	if err := d.send(regShutdown, 1); err != nil {
		return nil, err
	}
	return d, nil
}

// Raw converts s to the no-decode register layout: DP A B C D E F G from the
// most significant bit down.
func Raw(s segment.Set) byte {
	var b byte
	if s.Has(segment.DP) {
		b |= 0x80
	}
	for i := 0; i < 7; i++ {
		if s&(1<<i) != 0 {
			b |= 0x40 >> i
		}
	}
	return b
}

// Show writes frame, leftmost digit first. Digits that did not change are
// not written.
func (d *Dev) Show(frame [sevenseg.NumDigits]segment.Set) error {
	for i, s := range frame {
		b := Raw(s)
		if d.valid && d.shown[i] == b {
			continue
		}
		// frame[0] is DIG3.
		if err := d.send(byte(sevenseg.NumDigits-i), b); err != nil {
			d.valid = false
			return err
		}
		d.shown[i] = b
	}
	d.valid = true
	return nil
}

// ShowValue shows the time value v, as the scanned display would.
func (d *Dev) ShowValue(v uint16) error {
	f := multiplex.Decompose(v)
	var frame [sevenseg.NumDigits]segment.Set
	for i, x := range f {
		frame[i] = segment.PatternFor(x)
	}
	return d.Show(frame)
}

// Run shows src every interval until ctx is done. Write errors are returned.
func (d *Dev) Run(ctx context.Context, src multiplex.Source, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := d.ShowValue(src.Load()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// TestDisplay turns every segment on, at full intensity, or back off.
func (d *Dev) TestDisplay(on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	return d.send(regDisplayTest, v)
}

// Halt puts the chip in shutdown mode. Implements conn.Resource.
func (d *Dev) Halt() error {
	return d.send(regShutdown, 0)
}

func (d *Dev) String() string {
	return "MAX7219"
}

func (d *Dev) send(reg, data byte) error {
	if err := d.conn.Tx([]byte{reg, data}, nil); err != nil {
		return fmt.Errorf("max7219: %w", err)
	}
	return nil
}

var _ conn.Resource = &Dev{}
