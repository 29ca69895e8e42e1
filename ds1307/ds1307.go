// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds1307 controls a Maxim DS1307 battery backed real-time clock over
// I²C.
//
// # Datasheet
//
// https://www.analog.com/media/en/technical-documentation/data-sheets/DS1307.pdf
package ds1307

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// DefaultAddr is the fixed I²C address of the DS1307.
const DefaultAddr uint16 = 0x68

const (
	regSeconds byte = 0x00
	regControl byte = 0x07

	// Clock halt, bit 7 of the seconds register.
	bitCH byte = 0x80
	// 12 hour mode and PM flags of the hours register.
	bit12h byte = 0x40
	bitPM  byte = 0x20

	// The DS1307 only stores a 2-digit year.
	century = 2000
)

// ErrYearOutOfRange is returned by Set for a time outside 2000 to 2099.
var ErrYearOutOfRange = errors.New("ds1307: year out of range")

// Opts holds the configuration options.
type Opts struct {
	// Addr overrides DefaultAddr.
	Addr uint16
}

// Dev is a handle to a DS1307.
//
// The clock keeps wall clock fields with no time zone. Now returns them in a
// time.Time located in UTC and Set stores the fields of t as they are.
type Dev struct {
	mu sync.Mutex
	d  *i2c.Dev
}

// NewI2C returns a Dev on bus b. It starts the oscillator if it was halted
// and turns off the square-wave output.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	addr := DefaultAddr
	if opts != nil && opts.Addr != 0 {
		addr = opts.Addr
	}
	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}}
	if err := d.init(); err != nil {
		return nil, fmt.Errorf("ds1307: %w", err)
	}
	return d, nil
}

func (d *Dev) init() error {
	r := []byte{0}
	if err := d.d.Tx([]byte{regSeconds}, r); err != nil {
		return err
	}
	if r[0]&bitCH != 0 {
		if err := d.d.Tx([]byte{regSeconds, r[0] &^ bitCH}, nil); err != nil {
			return err
		}
	}
	return d.d.Tx([]byte{regControl, 0x00}, nil)
}

// Now returns the current time, to the second.
func (d *Dev) Now() (time.Time, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := make([]byte, 7)
	if err := d.d.Tx([]byte{regSeconds}, r); err != nil {
		return time.Time{}, fmt.Errorf("ds1307: %w", err)
	}
	return time.Date(
		century+fromBCD(r[6]),
		time.Month(fromBCD(r[5]&0x1f)),
		fromBCD(r[4]&0x3f),
		decodeHour(r[2]),
		fromBCD(r[1]&0x7f),
		fromBCD(r[0]&^bitCH),
		0, time.UTC), nil
}

// Set stores the wall clock fields of t, rounded to the nearest second.
func (d *Dev) Set(t time.Time) error {
	t = t.Round(time.Second)
	if t.Year() < century || t.Year() >= century+100 {
		return ErrYearOutOfRange
	}
	w := []byte{
		regSeconds,
		toBCD(t.Second()),
		toBCD(t.Minute()),
		toBCD(t.Hour()),
		toBCD(int(t.Weekday()) + 1),
		toBCD(t.Day()),
		toBCD(int(t.Month())),
		toBCD(t.Year() - century),
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("ds1307: %w", err)
	}
	return nil
}

// Halt implements conn.Resource. The clock keeps running on its battery.
func (d *Dev) Halt() error {
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("DS1307{%s}", d.d)
}

// decodeHour handles both the 24 hour and the 12 hour register formats.
func decodeHour(b byte) int {
	if b&bit12h == 0 {
		return fromBCD(b & 0x3f)
	}
	h := fromBCD(b & 0x1f)
	if h == 12 {
		h = 0
	}
	if b&bitPM != 0 {
		h += 12
	}
	return h
}

func fromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0f)
}

func toBCD(v int) byte {
	return byte(v/10)<<4 | byte(v%10)
}

var _ conn.Resource = &Dev{}
