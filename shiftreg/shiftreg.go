// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package shiftreg drives a chain of cascaded 74HC595 serial shift registers
// over SPI and exposes every parallel output as a gpio.PinOut.
//
// This lets a display whose twelve lines hang off two chained chips be
// driven with the same code as one wired straight to the host's GPIOs.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
package shiftreg

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	devName = "74HC595"
	// PinsPerChip is the number of outputs of one chip.
	PinsPerChip = 8
	// MaxChips is the longest supported chain.
	MaxChips = 8
)

// ErrNotImplemented is returned by PWM.
var ErrNotImplemented = errors.New("shiftreg: not implemented")

// Dev is a chain of 74HC595 chips. Pins[0] is output QA of the chip nearest
// to the host.
type Dev struct {
	Pins []gpio.PinOut

	mu    sync.Mutex
	conn  spi.Conn
	chips int
	value uint64
	valid bool
}

// New returns a chain of chips cascaded on conn. Each chip's QH' feeds the
// next chip's serial input.
func New(c spi.Conn, chips int) (*Dev, error) {
	if chips < 1 || chips > MaxChips {
		return nil, fmt.Errorf("shiftreg: invalid chain length %d", chips)
	}
	d := &Dev{conn: c, chips: chips, Pins: make([]gpio.PinOut, chips*PinsPerChip)}
	for i := range d.Pins {
		d.Pins[i] = &output{d: d, n: i}
	}
	return d, nil
}

// Value returns the last value latched into the chain.
func (d *Dev) Value() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value
}

// Set drives output n of the chain, counted from QA of the chip nearest to
// the host. The chain is only shifted when the latched value changes.
func (d *Dev) Set(n int, l gpio.Level) error {
	if n < 0 || n >= d.chips*PinsPerChip {
		return fmt.Errorf("shiftreg: output %d is outside a chain of %d chips", n, d.chips)
	}
	mask := uint64(1) << n
	if !l {
		return d.write(0, mask)
	}
	return d.write(mask, mask)
}

// write updates the bits in mask and shifts the chain if the latched value
// changed.
func (d *Dev) write(value, mask uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return errors.New("shiftreg: halted")
	}
	n := (d.value &^ mask) | (value & mask)
	if d.valid && n == d.value {
		return nil
	}
	// The first byte shifted ends up in the farthest chip.
	w := make([]byte, d.chips)
	for i := range w {
		w[i] = byte(n >> (8 * (d.chips - 1 - i)))
	}
	if err := d.conn.Tx(w, nil); err != nil {
		return fmt.Errorf("shiftreg: %w", err)
	}
	d.value = n
	d.valid = true
	return nil
}

// Halt releases the bus. Pins return an error afterwards.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn = nil
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("%s{%d}", devName, d.chips)
}

// output is one parallel output of the chain.
type output struct {
	d *Dev
	n int
}

func (o *output) String() string {
	return o.Name()
}

// Halt implements conn.Resource.
func (o *output) Halt() error {
	return nil
}

// Name is e.g. "74HC595_1_QC" for output QC of the second chip.
func (o *output) Name() string {
	return fmt.Sprintf("%s_%d_Q%c", devName, o.n/PinsPerChip, 'A'+o.n%PinsPerChip)
}

func (o *output) Number() int {
	return o.n
}

// Deprecated: returns "Out"
func (o *output) Function() string {
	return "Out"
}

func (o *output) Out(l gpio.Level) error {
	return o.d.Set(o.n, l)
}

func (o *output) PWM(gpio.Duty, physic.Frequency) error {
	return ErrNotImplemented
}

var _ conn.Resource = &Dev{}
var _ gpio.PinOut = &output{}
