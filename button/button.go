// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package button polls a push-button wired to a GPIO input.
//
// There is no debounce logic beyond the polling interval: contact bounce
// shorter than one interval is never seen.
package button

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultInterval is the default polling period.
const DefaultInterval = 10 * time.Millisecond

// Opts configures a Poller.
type Opts struct {
	// ActiveHigh is set when a pressed button pulls the line High. The
	// default is a button to ground with the internal pull-up enabled.
	ActiveHigh bool
	// Interval is the polling period. Defaults to DefaultInterval.
	Interval time.Duration
}

// Poller reads a button.
type Poller struct {
	pin      gpio.PinIn
	pressed  gpio.Level
	interval time.Duration
}

// New configures pin as an input and returns a Poller for it.
func New(pin gpio.PinIn, opts *Opts) (*Poller, error) {
	if pin == nil {
		return nil, errors.New("button: no pin")
	}
	if opts == nil {
		opts = &Opts{}
	}
	pull := gpio.PullUp
	if opts.ActiveHigh {
		pull = gpio.PullDown
	}
	if err := pin.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("button: %w", err)
	}
	p := &Poller{pin: pin, pressed: gpio.Level(opts.ActiveHigh), interval: opts.Interval}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	return p, nil
}

// Pressed samples the button once.
func (p *Poller) Pressed() bool {
	return p.pin.Read() == p.pressed
}

// Run polls the button until ctx is done and calls onPress each time the
// button goes from released to pressed. Holding the button down calls
// onPress once.
func (p *Poller) Run(ctx context.Context, onPress func()) error {
	t := time.NewTicker(p.interval)
	defer t.Stop()
	was := p.Pressed()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			is := p.Pressed()
			if is && !was {
				onPress()
			}
			was = is
		}
	}
}

func (p *Poller) String() string {
	return fmt.Sprintf("button{%s}", p.pin.Name())
}
