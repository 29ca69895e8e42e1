// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timesource contains the tasks that write the displayed time into a
// timereg.Register.
//
// Exactly one source writes a given register.
package timesource

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/segclock/sched"
	"github.com/GermanBionicSystems/segclock/timereg"
)

// Clock is a real-time clock. *ds1307.Dev and *SoftClock implement it.
type Clock interface {
	// Now returns the wall clock time.
	Now() (time.Time, error)
	// Set changes the wall clock time.
	Set(t time.Time) error
}

// DefaultFollowInterval is how often a Follower reads its Clock.
const DefaultFollowInterval = 200 * time.Millisecond

// Follower copies the hour and minute of a Clock into a register.
type Follower struct {
	Clock    Clock
	Reg      *timereg.Register
	Interval time.Duration
	Log      logrus.FieldLogger
}

// Update reads the clock once and stores its value. On error the register
// keeps its previous value.
func (f *Follower) Update() error {
	t, err := f.Clock.Now()
	if err != nil {
		return err
	}
	f.Reg.Store(timereg.FromTime(t))
	return nil
}

// Run updates the register every Interval until ctx is done.
func (f *Follower) Run(ctx context.Context) error {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFollowInterval
	}
	log := f.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	failing := false
	for {
		err := f.Update()
		switch {
		case err != nil && !failing:
			log.WithError(err).Warn("clock read failed, keeping last time")
			failing = true
		case err == nil && failing:
			log.Info("clock read recovered")
			failing = false
		}
		if !sched.Sleep(ctx, interval) {
			return nil
		}
	}
}

// Toggle switches a register between two values each time Press is called.
type Toggle struct {
	mu   sync.Mutex
	reg  *timereg.Register
	a, b uint16
	onA  bool
}

// NewToggle stores a in reg and returns a Toggle between a and b.
func NewToggle(reg *timereg.Register, a, b uint16) *Toggle {
	reg.Store(a)
	return &Toggle{reg: reg, a: a, b: b, onA: true}
}

// Press stores the other value.
func (t *Toggle) Press() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onA = !t.onA
	if t.onA {
		t.reg.Store(t.a)
	} else {
		t.reg.Store(t.b)
	}
}

// Counter is a free running clock: it advances the register by one minute
// every Period, from 23:59 back to 00:00.
type Counter struct {
	Reg    *timereg.Register
	Period time.Duration
}

// Next returns the time one minute after v. Invalid values restart at 00:00.
func Next(v uint16) uint16 {
	if !timereg.Valid(v) {
		return 0
	}
	h, m := timereg.Split(v)
	m++
	if m == 60 {
		m = 0
		h = (h + 1) % 24
	}
	return timereg.Encode(h, m)
}

// Tick advances the register once.
func (c *Counter) Tick() {
	c.Reg.Store(Next(c.Reg.Load()))
}

// Run ticks every Period until ctx is done.
func (c *Counter) Run(ctx context.Context) error {
	period := c.Period
	if period <= 0 {
		period = time.Minute
	}
	for sched.Sleep(ctx, period) {
		c.Tick()
	}
	return nil
}

// SoftClock is a Clock kept by the host: the system time plus an offset
// changed by Set.
type SoftClock struct {
	mu     sync.Mutex
	offset time.Duration
	now    func() time.Time
}

// NewSoftClock returns a SoftClock whose wall clock is UTC shifted by zone.
func NewSoftClock(zone time.Duration) *SoftClock {
	return &SoftClock{offset: zone, now: time.Now}
}

// Now implements Clock. The result is located in UTC and carries wall clock
// fields, like a hardware RTC.
func (c *SoftClock) Now() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now().UTC().Add(c.offset).Truncate(time.Second), nil
}

// Set implements Clock.
func (c *SoftClock) Set(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	c.offset = wall.Sub(c.now().UTC())
	return nil
}
