// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package timereg holds the time value shared between the task that keeps
// the time and the task that refreshes the display.
//
// The value is encoded as hour*100 + minute, so 12:34 is stored as 1234.
package timereg

import (
	"sync/atomic"
	"time"
)

// Max is the largest valid encoded value, 23:59.
const Max uint16 = 2359

// Register is a single word store. Store and Load never block and a Load
// always returns a value that was passed to Store (or the initial value).
//
// A Register is meant to have one writer and one reader. It must not be
// copied after first use.
type Register struct {
	v atomic.Uint32
}

// New returns a Register holding initial.
func New(initial uint16) *Register {
	r := &Register{}
	r.Store(initial)
	return r
}

// Store replaces the value.
func (r *Register) Store(v uint16) {
	r.v.Store(uint32(v))
}

// Load returns the last stored value.
func (r *Register) Load() uint16 {
	return uint16(r.v.Load())
}

// Encode returns hour*100 + minute.
func Encode(hour, minute int) uint16 {
	return uint16(hour*100 + minute)
}

// FromTime encodes the wall clock hour and minute of t.
func FromTime(t time.Time) uint16 {
	return Encode(t.Hour(), t.Minute())
}

// Split is the inverse of Encode.
func Split(v uint16) (hour, minute int) {
	return int(v / 100), int(v % 100)
}

// Valid reports whether v encodes a time between 00:00 and 23:59.
func Valid(v uint16) bool {
	h, m := Split(v)
	return h < 24 && m < 60
}
