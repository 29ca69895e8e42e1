// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package timereg

import (
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	if v := New(1234).Load(); v != 1234 {
		t.Errorf("Load() = %d", v)
	}
	var r Register
	if v := r.Load(); v != 0 {
		t.Errorf("zero Register Load() = %d", v)
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		hour, minute int
		want         uint16
	}{
		{0, 0, 0},
		{12, 34, 1234},
		{23, 59, Max},
		{9, 5, 905},
	}
	for _, tc := range tests {
		v := Encode(tc.hour, tc.minute)
		if v != tc.want {
			t.Errorf("Encode(%d, %d) = %d, want %d", tc.hour, tc.minute, v, tc.want)
		}
		if h, m := Split(v); h != tc.hour || m != tc.minute {
			t.Errorf("Split(%d) = %d, %d", v, h, m)
		}
	}
}

func TestFromTime(t *testing.T) {
	ts := time.Date(2024, time.March, 1, 21, 7, 59, 0, time.UTC)
	if v := FromTime(ts); v != 2107 {
		t.Errorf("FromTime() = %d", v)
	}
}

func TestValid(t *testing.T) {
	for _, v := range []uint16{0, 59, 100, 1234, Max} {
		if !Valid(v) {
			t.Errorf("Valid(%d) = false", v)
		}
	}
	for _, v := range []uint16{60, 2400, 1360, 9999} {
		if Valid(v) {
			t.Errorf("Valid(%d) = true", v)
		}
	}
}

// TestConcurrent stores patterns whose two bytes always match, so a torn
// read shows up as a value with mismatched halves.
func TestConcurrent(t *testing.T) {
	r := New(0)
	patterns := []uint16{0x0000, 0xffff, 0x5555, 0xaaaa, 0x0f0f, 0xf0f0, 0x3333, 0xcccc}
	valid := map[uint16]bool{}
	for _, p := range patterns {
		valid[p] = true
	}

	const n = 200000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range n {
			r.Store(patterns[i%len(patterns)])
		}
	}()
	bad := 0
	go func() {
		defer wg.Done()
		for range n {
			if v := r.Load(); !valid[v] {
				bad++
			}
		}
	}()
	wg.Wait()
	if bad != 0 {
		t.Errorf("%d loads returned a value that was never stored", bad)
	}
}
