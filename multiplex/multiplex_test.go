// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package multiplex

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
	"github.com/GermanBionicSystems/segclock/timereg"
)

type step struct {
	Pos   sevenseg.Position
	Value segment.Value
	Dwell time.Duration
}

// recorder is a Displayer that logs calls, and the sleep hook of a Scanner.
type recorder struct {
	steps []step
	err   error
}

func (r *recorder) Show(pos sevenseg.Position, v segment.Value) error {
	r.steps = append(r.steps, step{Pos: pos, Value: v})
	return r.err
}

func (r *recorder) sleep(d time.Duration) {
	r.steps[len(r.steps)-1].Dwell = d
}

func newScanner(t *testing.T, r *recorder, src Source) *Scanner {
	logger, _ := test.NewNullLogger()
	s := New(r, src, &Opts{Logger: logger})
	s.sleep = r.sleep
	return s
}

func TestDecompose(t *testing.T) {
	for v := uint16(0); v <= timereg.Max; v++ {
		f := Decompose(v)
		for i, d := range f {
			if d < 0 || d > 9 {
				t.Fatalf("Decompose(%d)[%d] = %d", v, i, d)
			}
		}
		if got := f.Value(); got != v {
			t.Fatalf("Decompose(%d).Value() = %d", v, got)
		}
	}
	if diff := cmp.Diff(Frame{1, 2, 3, 4}, Decompose(1234)); diff != "" {
		t.Errorf("Decompose(1234) (-want +got):\n%s", diff)
	}
}

func TestPosition(t *testing.T) {
	var got []sevenseg.Position
	for i := range sevenseg.NumDigits {
		got = append(got, Position(i))
	}
	if diff := cmp.Diff([]sevenseg.Position{4, 3, 2, 1}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCycle(t *testing.T) {
	tests := []struct {
		name  string
		value uint16
		want  []step
	}{
		{
			name:  "1234",
			value: 1234,
			want: []step{
				{4, 1, DefaultDwell},
				{3, 2, DefaultDwell},
				{2, 3, DefaultDwell},
				{1, 4, DefaultDwell},
			},
		},
		{
			name:  "leading zeros",
			value: 0,
			want: []step{
				{4, 0, DefaultDwell},
				{3, 0, DefaultDwell},
				{2, 0, DefaultDwell},
				{1, 0, DefaultDwell},
			},
		},
		{
			name:  "0905",
			value: 905,
			want: []step{
				{4, 0, DefaultDwell},
				{3, 9, DefaultDwell},
				{2, 0, DefaultDwell},
				{1, 5, DefaultDwell},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &recorder{}
			s := newScanner(t, r, timereg.New(tc.value))
			// The scan repeats identically.
			var want []step
			for range 3 {
				s.Cycle()
				want = append(want, tc.want...)
			}
			if diff := cmp.Diff(want, r.steps); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

// TestCycle_sampledOnce changes the register after the first digit; the rest
// of the scan still shows the old value.
func TestCycle_sampledOnce(t *testing.T) {
	reg := timereg.New(1234)
	r := &recorder{}
	s := newScanner(t, r, reg)
	s.sleep = func(d time.Duration) {
		r.sleep(d)
		reg.Store(2359)
	}
	s.Cycle()
	s.Cycle()
	var got []segment.Value
	for _, st := range r.steps {
		got = append(got, st.Value)
	}
	if diff := cmp.Diff([]segment.Value{1, 2, 3, 4, 2, 3, 5, 9}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCycle_dwell(t *testing.T) {
	r := &recorder{}
	logger, _ := test.NewNullLogger()
	s := New(r, timereg.New(1), &Opts{Dwell: 2 * time.Millisecond, Logger: logger})
	s.sleep = r.sleep
	s.Cycle()
	for _, st := range r.steps {
		if st.Dwell != 2*time.Millisecond {
			t.Errorf("dwell %s", st.Dwell)
		}
	}
	if s.Dwell() != 2*time.Millisecond {
		t.Errorf("Dwell() = %s", s.Dwell())
	}
}

func TestCycle_errorLoggedOnce(t *testing.T) {
	r := &recorder{err: errors.New("stuck")}
	logger, hook := test.NewNullLogger()
	s := New(r, timereg.New(1234), &Opts{Logger: logger})
	s.sleep = r.sleep
	s.Cycle()
	s.Cycle()
	if len(r.steps) != 8 {
		t.Errorf("scan stopped after an error: %d steps", len(r.steps))
	}
	if n := len(hook.AllEntries()); n != 1 {
		t.Errorf("%d log entries, want 1", n)
	}
}

func TestRun(t *testing.T) {
	r := &recorder{}
	s := newScanner(t, r, timereg.New(42))
	ctx, cancel := context.WithCancel(context.Background())
	cycles := 0
	s.sleep = func(d time.Duration) {
		r.sleep(d)
		if len(r.steps)%sevenseg.NumDigits == 0 {
			cycles++
			if cycles == 5 {
				cancel()
			}
		}
	}
	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if len(r.steps) != 5*sevenseg.NumDigits {
		t.Errorf("Run() made %d steps; the context is only checked between cycles", len(r.steps))
	}
}

// TestScan_lines drives a real sevenseg.Dev and checks each frame the lines
// show while the digit dwells.
func TestScan_lines(t *testing.T) {
	var lines sevenseg.Lines
	var digits [sevenseg.NumDigits]*gpiotest.Pin
	var segs [segment.NumSegments]*gpiotest.Pin
	for i := range digits {
		digits[i] = &gpiotest.Pin{N: fmt.Sprintf("D%d", i+1)}
		lines.Digits[i] = digits[i]
	}
	for i := range segs {
		segs[i] = &gpiotest.Pin{N: fmt.Sprintf("S%d", i)}
		lines.Segments[i] = segs[i]
	}
	dev, err := sevenseg.New(&lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	type frame struct {
		Digits []int
		Lit    segment.Set
	}
	var got []frame
	logger, _ := test.NewNullLogger()
	s := New(dev, timereg.New(1234), &Opts{Logger: logger})
	s.sleep = func(time.Duration) {
		var f frame
		for i, p := range digits {
			if p.Read() == gpio.High {
				f.Digits = append(f.Digits, i+1)
			}
		}
		for i, p := range segs {
			if p.Read() == gpio.High {
				f.Lit |= 1 << i
			}
		}
		got = append(got, f)
	}
	s.Cycle()
	want := []frame{
		{[]int{4}, segment.PatternFor(1)},
		{[]int{3}, segment.PatternFor(2)},
		{[]int{2}, segment.PatternFor(3)},
		{[]int{1}, segment.PatternFor(4)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}
