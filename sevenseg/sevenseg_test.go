// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sevenseg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/segclock/segment"
)

type testLines struct {
	digits   [NumDigits]*gpiotest.Pin
	segments [segment.NumSegments]*gpiotest.Pin
}

func newTestLines() (*testLines, *Lines) {
	tl := &testLines{}
	l := &Lines{}
	for i := range tl.digits {
		tl.digits[i] = &gpiotest.Pin{N: fmt.Sprintf("DIG%d", i+1), Num: i}
		l.Digits[i] = tl.digits[i]
	}
	for i, name := range []string{"A", "B", "C", "D", "E", "F", "G", "DP"} {
		tl.segments[i] = &gpiotest.Pin{N: name, Num: 10 + i}
		l.Segments[i] = tl.segments[i]
	}
	return tl, l
}

// state returns which digit lines and segments are at the given levels.
func (tl *testLines) state(digitOn, segmentOn gpio.Level) ([]int, segment.Set) {
	var active []int
	for i, p := range tl.digits {
		if p.Read() == digitOn {
			active = append(active, i+1)
		}
	}
	var lit segment.Set
	for i, p := range tl.segments {
		if p.Read() == segmentOn {
			lit |= 1 << i
		}
	}
	return active, lit
}

func (tl *testLines) setAll(l gpio.Level) {
	for _, p := range tl.digits {
		_ = p.Out(l)
	}
	for _, p := range tl.segments {
		_ = p.Out(l)
	}
}

func TestNew(t *testing.T) {
	tl, lines := newTestLines()
	tl.setAll(gpio.High)
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	active, lit := tl.state(gpio.High, gpio.High)
	if len(active) != 0 || lit != segment.BlankPattern {
		t.Errorf("New() left digits %v and segments %s on", active, lit)
	}
	if s := dev.String(); s != "sevenseg{DIG1,DIG2,DIG3,DIG4}" {
		t.Errorf("String() = %q", s)
	}
}

func TestNew_badLines(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("expected error for nil lines")
	}

	_, lines := newTestLines()
	lines.Segments[7] = nil
	if _, err := New(lines, nil); err == nil {
		t.Error("expected error for a missing line")
	}

	_, lines = newTestLines()
	lines.Segments[3] = lines.Digits[0]
	if _, err := New(lines, nil); err == nil {
		t.Error("expected error for a line used twice")
	}
}

// TestShow checks the post-condition of Show for every position and value,
// starting from every line active.
func TestShow(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	for pos := Position(1); pos <= NumDigits; pos++ {
		for v := segment.Value(-1); v <= segment.Blank+1; v++ {
			tl.setAll(gpio.High)
			if err := dev.Show(pos, v); err != nil {
				t.Fatal(err)
			}
			active, lit := tl.state(gpio.High, gpio.High)
			if diff := cmp.Diff([]int{int(pos)}, active); diff != "" {
				t.Errorf("Show(%d, %d) digits (-want +got):\n%s", pos, v, diff)
			}
			if want := segment.PatternFor(v); lit != want {
				t.Errorf("Show(%d, %d) lit %s, want %s", pos, v, lit, want)
			}
		}
	}
}

func TestShow_activeLow(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, &Opts{DigitActiveLow: true, SegmentActiveLow: true})
	if err != nil {
		t.Fatal(err)
	}
	active, lit := tl.state(gpio.Low, gpio.Low)
	if len(active) != 0 || lit != segment.BlankPattern {
		t.Fatalf("New() left digits %v and segments %s on", active, lit)
	}
	if err := dev.Show(3, 7); err != nil {
		t.Fatal(err)
	}
	active, lit = tl.state(gpio.Low, gpio.Low)
	if diff := cmp.Diff([]int{3}, active); diff != "" {
		t.Errorf("digits (-want +got):\n%s", diff)
	}
	if lit != segment.PatternFor(7) {
		t.Errorf("lit %s", lit)
	}
}

func TestShow_sequence(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = dev.Show(4, 8)
	_ = dev.Show(1, 1)
	active, lit := tl.state(gpio.High, gpio.High)
	if diff := cmp.Diff([]int{1}, active); diff != "" {
		t.Errorf("digits (-want +got):\n%s", diff)
	}
	if lit != segment.PatternFor(1) {
		t.Errorf("segments of 8 survived: %s", lit)
	}
}

func TestShow_badPosition(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = dev.Show(2, 2)
	for _, pos := range []Position{0, 5, -1} {
		if err := dev.Show(pos, 5); !errors.Is(err, ErrPosition) {
			t.Errorf("Show(%d) = %v", pos, err)
		}
		active, lit := tl.state(gpio.High, gpio.High)
		if len(active) != 0 || lit != segment.BlankPattern {
			t.Errorf("Show(%d) left digits %v and segments %s on", pos, active, lit)
		}
	}
}

type failingPin struct {
	gpiotest.Pin
}

var errStuck = errors.New("stuck")

func (p *failingPin) Out(l gpio.Level) error {
	return errStuck
}

func (p *failingPin) PWM(gpio.Duty, physic.Frequency) error {
	return errStuck
}

func TestShow_lineError(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	dev.segments[0] = &failingPin{Pin: gpiotest.Pin{N: "A"}}
	if err := dev.Show(2, 8); !errors.Is(err, errStuck) {
		t.Errorf("Show() = %v", err)
	}
	// The rest of the sequence still ran.
	active, lit := tl.state(gpio.High, gpio.High)
	if diff := cmp.Diff([]int{2}, active); diff != "" {
		t.Errorf("digits (-want +got):\n%s", diff)
	}
	if want := segment.PatternFor(8) &^ segment.A; lit != want {
		t.Errorf("lit %s, want %s", lit, want)
	}
}

func TestHalt(t *testing.T) {
	tl, lines := newTestLines()
	dev, err := New(lines, nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = dev.Show(4, 0)
	if err := dev.Halt(); err != nil {
		t.Fatal(err)
	}
	active, lit := tl.state(gpio.High, gpio.High)
	if len(active) != 0 || lit != segment.BlankPattern {
		t.Errorf("Halt() left digits %v and segments %s on", active, lit)
	}
}
