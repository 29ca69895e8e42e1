// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segsim simulates a multiplexed 4-digit 7-segment display.
//
// A Panel provides the twelve output lines a sevenseg.Dev drives and keeps
// what a human eye would see: each digit keeps glowing for a short
// persistence window after it was last lit. A Screen renders the panel to a
// terminal using ANSI colors.
package segsim

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

// DefaultPersistence approximates the persistence of vision.
const DefaultPersistence = 40 * time.Millisecond

const numLines = sevenseg.NumDigits + segment.NumSegments

// Opts configures a Panel.
type Opts struct {
	// Persistence is how long a digit stays visible after it was last lit.
	Persistence time.Duration
	// DigitActiveLow and SegmentActiveLow must match the sevenseg.Opts used
	// with the lines.
	DigitActiveLow   bool
	SegmentActiveLow bool
}

type latch struct {
	set segment.Set
	at  time.Time
}

// Panel is a simulated display.
type Panel struct {
	persistence time.Duration
	digitOn     gpio.Level
	segmentOn   gpio.Level
	now         func() time.Time

	mu      sync.Mutex
	levels  [numLines]gpio.Level
	latched [sevenseg.NumDigits]latch
	lines   sevenseg.Lines
}

// NewPanel returns a dark Panel.
func NewPanel(opts *Opts) *Panel {
	if opts == nil {
		opts = &Opts{}
	}
	p := &Panel{
		persistence: opts.Persistence,
		digitOn:     gpio.Level(!opts.DigitActiveLow),
		segmentOn:   gpio.Level(!opts.SegmentActiveLow),
		now:         time.Now,
	}
	if p.persistence <= 0 {
		p.persistence = DefaultPersistence
	}
	for i := range p.levels {
		p.levels[i] = !p.on(i)
	}
	for i := range p.lines.Digits {
		p.lines.Digits[i] = &line{p: p, n: i, name: fmt.Sprintf("SIM_DIG%d", i+1)}
	}
	for i := range p.lines.Segments {
		p.lines.Segments[i] = &line{p: p, n: sevenseg.NumDigits + i, name: "SIM_SEG" + strings.ToUpper(segment.Set(1<<i).String())}
	}
	return p
}

// Lines returns the panel's lines, ready for sevenseg.New.
func (p *Panel) Lines() *sevenseg.Lines {
	l := p.lines
	return &l
}

// Snapshot returns what is visible now, leftmost digit first. A digit not lit
// within the persistence window is blank.
func (p *Panel) Snapshot() [sevenseg.NumDigits]segment.Set {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	var out [sevenseg.NumDigits]segment.Set
	for i, l := range p.latched {
		if !l.at.IsZero() && now.Sub(l.at) <= p.persistence {
			out[sevenseg.NumDigits-1-i] = l.set
		}
	}
	return out
}

// Lit returns the segments currently driven on and the selected digit
// positions, ignoring persistence.
func (p *Panel) Lit() (segment.Set, []sevenseg.Position) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segmentsLocked(), p.selectedLocked()
}

func (p *Panel) String() string {
	return "segsim"
}

// Halt implements conn.Resource.
func (p *Panel) Halt() error {
	return nil
}

func (p *Panel) on(n int) gpio.Level {
	if n < sevenseg.NumDigits {
		return p.digitOn
	}
	return p.segmentOn
}

func (p *Panel) out(n int, l gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.levels[n] = l
	sel := p.selectedLocked()
	if len(sel) != 1 {
		return
	}
	p.latched[sel[0]-1] = latch{set: p.segmentsLocked(), at: p.now()}
}

func (p *Panel) selectedLocked() []sevenseg.Position {
	var sel []sevenseg.Position
	for i := 0; i < sevenseg.NumDigits; i++ {
		if p.levels[i] == p.digitOn {
			sel = append(sel, sevenseg.Position(i+1))
		}
	}
	return sel
}

func (p *Panel) segmentsLocked() segment.Set {
	var s segment.Set
	for i := 0; i < segment.NumSegments; i++ {
		if p.levels[sevenseg.NumDigits+i] == p.segmentOn {
			s |= 1 << i
		}
	}
	return s
}

// line is one simulated output line.
type line struct {
	p    *Panel
	n    int
	name string
}

func (l *line) String() string { return l.name }

// Halt implements conn.Resource.
func (l *line) Halt() error { return nil }

func (l *line) Name() string { return l.name }

func (l *line) Number() int { return l.n }

// Deprecated: returns "Out"
func (l *line) Function() string { return "Out" }

func (l *line) Out(v gpio.Level) error {
	l.p.out(l.n, v)
	return nil
}

// PWM is not supported.
func (l *line) PWM(gpio.Duty, physic.Frequency) error {
	return fmt.Errorf("segsim: %s: PWM not supported", l.name)
}

var _ gpio.PinOut = &line{}
var _ conn.Resource = &Panel{}
