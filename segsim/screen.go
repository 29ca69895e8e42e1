// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package segsim

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"time"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

// DefaultRefresh is the Screen redraw interval.
const DefaultRefresh = 50 * time.Millisecond

// Rows is the height of a rendered frame, in terminal lines.
const Rows = 5

// Source provides frames to draw, leftmost digit first.
type Source interface {
	Snapshot() [sevenseg.NumDigits]segment.Set
}

// ScreenOpts configures a Screen. Zero fields take defaults.
type ScreenOpts struct {
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// On and Off are the lit and unlit segment colors; the zero value
	// selects bright red on dark grey.
	On      color.NRGBA
	Off     color.NRGBA
	Refresh time.Duration
}

// Screen draws frames on a terminal with colored blocks. Each digit is a
// grid of 5 columns by Rows lines; the last column holds the decimal point.
type Screen struct {
	src     Source
	w       io.Writer
	on, off string
	refresh time.Duration

	drawn bool
	buf   bytes.Buffer
}

// cells maps each segment to the cells it lights, as {row, column}.
var cells = [segment.NumSegments][][2]int{
	{{0, 1}, {0, 2}}, // a
	{{1, 3}},         // b
	{{3, 3}},         // c
	{{4, 1}, {4, 2}}, // d
	{{3, 0}},         // e
	{{1, 0}},         // f
	{{2, 1}, {2, 2}}, // g
	{{4, 4}},         // dp
}

// NewScreen returns a Screen drawing src.
func NewScreen(src Source, opts *ScreenOpts) *Screen {
	if opts == nil {
		opts = &ScreenOpts{}
	}
	pal := opts.Palette
	if pal == nil {
		pal = ansi256.Default
	}
	on, off := opts.On, opts.Off
	if on == (color.NRGBA{}) {
		on = color.NRGBA{R: 255, A: 255}
	}
	if off == (color.NRGBA{}) {
		off = color.NRGBA{R: 48, G: 48, B: 48, A: 255}
	}
	s := &Screen{
		src:     src,
		w:       opts.W,
		on:      pal.Block(on),
		off:     pal.Block(off),
		refresh: opts.Refresh,
	}
	if s.w == nil {
		s.w = colorable.NewColorableStdout()
	}
	if s.refresh <= 0 {
		s.refresh = DefaultRefresh
	}
	return s
}

// Draw renders frame, replacing the previously drawn one.
func (s *Screen) Draw(frame [sevenseg.NumDigits]segment.Set) error {
	var grid [Rows][sevenseg.NumDigits][5]bool
	for d, set := range frame {
		for seg, cs := range cells {
			if set&(1<<seg) == 0 {
				continue
			}
			for _, c := range cs {
				grid[c[0]][d][c[1]] = true
			}
		}
	}
	s.buf.Reset()
	if s.drawn {
		fmt.Fprintf(&s.buf, "\033[%dA", Rows)
	}
	for r := range grid {
		_, _ = s.buf.WriteString("\r\033[0m")
		for d := range grid[r] {
			for _, lit := range grid[r][d] {
				if lit {
					_, _ = s.buf.WriteString(s.on)
				} else {
					_, _ = s.buf.WriteString(s.off)
				}
			}
			_, _ = s.buf.WriteString("\033[0m  ")
		}
		_, _ = s.buf.WriteString("\n")
	}
	s.drawn = true
	_, err := s.buf.WriteTo(s.w)
	return err
}

// Run redraws the source every refresh interval until ctx is done.
func (s *Screen) Run(ctx context.Context) error {
	t := time.NewTicker(s.refresh)
	defer t.Stop()
	for {
		if err := s.Draw(s.src.Snapshot()); err != nil {
			return fmt.Errorf("segsim: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (s *Screen) String() string {
	return "segsim.Screen"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors.
func (s *Screen) Halt() error {
	_, err := io.WriteString(s.w, "\033[0m")
	return err
}
