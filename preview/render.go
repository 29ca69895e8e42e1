// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package preview renders a 4-digit 7-segment display as an image and serves
// it over HTTP, either as a single PNG or as a never ending
// multipart/x-mixed-replace stream that browsers show as live video.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

// Frame is what the display shows, leftmost digit first.
type Frame [sevenseg.NumDigits]segment.Set

// Opts controls rendering. Zero fields take defaults.
type Opts struct {
	Width  int
	Height int
	// On and Off color lit and dark segments.
	On, Off    color.Color
	Background color.Color
	// Caption adds the displayed characters as text below the digits.
	Caption bool
	// FontSize of the caption, in points.
	FontSize float64
}

const (
	defaultWidth    = 400
	defaultHeight   = 160
	defaultFontSize = 14
)

func (o *Opts) withDefaults() Opts {
	r := Opts{}
	if o != nil {
		r = *o
	}
	if r.Width <= 0 {
		r.Width = defaultWidth
	}
	if r.Height <= 0 {
		r.Height = defaultHeight
	}
	if r.On == nil {
		r.On = color.NRGBA{R: 255, G: 32, B: 16, A: 255}
	}
	if r.Off == nil {
		r.Off = color.NRGBA{R: 48, G: 16, B: 16, A: 255}
	}
	if r.Background == nil {
		r.Background = color.Black
	}
	if r.FontSize <= 0 {
		r.FontSize = defaultFontSize
	}
	return r
}

var (
	fontOnce sync.Once
	goFont   *truetype.Font
	fontErr  error
)

// newFace returns a Go Regular face. Faces are not safe for concurrent use so
// each render gets its own.
func newFace(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		goFont, fontErr = truetype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return nil, fmt.Errorf("preview: %w", fontErr)
	}
	return truetype.NewFace(goFont, &truetype.Options{Size: size}), nil
}

type rect struct {
	x, y, w, h float64
}

func (r rect) center() (float64, float64) {
	return r.x + r.w/2, r.y + r.h/2
}

// layout is the geometry of one rendering.
type layout struct {
	cell      float64
	thickness float64
	margin    float64
	digitW    float64
	digitH    float64
	caption   float64
}

func newLayout(o *Opts) layout {
	l := layout{cell: float64(o.Width) / sevenseg.NumDigits}
	if o.Caption {
		l.caption = o.FontSize * 2
	}
	l.margin = l.cell * 0.15
	l.thickness = l.cell * 0.1
	l.digitW = l.cell - 2*l.margin - l.thickness
	l.digitH = float64(o.Height) - l.caption - 2*l.margin
	return l
}

// segment returns the rectangle of segment s of digit d, s in 0..6. The
// decimal point is drawn as a circle, see dot.
func (l *layout) segment(d, s int) rect {
	x0 := float64(d)*l.cell + l.margin
	y0 := l.margin
	t, w, h := l.thickness, l.digitW, l.digitH
	half := h/2 - 1.5*t
	switch s {
	case 0:
		return rect{x0 + t, y0, w - 2*t, t}
	case 1:
		return rect{x0 + w - t, y0 + t, t, half}
	case 2:
		return rect{x0 + w - t, y0 + h/2 + t/2, t, half}
	case 3:
		return rect{x0 + t, y0 + h - t, w - 2*t, t}
	case 4:
		return rect{x0, y0 + h/2 + t/2, t, half}
	case 5:
		return rect{x0, y0 + t, t, half}
	default:
		return rect{x0 + t, y0 + h/2 - t/2, w - 2*t, t}
	}
}

// dot returns the center and radius of the decimal point of digit d.
func (l *layout) dot(d int) (float64, float64, float64) {
	x0 := float64(d)*l.cell + l.margin
	return x0 + l.digitW + l.thickness*0.8, l.margin + l.digitH - l.thickness/2, l.thickness / 2
}

// Render draws f.
func Render(f Frame, opts *Opts) (image.Image, error) {
	o := opts.withDefaults()
	l := newLayout(&o)
	dc := gg.NewContext(o.Width, o.Height)
	dc.SetColor(o.Background)
	dc.Clear()
	for d, set := range f {
		for s := 0; s < segment.NumSegments-1; s++ {
			r := l.segment(d, s)
			dc.DrawRectangle(r.x, r.y, r.w, r.h)
			dc.SetColor(pick(set.Has(1<<s), &o))
			dc.Fill()
		}
		x, y, rad := l.dot(d)
		dc.DrawCircle(x, y, rad)
		dc.SetColor(pick(set.Has(segment.DP), &o))
		dc.Fill()
	}
	if o.Caption {
		face, err := newFace(o.FontSize)
		if err != nil {
			return nil, err
		}
		defer face.Close()
		dc.SetFontFace(face)
		dc.SetColor(o.On)
		dc.DrawStringAnchored(Text(f), float64(o.Width)/2, float64(o.Height)-l.caption/2, 0.5, 0.5)
	}
	return dc.Image(), nil
}

// Text returns the characters shown by f, with decimal points after the digit
// that carries them.
func Text(f Frame) string {
	var b strings.Builder
	for _, set := range f {
		if set != segment.DP {
			b.WriteRune((set &^ segment.DP).Rune())
		}
		if set.Has(segment.DP) {
			b.WriteRune('.')
		}
	}
	return b.String()
}

func pick(lit bool, o *Opts) color.Color {
	if lit {
		return o.On
	}
	return o.Off
}
