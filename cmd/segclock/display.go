// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/GermanBionicSystems/segclock/config"
	"github.com/GermanBionicSystems/segclock/max7219"
	"github.com/GermanBionicSystems/segclock/multiplex"
	"github.com/GermanBionicSystems/segclock/sched"
	"github.com/GermanBionicSystems/segclock/segsim"
	"github.com/GermanBionicSystems/segclock/sevenseg"
	"github.com/GermanBionicSystems/segclock/shiftreg"
	"github.com/GermanBionicSystems/segclock/timereg"
)

// startDisplay opens the configured display and starts the task showing reg
// on it. panel is only set for the sim backend.
func startDisplay(g *sched.Group, cfg *config.DisplayConfig, reg *timereg.Register, log logrus.FieldLogger) (panel *segsim.Panel, closeFn func(), err error) {
	if cfg.Backend == config.BackendMAX7219 {
		p, err := spireg.Open(cfg.MAX7219.Port)
		if err != nil {
			return nil, nil, err
		}
		d, err := max7219.NewSPI(p, &max7219.Opts{Intensity: cfg.MAX7219.Intensity})
		if err != nil {
			p.Close()
			return nil, nil, err
		}
		log.WithField("display", d).Info("display ready")
		g.Go("display", func(ctx context.Context) error {
			return d.Run(ctx, reg, 0)
		})
		return nil, func() {
			d.Halt()
			p.Close()
		}, nil
	}

	lines, panel, closeLines, err := openLines(cfg)
	if err != nil {
		return nil, nil, err
	}
	disp, err := sevenseg.New(lines, &sevenseg.Opts{
		DigitActiveLow:   cfg.DigitActiveLow,
		SegmentActiveLow: cfg.SegmentActiveLow,
	})
	if err != nil {
		closeLines()
		return nil, nil, err
	}
	log.WithField("display", disp).Info("display ready")
	scanner := multiplex.New(disp, reg, &multiplex.Opts{Dwell: cfg.Dwell, Logger: log.WithField("task", "multiplex")})
	g.Go("multiplex", scanner.Run)
	return panel, func() {
		disp.Halt()
		closeLines()
	}, nil
}

// openLines returns the twelve display lines of a line-driven backend.
func openLines(cfg *config.DisplayConfig) (lines *sevenseg.Lines, panel *segsim.Panel, closeFn func(), err error) {
	switch cfg.Backend {
	case config.BackendGPIO:
		lines = &sevenseg.Lines{}
		for i, name := range cfg.Digits {
			if lines.Digits[i], err = pinByName(name); err != nil {
				return nil, nil, nil, err
			}
		}
		for i, name := range cfg.Segments {
			if lines.Segments[i], err = pinByName(name); err != nil {
				return nil, nil, nil, err
			}
		}
		return lines, nil, func() {}, nil

	case config.BackendShiftReg:
		p, err := spireg.Open(cfg.ShiftReg.Port)
		if err != nil {
			return nil, nil, nil, err
		}
		c, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
		if err != nil {
			p.Close()
			return nil, nil, nil, err
		}
		d, err := shiftreg.New(c, cfg.ShiftReg.Chips)
		if err != nil {
			p.Close()
			return nil, nil, nil, err
		}
		lines = &sevenseg.Lines{}
		copy(lines.Digits[:], d.Pins[:sevenseg.NumDigits])
		copy(lines.Segments[:], d.Pins[shiftreg.PinsPerChip:])
		return lines, nil, func() { p.Close() }, nil

	case config.BackendSim:
		panel = segsim.NewPanel(&segsim.Opts{
			Persistence:      cfg.Persistence,
			DigitActiveLow:   cfg.DigitActiveLow,
			SegmentActiveLow: cfg.SegmentActiveLow,
		})
		return panel.Lines(), panel, func() {}, nil
	}
	return nil, nil, nil, fmt.Errorf("display: unknown backend %q", cfg.Backend)
}

func pinByName(name string) (gpio.PinOut, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("display: no pin %q", name)
	}
	return p, nil
}
