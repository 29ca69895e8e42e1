// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// segclock shows the time of day on a multiplexed 4-digit 7-segment display.
//
// The display lines are either host GPIOs, the outputs of a 74HC595 chain on
// SPI, or a simulated panel that can be watched in the terminal or in a
// browser. A display scanned by a MAX7219 is also supported. The time comes
// from a DS1307 kept in sync with a JSON time service, or from one of the
// demo sources (toggle, counter).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/segclock/button"
	"github.com/GermanBionicSystems/segclock/config"
	"github.com/GermanBionicSystems/segclock/dbgserial"
	"github.com/GermanBionicSystems/segclock/ds1307"
	"github.com/GermanBionicSystems/segclock/netsync"
	"github.com/GermanBionicSystems/segclock/preview"
	"github.com/GermanBionicSystems/segclock/sched"
	"github.com/GermanBionicSystems/segclock/segsim"
	"github.com/GermanBionicSystems/segclock/timereg"
	"github.com/GermanBionicSystems/segclock/timesource"
)

func mainImpl() error {
	cfgPath := flag.String("config", "", "YAML configuration file")
	sim := flag.Bool("sim", false, "draw a simulated display on the terminal instead of driving hardware")
	listen := flag.String("listen", "", "serve the simulated display as a PNG stream on this address, e.g. :8080")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			return err
		}
	}
	if *sim || *listen != "" {
		cfg.Display.Backend = config.BackendSim
		cfg.RTC.Kind = config.RTCSoft
		cfg.Preview.Terminal = *sim
		if *listen != "" {
			cfg.Preview.Listen = *listen
		}
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	lvl, _ := logrus.ParseLevel(cfg.Log.Level)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if _, err := host.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, cfg)
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logrus.StandardLogger()

	dbg, err := openDebug(&cfg.DebugSerial)
	if err != nil {
		return err
	}
	defer dbg.Close()

	reg := timereg.New(0)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g := sched.New(ctx, log)
	// Tasks are stopped before their devices are closed.
	var closers []func()
	defer func() {
		cancel()
		_ = g.Wait()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	panel, closeDisplay, err := startDisplay(g, &cfg.Display, reg, log)
	if err != nil {
		return err
	}
	closers = append(closers, closeDisplay)

	var onPress func()
	switch cfg.Variant {
	case config.VariantToggle:
		onPress = timesource.NewToggle(reg, cfg.Toggle.First, cfg.Toggle.Second).Press
	case config.VariantCounter:
		c := &timesource.Counter{Reg: reg, Period: cfg.Counter.Period}
		g.Go("counter", c.Run)
	case config.VariantRTC:
		clock, closeClock, err := openClock(cfg)
		if err != nil {
			return err
		}
		closers = append(closers, closeClock)
		f := &timesource.Follower{Clock: clock, Reg: reg, Interval: cfg.RTC.Interval, Log: log.WithField("task", "rtc")}
		if err := f.Update(); err != nil {
			log.WithError(err).Warn("reading the clock failed")
		}
		g.Go("rtc", f.Run)
		if cfg.Sync.Enabled {
			s := netsync.New(clock, dbg, &netsync.Opts{
				URL:      cfg.Sync.URL,
				Offset:   cfg.Sync.UTCOffset,
				Interval: cfg.Sync.Interval,
				Backoff:  cfg.Sync.Backoff,
				Timeout:  cfg.Sync.Timeout,
				Logger:   log.WithField("task", "sync"),
			})
			g.Go("sync", s.Run)
			onPress = s.Trigger
		}
	}

	if onPress != nil {
		if panel != nil {
			g.Go("button", keyboardButton(os.Stdin, onPress))
		} else {
			p := gpioreg.ByName(cfg.Button.Pin)
			if p == nil {
				return fmt.Errorf("button: no pin %q", cfg.Button.Pin)
			}
			btn, err := button.New(p, &button.Opts{ActiveHigh: cfg.Button.ActiveHigh, Interval: cfg.Button.Interval})
			if err != nil {
				return err
			}
			g.Go("button", func(ctx context.Context) error {
				return btn.Run(ctx, onPress)
			})
		}
	}

	if panel != nil && cfg.Preview.Terminal {
		scr := segsim.NewScreen(panel, nil)
		closers = append(closers, func() { _ = scr.Halt() })
		g.Go("screen", scr.Run)
	}
	if panel != nil && cfg.Preview.Listen != "" {
		h := preview.NewHandler(panel, &preview.HandlerOpts{
			Render: preview.Opts{Caption: true},
			Logger: log.WithField("task", "preview"),
		})
		g.Go("preview", serve(cfg.Preview.Listen, h))
		log.WithField("listen", cfg.Preview.Listen).Info("serving preview")
	}

	log.WithField("variant", cfg.Variant).Info("running")
	return g.Wait()
}

func openDebug(cfg *config.DebugSerialConfig) (*dbgserial.Port, error) {
	if cfg.Address == "" {
		return dbgserial.NewWriter(os.Stderr), nil
	}
	return dbgserial.Open(&dbgserial.Config{Address: cfg.Address, BaudRate: cfg.Baud})
}

func openClock(cfg *config.Config) (timesource.Clock, func(), error) {
	if cfg.RTC.Kind == config.RTCSoft {
		return timesource.NewSoftClock(cfg.Sync.UTCOffset), func() {}, nil
	}
	b, err := i2creg.Open(cfg.RTC.Bus)
	if err != nil {
		return nil, nil, err
	}
	d, err := ds1307.NewI2C(b, &ds1307.Opts{Addr: cfg.RTC.Addr})
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return d, func() { b.Close() }, nil
}

// keyboardButton presses the button on every line read from r.
func keyboardButton(r io.Reader, onPress func()) sched.Task {
	return func(ctx context.Context) error {
		lines := make(chan struct{})
		go func() {
			defer close(lines)
			buf := make([]byte, 256)
			for {
				n, err := r.Read(buf)
				for _, c := range buf[:n] {
					if c != '\n' {
						continue
					}
					select {
					case lines <- struct{}{}:
					case <-ctx.Done():
						return
					}
				}
				if err != nil {
					return
				}
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return nil
			case _, ok := <-lines:
				if !ok {
					<-ctx.Done()
					return nil
				}
				onPress()
			}
		}
	}
}

func serve(addr string, h http.Handler) sched.Task {
	return func(ctx context.Context) error {
		srv := &http.Server{Addr: addr, Handler: h}
		go func() {
			<-ctx.Done()
			srv.Close()
		}()
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func main() {
	if err := mainImpl(); err != nil {
		logrus.WithError(err).Fatal("segclock")
	}
}
