// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// MaxDwell bounds the per-digit dwell; longer makes the display flicker.
const MaxDwell = 5 * time.Millisecond

// MaxToggle is the largest value the toggle variant can show. Toggle values
// are plain 4-digit patterns, not times of day.
const MaxToggle = 9999

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
func Validate(cfg *Config) error {
	switch cfg.Variant {
	case VariantToggle:
		for _, v := range []uint16{cfg.Toggle.First, cfg.Toggle.Second} {
			if v > MaxToggle {
				return fmt.Errorf("toggle: %d does not fit on 4 digits", v)
			}
		}
	case VariantCounter:
		if cfg.Counter.Period <= 0 {
			return fmt.Errorf("counter: period must be positive")
		}
	case VariantRTC:
		if err := validateRTC(&cfg.RTC); err != nil {
			return err
		}
		if err := validateSync(&cfg.Sync); err != nil {
			return err
		}
	default:
		return fmt.Errorf("variant %q is not one of %s, %s, %s", cfg.Variant, VariantToggle, VariantCounter, VariantRTC)
	}
	if err := validateDisplay(&cfg.Display); err != nil {
		return err
	}
	if cfg.Variant != VariantCounter && cfg.Display.Backend != BackendSim {
		if cfg.Button.Pin == "" {
			return fmt.Errorf("button: pin is required")
		}
	}
	if cfg.Button.Interval <= 0 {
		return fmt.Errorf("button: interval must be positive")
	}
	if cfg.DebugSerial.Baud < 0 {
		return fmt.Errorf("debug_serial: invalid baud %d", cfg.DebugSerial.Baud)
	}
	if cfg.Preview.Terminal && cfg.Display.Backend != BackendSim {
		return fmt.Errorf("preview: terminal requires the %s backend", BackendSim)
	}
	if cfg.Preview.Listen != "" && cfg.Display.Backend != BackendSim {
		return fmt.Errorf("preview: listen requires the %s backend", BackendSim)
	}
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func validateDisplay(d *DisplayConfig) error {
	if d.Dwell <= 0 || d.Dwell > MaxDwell {
		return fmt.Errorf("display: dwell %s is outside (0, %s]", d.Dwell, MaxDwell)
	}
	switch d.Backend {
	case BackendGPIO:
		if len(d.Digits) != 4 {
			return fmt.Errorf("display: need 4 digit pins, got %d", len(d.Digits))
		}
		if len(d.Segments) != 8 {
			return fmt.Errorf("display: need 8 segment pins, got %d", len(d.Segments))
		}
		seen := make(map[string]bool, 12)
		for _, name := range append(append([]string(nil), d.Digits...), d.Segments...) {
			if name == "" {
				return fmt.Errorf("display: empty pin name")
			}
			if seen[name] {
				return fmt.Errorf("display: pin %s is used twice", name)
			}
			seen[name] = true
		}
	case BackendShiftReg:
		if d.ShiftReg.Chips < 2 || d.ShiftReg.Chips > 8 {
			return fmt.Errorf("display: shiftreg needs 2 to 8 chips, got %d", d.ShiftReg.Chips)
		}
	case BackendMAX7219:
		if d.MAX7219.Intensity > 15 {
			return fmt.Errorf("display: max7219 intensity %d is above 15", d.MAX7219.Intensity)
		}
	case BackendSim:
		if d.Persistence <= 0 {
			return fmt.Errorf("display: persistence must be positive")
		}
	default:
		return fmt.Errorf("display: unknown backend %q", d.Backend)
	}
	return nil
}

func validateRTC(r *RTCConfig) error {
	switch r.Kind {
	case RTCDS1307:
		if r.Addr == 0 || r.Addr > 0x7f {
			return fmt.Errorf("rtc: invalid I²C address %#x", r.Addr)
		}
	case RTCSoft:
	default:
		return fmt.Errorf("rtc: unknown kind %q", r.Kind)
	}
	if r.Interval <= 0 {
		return fmt.Errorf("rtc: interval must be positive")
	}
	return nil
}

func validateSync(s *SyncConfig) error {
	if !s.Enabled {
		return nil
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("sync: url %q is not an http(s) URL", s.URL)
	}
	if s.Interval <= 0 || s.Backoff <= 0 || s.Timeout <= 0 {
		return fmt.Errorf("sync: interval, backoff and timeout must be positive")
	}
	if s.UTCOffset < -14*time.Hour || s.UTCOffset > 14*time.Hour {
		return fmt.Errorf("sync: utc_offset %s is out of range", s.UTCOffset)
	}
	return nil
}
