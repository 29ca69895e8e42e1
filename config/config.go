// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the segclock daemon configuration, read from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Variants select what feeds the time register.
const (
	VariantToggle  = "toggle"
	VariantCounter = "counter"
	VariantRTC     = "rtc"
)

// Display backends.
const (
	BackendGPIO     = "gpio"
	BackendShiftReg = "shiftreg"
	BackendMAX7219  = "max7219"
	BackendSim      = "sim"
)

// RTC kinds.
const (
	RTCDS1307 = "ds1307"
	RTCSoft   = "soft"
)

type Config struct {
	Variant     string            `yaml:"variant"`
	Display     DisplayConfig     `yaml:"display"`
	Button      ButtonConfig      `yaml:"button"`
	Toggle      ToggleConfig      `yaml:"toggle"`
	Counter     CounterConfig     `yaml:"counter"`
	RTC         RTCConfig         `yaml:"rtc"`
	Sync        SyncConfig        `yaml:"sync"`
	DebugSerial DebugSerialConfig `yaml:"debug_serial"`
	Preview     PreviewConfig     `yaml:"preview"`
	Log         LogConfig         `yaml:"log"`
}

// ---- DISPLAY ----

type DisplayConfig struct {
	Backend string `yaml:"backend"`
	// Digits are the pin names of positions 1 (rightmost) to 4.
	Digits []string `yaml:"digits"`
	// Segments are the pin names of a, b, c, d, e, f, g and dp.
	Segments         []string       `yaml:"segments"`
	DigitActiveLow   bool           `yaml:"digit_active_low"`
	SegmentActiveLow bool           `yaml:"segment_active_low"`
	Dwell            time.Duration  `yaml:"dwell"`
	ShiftReg         ShiftRegConfig `yaml:"shiftreg"`
	MAX7219          MAX7219Config  `yaml:"max7219"`
	// Persistence is used by the sim backend.
	Persistence time.Duration `yaml:"persistence"`
}

// ShiftRegConfig places the display lines on a 74HC595 chain: digits on
// outputs 0..3, segments on outputs 8..15.
type ShiftRegConfig struct {
	Port  string `yaml:"port"`
	Chips int    `yaml:"chips"`
}

// MAX7219Config is a display scanned by a MAX7219 on SPI. Pin names and
// dwell are not used.
type MAX7219Config struct {
	Port      string `yaml:"port"`
	Intensity byte   `yaml:"intensity"`
}

// ---- INPUT ----

type ButtonConfig struct {
	Pin        string        `yaml:"pin"`
	ActiveHigh bool          `yaml:"active_high"`
	Interval   time.Duration `yaml:"interval"`
}

type ToggleConfig struct {
	First  uint16 `yaml:"first"`
	Second uint16 `yaml:"second"`
}

type CounterConfig struct {
	Period time.Duration `yaml:"period"`
}

// ---- TIME ----

type RTCConfig struct {
	Kind     string        `yaml:"kind"`
	Bus      string        `yaml:"bus"`
	Addr     uint16        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

type SyncConfig struct {
	Enabled   bool          `yaml:"enabled"`
	URL       string        `yaml:"url"`
	Interval  time.Duration `yaml:"interval"`
	Backoff   time.Duration `yaml:"backoff"`
	Timeout   time.Duration `yaml:"timeout"`
	UTCOffset time.Duration `yaml:"utc_offset"`
}

// ---- DIAGNOSTICS ----

// DebugSerialConfig selects the diagnostics port. An empty Address writes to
// stderr.
type DebugSerialConfig struct {
	Address string `yaml:"address"`
	Baud    int    `yaml:"baud"`
}

// PreviewConfig enables the host previews.
type PreviewConfig struct {
	// Listen is the HTTP address of the PNG stream, e.g. ":8080".
	Listen string `yaml:"listen"`
	// Terminal draws the sim panel on stdout.
	Terminal bool `yaml:"terminal"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used for fields absent from a file.
func Default() *Config {
	return &Config{
		Variant: VariantRTC,
		Display: DisplayConfig{
			Backend:     BackendGPIO,
			Digits:      []string{"GPIO14", "GPIO15", "GPIO16", "GPIO17"},
			Segments:    []string{"GPIO18", "GPIO19", "GPIO20", "GPIO21", "GPIO22", "GPIO26", "GPIO27", "GPIO23"},
			Dwell:       700 * time.Microsecond,
			ShiftReg:    ShiftRegConfig{Chips: 2},
			MAX7219:     MAX7219Config{Intensity: 8},
			Persistence: 40 * time.Millisecond,
		},
		Button: ButtonConfig{
			Pin:      "GPIO5",
			Interval: 10 * time.Millisecond,
		},
		Toggle:  ToggleConfig{First: 1234, Second: 4321},
		Counter: CounterConfig{Period: time.Minute},
		RTC: RTCConfig{
			Kind:     RTCDS1307,
			Addr:     0x68,
			Interval: 200 * time.Millisecond,
		},
		Sync: SyncConfig{
			Enabled:   true,
			URL:       "https://ntp-a1.nict.go.jp/cgi-bin/json",
			Interval:  time.Hour,
			Backoff:   10 * time.Second,
			Timeout:   10 * time.Second,
			UTCOffset: 9 * time.Hour,
		},
		DebugSerial: DebugSerialConfig{Baud: 115200},
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over Default. Unknown keys are errors.
// It does not validate.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over Default.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
