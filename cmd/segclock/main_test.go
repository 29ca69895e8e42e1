// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GermanBionicSystems/segclock/config"
)

func TestKeyboardButton(t *testing.T) {
	var n atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- keyboardButton(strings.NewReader("\n\nx\n"), func() { n.Add(1) })(ctx)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if got := n.Load(); got != 3 {
		t.Fatalf("got %d presses", got)
	}
}

func TestKeyboardButton_CancelledReaderExits(t *testing.T) {
	before := runtime.NumGoroutine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Pending lines nobody consumes after cancellation must not pin the
	// reader goroutine.
	task := keyboardButton(strings.NewReader(strings.Repeat("\n", 64)), func() {})
	if err := task(ctx); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for runtime.NumGoroutine() > before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if n := runtime.NumGoroutine(); n > before {
		t.Fatalf("%d goroutines left, had %d", n, before)
	}
}

func TestRun_Sim(t *testing.T) {
	for _, variant := range []string{config.VariantToggle, config.VariantCounter, config.VariantRTC} {
		t.Run(variant, func(t *testing.T) {
			cfg := config.Default()
			cfg.Variant = variant
			cfg.Display.Backend = config.BackendSim
			cfg.RTC.Kind = config.RTCSoft
			cfg.Sync.Enabled = false
			if err := config.Validate(cfg); err != nil {
				t.Fatal(err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			if err := run(ctx, cfg); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestOpenLines_Unknown(t *testing.T) {
	if _, _, _, err := openLines(&config.DisplayConfig{Backend: "hdmi"}); err == nil {
		t.Fatal("expected error")
	}
}
