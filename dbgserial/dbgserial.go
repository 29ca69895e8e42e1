// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dbgserial writes diagnostic packets to a debug serial port.
//
// Writes are write-and-forget: each call sends one packet terminated by a
// newline and nothing is ever read back.
package dbgserial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// DefaultBaudRate is used when Config.BaudRate is zero.
const DefaultBaudRate = 115200

// Config describes the serial port.
type Config struct {
	// Address is the device, e.g. "/dev/ttyUSB0".
	Address  string
	BaudRate int
	// Timeout bounds a single write. Zero means the driver default.
	Timeout time.Duration
}

// Port serializes packets onto an io.Writer.
type Port struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// Open opens the serial port described by cfg, 8N1.
func Open(cfg *Config) (*Port, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, errors.New("dbgserial: address is required")
	}
	baud := cfg.BaudRate
	if baud == 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("dbgserial: %w", err)
	}
	return &Port{w: p, c: p}, nil
}

// NewWriter returns a Port writing to w. Close does not close w.
func NewWriter(w io.Writer) *Port {
	return &Port{w: w}
}

// Write sends b as one packet. A trailing newline is appended unless b
// already ends with one. It returns len(b) on success.
func (p *Port) Write(b []byte) (int, error) {
	pkt := b
	if len(b) == 0 || b[len(b)-1] != '\n' {
		pkt = make([]byte, len(b)+1)
		copy(pkt, b)
		pkt[len(b)] = '\n'
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.w.Write(pkt); err != nil {
		return 0, fmt.Errorf("dbgserial: %w", err)
	}
	return len(b), nil
}

// Printf formats and sends one packet. Errors are dropped.
func (p *Port) Printf(format string, a ...interface{}) {
	_, _ = p.Write([]byte(fmt.Sprintf(format, a...)))
}

// Close closes the underlying port, if it was opened by Open.
func (p *Port) Close() error {
	if p.c == nil {
		return nil
	}
	return p.c.Close()
}

func (p *Port) String() string {
	return "dbgserial"
}

var _ io.WriteCloser = &Port{}
