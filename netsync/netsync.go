// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package netsync sets a real-time clock from a JSON time service over
// HTTP.
//
// The service answers a GET request with a document like the one served by
// NICT (https://ntp-a1.nict.go.jp/cgi-bin/json):
//
//	{"id":"ntp-a1.nict.go.jp","it":0.000,"st":1700000000.123,"leap":37,"next":1483228800,"step":1}
//
// Only "st", the server time in seconds since the Unix epoch, is used.
package netsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/segclock/sched"
)

const (
	// DefaultURL is the NICT JSON time service.
	DefaultURL = "https://ntp-a1.nict.go.jp/cgi-bin/json"
	// DefaultOffset converts UTC to Japan Standard Time.
	DefaultOffset = 9 * time.Hour
	// DefaultInterval is the time between successful syncs.
	DefaultInterval = time.Hour
	// DefaultBackoff is the wait after a failed attempt.
	DefaultBackoff = 10 * time.Second
	// DefaultTimeout bounds one attempt.
	DefaultTimeout = 10 * time.Second

	maxBody = 4 << 10
)

// Stages of an attempt, as reported in diagnostics.
const (
	StageRequest = "request"
	StageSend    = "send"
	StageRead    = "read"
	StageUTF8    = "utf8"
	StageDecode  = "decode"
)

// ErrClockSet wraps a failure to write the clock. It is not recoverable.
var ErrClockSet = errors.New("netsync: setting the clock failed")

// Setter is the part of a real-time clock a Syncer needs.
type Setter interface {
	Set(t time.Time) error
}

// StageError is a failed attempt.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return "sync: " + e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Document is the JSON document served by the time service.
type Document struct {
	ID   string  `json:"id"`
	IT   float64 `json:"it"`
	ST   float64 `json:"st"`
	Leap int     `json:"leap"`
	Next int64   `json:"next"`
	Step int     `json:"step"`
}

// Civil returns the wall clock time of st seconds since the epoch in a zone
// offset from UTC. The result is located in UTC.
func Civil(st float64, offset time.Duration) time.Time {
	sec, frac := math.Modf(st)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC().Add(offset)
}

// Opts configures a Syncer. Zero fields take the package defaults, except
// Offset.
type Opts struct {
	URL string
	// Offset is the local zone's offset from UTC. Zero means UTC; callers
	// wanting Japan Standard Time pass DefaultOffset.
	Offset   time.Duration
	Interval time.Duration
	Backoff  time.Duration
	Timeout  time.Duration
	// Client defaults to an http.Client with Timeout.
	Client *http.Client
	Logger logrus.FieldLogger
}

// Syncer fetches the time and writes it to a clock.
type Syncer struct {
	clock    Setter
	debug    io.Writer
	client   *http.Client
	url      string
	offset   time.Duration
	interval time.Duration
	backoff  time.Duration
	log      logrus.FieldLogger
	trigger  chan struct{}
}

// New returns a Syncer setting clock. Diagnostics of failed attempts are
// written to debug, one Write per line.
func New(clock Setter, debug io.Writer, opts *Opts) *Syncer {
	if opts == nil {
		opts = &Opts{}
	}
	s := &Syncer{
		clock:    clock,
		debug:    debug,
		client:   opts.Client,
		url:      opts.URL,
		offset:   opts.Offset,
		interval: opts.Interval,
		backoff:  opts.Backoff,
		log:      opts.Logger,
		trigger:  make(chan struct{}, 1),
	}
	if s.debug == nil {
		s.debug = io.Discard
	}
	if s.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		s.client = &http.Client{Timeout: timeout}
	}
	if s.url == "" {
		s.url = DefaultURL
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.backoff <= 0 {
		s.backoff = DefaultBackoff
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

// Trigger asks a running Syncer for an attempt now. It never blocks.
func (s *Syncer) Trigger() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Fetch gets the time document. Errors are *StageError.
func (s *Syncer) Fetch(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &StageError{StageRequest, err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &StageError{StageSend, err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &StageError{StageSend, fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &StageError{StageRead, err}
	}
	if !utf8.Valid(body) {
		return nil, &StageError{StageUTF8, errors.New("body is not valid UTF-8")}
	}
	doc := &Document{}
	if err := json.Unmarshal(body, doc); err != nil {
		return nil, &StageError{StageDecode, err}
	}
	if doc.ST <= 0 {
		return nil, &StageError{StageDecode, errors.New(`missing "st"`)}
	}
	return doc, nil
}

// SyncOnce makes one attempt. A failed fetch is reported on the debug
// writer and returned as a *StageError; a failed clock write returns an
// error wrapping ErrClockSet.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	doc, err := s.Fetch(ctx)
	if err != nil {
		_, _ = io.WriteString(s.debug, err.Error()+"\n")
		s.log.WithError(err).Warn("time sync failed")
		return err
	}
	t := Civil(doc.ST, s.offset)
	if err := s.clock.Set(t); err != nil {
		return fmt.Errorf("%w: %w", ErrClockSet, err)
	}
	s.log.WithFields(logrus.Fields{"server": doc.ID, "time": t.Format("2006-01-02 15:04:05")}).Info("clock synced")
	return nil
}

// Run syncs now, then every Interval or when triggered, until ctx is done.
// A failed attempt is followed by the backoff wait and a new attempt. Run
// only returns an error when the clock cannot be written.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		err := s.SyncOnce(ctx)
		if errors.Is(err, ErrClockSet) {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if !sched.Sleep(ctx, s.backoff) {
				return nil
			}
			continue
		}
		t := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		case <-s.trigger:
			t.Stop()
		}
	}
}
