// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sched runs the clock's tasks: the display refresh, the time
// source, the button poller and the network sync.
//
// Each task is a function that loops until its context is done and gives way
// to the others only at explicit suspension points, Sleep being the common
// one. A task that returns an error stops the whole group.
package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Task is a long running function. It returns nil when ctx is done.
type Task func(ctx context.Context) error

// Group is a set of tasks sharing one lifetime.
type Group struct {
	ctx context.Context
	eg  *errgroup.Group
	log logrus.FieldLogger
}

// New returns a Group whose tasks stop when ctx is done or any task fails.
func New(ctx context.Context, log logrus.FieldLogger) *Group {
	if log == nil {
		log = logrus.StandardLogger()
	}
	eg, ctx := errgroup.WithContext(ctx)
	return &Group{ctx: ctx, eg: eg, log: log}
}

// Go starts task under name.
func (g *Group) Go(name string, task Task) {
	log := g.log.WithField("task", name)
	g.eg.Go(func() error {
		log.Debug("task started")
		err := task(g.ctx)
		if err != nil {
			log.WithError(err).Error("task failed")
			return fmt.Errorf("%s: %w", name, err)
		}
		log.Debug("task stopped")
		return nil
	})
}

// Wait blocks until every task returned and reports the first failure.
func (g *Group) Wait() error {
	return g.eg.Wait()
}

// Sleep suspends the calling task for d. It returns false if ctx was done
// first.
func Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
