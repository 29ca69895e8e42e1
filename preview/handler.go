// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package preview

import (
	"bytes"
	"image/png"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GermanBionicSystems/segclock/segment"
	"github.com/GermanBionicSystems/segclock/sevenseg"
)

// DefaultInterval is the time between two frames of a stream.
const DefaultInterval = 100 * time.Millisecond

// Source provides frames, leftmost digit first.
type Source interface {
	Snapshot() [sevenseg.NumDigits]segment.Set
}

// HandlerOpts configures a Handler.
type HandlerOpts struct {
	Render   Opts
	Interval time.Duration
	Logger   logrus.FieldLogger
}

// Handler serves renderings of a Source.
//
// GET "/?once=1" returns one PNG; any other GET returns a
// multipart/x-mixed-replace stream of PNGs, one every Interval, until the
// client goes away.
type Handler struct {
	src      Source
	opts     Opts
	interval time.Duration
	log      logrus.FieldLogger
}

// NewHandler returns a Handler for src.
func NewHandler(src Source, opts *HandlerOpts) *Handler {
	if opts == nil {
		opts = &HandlerOpts{}
	}
	h := &Handler{src: src, opts: opts.Render.withDefaults(), interval: opts.Interval, log: opts.Logger}
	if h.interval <= 0 {
		h.interval = DefaultInterval
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	return h
}

var pngEncoder = png.Encoder{BufferPool: &encoderPool{}}

type encoderPool sync.Pool

func (p *encoderPool) Get() *png.EncoderBuffer {
	buf, _ := (*sync.Pool)(p).Get().(*png.EncoderBuffer)
	return buf
}

func (p *encoderPool) Put(buf *png.EncoderBuffer) {
	(*sync.Pool)(p).Put(buf)
}

// encode renders the current frame as PNG into buf.
func (h *Handler) encode(buf *bytes.Buffer) error {
	img, err := Render(h.src.Snapshot(), &h.opts)
	if err != nil {
		return err
	}
	buf.Reset()
	return pngEncoder.Encode(buf, img)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.Body.Close(); err != nil {
		h.log.WithError(err).Debug("closing request body failed")
	}
	if r.Method != http.MethodGet {
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}
	var buf bytes.Buffer
	if r.URL.Query().Get("once") != "" {
		if err := h.encode(&buf); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
		return
	}

	pw := newPartWriter(w)
	w.Header().Set("Content-Type",
		mime.FormatMediaType("multipart/x-mixed-replace", map[string]string{"boundary": pw.boundary}))
	w.Header().Set("Cache-Control", "no-store")

	h.log.WithField("remote", r.RemoteAddr).Debug("preview stream started")
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		if err := h.encode(&buf); err != nil {
			h.log.WithError(err).Warn("rendering preview failed")
			return
		}
		// Write errors mean the client is gone.
		if err := pw.writePart("image/png", buf.Bytes()); err != nil {
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		select {
		case <-r.Context().Done():
			return
		case <-t.C:
		}
	}
}

var _ http.Handler = &Handler{}
