// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package preview

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// partWriter writes an unbounded multipart stream of frames. Each frame is
// followed by its closing boundary line so a browser shows it right away;
// multipart.Writer only ends a part when the next one starts.
type partWriter struct {
	w        io.Writer
	boundary string
	started  bool
	buf      bytes.Buffer
}

func newPartWriter(w io.Writer) *partWriter {
	// Only the random boundary of a multipart.Writer is used.
	return &partWriter{w: w, boundary: multipart.NewWriter(io.Discard).Boundary()}
}

// writePart sends one frame of the given media type in a single Write.
func (p *partWriter) writePart(contentType string, frame []byte) error {
	p.buf.Reset()
	if !p.started {
		fmt.Fprintf(&p.buf, "--%s\r\n", p.boundary)
		p.started = true
	}
	fmt.Fprintf(&p.buf, "Content-Type: %s\r\nContent-Length: %d\r\n\r\n", contentType, len(frame))
	p.buf.Write(frame)
	fmt.Fprintf(&p.buf, "\r\n--%s\r\n", p.boundary)
	_, err := p.buf.WriteTo(p.w)
	return err
}
