/*
DESCRIPTION
  device.go provides AVDevice, an interface that describes a configurable
  frame source that can be started and stopped, and ManualInput, a source
  fed by the caller.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface and implementations for frame sources
// that can be started and stopped and from which an MJPEG stream is read.
package device

import (
	"fmt"
	"io"
	"sync"

	"github.com/ausocean/sentry/config"
	"github.com/pkg/errors"
)

// ErrNotRunning is returned by writes on a device that is not running and
// by reads on a device that was never started.
var ErrNotRunning = errors.New("device not running")

// AVDevice describes a configurable frame source. Reads return an MJPEG
// stream, that is, JPEG images back to back.
type AVDevice interface {
	io.Reader

	// Name returns the name of the AVDevice.
	Name() string

	// Set configures the AVDevice from c. An implementation should document
	// which fields it uses.
	Set(c config.Config) error

	// Start starts the AVDevice producing frames; after which Read may be
	// called.
	Start() error

	// Stop stops the AVDevice. From this point reads fail.
	Stop() error

	// IsRunning reports whether the device has been started and not stopped.
	IsRunning() bool
}

// MultiError collects the errors found while validating a device's
// configuration.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// ManualInput is an AVDevice whose stream is written by the caller through
// Write. It employs an io.Pipe, so every write blocks until it has been fully
// read. Writing one JPEG per call therefore hands the reader distinct frames.
type ManualInput struct {
	mu        sync.Mutex
	isRunning bool
	reader    *io.PipeReader
	writer    *io.PipeWriter
}

// NewManualInput returns a new ManualInput.
func NewManualInput() *ManualInput {
	return &ManualInput{}
}

// Read reads the written stream into p.
func (m *ManualInput) Read(p []byte) (int, error) {
	r, err := m.pipeReader()
	if err != nil {
		return 0, errors.Wrap(err, "manual input can't read")
	}
	return r.Read(p)
}

// Name returns "ManualInput".
func (m *ManualInput) Name() string { return "ManualInput" }

// Set is a stub to satisfy AVDevice; ManualInput uses no config fields.
func (m *ManualInput) Set(c config.Config) error { return nil }

// Start opens a new pipe.
func (m *ManualInput) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reader, m.writer = io.Pipe()
	m.isRunning = true
	return nil
}

// Stop closes the write side of the pipe. Reads drain what was written and
// then return io.EOF; writes fail.
func (m *ManualInput) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writer != nil {
		m.writer.Close()
	}
	m.isRunning = false
	return nil
}

// IsRunning reports whether Start has been called and Stop has not been
// called since.
func (m *ManualInput) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isRunning
}

// Write writes p to the ManualInput's pipe, blocking until it is read.
func (m *ManualInput) Write(p []byte) (int, error) {
	m.mu.Lock()
	w, running := m.writer, m.isRunning
	m.mu.Unlock()
	if !running {
		return 0, errors.Wrap(ErrNotRunning, "manual input can't write")
	}
	return w.Write(p)
}

func (m *ManualInput) pipeReader() (*io.PipeReader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reader == nil {
		return nil, ErrNotRunning
	}
	return m.reader, nil
}
