/*
DESCRIPTION
  file.go provides an implementation of the AVDevice interface for MJPEG
  files.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides an implementation of AVDevice for MJPEG files.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ausocean/sentry/config"
	"github.com/ausocean/utils/logging"
)

// AVFile is an AVDevice reading an MJPEG stream from a file. With looping
// enabled the file is reread from the start each time its end is reached.
type AVFile struct {
	f         *os.File
	path      string
	loop      bool
	isRunning bool
	log       logging.Logger
	set       bool
	mu        sync.Mutex
}

// New returns a new AVFile that must be configured with Set before Start.
func New(l logging.Logger) *AVFile { return &AVFile{log: l} }

// NewWith returns a new AVFile reading path, with no need to call Set.
func NewWith(l logging.Logger, path string, loop bool) *AVFile {
	return &AVFile{log: l, path: path, loop: loop, set: true}
}

// Name returns the name of the device.
func (m *AVFile) Name() string {
	return "File"
}

// Set takes the file path from c.InputPath and looping from c.Loop.
func (m *AVFile) Set(c config.Config) error {
	if c.InputPath == "" {
		return errors.New("no input path")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.path = c.InputPath
	m.loop = c.Loop
	m.set = true
	return nil
}

// Start opens the file.
func (m *AVFile) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return errors.New("AVFile has not been set with config")
	}
	f, err := os.Open(m.path)
	if err != nil {
		return fmt.Errorf("could not open media file: %w", err)
	}
	m.f = f
	m.isRunning = true
	return nil
}

// Stop closes the file such that any further reads fail.
func (m *AVFile) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return nil
	}
	err := m.f.Close()
	if err != nil {
		return fmt.Errorf("could not close media file: %w", err)
	}
	m.f = nil
	m.isRunning = false
	return nil
}

// Read implements io.Reader. Without looping it returns io.EOF at the end of
// the file.
func (m *AVFile) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.f == nil {
		return 0, errors.New("AV file is closed, AVFile not started")
	}

	n, err := m.f.Read(p)
	if err != nil && err != io.EOF {
		return n, err
	}
	if n > 0 || !m.loop {
		return n, err
	}

	m.log.Info("looping input file", "path", m.path)
	_, err = m.f.Seek(0, io.SeekStart)
	if err != nil {
		return 0, fmt.Errorf("could not seek to start of file for input loop: %w", err)
	}
	n, err = m.f.Read(p)
	if err != nil {
		return n, fmt.Errorf("could not read after start seek: %w", err)
	}
	return n, nil
}

// IsRunning is used to determine if the AVFile device is running.
func (m *AVFile) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.f != nil && m.isRunning
}
