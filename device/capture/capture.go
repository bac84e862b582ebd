/*
DESCRIPTION
  capture.go provides an implementation of the AVDevice interface that reads
  frames through OpenCV from a camera or a video file and presents them as
  an MJPEG stream.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package capture provides an AVDevice backed by an OpenCV video capture.
// Building with the withcv tag is required for it to open any source.
package capture

import (
	"errors"
	"strconv"

	"github.com/ausocean/sentry/config"
	"github.com/ausocean/utils/logging"
)

// To indicate package when logging.
const pkg = "capture: "

var errNotStarted = errors.New("cannot read, capture not started")

// Capture is an AVDevice reading from a camera or video file with OpenCV.
// Each captured frame is JPEG encoded, so reads return an MJPEG stream.
type Capture struct{ capture }

// New returns a new Capture.
func New(l logging.Logger) *Capture { return &Capture{capture: newCapture(l)} }

// Name returns the name of the device.
func (c *Capture) Name() string { return "Capture" }

// Set takes the source from cfg.InputPath and looping from cfg.Loop. A
// source that parses as an integer is a camera index, anything else is a
// file path or stream URL.
func (c *Capture) Set(cfg config.Config) error {
	if cfg.InputPath == "" {
		return errors.New("no capture source")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.src = source(cfg.InputPath)
	c.loop = cfg.Loop
	c.set = true
	return nil
}

// Start opens the capture source.
func (c *Capture) Start() error { return c.start() }

// Stop releases the capture source.
func (c *Capture) Stop() error { return c.stop() }

// Read implements io.Reader. Each frame is read into p over as many calls as
// needed before the next frame is captured. Read returns io.EOF at the end
// of a file source unless looping.
func (c *Capture) Read(p []byte) (int, error) { return c.read(p) }

// IsRunning is used to determine if the capture is running.
func (c *Capture) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isRunning
}

// source converts a configured input path to the value OpenCV expects.
func source(path string) interface{} {
	i, err := strconv.Atoi(path)
	if err == nil {
		return i
	}
	return path
}
