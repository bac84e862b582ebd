/*
DESCRIPTION
  sentry.go provides Sentry, which runs frames from an input device through
  the scene change filters to the configured outputs.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sentry provides an API for watching a video stream for objects
// that are left in, or removed from, a scene.
package sentry

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ausocean/sentry/codec/mjpeg"
	"github.com/ausocean/sentry/config"
	"github.com/ausocean/sentry/device"
	"github.com/ausocean/sentry/filter"
	"github.com/ausocean/utils/bitrate"
)

// Sentry provides methods to control a sentry session; providing methods to
// start, stop and change the state of an instance using the Config struct.
type Sentry struct {
	// mu guards cfg, running and done.
	mu sync.Mutex

	cfg config.Config

	// input is the source of the MJPEG stream.
	input device.AVDevice

	// lexer splits the input stream into frames.
	lexer *mjpeg.Lexer

	// filters holds the filter chain; frames are written to filters[0].
	filters []filter.Filter

	// scenes holds the scene change filters in the chain so that tunable
	// parameters can be applied while running.
	scenes []*filter.SceneChange

	// outputs writes annotated frames to every configured output.
	outputs io.WriteCloser

	running bool

	// wg is used to wait for the processing routine to finish.
	wg sync.WaitGroup

	// err channels errors from the processing routine to handleErrors.
	err chan error

	// done is closed when the processing routine has finished.
	done chan struct{}

	// stop is closed when Stop is called.
	stop chan struct{}

	// bitrate measures the rate of data written to the outputs.
	bitrate bitrate.Calculator
}

// New returns a pointer to a new Sentry with the desired configuration, and/or
// an error if construction of the new instance was not successful.
func New(c config.Config) (*Sentry, error) {
	if c.Logger == nil {
		return nil, errors.New("no logger in config")
	}
	s := Sentry{err: make(chan error)}
	err := s.setConfig(c)
	if err != nil {
		return nil, fmt.Errorf("could not set config: %w", err)
	}
	go s.handleErrors(c.Logger)
	return &s, nil
}

// Config returns a copy of the current config.
func (s *Sentry) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Bitrate returns the result of the most recent output bitrate check.
func (s *Sentry) Bitrate() int {
	return s.bitrate.Bitrate()
}

// Write writes p to the input when the input is InputManual. p should hold
// whole JPEG images.
func (s *Sentry) Write(p []byte) (int, error) {
	mi, ok := s.input.(*device.ManualInput)
	if !ok {
		return 0, errors.New("cannot write to anything but ManualInput")
	}
	return mi.Write(p)
}

// Start builds the pipeline from the current config, starts the input and
// begins processing frames. An input that can't be started is an error.
func (s *Sentry) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.cfg.Logger.Warning("start called, but sentry already running")
		return nil
	}

	s.cfg.Logger.Debug("resetting sentry")
	err := s.reset(s.cfg)
	if err != nil {
		return err
	}
	s.cfg.Logger.Info("sentry reset")

	s.cfg.Logger.Debug("starting input", "input", s.input.Name())
	err = s.input.Start()
	if err != nil {
		s.closePipeline()
		return fmt.Errorf("could not start input device: %w", err)
	}
	s.cfg.Logger.Info("input started", "input", s.input.Name())

	// Calculate delay between frames if the FileFPS != 0. Otherwise use no delay.
	d := time.Duration(0)
	if s.cfg.FileFPS != 0 {
		d = time.Second / time.Duration(s.cfg.FileFPS)
	}

	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.cfg.Logger.Debug("starting input processing routine")
	s.wg.Add(1)
	go s.processFrom(s.cfg.Logger, d)

	s.running = true
	return nil
}

// Stop stops the input, waits for frames already read to be processed and
// then closes the filters and outputs.
func (s *Sentry) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.cfg.Logger.Warning("stop called but sentry isn't running")
		return
	}

	close(s.stop)

	s.cfg.Logger.Debug("stopping input")
	err := s.input.Stop()
	if err != nil {
		s.cfg.Logger.Error("could not stop input", "error", err.Error())
	} else {
		s.cfg.Logger.Info("input stopped")
	}

	s.cfg.Logger.Debug("waiting for routines to finish")
	s.wg.Wait()
	s.cfg.Logger.Info("routines finished")

	s.closePipeline()
	s.running = false
}

// Running reports whether Start has been called and Stop has not been called
// since. A sentry whose input has ended is still running until stopped.
func (s *Sentry) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Done returns a channel that is closed when the input of the most recent
// Start has ended or been stopped. It is nil before the first Start.
func (s *Sentry) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Update takes a map of variables and their values and edits the current
// config if the variables are recognised as valid parameters. If every
// variable is live tunable, a running sentry applies them without losing its
// background models; otherwise a running sentry is stopped first and must be
// started again.
func (s *Sentry) Update(vars map[string]string) error {
	tunable := true
	for k := range vars {
		if !config.IsTunable(k) {
			tunable = false
			break
		}
	}

	if s.Running() && !tunable {
		s.cfg.Logger.Debug("sentry running; stopping for re-config")
		s.Stop()
		s.cfg.Logger.Info("sentry was running; stopped for re-config")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Logger.Debug("checking vars", "vars", vars)
	c := s.cfg
	c.Update(vars)
	err := s.setConfig(c)
	if err != nil {
		return err
	}
	for _, sc := range s.scenes {
		sc.Tune(s.cfg)
	}
	s.cfg.Logger.Info("finished reconfig")
	return nil
}
