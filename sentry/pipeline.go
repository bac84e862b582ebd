/*
DESCRIPTION
  pipeline.go provides functionality for set up of the sentry processing
  pipeline.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sentry

import (
	"fmt"
	"io"
	"time"

	"github.com/ausocean/sentry/codec/mjpeg"
	"github.com/ausocean/sentry/config"
	"github.com/ausocean/sentry/device"
	"github.com/ausocean/sentry/device/capture"
	"github.com/ausocean/sentry/device/file"
	"github.com/ausocean/sentry/filter"
	"github.com/ausocean/utils/ioext"
	"github.com/ausocean/utils/logging"
)

func (s *Sentry) handleErrors(l logging.Logger) {
	for {
		err := <-s.err
		if err != nil {
			l.Error("async error", "error", err.Error())
		}
	}
}

// reset swaps the current config with c, checking validity, and sets up the
// pipeline for it.
func (s *Sentry) reset(c config.Config) error {
	s.cfg.Logger.Debug("setting config")
	err := s.setConfig(c)
	if err != nil {
		return fmt.Errorf("could not set config: %w", err)
	}
	s.cfg.Logger.Info("config set")

	s.cfg.Logger.Debug("setting up sentry pipeline")
	err = s.setupPipeline(ioext.MultiWriteCloser)
	if err != nil {
		return fmt.Errorf("could not set up pipeline: %w", err)
	}
	s.cfg.Logger.Info("finished setting pipeline")
	return nil
}

// setConfig takes a config, checks its validity and then replaces the
// current config.
func (s *Sentry) setConfig(c config.Config) error {
	s.cfg.Logger = c.Logger
	s.cfg.Logger.Debug("validating config")
	err := c.Validate()
	if err != nil {
		return fmt.Errorf("config struct is bad: %w", err)
	}
	s.cfg.Logger.Info("config validated")
	s.cfg = c
	s.cfg.Logger.SetLevel(s.cfg.LogLevel)
	return nil
}

// setupPipeline creates and links the input, filters and outputs for the
// current config. multiWriter is used so that the last filter can write to
// many outputs.
func (s *Sentry) setupPipeline(multiWriter func(...io.WriteCloser) io.WriteCloser) error {
	var outputs []io.WriteCloser
	for _, out := range s.cfg.Outputs {
		switch out {
		case config.OutputFile:
			s.cfg.Logger.Debug("using File output")
			outputs = append(outputs, newPoolSender(newFileSender(s.cfg.Logger, s.cfg.OutputPath, false), s.cfg.Logger))
		case config.OutputFiles:
			s.cfg.Logger.Debug("using Files output")
			outputs = append(outputs, newPoolSender(newFileSender(s.cfg.Logger, s.cfg.OutputPath, true), s.cfg.Logger))
		case config.OutputDiscard:
			s.cfg.Logger.Debug("using Discard output")
			outputs = append(outputs, discardSender{})
		default:
			return fmt.Errorf("unrecognised output type: %v", out)
		}
	}
	s.outputs = &reportWriter{dst: multiWriter(outputs...), report: s.bitrate.Report}

	l := len(s.cfg.Filters)
	s.scenes = nil
	s.filters = []filter.Filter{filter.NewNoOp(s.outputs)}
	if l != 0 {
		s.cfg.Logger.Debug("setting up filters", "filters", s.cfg.Filters)
		s.filters = make([]filter.Filter, l)
		var dst io.WriteCloser = s.outputs

		for i := l - 1; i >= 0; i-- {
			switch s.cfg.Filters[i] {
			case config.FilterNoOp:
				s.cfg.Logger.Debug("using NoOp filter")
				s.filters[i] = filter.NewNoOp(dst)
			case config.FilterSceneChange:
				s.cfg.Logger.Debug("using scene change filter")
				sc := filter.NewSceneChange(dst, s.cfg)
				s.scenes = append(s.scenes, sc)
				s.filters[i] = sc
			case config.FilterVariableFPS:
				s.cfg.Logger.Debug("using variable FPS scene change filter")
				sc := filter.NewSceneChange(dst, s.cfg)
				s.scenes = append(s.scenes, sc)
				s.filters[i] = filter.NewVariableFPS(dst, s.cfg.FileFPS, s.cfg.MinFPS, sc)
			default:
				return fmt.Errorf("unrecognised filter: %v", s.cfg.Filters[i])
			}
			dst = s.filters[i]
		}
		s.cfg.Logger.Info("filters set up")
	}

	switch s.cfg.Input {
	case config.InputFile:
		s.cfg.Logger.Debug("using file input")
		s.input = file.New(s.cfg.Logger)
	case config.InputCapture:
		s.cfg.Logger.Debug("using capture input")
		s.input = capture.New(s.cfg.Logger)
	case config.InputManual:
		s.cfg.Logger.Debug("using manual input")
		s.input = device.NewManualInput()
	default:
		return fmt.Errorf("unrecognised input type: %v", s.cfg.Input)
	}
	s.lexer = &mjpeg.Lexer{Log: s.cfg.Logger}

	s.cfg.Logger.Debug("configuring input device")
	err := s.input.Set(s.cfg)
	if err != nil {
		return fmt.Errorf("could not configure input device: %w", err)
	}
	s.cfg.Logger.Info("input device configured")
	return nil
}

// closePipeline closes the filters and then the outputs.
func (s *Sentry) closePipeline() {
	for _, f := range s.filters {
		err := f.Close()
		if err != nil {
			s.cfg.Logger.Error("failed to close filter", "error", err.Error())
		}
	}
	s.cfg.Logger.Info("filters closed")

	err := s.outputs.Close()
	if err != nil {
		s.cfg.Logger.Error("failed to close outputs", "error", err.Error())
	} else {
		s.cfg.Logger.Info("outputs closed")
	}
}

// processFrom is run as a routine to read from the input, lex frames and
// write them one at a time through the filters. l is the logger at Start;
// s.cfg may be replaced by Update while frames are processed.
func (s *Sentry) processFrom(l logging.Logger, delay time.Duration) {
	defer s.wg.Done()
	defer close(s.done)

	l.Debug("lexing")
	err := s.lexer.Lex(s.filters[0], s.input, delay)
	select {
	case <-s.stop:
		l.Info("input stopped while lexing", "error", fmt.Sprint(err))
		return
	default:
	}
	switch err {
	case nil, io.EOF:
		l.Info("end of file")
	case io.ErrUnexpectedEOF:
		l.Info("end of input")
	default:
		s.err <- err
	}
	l.Info("finished reading input")
}
