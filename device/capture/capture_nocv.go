//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  capture_nocv.go replaces the OpenCV capture when building without OpenCV.
  The device can be configured but fails to start.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package capture

import (
	"errors"
	"sync"

	"github.com/ausocean/utils/logging"
)

// ErrNoOpenCV is returned by Start when built without the withcv tag.
var ErrNoOpenCV = errors.New("capture requires building with the withcv tag")

type capture struct {
	log       logging.Logger
	src       interface{}
	loop      bool
	set       bool
	isRunning bool
	mu        sync.Mutex
}

func newCapture(l logging.Logger) capture { return capture{log: l} }

func (c *capture) start() error {
	c.log.Warning(pkg+"could not start", "error", ErrNoOpenCV)
	return ErrNoOpenCV
}

func (c *capture) stop() error { return nil }

func (c *capture) read(p []byte) (int, error) { return 0, errNotStarted }
