//go:build withcv
// +build withcv

/*
DESCRIPTION
  capture_cv.go provides the OpenCV backed capture implementation.

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
	"fmt"
	"io"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ausocean/utils/logging"
)

type capture struct {
	log       logging.Logger
	src       interface{}
	loop      bool
	set       bool
	isRunning bool
	vc        *gocv.VideoCapture
	mat       gocv.Mat
	buf       []byte // Unread bytes of the current JPEG.
	mu        sync.Mutex
}

func newCapture(l logging.Logger) capture { return capture{log: l} }

func (c *capture) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return errors.New("capture has not been set with config")
	}
	vc, err := gocv.OpenVideoCapture(c.src)
	if err != nil {
		return fmt.Errorf("could not open capture source %v: %w", c.src, err)
	}
	c.vc = vc
	c.mat = gocv.NewMat()
	c.buf = nil
	c.isRunning = true
	c.log.Info(pkg+"started", "source", c.src)
	return nil
}

func (c *capture) stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRunning {
		return nil
	}
	c.isRunning = false
	c.mat.Close()
	err := c.vc.Close()
	if err != nil {
		return fmt.Errorf("could not close capture: %w", err)
	}
	return nil
}

func (c *capture) read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.isRunning {
		return 0, errNotStarted
	}

	if len(c.buf) == 0 {
		err := c.next()
		if err != nil {
			return 0, err
		}
	}
	n := copy(p, c.buf)
	c.buf = c.buf[n:]
	return n, nil
}

// next captures and encodes the next frame into c.buf.
func (c *capture) next() error {
	if !c.vc.Read(&c.mat) || c.mat.Empty() {
		if !c.loop {
			return io.EOF
		}
		c.log.Info(pkg + "looping capture source")
		c.vc.Set(gocv.VideoCapturePosFrames, 0)
		if !c.vc.Read(&c.mat) || c.mat.Empty() {
			return io.EOF
		}
	}

	nb, err := gocv.IMEncode(gocv.JPEGFileExt, c.mat)
	if err != nil {
		return fmt.Errorf("could not encode frame: %w", err)
	}
	defer nb.Close()
	c.buf = append(c.buf[:0], nb.GetBytes()...)
	return nil
}
