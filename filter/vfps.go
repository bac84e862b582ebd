/*
DESCRIPTION
  A filter with a variable frame rate. While the wrapped filter passes frames
  on, all of them reach the destination. While it is quiet, unmodified frames
  are sent at a reduced rate so the output never stalls completely.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"io"
)

// defaultFPS is assumed for sources that do not state a frame rate.
const defaultFPS = 25

// VariableFPS wraps a filter and tops up its output to at least minFPS.
// Every frame is written to the wrapped filter so that filters which model
// the scene see the whole stream.
type VariableFPS struct {
	filter Filter
	dst    io.Writer
	frames uint
	count  uint
}

// NewVariableFPS returns a new VariableFPS. fps is the rate of the incoming
// stream; zero means 25. A filter that does not implement Detector is taken
// to pass every frame on.
func NewVariableFPS(dst io.Writer, fps, minFPS uint, filter Filter) *VariableFPS {
	if fps == 0 {
		fps = defaultFPS
	}
	if minFPS == 0 || minFPS > fps {
		minFPS = fps
	}
	return &VariableFPS{filter: filter, dst: dst, frames: fps / minFPS}
}

// Write passes f to the wrapped filter. If the filter did not pass f on and
// a reduced rate frame is due, f is written to the destination directly.
func (v *VariableFPS) Write(f []byte) (int, error) {
	v.count = (v.count + 1) % v.frames

	n, err := v.filter.Write(f)
	if err != nil {
		return n, err
	}
	if v.count != 0 || v.detected() {
		return n, nil
	}
	return v.dst.Write(f)
}

func (v *VariableFPS) detected() bool {
	d, ok := v.filter.(Detector)
	return !ok || d.Detected()
}

// Close calls the wrapped filter's Close method.
func (v *VariableFPS) Close() error {
	return v.filter.Close()
}
