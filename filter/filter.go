/*
DESCRIPTION
  filter.go provides the Filter interface and the NoOp filter.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package filter provides the interface and implementations of the filters
// applied to lexed JPEG frames before they reach the outputs.
package filter

import (
	"io"
)

// Filter receives one JPEG frame per Write.
type Filter interface {
	io.WriteCloser
}

// Detector is implemented by filters that pass on only some frames.
// Detected reports whether the most recently written frame was passed on.
type Detector interface {
	Detected() bool
}

// The NoOp filter passes every frame to its destination unchanged.
type NoOp struct {
	dst io.Writer
}

func NewNoOp(dst io.Writer) *NoOp { return &NoOp{dst: dst} }

func (n *NoOp) Write(p []byte) (int, error) { return n.dst.Write(p) }

func (n *NoOp) Close() error { return nil }
