//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  Replaces the OpenCV debug windows when building without OpenCV, for
  example on CI machines that do not have a copy of OpenCV installed.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"image"

	"github.com/ausocean/sentry/change"
)

// debugWindows is used for displaying debug information for the filter.
type debugWindows struct{}

// close frees resources used by gocv.
func (d *debugWindows) close() error { return nil }

// newWindows creates debugging windows for the filter.
func newWindows(name string) debugWindows { return debugWindows{} }

// show displays debug information for the filter.
func (d *debugWindows) show(img image.Image, mask *image.Gray, r image.Rectangle, held bool, det *change.Detector, frame uint64) {
}
