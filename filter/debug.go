//go:build debug && withcv
// +build debug,withcv

/*
DESCRIPTION
  Displays debug information for the scene change filter.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ausocean/sentry/change"
)

// debugWindows is used for displaying the frame, the cleaned change mask and
// the two background images.
type debugWindows struct {
	windows []*gocv.Window
}

// close frees resources used by gocv.
func (d *debugWindows) close() error {
	for _, window := range d.windows {
		err := window.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// newWindows creates debugging windows for the filter.
func newWindows(name string) debugWindows {
	return debugWindows{
		windows: []*gocv.Window{
			gocv.NewWindow(name + ": Video"),
			gocv.NewWindow(name + ": Change Mask"),
			gocv.NewWindow(name + ": Slow Background"),
			gocv.NewWindow(name + ": Fast Background"),
		},
	}
}

// show displays debug information for the filter.
func (d *debugWindows) show(img image.Image, mask *image.Gray, r image.Rectangle, held bool, det *change.Detector, frame uint64) {
	var drkRed = color.RGBA{191, 0, 0, 0}
	var lhtRed = color.RGBA{191, 31, 31, 0}

	mats := make([]gocv.Mat, 0, len(d.windows))
	defer func() {
		for _, m := range mats {
			m.Close()
		}
	}()
	slow, fast := det.Backgrounds()
	for _, im := range []image.Image{img, mask, slow.Image(), fast.Image()} {
		m, err := gocv.ImageToMatRGB(im)
		if err != nil {
			return
		}
		mats = append(mats, m)
	}

	text := []string{fmt.Sprintf("Frame: %d", frame), fmt.Sprintf("Mean diff: %.2f", det.MeanDifference())}
	if held {
		gocv.Rectangle(&mats[0], r, lhtRed, 1)
		text = append(text, "Scene Change")
	}
	for i, str := range text {
		gocv.PutText(&mats[0], str, image.Pt(32, 32*(i+1)), gocv.FontHersheyPlain, 2.0, drkRed, 2)
	}

	for i, w := range d.windows {
		w.IMShow(mats[i])
	}
	d.windows[0].WaitKey(1)
}
