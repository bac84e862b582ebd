/*
DESCRIPTION
  detector.go provides Detector, which finds sustained scene changes by
  comparing two median background models that adapt at different rates.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package change detects objects that have been left in, or removed from,
// a scene.
//
// A slow and a fast median background model see the same frames. Brief
// motion and flicker move neither median far, but an object that stays put
// enters the fast background long before the slow one, so the two disagree
// over the object for a sustained period.
package change

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/sentry/background"
)

// Params holds the parameters of the two background models.
type Params struct {
	ValuesPerBin int     // Width of each histogram bin, must divide 256.
	SlowRate     float64 // Aging rate of the slow model, greater than 1.
	FastRate     float64 // Aging rate of the fast model.
}

// Detector owns a slow and a fast background model.
type Detector struct {
	slow, fast *background.Median
	diff       []float64 // Gray difference of the last mask.
}

// New returns a Detector whose models are sized to first.
func New(first *background.Frame, p Params) (*Detector, error) {
	if p.FastRate == p.SlowRate {
		return nil, fmt.Errorf("aging rates must differ, both are %v", p.SlowRate)
	}
	slow, err := background.NewMedian(first, p.SlowRate, p.ValuesPerBin)
	if err != nil {
		return nil, fmt.Errorf("could not create slow background: %w", err)
	}
	fast, err := background.NewMedian(first, p.FastRate, p.ValuesPerBin)
	if err != nil {
		return nil, fmt.Errorf("could not create fast background: %w", err)
	}
	return &Detector{slow: slow, fast: fast}, nil
}

// Update adds f to both background models.
func (d *Detector) Update(f *background.Frame) error {
	err := d.slow.Update(f)
	if err != nil {
		return fmt.Errorf("could not update slow background: %w", err)
	}
	err = d.fast.Update(f)
	if err != nil {
		return fmt.Errorf("could not update fast background: %w", err)
	}
	return nil
}

// Backgrounds returns the current slow and fast background images.
func (d *Detector) Backgrounds() (slow, fast *background.Frame) {
	return d.slow.Image(), d.fast.Image()
}

// Models returns the slow and fast background models.
func (d *Detector) Models() (slow, fast *background.Median) {
	return d.slow, d.fast
}

// Mask returns a binary mask that is 0xff wherever the gray level of the
// absolute difference between the two backgrounds exceeds thresh, and 0
// elsewhere.
func (d *Detector) Mask(thresh float64) *image.Gray {
	slow, fast := d.Backgrounds()
	mask := image.NewGray(image.Rect(0, 0, slow.Width, slow.Height))
	if cap(d.diff) < len(mask.Pix) {
		d.diff = make([]float64, len(mask.Pix))
	}
	d.diff = d.diff[:len(mask.Pix)]

	ch := slow.Channels
	for i := range mask.Pix {
		p := i * ch
		var g uint8
		if ch == 3 {
			g = gray(absDiff(slow.Pix[p], fast.Pix[p]), absDiff(slow.Pix[p+1], fast.Pix[p+1]), absDiff(slow.Pix[p+2], fast.Pix[p+2]))
		} else {
			g = absDiff(slow.Pix[p], fast.Pix[p])
		}
		d.diff[i] = float64(g)
		if float64(g) > thresh {
			mask.Pix[i] = 0xff
		}
	}
	return mask
}

// MeanDifference returns the mean gray difference between the backgrounds
// as of the last call to Mask.
func (d *Detector) MeanDifference() float64 {
	if len(d.diff) == 0 {
		return 0
	}
	return stat.Mean(d.diff, nil)
}

// gray converts RGB to luma with the ITU-R BT.601 weights, rounding to
// nearest.
func gray(r, g, b uint8) uint8 {
	return uint8((299*uint32(r) + 587*uint32(g) + 114*uint32(b) + 500) / 1000)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
