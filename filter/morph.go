//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  morph.go provides mask cleanup with pure Go min and max filters for builds
  without OpenCV.

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

	"github.com/disintegration/gift"
)

const kernelSize = 3

// giftCleaner erodes with a 3x3 minimum filter and dilates with a 3x3
// maximum filter.
type giftCleaner struct{}

func newCleaner() cleaner { return giftCleaner{} }

func (giftCleaner) clean(mask *image.Gray, erode, dilate int) *image.Gray {
	if erode == 0 && dilate == 0 {
		return mask
	}
	g := gift.New()
	for i := 0; i < erode; i++ {
		g.Add(gift.Minimum(kernelSize, false))
	}
	for i := 0; i < dilate; i++ {
		g.Add(gift.Maximum(kernelSize, false))
	}
	dst := image.NewGray(g.Bounds(mask.Bounds()))
	g.Draw(dst, mask)
	return dst
}

func (giftCleaner) close() error { return nil }
