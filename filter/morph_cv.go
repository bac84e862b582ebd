//go:build withcv
// +build withcv

/*
DESCRIPTION
  morph_cv.go provides mask cleanup with OpenCV erosion and dilation.

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

	"gocv.io/x/gocv"
)

type cvCleaner struct {
	knl gocv.Mat // 3x3 rectangular structuring element.
}

func newCleaner() cleaner {
	return &cvCleaner{knl: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))}
}

func (c *cvCleaner) clean(mask *image.Gray, erode, dilate int) *image.Gray {
	if erode == 0 && dilate == 0 {
		return mask
	}
	m, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return mask
	}
	defer m.Close()

	for i := 0; i < erode; i++ {
		gocv.Erode(m, &m, c.knl)
	}
	for i := 0; i < dilate; i++ {
		gocv.Dilate(m, &m, c.knl)
	}

	img, err := m.ToImage()
	if err != nil {
		return mask
	}
	g, ok := img.(*image.Gray)
	if !ok {
		return mask
	}
	return g
}

// close frees the kernel. It has to be done manually, due to gocv using
// c-go.
func (c *cvCleaner) close() error { return c.knl.Close() }
