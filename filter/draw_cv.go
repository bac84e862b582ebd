//go:build withcv
// +build withcv

/*
DESCRIPTION
  draw_cv.go outlines held regions on frames with OpenCV.

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

	"gocv.io/x/gocv"
)

// annotate returns img as a JPEG with r outlined.
func annotate(img image.Image, r image.Rectangle) ([]byte, error) {
	m, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("could not convert image: %w", err)
	}
	defer m.Close()

	gocv.Rectangle(&m, r, outlineColor, outlineThickness)

	nb, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, m, []int{gocv.IMWriteJpegQuality, jpegQuality})
	if err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}
	defer nb.Close()
	return append([]byte(nil), nb.GetBytes()...), nil
}
