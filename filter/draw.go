//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  draw.go outlines held regions on frames for builds without OpenCV.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package filter

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
)

// annotate returns img as a JPEG with r outlined.
func annotate(img image.Image, r image.Rectangle) ([]byte, error) {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	outline(dst, r, outlineThickness)

	var buf bytes.Buffer
	err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// outline draws a border of the given thickness centred on the edges of r.
func outline(dst draw.Image, r image.Rectangle, thickness int) {
	outer := r.Inset(-thickness / 2)
	inner := outer.Inset(thickness)
	c := image.NewUniform(outlineColor)
	for _, s := range []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // Top.
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // Bottom.
		image.Rect(outer.Min.X, outer.Min.Y, inner.Min.X, outer.Max.Y), // Left.
		image.Rect(inner.Max.X, outer.Min.Y, outer.Max.X, outer.Max.Y), // Right.
	} {
		draw.Draw(dst, s.Intersect(dst.Bounds()), c, image.Point{}, draw.Src)
	}
}
