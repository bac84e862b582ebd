/*
DESCRIPTION
  frame.go provides Frame, the flat pixel container consumed by the median
  background models, and conversions to and from image.Image.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package background

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// ErrShape is returned when a frame does not match the dimensions or channel
// count of the frame a model was initialised with.
var ErrShape = errors.New("frame shape does not match model")

// Frame holds 8 bit samples for a Width x Height image with Channels
// interleaved channels, stored row major.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewFrame returns a zeroed frame of the given shape.
func NewFrame(w, h, ch int) *Frame {
	return &Frame{Width: w, Height: h, Channels: ch, Pix: make([]uint8, w*h*ch)}
}

// At returns the sample at row, col and channel ch.
func (f *Frame) At(row, col, ch int) uint8 {
	return f.Pix[(row*f.Width+col)*f.Channels+ch]
}

// Set sets the sample at row, col and channel ch.
func (f *Frame) Set(row, col, ch int, v uint8) {
	f.Pix[(row*f.Width+col)*f.Channels+ch] = v
}

// SameShape reports whether f and g have equal dimensions and channel count.
func (f *Frame) SameShape(g *Frame) bool {
	return f.Width == g.Width && f.Height == g.Height && f.Channels == g.Channels
}

// checkShape returns a wrapped ErrShape if g differs in shape from f.
func (f *Frame) checkShape(g *Frame) error {
	if f.SameShape(g) {
		return nil
	}
	return errors.Wrapf(ErrShape, "want %dx%dx%d, got %dx%dx%d",
		f.Width, f.Height, f.Channels, g.Width, g.Height, g.Channels)
}

// FrameFromImage converts img into a Frame. Gray images give a single channel
// frame; anything else is converted to three channel RGB.
func FrameFromImage(img image.Image) *Frame {
	b := img.Bounds()
	switch im := img.(type) {
	case *image.Gray:
		f := NewFrame(b.Dx(), b.Dy(), 1)
		for y := 0; y < b.Dy(); y++ {
			off := im.PixOffset(b.Min.X, b.Min.Y+y)
			copy(f.Pix[y*f.Width:(y+1)*f.Width], im.Pix[off:off+f.Width])
		}
		return f
	case *image.RGBA:
		f := NewFrame(b.Dx(), b.Dy(), 3)
		for y := 0; y < b.Dy(); y++ {
			off := im.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < b.Dx(); x++ {
				i := (y*f.Width + x) * 3
				copy(f.Pix[i:i+3], im.Pix[off+4*x:off+4*x+3])
			}
		}
		return f
	}

	f := NewFrame(b.Dx(), b.Dy(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			i := (y*f.Width + x) * 3
			f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.R, c.G, c.B
		}
	}
	return f
}

// Image returns the frame as an *image.Gray for single channel frames and
// an opaque *image.RGBA otherwise.
func (f *Frame) Image() image.Image {
	r := image.Rect(0, 0, f.Width, f.Height)
	if f.Channels == 1 {
		g := image.NewGray(r)
		copy(g.Pix, f.Pix)
		return g
	}

	im := image.NewRGBA(r)
	for i, j := 0, 0; i < len(f.Pix); i, j = i+f.Channels, j+4 {
		im.Pix[j], im.Pix[j+1], im.Pix[j+2], im.Pix[j+3] = f.Pix[i], f.Pix[i+1], f.Pix[i+2], 0xff
	}
	return im
}
