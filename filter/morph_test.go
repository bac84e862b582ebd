//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  morph_test.go tests mask cleanup and outline drawing.

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
	"testing"

	"github.com/ausocean/sentry/region"
)

func square(size int, rs ...image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, size, size))
	for _, r := range rs {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.Pix[m.PixOffset(x, y)] = 0xff
			}
		}
	}
	return m
}

func TestClean(t *testing.T) {
	blob := image.Rect(10, 10, 30, 30)
	speck := image.Rect(40, 40, 42, 42)
	tests := []struct {
		name          string
		mask          *image.Gray
		erode, dilate int
		want          image.Rectangle
		wantOK        bool
	}{
		{name: "untouched", mask: square(50, blob), want: blob, wantOK: true},
		{name: "erode shrinks", mask: square(50, blob), erode: 2, want: blob.Inset(2), wantOK: true},
		{name: "dilate grows", mask: square(50, blob), dilate: 1, want: blob.Inset(-1), wantOK: true},
		{name: "speck removed", mask: square(50, blob, speck), erode: 2, dilate: 1, want: blob.Inset(1), wantOK: true},
		{name: "only speck", mask: square(50, speck), erode: 2, dilate: 1},
	}

	c := newCleaner()
	defer c.close()
	for _, test := range tests {
		got, ok := region.BoundingRect(c.clean(test.mask, test.erode, test.dilate), 0)
		if ok != test.wantOK || got != test.want {
			t.Errorf("%s: unexpected bounds, got: %v %v, want: %v %v", test.name, got, ok, test.want, test.wantOK)
		}
	}
}

func TestOutline(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 40, 40))
	r := image.Rect(10, 10, 30, 30)
	outline(dst, r, 4)

	tests := []struct {
		p    image.Point
		want bool
	}{
		{image.Pt(8, 20), true},
		{image.Pt(11, 20), true},
		{image.Pt(12, 20), false},
		{image.Pt(7, 20), false},
		{image.Pt(20, 9), true},
		{image.Pt(31, 31), true},
		{image.Pt(20, 20), false},
	}
	for _, test := range tests {
		got := dst.RGBAAt(test.p.X, test.p.Y) == outlineColor
		if got != test.want {
			t.Errorf("pixel %v: got outlined: %v, want: %v", test.p, got, test.want)
		}
	}

	// Outlines are clipped at the image edges.
	outline(dst, image.Rect(0, 0, 40, 40), 4)
	if dst.RGBAAt(0, 0) != outlineColor || dst.RGBAAt(39, 39) != outlineColor {
		t.Error("expected outline at image corners")
	}
}
