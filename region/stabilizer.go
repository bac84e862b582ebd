/*
DESCRIPTION
  stabilizer.go provides Stabilizer, which follows the bounding rectangle of
  a change mask across frames and freezes it once it stops growing.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package region turns per frame change masks into a stable rectangle
// around a changed region.
package region

import (
	"image"
)

// Defaults for NewStabilizer.
const (
	DefaultPadding    = 10 // Pixels added to each side of a bounding rectangle.
	DefaultHoldFrames = 40 // Frames a final rectangle is held for.
)

// State is the state of a Stabilizer.
type State int

// Stabilizer states.
const (
	Idle    State = iota // No changed region.
	Growing              // Following a candidate rectangle that is still growing.
	Final                // Holding the last candidate after it stopped growing.
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Growing:
		return "Growing"
	case Final:
		return "Final"
	default:
		return "Unknown"
	}
}

// Stabilizer grows a candidate rectangle while successive masks give larger
// bounding rectangles. When a mask's rectangle is no larger than the
// candidate, the candidate is taken to be the settled outline of the changed
// region and is held for a fixed number of frames, whatever later masks hold.
type Stabilizer struct {
	padding    int
	holdFrames int

	state     State
	candidate image.Rectangle
	final     image.Rectangle
	remaining int // Frames the final rectangle is still held for.
}

// NewStabilizer returns an Idle Stabilizer. Negative padding is treated as
// zero and a non-positive hold as DefaultHoldFrames.
func NewStabilizer(padding, holdFrames int) *Stabilizer {
	s := &Stabilizer{}
	s.SetPadding(padding)
	s.SetHoldFrames(holdFrames)
	return s
}

// SetPadding sets the padding applied to subsequent bounding rectangles.
func (s *Stabilizer) SetPadding(padding int) {
	if padding < 0 {
		padding = 0
	}
	s.padding = padding
}

// SetHoldFrames sets the number of frames later final rectangles are held for.
func (s *Stabilizer) SetHoldFrames(n int) {
	if n <= 0 {
		n = DefaultHoldFrames
	}
	s.holdFrames = n
}

// Observe advances the stabilizer by one frame with the given cleaned change
// mask. It returns the final rectangle and true while one is held.
func (s *Stabilizer) Observe(mask *image.Gray) (image.Rectangle, bool) {
	if s.state == Final {
		s.remaining--
		if s.remaining > 0 {
			return s.final, true
		}
		s.Reset()
		return image.Rectangle{}, false
	}

	r, ok := BoundingRect(mask, s.padding)
	if !ok {
		s.Reset()
		return image.Rectangle{}, false
	}

	switch s.state {
	case Idle:
		s.state = Growing
		s.candidate = r
	case Growing:
		if area(r) > area(s.candidate) {
			s.candidate = r
			break
		}
		s.state = Final
		s.final = s.candidate
		s.remaining = s.holdFrames
		return s.final, true
	}
	return image.Rectangle{}, false
}

// Reset returns the stabilizer to Idle, discarding any rectangles.
func (s *Stabilizer) Reset() {
	s.state = Idle
	s.candidate = image.Rectangle{}
	s.final = image.Rectangle{}
	s.remaining = 0
}

// State returns the current state.
func (s *Stabilizer) State() State { return s.state }

// Candidate returns the rectangle being grown; it is empty unless the state
// is Growing.
func (s *Stabilizer) Candidate() image.Rectangle { return s.candidate }

// Final returns the held rectangle and the number of frames, including the
// current one, it is still held for.
func (s *Stabilizer) Final() (image.Rectangle, int) { return s.final, s.remaining }

// BoundingRect returns the smallest rectangle containing every non-zero
// pixel of mask, grown by padding on each side and clipped to the mask's
// bounds. It returns false if mask has no non-zero pixels.
func BoundingRect(mask *image.Gray, padding int) (image.Rectangle, bool) {
	b := mask.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):mask.PixOffset(b.Min.X, y)+b.Dx()]
		for i, v := range row {
			if v == 0 {
				continue
			}
			x := b.Min.X + i
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			maxY = y
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	r := image.Rect(minX, minY, maxX+1, maxY+1).Inset(-padding)
	return r.Intersect(b), true
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }
