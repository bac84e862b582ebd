/*
DESCRIPTION
  scenechange.go provides SceneChange, a filter that detects objects left in
  or removed from a scene and passes on only frames in which a changed region
  is held, with the region outlined.

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
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"sync"

	"github.com/ausocean/sentry/background"
	"github.com/ausocean/sentry/change"
	"github.com/ausocean/sentry/config"
	"github.com/ausocean/sentry/region"
	"github.com/ausocean/utils/logging"
)

// Overlay parameters.
const (
	outlineThickness = 4
	jpegQuality      = 90
)

var outlineColor = color.RGBA{R: 0xff, A: 0xff}

// SceneChange feeds every frame to a change.Detector, cleans the resulting
// mask with erosion then dilation, and follows it with a region.Stabilizer.
// Frames for which the stabilizer holds a region are written to dst with the
// region outlined. Other frames are dropped.
type SceneChange struct {
	dst       io.Writer
	log       logging.Logger
	params    change.Params
	debugging debugWindows
	clean     cleaner

	det  *change.Detector
	stab *region.Stabilizer

	mu     sync.Mutex // Guards the tunables below and stab's settings.
	thresh float64
	erode  int
	dilate int

	frames   uint64
	detected bool
	mask     *image.Gray     // Cleaned change mask of the last frame.
	held     image.Rectangle // Region held for the last frame, if any.
}

// NewSceneChange returns a new SceneChange writing to dst. The background
// models are created from the first frame written.
func NewSceneChange(dst io.Writer, c config.Config) *SceneChange {
	s := &SceneChange{
		dst: dst,
		log: c.Logger,
		params: change.Params{
			ValuesPerBin: int(c.ValuesPerBin),
			SlowRate:     c.AgingRateSlow,
			FastRate:     c.AgingRateFast,
		},
		debugging: newWindows("SCENE CHANGE"),
		clean:     newCleaner(),
		stab:      region.NewStabilizer(int(c.BoundingBoxPadding), int(c.FinalHoldFrames)),
	}
	s.Tune(c)
	return s
}

// Tune applies the live tunable fields of c: DiffThreshold,
// BoundingBoxPadding, FinalHoldFrames, ErodeIterations and DilateIterations.
// The background models are kept.
func (s *SceneChange) Tune(c config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thresh = c.DiffThreshold
	s.erode = int(c.ErodeIterations)
	s.dilate = int(c.DilateIterations)
	s.stab.SetPadding(int(c.BoundingBoxPadding))
	s.stab.SetHoldFrames(int(c.FinalHoldFrames))
	s.log.Debug("scene change filter tuned", "threshold", s.thresh, "erode", s.erode, "dilate", s.dilate, "padding", c.BoundingBoxPadding, "hold", c.FinalHoldFrames)
}

// Write processes one JPEG frame. Frames that can't be decoded are logged
// and dropped. A frame whose shape differs from the first frame's is an
// error.
func (s *SceneChange) Write(f []byte) (int, error) {
	s.detected = false

	img, err := jpeg.Decode(bytes.NewReader(f))
	if err != nil {
		s.log.Warning("dropping frame that can't be decoded", "error", err.Error())
		return len(f), nil
	}
	frame := background.FrameFromImage(img)

	// The first frame sizes the models and is also their first sample.
	if s.det == nil {
		s.det, err = change.New(frame, s.params)
		if err != nil {
			return 0, fmt.Errorf("could not create detector: %w", err)
		}
		s.log.Info("background models created", "width", frame.Width, "height", frame.Height, "channels", frame.Channels)
	}
	err = s.det.Update(frame)
	if err != nil {
		return 0, fmt.Errorf("could not update detector on frame %d: %w", s.frames, err)
	}
	s.frames++

	s.mu.Lock()
	mask := s.clean.clean(s.det.Mask(s.thresh), s.erode, s.dilate)
	wasFinal := s.stab.State() == region.Final
	r, ok := s.stab.Observe(mask)
	s.mu.Unlock()
	s.mask, s.held = mask, r

	s.debugging.show(img, mask, r, ok, s.det, s.frames)

	if !ok {
		return len(f), nil
	}
	if !wasFinal {
		s.log.Info("scene change detected", "frame", s.frames, "rect", r.String())
		s.log.Debug("background difference at detection", "mean", s.det.MeanDifference())
	}

	out, err := annotate(img, r)
	if err != nil {
		return 0, fmt.Errorf("could not annotate frame: %w", err)
	}
	_, err = s.dst.Write(out)
	if err != nil {
		return 0, err
	}
	s.detected = true
	return len(f), nil
}

// Detected reports whether the last frame written was passed on.
func (s *SceneChange) Detected() bool { return s.detected }

// Mask returns the cleaned change mask of the last frame added to the
// models, or nil before the first frame.
func (s *SceneChange) Mask() *image.Gray { return s.mask }

// Region returns the region held for the last frame added to the models
// and whether one was held.
func (s *SceneChange) Region() (image.Rectangle, bool) { return s.held, !s.held.Empty() }

// Frames returns the number of frames added to the background models.
func (s *SceneChange) Frames() uint64 { return s.frames }

// Close frees resources used by the cleaner and debug windows.
func (s *SceneChange) Close() error {
	err := s.clean.close()
	if err != nil {
		return err
	}
	return s.debugging.close()
}

// cleaner removes speckle from change masks.
type cleaner interface {
	// clean applies erode 3x3 erosions followed by dilate 3x3 dilations.
	clean(mask *image.Gray, erode, dilate int) *image.Gray
	close() error
}
