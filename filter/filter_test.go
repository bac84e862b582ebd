/*
DESCRIPTION
  filter_test.go contains tests and benchmarks for the filter implementations.

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
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/ausocean/sentry/background"
	"github.com/ausocean/sentry/config"
	"github.com/ausocean/utils/logging"
)

const (
	frameSize   = 80
	bgLevel     = 40
	objLevel    = 200
	bgFrames    = 100
	objFrames   = 30
	testHold    = 10
	testPadding = 10
)

var obj = image.Rect(30, 30, 50, 50)

// jpegFrame returns a gray JPEG of a flat background, with the object drawn
// if withObj is set.
func jpegFrame(t testing.TB, size int, withObj bool) []byte {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = bgLevel
	}
	if withObj {
		for y := obj.Min.Y; y < obj.Max.Y; y++ {
			for x := obj.Min.X; x < obj.Max.X; x++ {
				img.SetGray(x, y, color.Gray{objLevel})
			}
		}
	}
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	if err != nil {
		t.Fatalf("could not encode frame: %v", err)
	}
	return buf.Bytes()
}

func testConfig(l logging.Logger) config.Config {
	return config.Config{
		Logger:             l,
		ValuesPerBin:       4,
		AgingRateSlow:      1.01,
		AgingRateFast:      1.2,
		DiffThreshold:      50,
		ErodeIterations:    2,
		DilateIterations:   1,
		BoundingBoxPadding: testPadding,
		FinalHoldFrames:    testHold,
	}
}

type recorder struct{ frames [][]byte }

func (r *recorder) Write(p []byte) (int, error) {
	r.frames = append(r.frames, append([]byte(nil), p...))
	return len(p), nil
}

func (r *recorder) Close() error { return nil }

type dumbWriteCloser struct{}

func (d *dumbWriteCloser) Write(p []byte) (int, error) { return len(p), nil }
func (d *dumbWriteCloser) Close() error                { return nil }

func TestNoOp(t *testing.T) {
	var dst recorder
	f := NewNoOp(&dst)
	in := []byte{0xff, 0xd8, 0xff, 0xd9}
	n, err := f.Write(in)
	if err != nil || n != len(in) {
		t.Fatalf("unexpected write result: %d, %v", n, err)
	}
	if len(dst.frames) != 1 || !bytes.Equal(dst.frames[0], in) {
		t.Errorf("unexpected output: %v", dst.frames)
	}
}

// quietFilter passes frames on only while pass is set.
type quietFilter struct {
	dst  *recorder
	pass bool
}

func (q *quietFilter) Write(p []byte) (int, error) {
	if q.pass {
		return q.dst.Write(p)
	}
	return len(p), nil
}
func (q *quietFilter) Close() error   { return nil }
func (q *quietFilter) Detected() bool { return q.pass }

func TestVariableFPS(t *testing.T) {
	var dst recorder
	q := &quietFilter{dst: &dst}
	v := NewVariableFPS(&dst, 25, 5, q)

	for i := 1; i <= 10; i++ {
		_, err := v.Write([]byte{byte(i)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := [][]byte{{5}, {10}}
	if len(dst.frames) != len(want) || !bytes.Equal(dst.frames[0], want[0]) || !bytes.Equal(dst.frames[1], want[1]) {
		t.Errorf("unexpected quiet output, got: %v, want: %v", dst.frames, want)
	}

	// While the wrapped filter passes frames nothing is duplicated.
	dst.frames = nil
	q.pass = true
	for i := 1; i <= 10; i++ {
		v.Write([]byte{byte(i)})
	}
	if len(dst.frames) != 10 {
		t.Errorf("unexpected number of frames while detecting, got: %d, want: 10", len(dst.frames))
	}
}

func TestVariableFPSNoDetector(t *testing.T) {
	var dst recorder
	v := NewVariableFPS(&dst, 0, 0, NewNoOp(&dst))
	for i := 0; i < 50; i++ {
		v.Write([]byte{byte(i)})
	}
	if len(dst.frames) != 50 {
		t.Errorf("unexpected number of frames, got: %d, want: 50", len(dst.frames))
	}
}

func TestSceneChange(t *testing.T) {
	var dst recorder
	s := NewSceneChange(&dst, testConfig((*logging.TestLogger)(t)))
	defer s.Close()

	bg := jpegFrame(t, frameSize, false)
	for i := 0; i < bgFrames; i++ {
		_, err := s.Write(bg)
		if err != nil {
			t.Fatalf("unexpected error on background frame %d: %v", i, err)
		}
		if s.Detected() {
			t.Fatalf("unexpected detection on background frame %d", i)
		}
	}
	if len(dst.frames) != 0 {
		t.Fatalf("unexpected output for constant scene: %d frames", len(dst.frames))
	}

	withObj := jpegFrame(t, frameSize, true)
	var shown []int
	for i := 1; i <= objFrames; i++ {
		_, err := s.Write(withObj)
		if err != nil {
			t.Fatalf("unexpected error on object frame %d: %v", i, err)
		}
		if s.Detected() {
			shown = append(shown, i)
		}
	}

	// The fast model adopts the object on its 4th frame, the region stalls
	// on the 5th and is then held for testHold frames. Afterwards it is
	// found again while the slow model still lacks the object.
	if len(shown) == 0 || shown[0] != 5 {
		t.Fatalf("unexpected first detection, got frames: %v, want first: 5", shown)
	}
	if len(shown) != len(dst.frames) {
		t.Errorf("detections and output disagree: %d vs %d", len(shown), len(dst.frames))
	}
	if len(shown) != 22 {
		t.Errorf("unexpected number of frames shown, got: %d (%v), want: 22", len(shown), shown)
	}
	if s.Frames() != bgFrames+objFrames {
		t.Errorf("unexpected frame count, got: %d, want: %d", s.Frames(), bgFrames+objFrames)
	}

	img, err := jpeg.Decode(bytes.NewReader(dst.frames[0]))
	if err != nil {
		t.Fatalf("could not decode output: %v", err)
	}
	// The cleaned mask is the object shrunk by one pixel, padded by testPadding.
	want := obj.Inset(1).Inset(-testPadding)
	r, g, _, _ := img.At(want.Min.X, (want.Min.Y+want.Max.Y)/2).RGBA()
	if r>>8 < 150 || g>>8 > 120 {
		t.Errorf("expected outline at left edge of %v, got r=%d g=%d", want, r>>8, g>>8)
	}
	r, g, _, _ = img.At(frameSize/2, frameSize/2).RGBA()
	if r>>8 < objLevel-20 || g>>8 < objLevel-20 {
		t.Errorf("unexpected colour inside region, got r=%d g=%d", r>>8, g>>8)
	}
}

func TestSceneChangeShapeMismatch(t *testing.T) {
	s := NewSceneChange(&dumbWriteCloser{}, testConfig((*logging.TestLogger)(t)))
	defer s.Close()
	_, err := s.Write(jpegFrame(t, frameSize, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = s.Write(jpegFrame(t, frameSize/2, false))
	if !errors.Is(err, background.ErrShape) {
		t.Errorf("unexpected error, got: %v, want: %v", err, background.ErrShape)
	}
}

func TestSceneChangeBadFrame(t *testing.T) {
	s := NewSceneChange(&dumbWriteCloser{}, testConfig((*logging.TestLogger)(t)))
	defer s.Close()
	in := []byte{0xff, 0xd8, 'b', 'a', 'd', 0xff, 0xd9}
	n, err := s.Write(in)
	if err != nil || n != len(in) {
		t.Errorf("unexpected result for bad frame: %d, %v", n, err)
	}
	if s.Frames() != 0 {
		t.Errorf("bad frame reached the models")
	}
}

func TestSceneChangeTune(t *testing.T) {
	var dst recorder
	c := testConfig((*logging.TestLogger)(t))
	s := NewSceneChange(&dst, c)
	defer s.Close()

	bg := jpegFrame(t, frameSize, false)
	for i := 0; i < bgFrames; i++ {
		s.Write(bg)
	}

	// A threshold above the object contrast hides it.
	c.DiffThreshold = 250
	s.Tune(c)
	withObj := jpegFrame(t, frameSize, true)
	for i := 0; i < 10; i++ {
		s.Write(withObj)
	}
	if len(dst.frames) != 0 {
		t.Errorf("unexpected output with high threshold: %d frames", len(dst.frames))
	}

	c.DiffThreshold = 50
	s.Tune(c)
	for i := 0; i < 2; i++ {
		s.Write(withObj)
	}
	if len(dst.frames) != 1 {
		t.Errorf("unexpected output after lowering threshold, got: %d frames, want: 1", len(dst.frames))
	}
}

// TestSceneChangeNoCleanup checks that zero erosion, dilation and padding
// from the config reach the filter, so the held region is the object itself.
func TestSceneChangeNoCleanup(t *testing.T) {
	c := config.Config{Logger: (*logging.TestLogger)(t), Input: config.InputManual}
	c.Update(map[string]string{
		config.KeyValuesPerBin:       "4",
		config.KeyAgingRateSlow:      "1.01",
		config.KeyAgingRateFast:      "1.2",
		config.KeyErodeIterations:    "0",
		config.KeyDilateIterations:   "0",
		config.KeyBoundingBoxPadding: "0",
		config.KeyFinalHoldFrames:    "10",
	})
	err := c.Validate()
	if err != nil {
		t.Fatalf("config struct is bad: %v", err)
	}
	if c.ErodeIterations != 0 || c.DilateIterations != 0 || c.BoundingBoxPadding != 0 {
		t.Fatalf("zero settings not kept, erode: %d dilate: %d padding: %d", c.ErodeIterations, c.DilateIterations, c.BoundingBoxPadding)
	}

	s := NewSceneChange(&dumbWriteCloser{}, c)
	defer s.Close()
	if s.Mask() != nil {
		t.Error("unexpected mask before first frame")
	}

	bg := jpegFrame(t, frameSize, false)
	for i := 0; i < bgFrames; i++ {
		s.Write(bg)
	}
	if _, ok := s.Region(); ok {
		t.Fatal("unexpected region for constant scene")
	}

	withObj := jpegFrame(t, frameSize, true)
	var (
		r  image.Rectangle
		ok bool
	)
	for i := 0; i < objFrames && !ok; i++ {
		_, err := s.Write(withObj)
		if err != nil {
			t.Fatalf("unexpected error on object frame %d: %v", i, err)
		}
		r, ok = s.Region()
	}
	if !ok {
		t.Fatal("object not detected")
	}
	if !obj.Inset(1).In(r) || !r.In(obj.Inset(-1)) {
		t.Errorf("unexpected region, got: %v, want about: %v", r, obj)
	}

	var n int
	for _, v := range s.Mask().Pix {
		if v != 0 {
			n++
		}
	}
	if lo, hi := obj.Inset(1).Dx()*obj.Inset(1).Dy(), obj.Inset(-1).Dx()*obj.Inset(-1).Dy(); n < lo || n > hi {
		t.Errorf("unexpected changed pixel count, got: %d, want between %d and %d", n, lo, hi)
	}
}

// logRecorder is a logging.Logger that keeps every message and its
// arguments.
type logRecorder struct {
	msgs []string
	args [][]interface{}
}

func (l *logRecorder) Log(lvl int8, msg string, args ...interface{}) {
	l.msgs = append(l.msgs, msg)
	l.args = append(l.args, args)
}
func (l *logRecorder) SetLevel(lvl int8)                       {}
func (l *logRecorder) Debug(msg string, args ...interface{})   { l.Log(logging.Debug, msg, args...) }
func (l *logRecorder) Info(msg string, args ...interface{})    { l.Log(logging.Info, msg, args...) }
func (l *logRecorder) Warning(msg string, args ...interface{}) { l.Log(logging.Warning, msg, args...) }
func (l *logRecorder) Error(msg string, args ...interface{})   { l.Log(logging.Error, msg, args...) }
func (l *logRecorder) Fatal(msg string, args ...interface{})   { l.Log(logging.Fatal, msg, args...) }

// TestSceneChangeDetectionLog checks each detection is logged with the mean
// background difference at that frame.
func TestSceneChangeDetectionLog(t *testing.T) {
	l := &logRecorder{}
	s := NewSceneChange(&dumbWriteCloser{}, testConfig(l))
	defer s.Close()

	bg := jpegFrame(t, frameSize, false)
	for i := 0; i < bgFrames; i++ {
		s.Write(bg)
	}
	withObj := jpegFrame(t, frameSize, true)
	for i := 0; i < objFrames; i++ {
		s.Write(withObj)
	}

	var detections, means int
	for i, msg := range l.msgs {
		switch msg {
		case "scene change detected":
			detections++
		case "background difference at detection":
			means++
			args := l.args[i]
			if len(args) != 2 || args[0] != "mean" {
				t.Errorf("unexpected arguments: %v", args)
				continue
			}
			if mean, ok := args[1].(float64); !ok || mean <= 0 {
				t.Errorf("unexpected mean difference: %v", args[1])
			}
		}
	}
	if detections == 0 {
		t.Fatal("no detections logged")
	}
	if means != detections {
		t.Errorf("mean difference logged %d times for %d detections", means, detections)
	}
}

func BenchmarkSceneChange(b *testing.B) {
	cfg := config.Config{Logger: logging.New(logging.Debug, &bytes.Buffer{}, true), Input: config.InputManual}
	err := cfg.Validate()
	if err != nil {
		b.Fatalf("config struct is bad: %v#", err)
	}

	f := NewSceneChange(&dumbWriteCloser{}, cfg)
	frames := [][]byte{jpegFrame(b, 320, false), jpegFrame(b, 320, true)}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		_, err := f.Write(frames[n%2])
		if err != nil {
			b.Fatalf("cannot write to scene change filter: %v#", err)
		}
	}
}
