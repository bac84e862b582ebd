/*
DESCRIPTION
  median_test.go tests the aging median background model.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package background

import (
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// uniform returns a w x h frame with ch channels, all samples set to v.
func uniform(w, h, ch int, v uint8) *Frame {
	f := NewFrame(w, h, ch)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func TestNewMedian(t *testing.T) {
	first := uniform(4, 3, 3, 0)
	tests := []struct {
		name    string
		first   *Frame
		rate    float64
		vpb     int
		wantErr bool
	}{
		{name: "valid", first: first, rate: 1.009, vpb: 4},
		{name: "no frame", rate: 1.009, vpb: 4, wantErr: true},
		{name: "rate one", first: first, rate: 1, vpb: 4, wantErr: true},
		{name: "rate below one", first: first, rate: 0.5, vpb: 4, wantErr: true},
		{name: "rate NaN", first: first, rate: math.NaN(), vpb: 4, wantErr: true},
		{name: "bad bin width", first: first, rate: 1.009, vpb: 5, wantErr: true},
	}

	for _, test := range tests {
		_, err := NewMedian(test.first, test.rate, test.vpb)
		if (err != nil) != test.wantErr {
			t.Errorf("%s: unexpected error state, got: %v, wantErr: %v", test.name, err, test.wantErr)
		}
	}
}

func TestMedianLateOutlier(t *testing.T) {
	m, err := NewMedian(uniform(1, 1, 1, 0), 2, 1)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}

	for _, v := range []uint8{10, 10, 10} {
		err = m.Update(uniform(1, 1, 1, v))
		if err != nil {
			t.Fatalf("could not update model: %v", err)
		}
	}
	if got := m.Image().Pix[0]; got != 10 {
		t.Errorf("unexpected background before outlier, got: %d, want: 10", got)
	}

	err = m.Update(uniform(1, 1, 1, 50))
	if err != nil {
		t.Fatalf("could not update model: %v", err)
	}
	if got := m.Image().Pix[0]; got != 50 {
		t.Errorf("unexpected background after outlier, got: %d, want: 50", got)
	}
	if m.TotalAge() != 15 {
		t.Errorf("unexpected total age, got: %v, want: 15", m.TotalAge())
	}
	if m.Age() != 16 {
		t.Errorf("unexpected age, got: %v, want: 16", m.Age())
	}
	if m.Frames() != 4 {
		t.Errorf("unexpected frame count, got: %d, want: 4", m.Frames())
	}
}

func TestMedianConvergence(t *testing.T) {
	const w, h, ch = 5, 4, 3
	m, err := NewMedian(uniform(w, h, ch, 0), 1.05, 4)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}

	old := uniform(w, h, ch, 28)
	for i := 0; i < 50; i++ {
		if err := m.Update(old); err != nil {
			t.Fatalf("could not update model: %v", err)
		}
	}
	if diff := cmp.Diff(old.Pix, m.Image().Pix); diff != "" {
		t.Errorf("background did not settle on first scene (-want +got):\n%s", diff)
	}

	// A new constant scene eventually outweighs the history.
	next := uniform(w, h, ch, 201)
	for i := 0; i < 200; i++ {
		if err := m.Update(next); err != nil {
			t.Fatalf("could not update model: %v", err)
		}
	}
	want := uniform(w, h, ch, 200)
	if diff := cmp.Diff(want.Pix, m.Image().Pix); diff != "" {
		t.Errorf("background did not converge on new scene (-want +got):\n%s", diff)
	}
}

// A slow model still holds the old scene when a fast one has moved on.
func TestMedianRates(t *testing.T) {
	first := uniform(1, 1, 1, 0)
	slow, err := NewMedian(first, 1.005, 4)
	if err != nil {
		t.Fatalf("could not create slow model: %v", err)
	}
	fast, err := NewMedian(first, 1.05, 4)
	if err != nil {
		t.Fatalf("could not create fast model: %v", err)
	}

	for i := 0; i < 100; i++ {
		slow.Update(uniform(1, 1, 1, 20))
		fast.Update(uniform(1, 1, 1, 20))
	}
	for i := 0; i < 30; i++ {
		slow.Update(uniform(1, 1, 1, 120))
		fast.Update(uniform(1, 1, 1, 120))
	}

	if got := slow.Image().Pix[0]; got != 20 {
		t.Errorf("unexpected slow background, got: %d, want: 20", got)
	}
	if got := fast.Image().Pix[0]; got != 120 {
		t.Errorf("unexpected fast background, got: %d, want: 120", got)
	}
}

func TestMedianShapeMismatch(t *testing.T) {
	m, err := NewMedian(uniform(4, 4, 3, 0), 1.01, 4)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}

	for _, f := range []*Frame{uniform(4, 5, 3, 0), uniform(5, 4, 3, 0), uniform(4, 4, 1, 0)} {
		err := m.Update(f)
		if !errors.Is(err, ErrShape) {
			t.Errorf("unexpected error for %dx%dx%d frame, got: %v, want: %v", f.Width, f.Height, f.Channels, err, ErrShape)
		}
	}
	if m.Frames() != 0 {
		t.Errorf("rejected frames were counted, got: %d", m.Frames())
	}
}

// TestMedianRescale runs a fast model long enough that its ages would
// overflow float32 without rescaling.
func TestMedianRescale(t *testing.T) {
	const frames = 1000
	m, err := NewMedian(uniform(2, 2, 1, 0), 1.5, 4)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}

	rng := rand.New(rand.NewSource(3))
	f := NewFrame(2, 2, 1)
	for i := 0; i < frames; i++ {
		for j := range f.Pix {
			f.Pix[j] = uint8(rng.Intn(256))
		}
		if i >= frames-40 {
			for j := range f.Pix {
				f.Pix[j] = 99
			}
		}
		if err := m.Update(f); err != nil {
			t.Fatalf("could not update model: %v", err)
		}

		total := m.TotalAge()
		if math.IsInf(total, 0) || math.IsNaN(total) || total > rescaleLimit {
			t.Fatalf("frame %d: total age out of range: %v", i, total)
		}
		for row := 0; row < 2; row++ {
			for col := 0; col < 2; col++ {
				if !m.Histograms().Balanced(row, col, 0) {
					t.Fatalf("frame %d: cell (%d, %d) not balanced", i, row, col)
				}
			}
		}
	}

	if diff := cmp.Diff(uniform(2, 2, 1, 96).Pix, m.Image().Pix); diff != "" {
		t.Errorf("background did not follow recent frames (-want +got):\n%s", diff)
	}
}

func TestRescaleKeepsImage(t *testing.T) {
	m, err := NewMedian(uniform(3, 3, 1, 0), 1.1, 4)
	if err != nil {
		t.Fatalf("could not create model: %v", err)
	}
	rng := rand.New(rand.NewSource(4))
	f := NewFrame(3, 3, 1)
	for i := 0; i < 100; i++ {
		for j := range f.Pix {
			f.Pix[j] = uint8(rng.Intn(256))
		}
		m.Update(f)
	}

	before := m.Image()
	age := m.Age() / m.TotalAge()
	m.rescale()

	if diff := cmp.Diff(before, m.Image()); diff != "" {
		t.Errorf("background changed on rescale (-want +got):\n%s", diff)
	}
	if m.TotalAge() < 1 || m.TotalAge() >= 2 {
		t.Errorf("unexpected total age after rescale: %v", m.TotalAge())
	}
	if got := m.Age() / m.TotalAge(); math.Abs(got-age) > 1e-6 {
		t.Errorf("age ratio changed on rescale, got: %v, want: %v", got, age)
	}
}

func TestFrameFromImage(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 7})
	f := FrameFromImage(gray)
	if diff := cmp.Diff(&Frame{Width: 2, Height: 1, Channels: 1, Pix: []uint8{0, 7}}, f); diff != "" {
		t.Errorf("unexpected gray frame (-want +got):\n%s", diff)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	nrgba.SetNRGBA(0, 1, color.NRGBA{R: 1, G: 2, B: 3, A: 0xff})
	f = FrameFromImage(nrgba)
	if diff := cmp.Diff(&Frame{Width: 1, Height: 2, Channels: 3, Pix: []uint8{0, 0, 0, 1, 2, 3}}, f); diff != "" {
		t.Errorf("unexpected colour frame (-want +got):\n%s", diff)
	}

	rgba, ok := f.Image().(*image.RGBA)
	if !ok {
		t.Fatalf("unexpected image type %T", f.Image())
	}
	if got := rgba.RGBAAt(0, 1); got != (color.RGBA{R: 1, G: 2, B: 3, A: 0xff}) {
		t.Errorf("unexpected pixel, got: %v", got)
	}
	if diff := cmp.Diff(f, FrameFromImage(rgba)); diff != "" {
		t.Errorf("unexpected frame from RGBA (-want +got):\n%s", diff)
	}
}

func BenchmarkMedianUpdate(b *testing.B) {
	const w, h, ch = 320, 240, 3
	m, err := NewMedian(uniform(w, h, ch, 0), 1.009, 4)
	if err != nil {
		b.Fatalf("could not create model: %v", err)
	}
	rng := rand.New(rand.NewSource(5))
	f := NewFrame(w, h, ch)
	for i := range f.Pix {
		f.Pix[i] = uint8(rng.Intn(256))
	}
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		m.Update(f)
	}
}
