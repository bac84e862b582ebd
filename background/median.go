/*
DESCRIPTION
  median.go provides Median, a background model that estimates each pixel
  channel as the weighted median of all frames seen so far, with the weight of
  each new frame growing geometrically so that recent frames dominate.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package background

import (
	"math"

	"github.com/pkg/errors"
)

// Once the total age passes rescaleLimit all weights and ages are scaled
// down. float32 overflows near 3.4e38.
const rescaleLimit = 1e30

// Median is an aging weighted median background model.
type Median struct {
	hist   *Histograms
	shape  Frame   // Shape of the first frame; Pix is unused.
	rate   float32 // Factor the age grows by after each frame.
	age    float32 // Weight given to samples of the next frame.
	total  float32 // Sum of all ages applied.
	frames uint64
}

// NewMedian returns a Median sized to first. The first frame only fixes the
// shape of the model; it is not added as a sample. rate must be greater
// than 1; values close to 1 adapt slowly.
func NewMedian(first *Frame, rate float64, valuesPerBin int) (*Median, error) {
	if first == nil {
		return nil, errors.New("no initial frame")
	}
	if !(rate > 1) || math.IsInf(rate, 1) {
		return nil, errors.Errorf("aging rate must be greater than 1, got %v", rate)
	}
	h, err := NewHistograms(first.Height, first.Width, first.Channels, valuesPerBin)
	if err != nil {
		return nil, errors.Wrap(err, "could not create histograms")
	}
	return &Median{
		hist:  h,
		shape: Frame{Width: first.Width, Height: first.Height, Channels: first.Channels},
		rate:  float32(rate),
		age:   1,
	}, nil
}

// Update adds every sample of f to the model with the current age as its
// weight, then grows the age. f must have the shape of the first frame.
func (m *Median) Update(f *Frame) error {
	err := m.shape.checkShape(f)
	if err != nil {
		return err
	}
	for c, v := range f.Pix {
		m.hist.add(c, v, m.age)
	}
	m.total += m.age
	m.age *= m.rate
	m.frames++

	if m.total > rescaleLimit {
		m.rescale()
	}
	return nil
}

// rescale scales all weights and ages by the power of two that brings the
// total age into [1, 2). Multiplying by a power of two is exact, so the
// ratios between weights, and therefore the medians, are preserved.
func (m *Median) rescale() {
	f := float32(math.Ldexp(1, -math.Ilogb(float64(m.total))))
	m.hist.scale(f)
	m.age *= f
	m.total *= f
}

// Image returns the current background, each sample being the median of its
// pixel channel.
func (m *Median) Image() *Frame {
	f := NewFrame(m.shape.Width, m.shape.Height, m.shape.Channels)
	for c := range f.Pix {
		f.Pix[c] = m.hist.medianValue(c)
	}
	return f
}

// Histograms returns the model's histogram bank.
func (m *Median) Histograms() *Histograms { return m.hist }

// AgingRate returns the factor the sample weight grows by each frame.
func (m *Median) AgingRate() float64 { return float64(m.rate) }

// Age returns the weight that will be given to the next frame.
func (m *Median) Age() float64 { return float64(m.age) }

// TotalAge returns the sum of the weights given to all frames so far, in the
// model's current scale.
func (m *Median) TotalAge() float64 { return float64(m.total) }

// Frames returns the number of frames added to the model.
func (m *Median) Frames() uint64 { return m.frames }
