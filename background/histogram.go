/*
DESCRIPTION
  histogram.go provides Histograms, a bank of weighted intensity histograms,
  one for each pixel channel of a frame, each tracking its own running median.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package background provides per pixel weighted median background models
// for video frames.
package background

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas/blas32"
)

// maxValue is one more than the largest 8 bit sample.
const maxValue = 256

// Histograms holds a weighted histogram of quantised intensities for every
// (row, col, channel) cell of a frame. Weights only ever increase, which lets
// the median bin of each cell be maintained incrementally.
//
// All per bin state lives in one flat slice indexed by cell and bin; cells
// are numbered in the same order as Frame.Pix.
type Histograms struct {
	rows, cols, channels int
	valuesPerBin         int
	bins                 int

	weight []float32 // Bin weights, bins entries per cell.
	total  []float32 // Total weight of each cell.
	below  []float32 // Weight strictly below the median bin of each cell.
	median []uint8   // Median bin of each cell.
}

// NewHistograms returns a zeroed bank of histograms for a rows x cols frame
// with the given number of channels. valuesPerBin must divide 256.
func NewHistograms(rows, cols, channels, valuesPerBin int) (*Histograms, error) {
	if rows <= 0 || cols <= 0 || channels <= 0 {
		return nil, errors.Errorf("invalid histogram dimensions %dx%dx%d", rows, cols, channels)
	}
	if valuesPerBin <= 0 || maxValue%valuesPerBin != 0 {
		return nil, errors.Errorf("values per bin must divide %d, got %d", maxValue, valuesPerBin)
	}
	cells := rows * cols * channels
	bins := maxValue / valuesPerBin
	return &Histograms{
		rows:         rows,
		cols:         cols,
		channels:     channels,
		valuesPerBin: valuesPerBin,
		bins:         bins,
		weight:       make([]float32, cells*bins),
		total:        make([]float32, cells),
		below:        make([]float32, cells),
		median:       make([]uint8, cells),
	}, nil
}

// Bins returns the number of bins in each histogram.
func (h *Histograms) Bins() int { return h.bins }

// ValuesPerBin returns the width of each bin in intensity values.
func (h *Histograms) ValuesPerBin() int { return h.valuesPerBin }

// cell returns the flat index of (row, col, ch), panicking on coordinates
// outside the bank.
func (h *Histograms) cell(row, col, ch int) int {
	if row < 0 || row >= h.rows || col < 0 || col >= h.cols || ch < 0 || ch >= h.channels {
		panic(fmt.Sprintf("background: cell (%d, %d, %d) out of range %dx%dx%d", row, col, ch, h.rows, h.cols, h.channels))
	}
	return (row*h.cols+col)*h.channels + ch
}

// AddSample adds weight w to the bin holding intensity v for the given cell
// and moves the cell's median bin so that the weight below it is at most
// half the total and the weight up to and including it is at least half.
func (h *Histograms) AddSample(row, col, ch int, v uint8, w float32) {
	h.add(h.cell(row, col, ch), v, w)
}

func (h *Histograms) add(c int, v uint8, w float32) {
	bin := int(v) / h.valuesPerBin
	h.weight[c*h.bins+bin] += w
	h.total[c] += w
	if bin < int(h.median[c]) {
		h.below[c] += w
	}
	h.rebalance(c)
}

// rebalance walks the median bin of cell c until it again splits the cell's
// weight in half. Since weights only grow, the walk is short.
func (h *Histograms) rebalance(c int) {
	w := h.weight[c*h.bins : (c+1)*h.bins]
	half := h.total[c] / 2
	m := int(h.median[c])
	below := h.below[c]
	for below+w[m] < half && m < h.bins-1 {
		below += w[m]
		m++
	}
	for below > half && m > 0 {
		m--
		below -= w[m]
	}
	h.below[c] = below
	h.median[c] = uint8(m)
}

// Median returns the current median intensity of the cell, being the lower
// edge of its median bin.
func (h *Histograms) Median(row, col, ch int) uint8 {
	return h.medianValue(h.cell(row, col, ch))
}

func (h *Histograms) medianValue(c int) uint8 {
	return uint8(int(h.median[c]) * h.valuesPerBin)
}

// MedianBin returns the index of the cell's median bin.
func (h *Histograms) MedianBin(row, col, ch int) int {
	return int(h.median[h.cell(row, col, ch)])
}

// Weight returns the weight held in bin of the given cell.
func (h *Histograms) Weight(row, col, ch, bin int) float32 {
	if bin < 0 || bin >= h.bins {
		panic(fmt.Sprintf("background: bin %d out of range %d", bin, h.bins))
	}
	return h.weight[h.cell(row, col, ch)*h.bins+bin]
}

// MassBelow returns the weight strictly below the cell's median bin.
func (h *Histograms) MassBelow(row, col, ch int) float32 {
	return h.below[h.cell(row, col, ch)]
}

// Total returns the total weight added to the cell.
func (h *Histograms) Total(row, col, ch int) float32 {
	return h.total[h.cell(row, col, ch)]
}

// Balanced reports whether the cell satisfies
//
//	below <= total/2 <= below + weight(median)
//
// using the cell's stored running sums.
func (h *Histograms) Balanced(row, col, ch int) bool {
	c := h.cell(row, col, ch)
	half := h.total[c] / 2
	m := int(h.median[c])
	return h.below[c] <= half && half <= h.below[c]+h.weight[c*h.bins+m]
}

// scale multiplies every weight by f. The running sums of each cell are then
// recomputed from its bins, discarding accumulated rounding error, and the
// median is rebalanced against the exact sums.
func (h *Histograms) scale(f float32) {
	blas32.Scal(f, blas32.Vector{N: len(h.weight), Data: h.weight, Inc: 1})
	for c := range h.total {
		w := h.weight[c*h.bins : (c+1)*h.bins]
		m := int(h.median[c])
		var total, below float32
		for i, v := range w {
			if i < m {
				below += v
			}
			total += v
		}
		h.total[c] = total
		h.below[c] = below
		h.rebalance(c)
	}
}
