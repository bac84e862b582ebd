/*
DESCRIPTION
  areaplot runs scene change detection over an MJPEG file and plots, per
  frame, the number of changed pixels and the area of any held region.
  It is useful for choosing DiffThreshold and the aging rates for a scene.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/sentry/codec/mjpeg"
	"github.com/ausocean/sentry/config"
	"github.com/ausocean/sentry/filter"
	"github.com/ausocean/sentry/region"
	"github.com/ausocean/utils/logging"
)

func main() {
	var (
		in      = flag.String("in", "", "MJPEG input file")
		out     = flag.String("out", "area.png", "PNG output file")
		vpb     = flag.Uint("vpb", 4, "values per histogram bin")
		slow    = flag.Float64("slow", 1.005, "slow aging rate")
		fast    = flag.Float64("fast", 1.009, "fast aging rate")
		thresh  = flag.Float64("thresh", 50, "difference threshold")
		erode   = flag.Uint("erode", 2, "erode iterations")
		dilate  = flag.Uint("dilate", 1, "dilate iterations")
		padding = flag.Uint("padding", region.DefaultPadding, "bounding box padding")
		hold    = flag.Uint("hold", region.DefaultHoldFrames, "final hold frames")
	)
	flag.Parse()
	if *in == "" {
		log.Fatal("no input file, use -in")
	}

	cfg := config.Config{
		Logger: logging.New(logging.Warning, os.Stderr, true),
		Input:  config.InputManual,
	}
	cfg.Update(map[string]string{
		config.KeyValuesPerBin:       fmt.Sprint(*vpb),
		config.KeyAgingRateSlow:      fmt.Sprint(*slow),
		config.KeyAgingRateFast:      fmt.Sprint(*fast),
		config.KeyDiffThreshold:      fmt.Sprint(*thresh),
		config.KeyErodeIterations:    fmt.Sprint(*erode),
		config.KeyDilateIterations:   fmt.Sprint(*dilate),
		config.KeyBoundingBoxPadding: fmt.Sprint(*padding),
		config.KeyFinalHoldFrames:    fmt.Sprint(*hold),
	})
	err := cfg.Validate()
	if err != nil {
		log.Fatalf("bad config: %v", err)
	}

	f, err := os.Open(*in)
	if err != nil {
		log.Fatalf("could not open input: %v", err)
	}
	defer f.Close()

	r := &recorder{sc: filter.NewSceneChange(io.Discard, cfg)}
	defer r.sc.Close()

	lex := &mjpeg.Lexer{}
	err = lex.Lex(r, f, 0)
	if err != nil && err != io.ErrUnexpectedEOF {
		log.Fatalf("could not process input: %v", err)
	}
	log.Printf("processed %d frames", len(r.changed))

	err = save(*out, r.changed, r.held)
	if err != nil {
		log.Fatalf("could not save plot: %v", err)
	}
}

// recorder passes frames to a scene change filter and records the
// foreground pixel count of its cleaned mask and the area of any held
// region after each.
type recorder struct {
	sc      *filter.SceneChange
	changed plotter.XYs
	held    plotter.XYs
}

func (r *recorder) Write(p []byte) (int, error) {
	n := r.sc.Frames()
	_, err := r.sc.Write(p)
	if err != nil {
		return 0, err
	}
	if r.sc.Frames() == n {
		// Dropped by the filter.
		return len(p), nil
	}

	var count int
	for _, v := range r.sc.Mask().Pix {
		if v != 0 {
			count++
		}
	}
	x := float64(len(r.changed))
	r.changed = append(r.changed, plotter.XY{X: x, Y: float64(count)})

	var area float64
	if rect, ok := r.sc.Region(); ok {
		area = float64(rect.Dx() * rect.Dy())
	}
	r.held = append(r.held, plotter.XY{X: x, Y: area})
	return len(p), nil
}

// save plots changed pixel counts and held areas against frame number.
func save(path string, changed, held plotter.XYs) error {
	p := plot.New()
	p.Title.Text = "Scene change"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Pixels"
	p.Add(plotter.NewGrid())

	changedLine, err := plotter.NewLine(changed)
	if err != nil {
		return fmt.Errorf("changed line: %w", err)
	}
	changedLine.Width = vg.Points(1)
	changedLine.Color = color.RGBA{B: 0xff, A: 0xff}

	heldLine, err := plotter.NewLine(held)
	if err != nil {
		return fmt.Errorf("held line: %w", err)
	}
	heldLine.Width = vg.Points(1)
	heldLine.Color = color.RGBA{R: 0xff, A: 0xff}

	p.Add(changedLine, heldLine)
	p.Legend.Add("changed pixels", changedLine)
	p.Legend.Add("held region area", heldLine)
	p.Legend.Top = true

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
