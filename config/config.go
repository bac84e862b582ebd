/*
NAME
  config.go

DESCRIPTION
  config.go provides the configuration settings for a sentry instance.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for sentry.
package config

import (
	"fmt"

	"github.com/ausocean/utils/logging"
)

// Enums to define inputs and outputs.
const (
	// Indicates no option has been set.
	NothingDefined = iota

	// Inputs.
	InputFile
	InputCapture
	InputManual

	// Outputs.
	OutputFile
	OutputFiles
	OutputDiscard
)

// The different media filters.
const (
	FilterNoOp = iota
	FilterVariableFPS
	FilterSceneChange
)

// Config provides parameters relevant to a sentry instance. A new config must
// be passed to the constructor. Default values for these fields are defined
// as consts in variables.go.
type Config struct {
	// AgingRateFast and AgingRateSlow are the factors by which the weight given
	// to new frames grows each frame in the two background models. Both must
	// be greater than 1 and they must differ; the closer to 1, the slower the
	// model adapts.
	AgingRateFast float64
	AgingRateSlow float64

	BoundingBoxPadding uint // Pixels added to each side of a detected region's bounding rectangle.

	// DiffThreshold is the gray level difference between the two backgrounds
	// above which a pixel is considered changed.
	DiffThreshold float64

	DilateIterations uint // Number of 3x3 dilations applied to the change mask after erosion.
	ErodeIterations  uint // Number of 3x3 erosions applied to the change mask.

	FileFPS uint   // Defines the rate at which frames from a file source are processed.
	Filters []uint // Defines the filters to be used between lexing and output.

	FinalHoldFrames uint // Number of frames a settled region is reported for.

	// Input defines the input data source.
	//
	// Valid values are defined by enums:
	// InputFile:
	//		Read an MJPEG stream from the file at InputPath.
	// InputCapture:
	//		Read frames with OpenCV from the video file or camera index at
	//		InputPath. Requires the withcv build tag.
	// InputManual:
	//		Frames are written by the caller through Sentry.Write.
	Input uint8

	// InputPath defines the input file location for File and Capture input.
	InputPath string

	// Logger holds an implementation of the Logger interface.
	// This must be set for sentry to work correctly.
	Logger logging.Logger

	// LogLevel is the logging verbosity level.
	// Valid values are defined by enums from the logger package: logging.Debug,
	// logging.Info, logging.Warning logging.Error, logging.Fatal.
	LogLevel int8

	Loop   bool // If true will restart reading of input after an io.EOF.
	MinFPS uint // The reduced framerate of the output when no region is held.

	// OutputPath defines the output destination for File and Files output. For
	// File output this is a file receiving an MJPEG stream, for Files output it
	// is a directory receiving one JPEG per frame.
	OutputPath string

	// Outputs define the outputs we wish to send annotated frames to.
	//
	// Valid outputs are defined by enums:
	// OutputFile:
	// 		A single MJPEG file at OutputPath.
	// OutputFiles:
	// 		Individual JPEG files in the directory at OutputPath.
	// OutputDiscard:
	// 		Frames are dropped; detections are only logged.
	Outputs []uint8

	Suppress bool // Holds logger suppression state.

	ValuesPerBin uint // Width in intensity values of each background histogram bin; must divide 256.

	// explicit holds the names of variables set to a valid value by Update,
	// so that Validate keeps zeros that were asked for.
	explicit map[string]bool
}

// Validate checks for any errors in the config fields and defaults settings
// if particular parameters have not been defined.
func (c *Config) Validate() error {
	for _, v := range Variables {
		if v.Validate != nil {
			v.Validate(c)
		}
	}

	// Each rate may have been defaulted to the other's value.
	if c.AgingRateFast == c.AgingRateSlow {
		c.Logger.Info("aging rates equal, defaulting both", "rate", c.AgingRateFast)
		c.AgingRateFast = defaultAgingRateFast
		c.AgingRateSlow = defaultAgingRateSlow
	}

	switch c.Input {
	case InputFile, InputCapture:
		if c.InputPath == "" {
			return fmt.Errorf("no input path for input %d", c.Input)
		}
	}
	for _, o := range c.Outputs {
		switch o {
		case OutputFile, OutputFiles:
			if c.OutputPath == "" {
				return fmt.Errorf("no output path for output %d", o)
			}
		}
	}
	return nil
}

// Update takes a map of configuration variable names and their corresponding
// values, parses the string values and converting into correct type, and then
// sets the config struct fields as appropriate.
func (c *Config) Update(vars map[string]string) {
	for _, value := range Variables {
		if v, ok := vars[value.Name]; ok && value.Update != nil {
			value.Update(c, v)
		}
	}
}

// setExplicit records that the named variable was given a value. The map is
// copied so that copies of c do not share it.
func (c *Config) setExplicit(name string) {
	m := make(map[string]bool, len(c.explicit)+1)
	for k, v := range c.explicit {
		m[k] = v
	}
	m[name] = true
	c.explicit = m
}

// LogInvalidField logs that the named field was bad or unset and is being
// set to def.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}
