/*
DESCRIPTION
  variables.go contains a list of structs that provide a variable Name, type in
  a string format, a function for updating the variable in the Config struct
  from a string, and finally, a validation function to check the validity of the
  corresponding field value in the Config.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ausocean/utils/logging"
)

// Config map Keys.
const (
	KeyAgingRateFast      = "AgingRateFast"
	KeyAgingRateSlow      = "AgingRateSlow"
	KeyBoundingBoxPadding = "BoundingBoxPadding"
	KeyDiffThreshold      = "DiffThreshold"
	KeyDilateIterations   = "DilateIterations"
	KeyErodeIterations    = "ErodeIterations"
	KeyFileFPS            = "FileFPS"
	KeyFilters            = "Filters"
	KeyFinalHoldFrames    = "FinalHoldFrames"
	KeyInput              = "Input"
	KeyInputPath          = "InputPath"
	KeyLogging            = "logging"
	KeyLoop               = "Loop"
	KeyMinFPS             = "MinFPS"
	KeyOutputPath         = "OutputPath"
	KeyOutputs            = "Outputs"
	KeySuppress           = "Suppress"
	KeyValuesPerBin       = "ValuesPerBin"
)

// Config map parameter types.
const (
	typeString = "string"
	typeUint   = "uint"
	typeBool   = "bool"
	typeFloat  = "float"
)

// Default variable values.
const (
	// General sentry defaults.
	defaultInput     = InputFile
	defaultOutput    = OutputDiscard
	defaultVerbosity = logging.Error
	defaultFileFPS   = 0
	defaultMinFPS    = 1

	// Background model defaults.
	defaultValuesPerBin  = 4
	defaultAgingRateSlow = 1.005
	defaultAgingRateFast = 1.009

	// Change detection defaults.
	defaultDiffThreshold      = 50
	defaultErodeIterations    = 2
	defaultDilateIterations   = 1
	defaultBoundingBoxPadding = 10
	defaultFinalHoldFrames    = 40
)

// Variables describes the variables that can be used for sentry control.
// These structs provide the name and type of variable, a function for updating
// this variable in a Config, and a function for validating the value of the variable.
// Tunable variables may be changed while frames are being processed; the
// rest only take effect when the background models are rebuilt.
var Variables = []struct {
	Name     string
	Type     string
	Tunable  bool
	Update   func(*Config, string)
	Validate func(*Config)
}{
	{
		Name:   KeyAgingRateFast,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.AgingRateFast = parseFloat(KeyAgingRateFast, v, c) },
		Validate: func(c *Config) {
			if c.AgingRateFast <= 1 {
				c.LogInvalidField(KeyAgingRateFast, defaultAgingRateFast)
				c.AgingRateFast = defaultAgingRateFast
			}
		},
	},
	{
		Name:   KeyAgingRateSlow,
		Type:   typeFloat,
		Update: func(c *Config, v string) { c.AgingRateSlow = parseFloat(KeyAgingRateSlow, v, c) },
		Validate: func(c *Config) {
			if c.AgingRateSlow <= 1 {
				c.LogInvalidField(KeyAgingRateSlow, defaultAgingRateSlow)
				c.AgingRateSlow = defaultAgingRateSlow
			}
		},
	},
	{
		Name:    KeyBoundingBoxPadding,
		Type:    typeUint,
		Tunable: true,
		Update:  func(c *Config, v string) { c.BoundingBoxPadding = parseExplicitUint(KeyBoundingBoxPadding, v, c) },
		Validate: func(c *Config) {
			c.BoundingBoxPadding = defaultIfUnset(KeyBoundingBoxPadding, c.BoundingBoxPadding, c, defaultBoundingBoxPadding)
		},
	},
	{
		Name:    KeyDiffThreshold,
		Type:    typeFloat,
		Tunable: true,
		Update:  func(c *Config, v string) { c.DiffThreshold = parseFloat(KeyDiffThreshold, v, c) },
		Validate: func(c *Config) {
			if c.DiffThreshold <= 0 || c.DiffThreshold >= 255 {
				c.LogInvalidField(KeyDiffThreshold, defaultDiffThreshold)
				c.DiffThreshold = defaultDiffThreshold
			}
		},
	},
	{
		Name:    KeyDilateIterations,
		Type:    typeUint,
		Tunable: true,
		Update:  func(c *Config, v string) { c.DilateIterations = parseExplicitUint(KeyDilateIterations, v, c) },
		Validate: func(c *Config) {
			c.DilateIterations = defaultIfUnset(KeyDilateIterations, c.DilateIterations, c, defaultDilateIterations)
		},
	},
	{
		Name:    KeyErodeIterations,
		Type:    typeUint,
		Tunable: true,
		Update:  func(c *Config, v string) { c.ErodeIterations = parseExplicitUint(KeyErodeIterations, v, c) },
		Validate: func(c *Config) {
			c.ErodeIterations = defaultIfUnset(KeyErodeIterations, c.ErodeIterations, c, defaultErodeIterations)
		},
	},
	{
		Name:   KeyFileFPS,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.FileFPS = parseUint(KeyFileFPS, v, c) },
	},
	{
		Name: KeyFilters,
		Type: "enums:NoOp,VariableFPS,SceneChange",
		Update: func(c *Config, v string) {
			filters := strings.Split(v, ",")
			m := map[string]uint{"NoOp": FilterNoOp, "VariableFPS": FilterVariableFPS, "SceneChange": FilterSceneChange}
			c.Filters = make([]uint, 0, len(filters))
			for _, filter := range filters {
				f, ok := m[strings.TrimSpace(filter)]
				if !ok {
					c.Logger.Warning("invalid Filters param", "value", filter)
					continue
				}
				c.Filters = append(c.Filters, f)
			}
		},
		Validate: func(c *Config) {
			if len(c.Filters) == 0 {
				c.LogInvalidField(KeyFilters, FilterSceneChange)
				c.Filters = []uint{FilterSceneChange}
			}
		},
	},
	{
		Name:    KeyFinalHoldFrames,
		Type:    typeUint,
		Tunable: true,
		Update:  func(c *Config, v string) { c.FinalHoldFrames = parseUint(KeyFinalHoldFrames, v, c) },
		Validate: func(c *Config) {
			c.FinalHoldFrames = lessThanOrEqual(KeyFinalHoldFrames, c.FinalHoldFrames, 0, c, defaultFinalHoldFrames)
		},
	},
	{
		Name: KeyInput,
		Type: "enum:file,capture,manual",
		Update: func(c *Config, v string) {
			c.Input = parseEnum(
				KeyInput,
				v,
				map[string]uint8{
					"file":    InputFile,
					"capture": InputCapture,
					"manual":  InputManual,
				},
				c,
			)
		},
		Validate: func(c *Config) {
			switch c.Input {
			case InputFile, InputCapture, InputManual:
			default:
				c.LogInvalidField(KeyInput, defaultInput)
				c.Input = defaultInput
			}
		},
	},
	{
		Name:   KeyInputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.InputPath = v },
	},
	{
		Name:    KeyLogging,
		Type:    "enum:Debug,Info,Warning,Error,Fatal",
		Tunable: true,
		Update: func(c *Config, v string) {
			switch v {
			case "Debug":
				c.LogLevel = logging.Debug
			case "Info":
				c.LogLevel = logging.Info
			case "Warning":
				c.LogLevel = logging.Warning
			case "Error":
				c.LogLevel = logging.Error
			case "Fatal":
				c.LogLevel = logging.Fatal
			default:
				c.Logger.Warning("invalid Logging param", "value", v)
			}
		},
		Validate: func(c *Config) {
			switch c.LogLevel {
			case logging.Debug, logging.Info, logging.Warning, logging.Error, logging.Fatal:
			default:
				c.LogInvalidField("LogLevel", defaultVerbosity)
				c.LogLevel = defaultVerbosity
			}
		},
	},
	{
		Name:   KeyLoop,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Loop = parseBool(KeyLoop, v, c) },
	},
	{
		Name:     KeyMinFPS,
		Type:     typeUint,
		Update:   func(c *Config, v string) { c.MinFPS = parseUint(KeyMinFPS, v, c) },
		Validate: func(c *Config) { c.MinFPS = lessThanOrEqual(KeyMinFPS, c.MinFPS, 0, c, defaultMinFPS) },
	},
	{
		Name:   KeyOutputPath,
		Type:   typeString,
		Update: func(c *Config, v string) { c.OutputPath = v },
	},
	{
		Name: KeyOutputs,
		Type: "enums:File,Files,Discard",
		Update: func(c *Config, v string) {
			outputs := strings.Split(v, ",")
			c.Outputs = make([]uint8, 0, len(outputs))
			for _, output := range outputs {
				switch strings.ToLower(strings.TrimSpace(output)) {
				case "file":
					c.Outputs = append(c.Outputs, OutputFile)
				case "files":
					c.Outputs = append(c.Outputs, OutputFiles)
				case "discard":
					c.Outputs = append(c.Outputs, OutputDiscard)
				default:
					c.Logger.Warning("invalid outputs param", "value", output)
				}
			}
		},
		Validate: func(c *Config) {
			if len(c.Outputs) == 0 {
				c.LogInvalidField(KeyOutputs, defaultOutput)
				c.Outputs = append(c.Outputs, defaultOutput)
			}
		},
	},
	{
		Name:   KeySuppress,
		Type:   typeBool,
		Update: func(c *Config, v string) { c.Suppress = parseBool(KeySuppress, v, c) },
	},
	{
		Name:   KeyValuesPerBin,
		Type:   typeUint,
		Update: func(c *Config, v string) { c.ValuesPerBin = parseUint(KeyValuesPerBin, v, c) },
		Validate: func(c *Config) {
			if c.ValuesPerBin == 0 || c.ValuesPerBin > 256 || 256%c.ValuesPerBin != 0 {
				c.LogInvalidField(KeyValuesPerBin, defaultValuesPerBin)
				c.ValuesPerBin = defaultValuesPerBin
			}
		},
	},
}

// IsTunable reports whether the named variable may be changed while frames
// are being processed.
func IsTunable(name string) bool {
	for _, v := range Variables {
		if v.Name == name {
			return v.Tunable
		}
	}
	return false
}

func parseUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
	}
	return uint(_v)
}

// parseExplicitUint is parseUint for variables where zero is a valid setting.
// A valid value is recorded so that Validate keeps it.
func parseExplicitUint(n, v string, c *Config) uint {
	_v, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected unsigned int for param %s", n), "value", v)
		return 0
	}
	c.setExplicit(n)
	return uint(_v)
}

func parseFloat(n, v string, c *Config) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		c.Logger.Warning(fmt.Sprintf("expected float for param %s", n), "value", v)
	}
	return f
}

func parseBool(n, v string, c *Config) (b bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		c.Logger.Warning(fmt.Sprintf("expect bool for param %s", n), "value", v)
	}
	return
}

func parseEnum(n, v string, enums map[string]uint8, c *Config) uint8 {
	_v, ok := enums[strings.ToLower(strings.TrimSpace(v))]
	if !ok {
		c.Logger.Warning(fmt.Sprintf("invalid value for %s param", n), "value", v)
	}
	return _v
}

// defaultIfUnset returns def if v is zero and n was not given a value by
// Update.
func defaultIfUnset(n string, v uint, c *Config, def uint) uint {
	if v == 0 && !c.explicit[n] {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}

func lessThanOrEqual(n string, v, cmp uint, c *Config, def uint) uint {
	if v <= cmp {
		c.LogInvalidField(n, def)
		return def
	}
	return v
}
