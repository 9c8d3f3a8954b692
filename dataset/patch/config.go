package patch

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// SaveMode selects the file format of extracted patches.
type SaveMode int

const (
	// SaveModeMat writes each patch as a single-matrix file.
	SaveModeMat SaveMode = iota
	// SaveModePNG writes each patch as a PNG image.
	SaveModePNG
)

func (m SaveMode) String() string {
	switch m {
	case SaveModeMat:
		return "mat"
	case SaveModePNG:
		return "png"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Ext returns the file extension written for the mode.
func (m SaveMode) Ext() string { return "." + m.String() }

// ParseSaveMode parses "mat" or "png".
func ParseSaveMode(s string) (SaveMode, error) {
	switch strings.ToLower(s) {
	case "mat", "":
		return SaveModeMat, nil
	case "png":
		return SaveModePNG, nil
	}
	return 0, fmt.Errorf("patch: unknown save mode %q", s)
}

// Config controls patch extraction.
type Config struct {
	PatchHeight int
	PatchWidth  int
	// Stride is the step between neighboring patch origins in both axes.
	Stride int
	// Scales are applied to each image before extraction. 1 keeps the
	// original size.
	Scales []float64
	// Gray loads every image as a single channel.
	Gray      bool
	SaveMode  SaveMode
	OutputDir string
}

// DefaultConfig returns 32x32 non-overlapping patches at the original
// scale, saved as matrix files.
func DefaultConfig() Config {
	return Config{
		PatchHeight: 32,
		PatchWidth:  32,
		Stride:      32,
		Scales:      []float64{1},
		SaveMode:    SaveModeMat,
	}
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("patch: invalid config")

// Validate checks c for usable values.
func (c Config) Validate() error {
	switch {
	case c.PatchHeight <= 0 || c.PatchWidth <= 0:
		return fmt.Errorf("%w: patch size %dx%d", ErrInvalidConfig, c.PatchHeight, c.PatchWidth)
	case c.Stride <= 0:
		return fmt.Errorf("%w: stride %d", ErrInvalidConfig, c.Stride)
	case len(c.Scales) == 0:
		return fmt.Errorf("%w: no scales", ErrInvalidConfig)
	case c.OutputDir == "":
		return fmt.Errorf("%w: empty output dir", ErrInvalidConfig)
	}
	for _, s := range c.Scales {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: scale %v", ErrInvalidConfig, s)
		}
	}
	switch c.SaveMode {
	case SaveModeMat, SaveModePNG:
	default:
		return fmt.Errorf("%w: save mode %s", ErrInvalidConfig, c.SaveMode)
	}
	return nil
}
