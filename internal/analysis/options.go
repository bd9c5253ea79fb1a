package analysis

import (
	"fmt"

	"github.com/lox/dealerbench/internal/game"
)

const (
	DefaultSampleSize       = 1000
	DefaultAlpha            = 0.05
	DefaultFloorProbability = 1e-8
	DefaultFloorCount       = 5.0
)

// Options are the tunables shared by every routine. The zero value is not
// usable; start from DefaultOptions.
type Options struct {
	// SampleSize caps each arm to its first SampleSize games. Zero or
	// negative disables the cap.
	SampleSize int `json:"sample_size"`
	// Alpha is the significance level for the tests that decide.
	Alpha float64 `json:"alpha"`
	// FloorProbability fills absent labels of normalized distributions.
	FloorProbability float64 `json:"floor_probability"`
	// FloorCount fills absent labels of raw-count distributions.
	FloorCount float64 `json:"floor_count"`
}

// DefaultOptions returns a fresh copy of the default tunables.
func DefaultOptions() Options {
	return Options{
		SampleSize:       DefaultSampleSize,
		Alpha:            DefaultAlpha,
		FloorProbability: DefaultFloorProbability,
		FloorCount:       DefaultFloorCount,
	}
}

// Validate checks the tunables.
func (o Options) Validate() error {
	if o.Alpha <= 0 || o.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %v", o.Alpha)
	}
	if o.FloorProbability <= 0 || o.FloorProbability >= 1 {
		return fmt.Errorf("floor probability must be in (0, 1), got %v", o.FloorProbability)
	}
	if o.FloorCount <= 0 {
		return fmt.Errorf("floor count must be positive, got %v", o.FloorCount)
	}
	return nil
}

// Cap returns the records of at most the first SampleSize games. The input
// is not copied.
func (o Options) Cap(records []game.Outcome) []game.Outcome {
	if o.SampleSize <= 0 {
		return records
	}
	n := 0
	for i, g := range game.Games(records) {
		if i == o.SampleSize {
			return records[:n]
		}
		n += len(g)
	}
	return records
}

func (o Options) floor(normalize bool) float64 {
	if normalize {
		return o.FloorProbability
	}
	return o.FloorCount
}

// prepare caps both arms, builds their distributions and aligns them.
func (o Options) prepare(control, experiment []game.Outcome, f Feature, normalize bool) (Distribution, Distribution, error) {
	if err := o.Validate(); err != nil {
		return Distribution{}, Distribution{}, err
	}
	a, err := ToDistribution(o.Cap(control), f, normalize)
	if err != nil {
		return Distribution{}, Distribution{}, err
	}
	b, err := ToDistribution(o.Cap(experiment), f, normalize)
	if err != nil {
		return Distribution{}, Distribution{}, err
	}
	a, b = o.Align(a, b, normalize)
	return a, b, nil
}
