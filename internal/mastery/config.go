package mastery

import (
	"fmt"
	"math"
	"time"
)

// Defaults for Config.
const (
	DefaultLearningRate = 0.4
	DefaultHalfLife     = 7 * 24 * time.Hour
	DefaultThreshold    = 0.8
)

// Config holds the tunable parameters of the mastery model.
type Config struct {
	// LearningRate is the EMA weight given to a new score.
	LearningRate float64
	// HalfLife is the decay constant applied when a node has no override.
	HalfLife time.Duration
	// HalfLives overrides HalfLife per node id.
	HalfLives map[string]time.Duration
	// Threshold is the decayed level at or above which a node counts as mastered.
	Threshold float64
}

// DefaultConfig returns the stock parameters.
func DefaultConfig() Config {
	return Config{
		LearningRate: DefaultLearningRate,
		HalfLife:     DefaultHalfLife,
		Threshold:    DefaultThreshold,
	}
}

// Validate reports the first out-of-range parameter.
func (c Config) Validate() error {
	if !(c.LearningRate > 0 && c.LearningRate <= 1) {
		return fmt.Errorf("mastery: learning rate %v must be in (0,1]", c.LearningRate)
	}
	if c.HalfLife <= 0 {
		return fmt.Errorf("mastery: half-life %v must be positive", c.HalfLife)
	}
	for id, hl := range c.HalfLives {
		if hl <= 0 {
			return fmt.Errorf("mastery: half-life override for %q must be positive", id)
		}
	}
	if math.IsNaN(c.Threshold) || c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("mastery: threshold %v must be in (0,1]", c.Threshold)
	}
	return nil
}
