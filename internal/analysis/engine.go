// Package analysis turns normalized channel metrics into scores, trends and
// recommendations. Everything here is pure: no I/O, no clocks, no shared
// mutable state, so an Engine can be used from any number of goroutines.
package analysis

import (
	"fmt"
	"math"

	"github.com/sitepulse/analyst/internal/domain/entities"
	apperrors "github.com/sitepulse/analyst/pkg/errors"
)

const weightTolerance = 1e-9

// Engine scores snapshots with a fixed set of category weights.
type Engine struct {
	weights entities.Weights
}

// NewEngine validates the weights and returns an Engine using them. An error
// here is a configuration error and should stop the process.
func NewEngine(weights entities.Weights) (*Engine, error) {
	if err := ValidateWeights(weights); err != nil {
		return nil, err
	}
	return &Engine{weights: weights}, nil
}

// NewDefaultEngine returns an Engine with the default weights.
func NewDefaultEngine() *Engine {
	return &Engine{weights: entities.DefaultWeights()}
}

// Weights returns the category weights of the engine.
func (e *Engine) Weights() entities.Weights {
	return e.weights
}

// ValidateWeights checks that no weight is negative and that they sum to 1.
func ValidateWeights(weights entities.Weights) error {
	for _, w := range weights.Values() {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return apperrors.NewConfigurationError(fmt.Sprintf("score weights must be non-negative, got %v", w))
		}
	}
	if sum := weights.Sum(); math.Abs(sum-1) > weightTolerance {
		return apperrors.NewConfigurationError(fmt.Sprintf("score weights must sum to 1, got %.6f", sum))
	}
	return nil
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func directionOf(change float64) entities.Direction {
	switch {
	case change > 0:
		return entities.DirectionUp
	case change < 0:
		return entities.DirectionDown
	default:
		return entities.DirectionStable
	}
}
