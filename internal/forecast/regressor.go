package forecast

import (
	"errors"
	"fmt"
)

// Model kinds
const (
	ModelForest = "forest"
	ModelLinear = "linear"
)

// Regressor is a single-target regression model.
type Regressor interface {
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) float64
}

// Options selects and tunes the regression models.
type Options struct {
	Model    string // forest (default) or linear
	Trees    int    // forest size, default 100
	MaxDepth int    // 0 = unlimited
	MinLeaf  int    // default 1
	Seed     uint64 // default 42
}

// DefaultOptions mirrors a 100-tree forest seeded with 42.
func DefaultOptions() Options {
	return Options{Model: ModelForest, Trees: 100, MinLeaf: 1, Seed: 42}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Model == "" {
		o.Model = d.Model
	}
	if o.Trees <= 0 {
		o.Trees = d.Trees
	}
	if o.MinLeaf <= 0 {
		o.MinLeaf = d.MinLeaf
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

// newRegressor builds an unfitted model for opts. salt decorrelates the two forests
// trained from the same Options.
func newRegressor(opts Options, salt uint64) (Regressor, error) {
	switch opts.Model {
	case ModelForest:
		return NewRandomForest(opts.Trees, opts.MaxDepth, opts.MinLeaf, opts.Seed+salt), nil
	case ModelLinear:
		return NewLinearModel(), nil
	default:
		return nil, fmt.Errorf("unknown model %q", opts.Model)
	}
}

var errEmptyTrainingSet = errors.New("empty training set")

func checkTrainingSet(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return errEmptyTrainingSet
	}
	if len(x) != len(y) {
		return fmt.Errorf("feature rows (%d) and targets (%d) differ", len(x), len(y))
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return nil
}
