package forecast

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ridge keeps the normal equations positive definite when features are collinear
// (e.g. a single product observed in a single month). The intercept is not penalised.
const ridge = 1e-6

// LinearModel is least squares with an intercept. Predictions are clamped to the range of
// targets seen during Fit.
type LinearModel struct {
	beta     *mat.VecDense
	min, max float64
}

// NewLinearModel creates an unfitted linear model.
func NewLinearModel() *LinearModel {
	return &LinearModel{}
}

// Fit solves (XᵀX + λD)β = Xᵀy by Cholesky factorisation.
func (m *LinearModel) Fit(x [][]float64, y []float64) error {
	if err := checkTrainingSet(x, y); err != nil {
		return err
	}

	n, p := len(x), len(x[0])+1
	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, append([]float64(nil), y...))

	var xtx mat.SymDense
	xtx.SymOuterK(1, design.T())
	for j := 1; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+ridge*float64(n))
	}

	var xty mat.VecDense
	xty.MulVec(design.T(), target)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return errors.New("normal equations are not positive definite")
	}

	beta := mat.NewVecDense(p, nil)
	if err := chol.SolveVecTo(beta, &xty); err != nil {
		return fmt.Errorf("solve normal equations: %w", err)
	}

	m.beta = beta
	m.min = floats.Min(y)
	m.max = floats.Max(y)
	return nil
}

// Predict evaluates the fitted hyperplane. An unfitted model predicts 0.
func (m *LinearModel) Predict(x []float64) float64 {
	if m.beta == nil {
		return 0
	}
	v := m.beta.AtVec(0)
	for j, xv := range x {
		if j+1 >= m.beta.Len() {
			break
		}
		v += m.beta.AtVec(j+1) * xv
	}
	switch {
	case v < m.min:
		return m.min
	case v > m.max:
		return m.max
	}
	return v
}
