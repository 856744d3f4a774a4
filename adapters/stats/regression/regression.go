// Package regression implements the scale-indexed regression layer:
// ordinary-least-squares fits of one series on another at individual
// decomposition levels, so correlation strength can be compared across
// timescales.
package regression

import (
	"fmt"
	"math"

	"wavelytics/domain/core"
	"wavelytics/domain/wavelet"
	"wavelytics/internal"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Engine runs level-indexed OLS regressions. Stateless apart from its
// logger; every call works on independent copies of its inputs.
type Engine struct {
	log *internal.Logger
}

// New creates a regression engine with the given logger.
func New(log *internal.Logger) *Engine {
	return &Engine{log: log}
}

// ApproximationRegression regresses the raw series y on the level-l smoothed
// signal of x, with intercept. Each level is fit independently; nothing is
// shared or accumulated across calls.
func (e *Engine) ApproximationRegression(smoothedX wavelet.SmoothedSignalSet, originalY []float64, level int) (*wavelet.RegressionResult, error) {
	entry, ok := smoothedX[level]
	if !ok {
		return nil, core.NewLevelOutOfRangeError(level, len(smoothedX))
	}
	if len(entry.Signal) != len(originalY) {
		return nil, core.NewLengthMismatchError(len(entry.Signal), len(originalY))
	}

	result, err := fit(entry.Signal, originalY)
	if err != nil {
		return nil, err
	}
	result.Level = level
	result.Label = fmt.Sprintf("approximation-%d", level)
	e.log.Debug("regression: %s coef %.4f p %.4f", result.Label, result.Coefficient, result.PValue)
	return &result, nil
}

// DetailRegression regresses the detail coefficients of b on those of a at
// each level l = 1..levels, finest first. Coefficient arrays at the same
// level share length when both decompositions used the same basis and level
// count; unequal lengths fail with a length mismatch.
func (e *Engine) DetailRegression(a, b *wavelet.DWTResult, levels int) ([]wavelet.RegressionResult, error) {
	if levels <= 0 {
		levels = a.Levels
	}
	results := make([]wavelet.RegressionResult, 0, levels)
	for l := 1; l <= levels; l++ {
		da, err := a.Detail(l)
		if err != nil {
			return nil, err
		}
		db, err := b.Detail(l)
		if err != nil {
			return nil, err
		}
		if len(da) != len(db) {
			return nil, core.NewLengthMismatchError(len(da), len(db))
		}

		result, err := fit(da, db)
		if err != nil {
			return nil, err
		}
		result.Level = l
		result.Label = fmt.Sprintf("detail-%d", l)
		results = append(results, result)
	}
	return results, nil
}

// fit runs a simple OLS of y on x with intercept. Fewer than three paired
// observations or a zero-variance regressor is a degenerate fit, reported as
// an error rather than a NaN-filled result.
func fit(x, y []float64) (wavelet.RegressionResult, error) {
	n := len(x)
	if n < 3 {
		return wavelet.RegressionResult{}, core.NewDegenerateRegressionError(
			fmt.Sprintf("%d observations, need at least 3", n))
	}

	meanX := stat.Mean(x, nil)
	var sxx float64
	for _, v := range x {
		d := v - meanX
		sxx += d * d
	}
	if sxx == 0 {
		return wavelet.RegressionResult{}, core.NewDegenerateRegressionError("regressor has zero variance")
	}

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	meanY := stat.Mean(y, nil)
	var sse, sst float64
	for i := range x {
		resid := y[i] - (intercept + slope*x[i])
		sse += resid * resid
		dy := y[i] - meanY
		sst += dy * dy
	}

	rsquared := 0.0
	if sst > 0 {
		rsquared = 1 - sse/sst
		if rsquared < 0 {
			rsquared = 0
		}
	}

	df := float64(n - 2)
	se := math.Sqrt(sse / df / sxx)

	pvalue := 0.0
	if se > 0 {
		t := slope / se
		dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		pvalue = 2 * dist.CDF(-math.Abs(t))
	}

	return wavelet.RegressionResult{
		Coefficient:   slope,
		Intercept:     intercept,
		StandardError: se,
		PValue:        pvalue,
		RSquared:      rsquared,
		NObservations: n,
	}, nil
}
