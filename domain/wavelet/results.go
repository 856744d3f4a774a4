package wavelet

import (
	"wavelytics/domain/core"
)

// DWTResult holds the coefficient pyramid of a discrete wavelet
// decomposition. Coefficients[0] is the coarsest approximation; indices
// 1..Levels hold detail bands ordered coarsest to finest. Consumers receive
// read-only views and must copy before mutating.
type DWTResult struct {
	Coefficients [][]float64 `json:"coefficients"`
	Levels       int         `json:"levels"`
}

// Approximation returns the approximation coefficient band.
func (r *DWTResult) Approximation() []float64 {
	return r.Coefficients[0]
}

// Detail returns the detail band for the given decomposition level, where
// level 1 is the finest scale and Levels the coarsest.
func (r *DWTResult) Detail(level int) ([]float64, error) {
	if level < 1 || level > r.Levels {
		return nil, core.NewLevelOutOfRangeError(level, r.Levels)
	}
	return r.Coefficients[len(r.Coefficients)-level], nil
}

// CopyCoefficients returns a deep copy of the coefficient pyramid, so the
// smoothing engine can zero bands without touching the original.
func (r *DWTResult) CopyCoefficients() [][]float64 {
	out := make([][]float64, len(r.Coefficients))
	for i, band := range r.Coefficients {
		out[i] = make([]float64, len(band))
		copy(out[i], band)
	}
	return out
}

// SmoothedSignal is one entry of a SmoothedSignalSet: the coefficient
// snapshot with the finest detail bands zeroed, and the reconstructed
// time-domain signal trimmed to the original series length.
type SmoothedSignal struct {
	Coefficients [][]float64 `json:"coefficients"`
	Signal       []float64   `json:"signal"`
}

// SmoothedSignalSet maps a level l in [1, Levels] to the approximation that
// removes detail levels 1..l (finest first). Derived data: recomputed from
// its source, never mutated in place after construction.
type SmoothedSignalSet map[int]SmoothedSignal

// CoiPoint is one sample of the cone of influence: the longest period at a
// given time index that is free of boundary effects.
type CoiPoint struct {
	Time      float64 `json:"time"`
	MaxPeriod float64 `json:"max_period"`
}

// CWTResult holds a continuous wavelet power spectrum over a scale/time
// grid. Power and Significance are indexed [scale][time]; Significance is
// the power-to-threshold ratio, so values above 1 are significant at the
// configured confidence level.
type CWTResult struct {
	Power           [][]float64 `json:"power"`
	Periods         []float64   `json:"periods"`
	Scales          []float64   `json:"scales"`
	Significance    [][]float64 `json:"significance"`
	ConeOfInfluence []CoiPoint  `json:"cone_of_influence"`
}

// XWTResult holds cross-wavelet power and phase difference between two
// series. PhaseDifference is in radians in (-pi, pi]. Indexing matches
// CWTResult.
type XWTResult struct {
	CrossPower      [][]float64 `json:"cross_power"`
	PhaseDifference [][]float64 `json:"phase_difference"`
	Periods         []float64   `json:"periods"`
	Scales          []float64   `json:"scales"`
	Significance    [][]float64 `json:"significance"`
	ConeOfInfluence []CoiPoint  `json:"cone_of_influence"`
}

// RegressionResult is one ordinary-least-squares fit at a single
// decomposition level.
type RegressionResult struct {
	Level         int     `json:"level"`
	Label         string  `json:"label"`
	Coefficient   float64 `json:"coefficient"`
	Intercept     float64 `json:"intercept"`
	StandardError float64 `json:"standard_error"`
	PValue        float64 `json:"p_value"`
	RSquared      float64 `json:"r_squared"`
	NObservations int     `json:"n_observations"`
}
