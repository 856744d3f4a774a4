// Package descriptive computes per-measure summary statistics and the
// normality and autocorrelation diagnostics shown alongside regression
// tables.
package descriptive

import (
	"math"

	"wavelytics/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// TestResult is one hypothesis test outcome.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// Summary holds the descriptive statistics of a single measure.
type Summary struct {
	Measure    core.MeasureKey `json:"measure"`
	Count      int             `json:"count"`
	Mean       float64         `json:"mean"`
	StdDev     float64         `json:"std_dev"`
	Min        float64         `json:"min"`
	Max        float64         `json:"max"`
	Median     float64         `json:"median"`
	Skewness   float64         `json:"skewness"`
	Kurtosis   float64         `json:"kurtosis"`
	JarqueBera TestResult      `json:"jarque_bera"`
	LjungBox   TestResult      `json:"ljung_box"`
}

// Summarize computes the full descriptive summary for one measure. The
// series must contain at least eight finite observations for the diagnostics
// to be meaningful.
func Summarize(measure core.MeasureKey, values []float64) (*Summary, error) {
	n := len(values)
	if n < 8 {
		return nil, core.NewInsufficientLengthError(n, 8)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, core.NewNonFiniteValueError(i, v)
		}
	}

	mean, _ := stats.Mean(values)
	stdDev, _ := stats.StandardDeviation(values)
	min, _ := stats.Min(values)
	max, _ := stats.Max(values)
	median, _ := stats.Median(values)

	skew := skewness(values, mean, stdDev)
	kurt := kurtosis(values, mean, stdDev)

	return &Summary{
		Measure:    measure,
		Count:      n,
		Mean:       mean,
		StdDev:     stdDev,
		Min:        min,
		Max:        max,
		Median:     median,
		Skewness:   skew,
		Kurtosis:   kurt,
		JarqueBera: jarqueBera(n, skew, kurt),
		LjungBox:   LjungBox(values, 0),
	}, nil
}

// skewness is the third standardized moment.
func skewness(values []float64, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := (v - mean) / stdDev
		sum += d * d * d
	}
	return sum / float64(len(values))
}

// kurtosis is the fourth standardized moment (total, not excess; 3 for a
// normal distribution).
func kurtosis(values []float64, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 3
	}
	var sum float64
	for _, v := range values {
		d := (v - mean) / stdDev
		sum += d * d * d * d
	}
	return sum / float64(len(values))
}

// jarqueBera tests normality from skewness and excess kurtosis. The
// statistic is asymptotically chi-square with two degrees of freedom.
func jarqueBera(n int, skew, kurt float64) TestResult {
	excess := kurt - 3
	statistic := float64(n) / 6 * (skew*skew + excess*excess/4)
	chi := distuv.ChiSquared{K: 2}
	return TestResult{
		Statistic: statistic,
		PValue:    1 - chi.CDF(statistic),
	}
}

// LjungBox tests for autocorrelation up to the given number of lags
// (0 selects min(10, n/5)). Q = n(n+2) sum_k r_k^2/(n-k), chi-square with
// lags degrees of freedom under the white-noise null.
func LjungBox(values []float64, lags int) TestResult {
	n := len(values)
	if lags <= 0 {
		lags = 10
		if n/5 < lags {
			lags = n / 5
		}
	}
	if lags < 1 || n <= lags {
		return TestResult{Statistic: 0, PValue: 1}
	}

	var q float64
	for k := 1; k <= lags; k++ {
		r := autocorrelation(values, k)
		q += r * r / float64(n-k)
	}
	q *= float64(n) * float64(n+2)

	chi := distuv.ChiSquared{K: float64(lags)}
	return TestResult{Statistic: q, PValue: 1 - chi.CDF(q)}
}

// autocorrelation is the lag-k sample autocorrelation with the common
// full-sample variance denominator.
func autocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if n <= lag {
		return 0
	}
	mean, _ := stats.Mean(values)

	var num, den float64
	for i := 0; i < n; i++ {
		d := values[i] - mean
		den += d * d
		if i+lag < n {
			num += d * (values[i+lag] - mean)
		}
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Stars renders the conventional significance marker for a p-value.
func Stars(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.05:
		return "**"
	case p < 0.1:
		return "*"
	default:
		return ""
	}
}
