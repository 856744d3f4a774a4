package xwt

import (
	"math"
	"math/cmplx"
	"math/rand/v2"
	"sort"

	"wavelytics/adapters/stats/cwt"
	"wavelytics/domain/wavelet"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultMonteCarloCount = 300
	defaultSeed            = 42
	// maxSamplesPerRun bounds how many time points each surrogate pair
	// contributes per scale, keeping the sample pool small at long series.
	maxSamplesPerRun = 64
)

// monteCarloThresholds estimates the per-scale cross-power significance
// threshold by simulating pairs of independent lag-1 autoregressive series
// matching the inputs' autocorrelation, and taking the configured quantile
// of the surrogate cross-power distribution at each scale. The simulation
// is seeded, so repeated runs produce identical thresholds.
func (e *Engine) monteCarloThresholds(a, b []float64, basis wavelet.ContinuousBasis, params cwt.Params, scales []float64) []float64 {
	count := params.Significance.MonteCarloCount
	if count <= 0 {
		count = defaultMonteCarloCount
	}
	seed := params.Significance.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	var alphaA, alphaB float64
	if fixed := params.Significance.AR1; fixed != nil {
		alphaA, alphaB = *fixed, *fixed
	} else {
		alphaA = clampAR1(cwt.EstimateAR1(a))
		alphaB = clampAR1(cwt.EstimateAR1(b))
	}

	n := len(a)
	stride := n / maxSamplesPerRun
	if stride < 1 {
		stride = 1
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, seed+1)}
	samples := make([][]float64, len(scales))
	for run := 0; run < count; run++ {
		surrogateA := simulateAR1(alphaA, n, normal)
		surrogateB := simulateAR1(alphaB, n, normal)
		waveA := cwt.WaveMatrix(surrogateA, basis, params.Dt, scales)
		waveB := cwt.WaveMatrix(surrogateB, basis, params.Dt, scales)
		for k := range scales {
			for t := 0; t < n; t += stride {
				w := waveA[k][t] * cmplx.Conj(waveB[k][t])
				m := cmplx.Abs(w)
				samples[k] = append(samples[k], m*m)
			}
		}
	}

	e.log.Debug("xwt: %d surrogate pairs, ar1 %.3f/%.3f", count, alphaA, alphaB)

	confidence := params.Significance.Confidence
	if confidence == 0 {
		confidence = 0.95
	}

	// The surrogates are unit-variance while cross power scales with the
	// product of the input variances (Torrence & Compo 1998, eq. 30, in the
	// squared-power convention), so the quantile is rescaled to the inputs'
	// units. A zero-variance input has zero cross power everywhere; the
	// threshold stays at the standardized value to keep the ratio finite.
	unitScale := stat.Variance(a, nil) * stat.Variance(b, nil)
	if unitScale == 0 {
		unitScale = 1
	}

	thresholds := make([]float64, len(scales))
	for k := range thresholds {
		sort.Float64s(samples[k])
		thresholds[k] = unitScale * stat.Quantile(confidence, stat.Empirical, samples[k], nil)
	}
	return thresholds
}

// simulateAR1 draws a unit-variance lag-1 autoregressive surrogate series.
func simulateAR1(alpha float64, n int, normal distuv.Normal) []float64 {
	innovation := 1 - alpha*alpha
	if innovation < 0 {
		innovation = 0
	}
	scale := math.Sqrt(innovation)
	out := make([]float64, n)
	out[0] = normal.Rand()
	for i := 1; i < n; i++ {
		out[i] = alpha*out[i-1] + scale*normal.Rand()
	}
	return out
}

// clampAR1 keeps an estimated coefficient strictly inside (-1, 1) so the
// surrogate process stays stationary.
func clampAR1(alpha float64) float64 {
	const limit = 0.99
	if alpha > limit {
		return limit
	}
	if alpha < -limit {
		return -limit
	}
	return alpha
}
