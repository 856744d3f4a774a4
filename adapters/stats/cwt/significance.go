package cwt

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// complexWaveletDOF is the chi-square degrees of freedom for power of a
// complex wavelet (real and imaginary parts each contribute one).
const complexWaveletDOF = 2

// redNoiseThresholds computes the per-scale significance threshold: the
// red-noise background spectrum scaled by the series variance and the
// chi-square quantile at the configured confidence (Torrence & Compo 1998,
// eq. 18).
func redNoiseThresholds(alpha, variance float64, periods []float64, params Params) []float64 {
	spectrum := RedNoiseSpectrum(alpha, periods, params.Dt)
	chi2 := distuv.ChiSquared{K: complexWaveletDOF}
	quantile := chi2.Quantile(params.Significance.confidence())

	thresholds := make([]float64, len(spectrum))
	for i, p := range spectrum {
		thresholds[i] = variance * p * quantile / complexWaveletDOF
	}
	return thresholds
}
