// Package dwt implements the discrete wavelet transform engine: multi-level
// decomposition with symmetric boundary extension, inverse reconstruction,
// and low-pass smoothing by zeroing detail bands.
package dwt

import (
	"wavelytics/domain/core"
	"wavelytics/domain/series"
	"wavelytics/domain/wavelet"
	"wavelytics/internal"
)

// Engine performs discrete wavelet decomposition and reconstruction. It is
// stateless apart from its logger; independent calls are safe to run in
// parallel.
type Engine struct {
	log *internal.Logger
}

// New creates a DWT engine with the given logger.
func New(log *internal.Logger) *Engine {
	return &Engine{log: log}
}

// MaxLevel returns the maximum decomposition level for a series of length n
// and the given decomposition filter length:
// floor(log2(n / (filterLength - 1))).
func MaxLevel(n, filterLength int) int {
	if filterLength < 2 || n < filterLength-1 {
		return 0
	}
	level := 0
	for span := (filterLength - 1) * 2; span <= n; span *= 2 {
		level++
	}
	return level
}

// Decompose runs a multi-level DWT of the series under the given basis.
// levels <= 0 selects the maximum level for the series length. The result
// pyramid stores the approximation first, then detail bands coarsest to
// finest.
func (e *Engine) Decompose(s *series.TimeSeries, basis *wavelet.DiscreteBasis, levels int) (*wavelet.DWTResult, error) {
	if err := s.CheckFinite(); err != nil {
		return nil, err
	}
	n := s.Len()
	maxLevel := MaxLevel(n, basis.FilterLength())
	if maxLevel < 1 {
		return nil, core.NewInsufficientLengthError(n, basis.FilterLength())
	}
	if levels <= 0 {
		levels = maxLevel
		e.log.Debug("dwt: max decomposition level %d for series length %d", levels, n)
	} else if levels > maxLevel {
		return nil, core.NewLevelOutOfRangeError(levels, maxLevel)
	}

	coeffs := make([][]float64, levels+1)
	approx := s.ValuesCopy()
	for l := 1; l <= levels; l++ {
		a, d := analyzeStep(approx, basis)
		// Details stored coarsest-first: level l detail lands at index
		// levels+1-l so the finest band ends up last.
		coeffs[levels+1-l] = d
		approx = a
	}
	coeffs[0] = approx
	return &wavelet.DWTResult{Coefficients: coeffs, Levels: levels}, nil
}

// Reconstruct applies the inverse transform to a coefficient pyramid,
// zeroing detail levels 1..zeroDetailsThroughLevel first (level 1 is the
// finest band). zeroDetailsThroughLevel = 0 inverts Decompose exactly, up to
// the single-sample parity slack handled by TrimToOriginalLength.
func (e *Engine) Reconstruct(coefficients [][]float64, basis *wavelet.DiscreteBasis, zeroDetailsThroughLevel int) ([]float64, error) {
	levels := len(coefficients) - 1
	if levels < 1 {
		return nil, core.NewInsufficientLengthError(len(coefficients), basis.FilterLength())
	}
	if zeroDetailsThroughLevel < 0 || zeroDetailsThroughLevel > levels {
		return nil, core.NewLevelOutOfRangeError(zeroDetailsThroughLevel, levels)
	}

	bands := make([][]float64, len(coefficients))
	for i, band := range coefficients {
		// Pyramid index of detail level l (finest = 1) is levels+1-l, so
		// zeroing levels 1..z means indices > levels-z.
		if i > 0 && i > levels-zeroDetailsThroughLevel {
			bands[i] = make([]float64, len(band))
			continue
		}
		bands[i] = band
	}

	approx := bands[0]
	for i := 1; i < len(bands); i++ {
		detail := bands[i]
		if len(approx) == len(detail)+1 {
			// Parity slack from an odd-length input at this level.
			approx = approx[:len(detail)]
		}
		if len(approx) != len(detail) {
			return nil, core.NewReconstructionLengthMismatchError(len(detail), len(approx))
		}
		approx = synthesizeStep(approx, detail, basis)
	}
	return approx, nil
}

// ReconstructComponent isolates the time-domain contribution of a single
// coefficient band: index 0 for the approximation, 1..levels for detail
// bands in pyramid order. All other bands are zeroed before inversion.
func (e *Engine) ReconstructComponent(coefficients [][]float64, basis *wavelet.DiscreteBasis, bandIndex int) ([]float64, error) {
	if bandIndex < 0 || bandIndex >= len(coefficients) {
		return nil, core.NewLevelOutOfRangeError(bandIndex, len(coefficients)-1)
	}
	bands := make([][]float64, len(coefficients))
	for i, band := range coefficients {
		if i == bandIndex {
			bands[i] = band
			continue
		}
		bands[i] = make([]float64, len(band))
	}
	return e.Reconstruct(bands, basis, 0)
}

// TrimToOriginalLength reconciles a reconstructed signal with the original
// series length. Reconstruction from an odd-length series runs one sample
// long; the single trailing sample is dropped. Any other mismatch is an
// error. This is a pure function of the lengths involved.
func TrimToOriginalLength(originalLength int, reconstructed []float64) ([]float64, error) {
	switch {
	case len(reconstructed) == originalLength:
		return reconstructed, nil
	case len(reconstructed) == originalLength+1:
		return reconstructed[:originalLength], nil
	default:
		return nil, core.NewReconstructionLengthMismatchError(originalLength, len(reconstructed))
	}
}

// Smooth produces the full set of low-pass approximations of a series. For
// each l from levels down to 1 it zeroes detail levels 1..l on a fresh
// coefficient snapshot, reconstructs, and trims to the original length.
// Entry l therefore retains only structure coarser than level l.
func (e *Engine) Smooth(s *series.TimeSeries, basis *wavelet.DiscreteBasis, levels int) (wavelet.SmoothedSignalSet, error) {
	result, err := e.Decompose(s, basis, levels)
	if err != nil {
		return nil, err
	}
	return e.SmoothResult(result, basis, s.Len())
}

// SmoothResult builds the smoothed-signal set from an existing
// decomposition, so callers that already hold a DWTResult skip the second
// transform. originalLength is the length of the decomposed series.
func (e *Engine) SmoothResult(result *wavelet.DWTResult, basis *wavelet.DiscreteBasis, originalLength int) (wavelet.SmoothedSignalSet, error) {
	set := make(wavelet.SmoothedSignalSet, result.Levels)
	for l := result.Levels; l >= 1; l-- {
		snapshot := result.CopyCoefficients()
		for i := len(snapshot) - l; i < len(snapshot); i++ {
			snapshot[i] = make([]float64, len(snapshot[i]))
		}
		reconstructed, err := e.Reconstruct(snapshot, basis, 0)
		if err != nil {
			return nil, err
		}
		signal, err := TrimToOriginalLength(originalLength, reconstructed)
		if err != nil {
			return nil, err
		}
		e.log.Debug("dwt: smoothed signal s_%d stored", l)
		set[l] = wavelet.SmoothedSignal{Coefficients: snapshot, Signal: signal}
	}
	return set, nil
}

// analyzeStep runs one level of the analysis filter bank with symmetric
// boundary extension, producing approximation and detail coefficients of
// length floor((n + filterLength - 1) / 2).
func analyzeStep(x []float64, basis *wavelet.DiscreteBasis) (approx, detail []float64) {
	f := basis.FilterLength()
	n := len(x)
	ext := symmetricExtend(x, f-1)
	outLen := (n + f - 1) / 2

	decLo, decHi := basis.DecLo(), basis.DecHi()
	approx = make([]float64, outLen)
	detail = make([]float64, outLen)
	for i := 0; i < outLen; i++ {
		base := 2*i + 1
		var sa, sd float64
		for k := 0; k < f; k++ {
			v := ext[base+k]
			sa += v * decLo[f-1-k]
			sd += v * decHi[f-1-k]
		}
		approx[i] = sa
		detail[i] = sd
	}
	return approx, detail
}

// synthesizeStep runs one level of the synthesis bank: upsample both bands,
// convolve with the reconstruction filters, and cut the boundary margin.
// Output length is 2*len(approx) - filterLength + 2.
func synthesizeStep(approx, detail []float64, basis *wavelet.DiscreteBasis) []float64 {
	f := basis.FilterLength()
	la := len(approx)
	fullLen := 2*la + f - 2
	full := make([]float64, fullLen)

	recLo, recHi := basis.RecLo(), basis.RecHi()
	for i := 0; i < la; i++ {
		a, d := approx[i], detail[i]
		for k := 0; k < f; k++ {
			full[2*i+k] += a*recLo[k] + d*recHi[k]
		}
	}

	recLen := 2*la - f + 2
	out := make([]float64, recLen)
	copy(out, full[f-2:f-2+recLen])
	return out
}

// symmetricExtend mirrors pad samples of x onto each end (half-sample
// symmetry: the edge value is repeated).
func symmetricExtend(x []float64, pad int) []float64 {
	n := len(x)
	ext := make([]float64, n+2*pad)
	for i := 0; i < pad; i++ {
		ext[i] = x[reflectIndex(i-pad, n)]
		ext[pad+n+i] = x[reflectIndex(n+i, n)]
	}
	copy(ext[pad:], x)
	return ext
}

// reflectIndex maps an out-of-range index into [0, n) by half-sample
// symmetric reflection.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - 1 - i
		}
	}
	return i
}

// Energy returns the squared L2 norm of a coefficient band. Exposed for the
// report layer's per-band energy table.
func Energy(band []float64) float64 {
	var sum float64
	for _, v := range band {
		sum += v * v
	}
	return sum
}
