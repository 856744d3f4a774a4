package series

import (
	"math"
	"time"

	"wavelytics/domain/core"

	"gonum.org/v1/gonum/stat"
)

// TimeSeries is an ordered sequence of (timestamp, value) observations with a
// uniform nominal sampling interval. The transforms treat it as read-only; any
// operation that changes values returns a new instance.
type TimeSeries struct {
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
	// Dt is the nominal sampling interval in the unit the caller works in
	// (e.g. 1/12 for monthly data measured in years).
	Dt float64 `json:"dt"`
}

// New validates and constructs a TimeSeries. Timestamps must be strictly
// increasing and match the number of values.
func New(timestamps []time.Time, values []float64, dt float64) (*TimeSeries, error) {
	if len(timestamps) != len(values) {
		return nil, core.NewLengthMismatchError(len(timestamps), len(values))
	}
	if dt <= 0 {
		return nil, core.ErrInvalidConfig
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, core.ErrInvalidConfig
		}
	}
	return &TimeSeries{
		Timestamps: timestamps,
		Values:     values,
		Dt:         dt,
	}, nil
}

// FromValues constructs a TimeSeries from bare values with synthetic monthly
// timestamps. Used by simulations and tests where calendar dates carry no
// meaning.
func FromValues(values []float64, dt float64) *TimeSeries {
	timestamps := make([]time.Time, len(values))
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := range values {
		timestamps[i] = start.AddDate(0, i, 0)
	}
	return &TimeSeries{Timestamps: timestamps, Values: values, Dt: dt}
}

// Len returns the number of observations.
func (s *TimeSeries) Len() int {
	return len(s.Values)
}

// ValuesCopy returns an independent copy of the value array.
func (s *TimeSeries) ValuesCopy() []float64 {
	out := make([]float64, len(s.Values))
	copy(out, s.Values)
	return out
}

// CheckFinite reports the first NaN or Inf in the series, if any.
func (s *TimeSeries) CheckFinite() error {
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.NewNonFiniteValueError(i, v)
		}
	}
	return nil
}

// Standardize returns a copy rescaled to zero mean and unit variance.
// Optionally removes a linear trend first. Standardizing does not alter phase
// relationships between series, only power magnitude comparability.
func (s *TimeSeries) Standardize(detrend bool) *TimeSeries {
	values := s.ValuesCopy()
	if detrend {
		xs := make([]float64, len(values))
		for i := range xs {
			xs[i] = float64(i)
		}
		alpha, beta := stat.LinearRegression(xs, values, nil, false)
		for i := range values {
			values[i] -= alpha + beta*xs[i]
		}
	}
	mean, std := stat.MeanStdDev(values, nil)
	if std == 0 {
		std = 1
	}
	for i := range values {
		values[i] = (values[i] - mean) / std
	}
	return &TimeSeries{Timestamps: s.Timestamps, Values: values, Dt: s.Dt}
}

// LogDiff returns the first difference of natural logs, one observation
// shorter than the input. Non-positive values yield NaN and are caught by the
// engines' finiteness checks.
func (s *TimeSeries) LogDiff() *TimeSeries {
	if s.Len() < 2 {
		return &TimeSeries{Timestamps: nil, Values: nil, Dt: s.Dt}
	}
	values := make([]float64, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		values[i-1] = math.Log(s.Values[i]) - math.Log(s.Values[i-1])
	}
	return &TimeSeries{Timestamps: s.Timestamps[1:], Values: values, Dt: s.Dt}
}

// Deflate converts nominal values to constant-currency values using a CPI
// series aligned observation-for-observation. The reference index is the CPI
// at refIndex, so the output equals the nominal series at that point.
func (s *TimeSeries) Deflate(cpi *TimeSeries, refIndex int) (*TimeSeries, error) {
	if cpi.Len() != s.Len() {
		return nil, core.NewLengthMismatchError(s.Len(), cpi.Len())
	}
	if refIndex < 0 || refIndex >= cpi.Len() {
		return nil, core.ErrInvalidConfig
	}
	ref := cpi.Values[refIndex]
	values := make([]float64, s.Len())
	for i, v := range s.Values {
		values[i] = v * ref / cpi.Values[i]
	}
	return &TimeSeries{Timestamps: s.Timestamps, Values: values, Dt: s.Dt}, nil
}

// AlignPair restricts two series to their common timestamps, preserving
// order. Both outputs share length and sampling interval.
func AlignPair(a, b *TimeSeries) (*TimeSeries, *TimeSeries) {
	index := make(map[time.Time]int, b.Len())
	for i, t := range b.Timestamps {
		index[t] = i
	}
	var (
		ts     []time.Time
		av, bv []float64
	)
	for i, t := range a.Timestamps {
		if j, ok := index[t]; ok {
			ts = append(ts, t)
			av = append(av, a.Values[i])
			bv = append(bv, b.Values[j])
		}
	}
	return &TimeSeries{Timestamps: ts, Values: av, Dt: a.Dt},
		&TimeSeries{Timestamps: ts, Values: bv, Dt: b.Dt}
}

// SamePair reports whether two series are comparable for paired transforms:
// equal length and equal nominal sampling interval.
func SamePair(a, b *TimeSeries) error {
	if a.Len() != b.Len() {
		return core.NewLengthMismatchError(a.Len(), b.Len())
	}
	if a.Dt != b.Dt {
		return core.NewLengthMismatchError(a.Len(), b.Len())
	}
	return nil
}
