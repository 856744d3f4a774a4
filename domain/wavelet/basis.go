package wavelet

import (
	"fmt"
	"sort"

	"wavelytics/domain/core"
)

// DiscreteBasis is an immutable descriptor of an orthogonal discrete wavelet
// family: its name and the four-filter bank derived from the scaling filter.
// Instances are shared and looked up by name from the package registry.
type DiscreteBasis struct {
	name  string
	decLo []float64
	decHi []float64
	recLo []float64
	recHi []float64
}

// Name returns the registry name, e.g. "db4".
func (b *DiscreteBasis) Name() string {
	return b.name
}

// FilterLength returns the decomposition filter length.
func (b *DiscreteBasis) FilterLength() int {
	return len(b.decLo)
}

// DecLo returns the low-pass decomposition filter.
func (b *DiscreteBasis) DecLo() []float64 { return b.decLo }

// DecHi returns the high-pass decomposition filter.
func (b *DiscreteBasis) DecHi() []float64 { return b.decHi }

// RecLo returns the low-pass reconstruction filter.
func (b *DiscreteBasis) RecLo() []float64 { return b.recLo }

// RecHi returns the high-pass reconstruction filter.
func (b *DiscreteBasis) RecHi() []float64 { return b.recHi }

// newOrthogonal builds the full filter bank from a scaling (reconstruction
// low-pass) filter via the quadrature mirror relations.
func newOrthogonal(name string, recLo []float64) *DiscreteBasis {
	n := len(recLo)
	b := &DiscreteBasis{
		name:  name,
		recLo: recLo,
		recHi: make([]float64, n),
		decLo: make([]float64, n),
		decHi: make([]float64, n),
	}
	for k := 0; k < n; k++ {
		sign := 1.0
		if k%2 == 1 {
			sign = -1.0
		}
		b.recHi[k] = sign * recLo[n-1-k]
		b.decLo[k] = recLo[n-1-k]
	}
	for k := 0; k < n; k++ {
		b.decHi[k] = b.recHi[n-1-k]
	}
	return b
}

// Scaling filter coefficients, ascending index. Daubechies values are the
// standard published ones; symlets are the least-asymmetric variant.
var registry = map[string]*DiscreteBasis{
	"haar": newOrthogonal("haar", []float64{
		0.7071067811865476, 0.7071067811865476,
	}),
	"db2": newOrthogonal("db2", []float64{
		0.48296291314469025, 0.8365163037378079,
		0.22414386804185735, -0.12940952255092145,
	}),
	"db4": newOrthogonal("db4", []float64{
		0.23037781330885523, 0.7148465705525415,
		0.6308807679295904, -0.02798376941698385,
		-0.18703481171888114, 0.030841381835986965,
		0.032883011666982945, -0.010597401784997278,
	}),
	"sym4": newOrthogonal("sym4", []float64{
		0.03222310060404270, -0.012603967262037833,
		-0.09921954357684722, 0.29785779560527736,
		0.8037387518059161, 0.49761866763201545,
		-0.02963552764599851, -0.07576571478927333,
	}),
}

// Lookup returns the discrete basis registered under name.
func Lookup(name string) (*DiscreteBasis, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownBasis, name)
	}
	return b, nil
}

// Names lists the registered discrete bases in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
