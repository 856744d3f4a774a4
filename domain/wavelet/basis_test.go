package wavelet

import (
	"errors"
	"math"
	"testing"

	"wavelytics/domain/core"
)

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("basis name = %q, want %q", b.Name(), name)
		}
	}

	if _, err := Lookup("coif17"); !errors.Is(err, core.ErrUnknownBasis) {
		t.Errorf("unknown basis: expected ErrUnknownBasis, got %v", err)
	}
}

func TestFilterLengths(t *testing.T) {
	cases := map[string]int{"haar": 2, "db2": 4, "db4": 8, "sym4": 8}
	for name, want := range cases {
		b, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q) failed: %v", name, err)
		}
		if b.FilterLength() != want {
			t.Errorf("%s filter length = %d, want %d", name, b.FilterLength(), want)
		}
	}
}

// Orthogonal scaling filters satisfy sum h = sqrt(2), sum h^2 = 1, and the
// high-pass filter is orthogonal to the low-pass at even shifts.
func TestFilterBankOrthogonality(t *testing.T) {
	for _, name := range Names() {
		b, _ := Lookup(name)
		lo, hi := b.RecLo(), b.RecHi()

		var sum, sumSq, cross float64
		for k := range lo {
			sum += lo[k]
			sumSq += lo[k] * lo[k]
			cross += lo[k] * hi[k]
		}
		if math.Abs(sum-math.Sqrt2) > 1e-10 {
			t.Errorf("%s: filter sum = %v, want sqrt(2)", name, sum)
		}
		if math.Abs(sumSq-1) > 1e-10 {
			t.Errorf("%s: filter energy = %v, want 1", name, sumSq)
		}
		if math.Abs(cross) > 1e-10 {
			t.Errorf("%s: lo/hi inner product = %v, want 0", name, cross)
		}

		// Decomposition filters are the time-reversed reconstruction pair.
		decLo := b.DecLo()
		for k := range lo {
			if decLo[k] != lo[len(lo)-1-k] {
				t.Fatalf("%s: decomposition filter is not the reversed scaling filter", name)
			}
		}
	}
}

func TestMorlet(t *testing.T) {
	m := NewMorlet()

	if m.PsiHat(-1) != 0 || m.PsiHat(0) != 0 {
		t.Error("Morlet spectrum must vanish at non-positive frequencies")
	}
	// The spectrum peaks at the center frequency.
	peak := m.PsiHat(m.Omega0)
	if m.PsiHat(4) >= peak || m.PsiHat(8) >= peak {
		t.Error("Morlet spectrum does not peak at omega0")
	}

	want := 4 * math.Pi / (6 + math.Sqrt(38))
	if math.Abs(m.FourierFactor()-want) > 1e-12 {
		t.Errorf("Fourier factor = %v, want %v", m.FourierFactor(), want)
	}

	if _, err := LookupContinuous("morlet"); err != nil {
		t.Errorf("LookupContinuous(morlet) failed: %v", err)
	}
	if _, err := LookupContinuous("paul"); !errors.Is(err, core.ErrUnknownBasis) {
		t.Errorf("unknown continuous basis: expected ErrUnknownBasis, got %v", err)
	}
}

func TestDWTResult_DetailIndexing(t *testing.T) {
	r := &DWTResult{
		Coefficients: [][]float64{{0}, {3}, {2}, {1}},
		Levels:       3,
	}

	// Level 1 is the finest band, stored last.
	d1, err := r.Detail(1)
	if err != nil || d1[0] != 1 {
		t.Errorf("Detail(1) = %v, %v; want finest band", d1, err)
	}
	d3, err := r.Detail(3)
	if err != nil || d3[0] != 3 {
		t.Errorf("Detail(3) = %v, %v; want coarsest band", d3, err)
	}
	if _, err := r.Detail(4); !errors.Is(err, core.ErrLevelOutOfRange) {
		t.Errorf("Detail(4): expected ErrLevelOutOfRange, got %v", err)
	}
	if _, err := r.Detail(0); !errors.Is(err, core.ErrLevelOutOfRange) {
		t.Errorf("Detail(0): expected ErrLevelOutOfRange, got %v", err)
	}
}

func TestDWTResult_CopyCoefficientsIsIndependent(t *testing.T) {
	r := &DWTResult{Coefficients: [][]float64{{1, 2}, {3, 4}}, Levels: 1}
	snapshot := r.CopyCoefficients()
	snapshot[0][0] = 99
	if r.Coefficients[0][0] != 1 {
		t.Error("copy shares backing arrays with the source")
	}
}
