package dwt

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"wavelytics/domain/core"
	"wavelytics/domain/series"
	"wavelytics/domain/wavelet"
	"wavelytics/internal"
)

func testEngine() *Engine {
	return New(internal.NewLogger(internal.LogLevelError))
}

func mustBasis(t *testing.T, name string) *wavelet.DiscreteBasis {
	t.Helper()
	basis, err := wavelet.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%q) failed: %v", name, err)
	}
	return basis
}

// generateSignal builds a deterministic mixed-frequency test signal.
func generateSignal(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	values := make([]float64, n)
	for i := range values {
		t := float64(i)
		values[i] = math.Sin(2*math.Pi*t/64) + 0.5*math.Sin(2*math.Pi*t/8) + 0.1*rng.NormFloat64()
	}
	return values
}

func TestMaxLevel(t *testing.T) {
	cases := []struct {
		n, filterLength, want int
	}{
		{128, 8, 4},   // floor(log2(128/7)) = 4
		{1000, 8, 7},  // floor(log2(1000/7)) = 7
		{1000, 2, 9},  // haar
		{14, 8, 1},    // exactly 2*(8-1)
		{13, 8, 0},    // too short for one level
		{1, 2, 0},
	}
	for _, tc := range cases {
		if got := MaxLevel(tc.n, tc.filterLength); got != tc.want {
			t.Errorf("MaxLevel(%d, %d) = %d, want %d", tc.n, tc.filterLength, got, tc.want)
		}
	}
}

func TestDecompose_RoundTrip(t *testing.T) {
	engine := testEngine()
	for _, name := range []string{"haar", "db2", "db4", "sym4"} {
		for _, n := range []int{128, 251, 1000, 1001} {
			basis := mustBasis(t, name)
			s := series.FromValues(generateSignal(n, 7), 1.0/12)

			result, err := engine.Decompose(s, basis, 0)
			if err != nil {
				t.Fatalf("%s/%d: Decompose failed: %v", name, n, err)
			}
			reconstructed, err := engine.Reconstruct(result.Coefficients, basis, 0)
			if err != nil {
				t.Fatalf("%s/%d: Reconstruct failed: %v", name, n, err)
			}
			signal, err := TrimToOriginalLength(n, reconstructed)
			if err != nil {
				t.Fatalf("%s/%d: trim failed: %v", name, n, err)
			}
			for i := range signal {
				if math.Abs(signal[i]-s.Values[i]) > 1e-8 {
					t.Fatalf("%s/%d: round-trip mismatch at %d: got %v want %v",
						name, n, i, signal[i], s.Values[i])
				}
			}
		}
	}
}

func TestDecompose_LevelOutOfRange(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	s := series.FromValues(generateSignal(128, 3), 1.0/12)

	// max_level(128, 8) = 4, so 5 must fail
	_, err := engine.Decompose(s, basis, 5)
	if !errors.Is(err, core.ErrLevelOutOfRange) {
		t.Errorf("expected ErrLevelOutOfRange, got %v", err)
	}

	if _, err := engine.Decompose(s, basis, 4); err != nil {
		t.Errorf("levels at maximum should succeed, got %v", err)
	}
}

func TestDecompose_InsufficientLength(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	s := series.FromValues(generateSignal(13, 3), 1.0/12)

	_, err := engine.Decompose(s, basis, 0)
	if !errors.Is(err, core.ErrInsufficientLength) {
		t.Errorf("expected ErrInsufficientLength, got %v", err)
	}
}

func TestDecompose_NonFiniteValue(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		values := generateSignal(128, 3)
		values[41] = bad
		s := series.FromValues(values, 1.0/12)
		_, err := engine.Decompose(s, basis, 0)
		if !errors.Is(err, core.ErrNonFiniteValue) {
			t.Errorf("value %v: expected ErrNonFiniteValue, got %v", bad, err)
		}
	}
}

func TestDecompose_ConstantSeries(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	values := make([]float64, 256)
	for i := range values {
		values[i] = 3.5
	}
	s := series.FromValues(values, 1.0/12)

	result, err := engine.Decompose(s, basis, 0)
	if err != nil {
		t.Fatalf("constant series must decompose: %v", err)
	}
	for l := 1; l <= result.Levels; l++ {
		band, err := result.Detail(l)
		if err != nil {
			t.Fatalf("Detail(%d) failed: %v", l, err)
		}
		for i, v := range band {
			if math.Abs(v) > 1e-9 {
				t.Errorf("level %d detail[%d] = %v, want 0", l, i, v)
			}
		}
	}
}

func TestTrimToOriginalLength(t *testing.T) {
	// Equal lengths pass through unchanged
	got, err := TrimToOriginalLength(1000, make([]float64, 1000))
	if err != nil || len(got) != 1000 {
		t.Errorf("equal lengths: got len %d, err %v", len(got), err)
	}

	// Longer by one drops exactly one trailing sample
	in := make([]float64, 1002)
	in[1000] = 42
	got, err = TrimToOriginalLength(1001, in)
	if err != nil || len(got) != 1001 {
		t.Fatalf("longer by one: got len %d, err %v", len(got), err)
	}
	if got[1000] != 42 {
		t.Errorf("trim must drop the trailing sample only")
	}

	// Any other mismatch is an error
	if _, err := TrimToOriginalLength(1001, make([]float64, 1000)); !errors.Is(err, core.ErrReconstructionLengthMismatch) {
		t.Errorf("shorter reconstruction: expected ErrReconstructionLengthMismatch, got %v", err)
	}
	if _, err := TrimToOriginalLength(1000, make([]float64, 1003)); !errors.Is(err, core.ErrReconstructionLengthMismatch) {
		t.Errorf("longer by >1: expected ErrReconstructionLengthMismatch, got %v", err)
	}
}

func TestSmooth_SignalLengths(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")

	for _, n := range []int{1000, 1001} {
		s := series.FromValues(generateSignal(n, 11), 1.0/12)
		set, err := engine.Smooth(s, basis, 0)
		if err != nil {
			t.Fatalf("n=%d: Smooth failed: %v", n, err)
		}
		for l, entry := range set {
			if len(entry.Signal) != n {
				t.Errorf("n=%d level %d: signal length %d, want %d", n, l, len(entry.Signal), n)
			}
		}
	}
}

func TestSmooth_SingleLevel(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	s := series.FromValues(generateSignal(14, 5), 1.0/12) // max_level = 1

	set, err := engine.Smooth(s, basis, 0)
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	if len(set) != 1 {
		t.Fatalf("expected one entry, got %d", len(set))
	}
	if _, ok := set[1]; !ok {
		t.Errorf("expected key 1 in single-level set")
	}
}

func TestSmooth_DoesNotMutateSource(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	s := series.FromValues(generateSignal(256, 9), 1.0/12)

	result, err := engine.Decompose(s, basis, 0)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	finest, _ := result.Detail(1)
	before := make([]float64, len(finest))
	copy(before, finest)

	if _, err := engine.Smooth(s, basis, 0); err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	for i := range finest {
		if finest[i] != before[i] {
			t.Fatalf("Smooth mutated source coefficients at %d", i)
		}
	}
}

func TestEndToEnd_Length128FilterLength8(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4") // filter length 8
	if basis.FilterLength() != 8 {
		t.Fatalf("db4 filter length = %d, want 8", basis.FilterLength())
	}
	s := series.FromValues(generateSignal(128, 21), 1.0/12)

	result, err := engine.Decompose(s, basis, 0)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	if result.Levels != 4 {
		t.Errorf("levels = %d, want 4", result.Levels)
	}
	if len(result.Coefficients) != 5 {
		t.Errorf("coefficient arrays = %d, want 5", len(result.Coefficients))
	}

	set, err := engine.Smooth(s, basis, 0)
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}
	for _, key := range []int{1, 2, 3, 4} {
		if _, ok := set[key]; !ok {
			t.Errorf("missing smoothed signal key %d", key)
		}
	}
	if len(set) != 4 {
		t.Errorf("smoothed set size = %d, want 4", len(set))
	}
}

func TestSmoothResult_MatchesSmooth(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db4")
	s := series.FromValues(generateSignal(256, 17), 1.0/12)

	fromSeries, err := engine.Smooth(s, basis, 0)
	if err != nil {
		t.Fatalf("Smooth failed: %v", err)
	}

	decomposed, err := engine.Decompose(s, basis, 0)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	fromResult, err := engine.SmoothResult(decomposed, basis, s.Len())
	if err != nil {
		t.Fatalf("SmoothResult failed: %v", err)
	}

	if len(fromResult) != len(fromSeries) {
		t.Fatalf("set size = %d, want %d", len(fromResult), len(fromSeries))
	}
	for l, entry := range fromSeries {
		other, ok := fromResult[l]
		if !ok {
			t.Fatalf("missing level %d in reused-decomposition set", l)
		}
		for i := range entry.Signal {
			if entry.Signal[i] != other.Signal[i] {
				t.Fatalf("level %d signal differs at %d", l, i)
			}
		}
	}
}

func TestReconstructComponent_SumsToSignal(t *testing.T) {
	engine := testEngine()
	basis := mustBasis(t, "db2")
	n := 256
	s := series.FromValues(generateSignal(n, 13), 1.0/12)

	result, err := engine.Decompose(s, basis, 0)
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}

	// The component reconstructions are linear, so they sum to the original.
	sum := make([]float64, n)
	for band := range result.Coefficients {
		component, err := engine.ReconstructComponent(result.Coefficients, basis, band)
		if err != nil {
			t.Fatalf("ReconstructComponent(%d) failed: %v", band, err)
		}
		trimmed, err := TrimToOriginalLength(n, component)
		if err != nil {
			t.Fatalf("trim failed: %v", err)
		}
		for i := range sum {
			sum[i] += trimmed[i]
		}
	}
	for i := range sum {
		if math.Abs(sum[i]-s.Values[i]) > 1e-8 {
			t.Fatalf("component sum mismatch at %d: got %v want %v", i, sum[i], s.Values[i])
		}
	}
}
