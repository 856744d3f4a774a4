package research

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"wavelytics/adapters/stats/cwt"
	"wavelytics/domain/core"
	"wavelytics/domain/series"
	"wavelytics/internal"
)

func testPipeline() *Pipeline {
	return NewPipeline(internal.NewLogger(internal.LogLevelError), 2)
}

func syntheticMeasure(n int, seed uint64) *series.TimeSeries {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(2*math.Pi*float64(i)/48) + 0.3*rng.NormFloat64()
	}
	return series.FromValues(values, 1.0/12)
}

func fastRequest(measures map[core.MeasureKey]*series.TimeSeries, pairs []core.MeasurePair) Request {
	return Request{
		Measures:     measures,
		Pairs:        pairs,
		Basis:        "db4",
		Standardize:  true,
		Significance: cwt.SignificanceConfig{MonteCarloCount: 10, Seed: 3},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	measures := map[core.MeasureKey]*series.TimeSeries{
		"expectations": syntheticMeasure(256, 1),
		"nondurables":  syntheticMeasure(256, 2),
	}
	pairs := []core.MeasurePair{{X: "expectations", Y: "nondurables"}}

	result, err := testPipeline().Run(context.Background(), fastRequest(measures, pairs))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.ID == "" {
		t.Error("run has no ID")
	}
	if len(result.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", result.Failures)
	}
	if len(result.Measures) != 2 {
		t.Fatalf("measures analyzed = %d, want 2", len(result.Measures))
	}
	for key, m := range result.Measures {
		if m.Summary == nil || m.DWT == nil || m.CWT == nil || len(m.Smoothed) == 0 {
			t.Errorf("measure %s has incomplete analysis", key)
		}
		if len(m.Smoothed) != m.DWT.Levels {
			t.Errorf("measure %s smoothed entries = %d, want %d", key, len(m.Smoothed), m.DWT.Levels)
		}
	}

	if len(result.Pairs) != 1 {
		t.Fatalf("pair results = %d, want 1", len(result.Pairs))
	}
	pair := result.Pairs[0]
	if pair.Observations != 256 {
		t.Errorf("observations = %d, want 256", pair.Observations)
	}
	if pair.XWT == nil {
		t.Fatal("pair has no cross-wavelet result")
	}
	// 256 samples with filter length 8 support 5 decomposition levels.
	if len(pair.DetailRegressions) != 5 {
		t.Errorf("detail regressions = %d, want 5", len(pair.DetailRegressions))
	}
	if len(pair.ApproximationRegressions) != 5 {
		t.Errorf("approximation regressions = %d, want 5", len(pair.ApproximationRegressions))
	}
	if result.CompletedAt.Before(result.StartedAt) {
		t.Error("completion precedes start")
	}
}

func TestRun_BadPairDoesNotAbortSiblings(t *testing.T) {
	measures := map[core.MeasureKey]*series.TimeSeries{
		"a": syntheticMeasure(128, 7),
		"b": syntheticMeasure(128, 8),
	}
	pairs := []core.MeasurePair{
		{X: "a", Y: "b"},
		{X: "a", Y: "missing"},
	}

	result, err := testPipeline().Run(context.Background(), fastRequest(measures, pairs))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Pairs) != 1 {
		t.Errorf("pair results = %d, want the good pair only", len(result.Pairs))
	}
	if _, ok := result.Failures["a:missing"]; !ok {
		t.Errorf("bad pair not recorded in failures: %v", result.Failures)
	}
}

func TestRun_ShortMeasureRecordedAsFailure(t *testing.T) {
	measures := map[core.MeasureKey]*series.TimeSeries{
		"good":  syntheticMeasure(128, 9),
		"short": syntheticMeasure(5, 10),
	}

	result, err := testPipeline().Run(context.Background(), fastRequest(measures, nil))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if _, ok := result.Measures["good"]; !ok {
		t.Error("good measure missing from results")
	}
	if _, ok := result.Measures["short"]; ok {
		t.Error("short measure should not produce a result")
	}
	if _, ok := result.Failures["short"]; !ok {
		t.Errorf("short measure not recorded in failures: %v", result.Failures)
	}
}

func TestRun_UnknownBasis(t *testing.T) {
	req := fastRequest(map[core.MeasureKey]*series.TimeSeries{"a": syntheticMeasure(64, 11)}, nil)
	req.Basis = "db99"
	if _, err := testPipeline().Run(context.Background(), req); err == nil {
		t.Error("expected error for unknown basis")
	}
}
