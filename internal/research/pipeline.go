// Package research orchestrates full analysis runs: per-measure wavelet
// decompositions and power spectra, then per-pair cross-wavelet transforms
// and scale-indexed regressions. Pairs are independent; one failing pair is
// recorded and skipped without aborting its siblings.
package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wavelytics/adapters/stats/cwt"
	"wavelytics/adapters/stats/dwt"
	"wavelytics/adapters/stats/regression"
	"wavelytics/adapters/stats/xwt"
	"wavelytics/domain/core"
	"wavelytics/domain/series"
	"wavelytics/domain/wavelet"
	"wavelytics/internal"
	"wavelytics/internal/analysis/descriptive"

	"golang.org/x/sync/semaphore"
)

// Request describes one analysis run over a set of named measures.
type Request struct {
	Measures map[core.MeasureKey]*series.TimeSeries
	Pairs    []core.MeasurePair
	// Basis names the discrete wavelet used for decomposition and
	// regression; the continuous transforms always use the Morlet wavelet.
	Basis  string
	Levels int
	// Standardize rescales each series before the cross-wavelet transform.
	Standardize  bool
	Significance cwt.SignificanceConfig
}

// MeasureAnalysis holds the single-series results for one measure.
type MeasureAnalysis struct {
	Measure  core.MeasureKey           `json:"measure"`
	Summary  *descriptive.Summary      `json:"summary"`
	DWT      *wavelet.DWTResult        `json:"dwt"`
	Smoothed wavelet.SmoothedSignalSet `json:"smoothed"`
	CWT      *wavelet.CWTResult        `json:"cwt"`
}

// PairAnalysis holds the cross-series results for one measure pair. All
// transforms run on the pair's common timestamps.
type PairAnalysis struct {
	Pair                     core.MeasurePair           `json:"pair"`
	Observations             int                        `json:"observations"`
	XWT                      *wavelet.XWTResult         `json:"xwt"`
	DetailRegressions        []wavelet.RegressionResult `json:"detail_regressions"`
	ApproximationRegressions []wavelet.RegressionResult `json:"approximation_regressions"`
	MeanPhase                float64                    `json:"mean_phase"`
}

// RunResult is the complete output of one pipeline run.
type RunResult struct {
	ID          core.RunID                           `json:"id"`
	StartedAt   time.Time                            `json:"started_at"`
	CompletedAt time.Time                            `json:"completed_at"`
	Basis       string                               `json:"basis"`
	Measures    map[core.MeasureKey]*MeasureAnalysis `json:"measures"`
	Pairs       []*PairAnalysis                      `json:"pairs"`
	// Failures maps a measure or pair name to the error that excluded it.
	Failures map[string]string `json:"failures"`
}

// Pipeline wires the transform engines together for batch runs.
type Pipeline struct {
	dwt         *dwt.Engine
	cwt         *cwt.Engine
	xwt         *xwt.Engine
	regression  *regression.Engine
	log         *internal.Logger
	concurrency int64
}

// NewPipeline creates a pipeline running at most concurrency transforms at
// once (<= 0 selects 4).
func NewPipeline(log *internal.Logger, concurrency int64) *Pipeline {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Pipeline{
		dwt:         dwt.New(log),
		cwt:         cwt.New(log),
		xwt:         xwt.New(log),
		regression:  regression.New(log),
		log:         log,
		concurrency: concurrency,
	}
}

// Run executes the full analysis. Measure and pair computations run
// concurrently under a weighted semaphore; each unit either completes fully
// or is recorded in Failures with no partial output.
func (p *Pipeline) Run(ctx context.Context, req Request) (*RunResult, error) {
	basis, err := wavelet.Lookup(req.Basis)
	if err != nil {
		return nil, err
	}
	morlet := wavelet.NewMorlet()

	result := &RunResult{
		ID:        core.RunID(core.NewID()),
		StartedAt: time.Now(),
		Basis:     basis.Name(),
		Measures:  make(map[core.MeasureKey]*MeasureAnalysis, len(req.Measures)),
		Failures:  make(map[string]string),
	}
	p.log.Info("research: run %s, %d measures, %d pairs", result.ID, len(req.Measures), len(req.Pairs))

	sem := semaphore.NewWeighted(p.concurrency)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for key, s := range req.Measures {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(key core.MeasureKey, s *series.TimeSeries) {
			defer wg.Done()
			defer sem.Release(1)

			analysis, err := p.analyzeMeasure(key, s, basis, morlet, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Warn("research: measure %s failed: %v", key, err)
				result.Failures[key.String()] = err.Error()
				return
			}
			result.Measures[key] = analysis
		}(key, s)
	}
	wg.Wait()

	for _, pair := range req.Pairs {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		wg.Add(1)
		go func(pair core.MeasurePair) {
			defer wg.Done()
			defer sem.Release(1)

			analysis, err := p.analyzePair(pair, basis, morlet, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.log.Warn("research: pair %s failed: %v", pair, err)
				result.Failures[pair.String()] = err.Error()
				return
			}
			result.Pairs = append(result.Pairs, analysis)
		}(pair)
	}
	wg.Wait()

	result.CompletedAt = time.Now()
	p.log.Info("research: run %s complete, %d pair results, %d failures",
		result.ID, len(result.Pairs), len(result.Failures))
	return result, nil
}

func (p *Pipeline) analyzeMeasure(key core.MeasureKey, s *series.TimeSeries, basis *wavelet.DiscreteBasis, morlet wavelet.ContinuousBasis, req Request) (*MeasureAnalysis, error) {
	summary, err := descriptive.Summarize(key, s.Values)
	if err != nil {
		return nil, err
	}
	decomposed, err := p.dwt.Decompose(s, basis, req.Levels)
	if err != nil {
		return nil, err
	}
	smoothed, err := p.dwt.SmoothResult(decomposed, basis, s.Len())
	if err != nil {
		return nil, err
	}
	spectrum, err := p.cwt.Transform(s, morlet, cwt.Params{Normalize: true, Significance: req.Significance})
	if err != nil {
		return nil, err
	}
	return &MeasureAnalysis{
		Measure:  key,
		Summary:  summary,
		DWT:      decomposed,
		Smoothed: smoothed,
		CWT:      spectrum,
	}, nil
}

func (p *Pipeline) analyzePair(pair core.MeasurePair, basis *wavelet.DiscreteBasis, morlet wavelet.ContinuousBasis, req Request) (*PairAnalysis, error) {
	x, okX := req.Measures[pair.X]
	y, okY := req.Measures[pair.Y]
	if !okX || !okY {
		return nil, fmt.Errorf("pair %s references a measure with no series", pair)
	}

	ax, ay := series.AlignPair(x, y)
	cross, err := p.xwt.CrossTransform(ax, ay, morlet, xwt.Params{
		Params:      cwt.Params{Significance: req.Significance},
		Standardize: req.Standardize,
	})
	if err != nil {
		return nil, err
	}

	dx, err := p.dwt.Decompose(ax, basis, req.Levels)
	if err != nil {
		return nil, err
	}
	dy, err := p.dwt.Decompose(ay, basis, req.Levels)
	if err != nil {
		return nil, err
	}
	details, err := p.regression.DetailRegression(dx, dy, dx.Levels)
	if err != nil {
		return nil, err
	}

	smoothedX, err := p.dwt.SmoothResult(dx, basis, ax.Len())
	if err != nil {
		return nil, err
	}
	approximations := make([]wavelet.RegressionResult, 0, len(smoothedX))
	for l := 1; l <= len(smoothedX); l++ {
		fit, err := p.regression.ApproximationRegression(smoothedX, ay.Values, l)
		if err != nil {
			return nil, err
		}
		approximations = append(approximations, *fit)
	}

	return &PairAnalysis{
		Pair:                     pair,
		Observations:             ax.Len(),
		XWT:                      cross,
		DetailRegressions:        details,
		ApproximationRegressions: approximations,
		MeanPhase:                xwt.MeanPhaseOutsideCoi(cross),
	}, nil
}
