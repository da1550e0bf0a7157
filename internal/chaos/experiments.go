// internal/chaos/experiments.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"moviecatalog/internal/catalog"
)

// Target is the catalog surface the experiments drive.
type Target interface {
	AddMovie(ctx context.Context, movie catalog.Movie) (catalog.Movie, error)
	ListMovies(ctx context.Context) ([]catalog.Movie, error)
}

type serviceTarget struct {
	svc catalog.Service
}

// ServiceTarget adapts an in-process catalog service to a Target.
func ServiceTarget(svc catalog.Service) Target {
	return serviceTarget{svc: svc}
}

func (t serviceTarget) AddMovie(ctx context.Context, movie catalog.Movie) (catalog.Movie, error) {
	return t.svc.AddMovie(ctx, movie)
}

func (t serviceTarget) ListMovies(ctx context.Context) ([]catalog.Movie, error) {
	return t.svc.ListMovies(ctx), nil
}

// Settings tune how hard and how long the experiments run.
type Settings struct {
	Concurrency    int
	Duration       time.Duration
	SampleInterval time.Duration
}

// RegisterExperiments registers all predefined experiments with the engine.
func (e *Engine) RegisterExperiments(s Settings) {
	e.RegisterExperiment(e.ConcurrentCreateExperiment(s))
	e.RegisterExperiment(e.InvalidInputExperiment(s))
}

func probeMovie(i int) catalog.Movie {
	return catalog.Movie{
		Title:       fmt.Sprintf("Probe %d", i),
		Description: "Synthetic movie created by the consistency probe.",
		ReleaseYear: 2000,
		Genre:       "Test",
		Rating:      5.0,
	}
}

// identifierGaps counts positions where the catalog breaks the 1, 2, 3, ... sequence.
func identifierGaps(movies []catalog.Movie) float64 {
	var gaps float64
	for i, m := range movies {
		if m.ID != int64(i+1) {
			gaps++
		}
	}
	return gaps
}

func (e *Engine) catalogSize(ctx context.Context) (int, error) {
	movies, err := e.target.ListMovies(ctx)
	if err != nil {
		return 0, err
	}
	return len(movies), nil
}

// fanOut runs fn n times concurrently and waits for all of them.
func fanOut(n int, fn func(i int)) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}

// ConcurrentCreateExperiment hammers the catalog with simultaneous creates.
func (e *Engine) ConcurrentCreateExperiment(s Settings) Experiment {
	var baseline atomic.Int64
	var failures atomic.Int64

	return Experiment{
		Name:       "concurrent-create-race",
		Hypothesis: "Concurrent creates receive unique, gapless identifiers and every create is stored",
		SteadyState: []Metric{
			{
				Name: "identifier_gaps",
				Query: func(ctx context.Context) (float64, error) {
					movies, err := e.target.ListMovies(ctx)
					if err != nil {
						return 0, err
					}
					return identifierGaps(movies), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
			{
				Name: "catalog_growth",
				Query: func(ctx context.Context) (float64, error) {
					size, err := e.catalogSize(ctx)
					return float64(int64(size) - baseline.Load()), err
				},
				Threshold: Threshold{Operator: ">=", Value: 0},
			},
			{
				Name: "create_failures",
				Query: func(ctx context.Context) (float64, error) {
					return float64(failures.Load()), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "concurrent-requests",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					size, err := e.catalogSize(ctx)
					if err != nil {
						return err
					}
					baseline.Store(int64(size))

					fanOut(s.Concurrency, func(i int) {
						if _, err := e.target.AddMovie(ctx, probeMovie(i)); err != nil {
							failures.Add(1)
						}
					})
					if n := failures.Load(); n > 0 {
						return fmt.Errorf("%d of %d creates failed", n, s.Concurrency)
					}
					return nil
				},
			},
		},
		Validation: []Assertion{
			{
				Metric:    "identifier_gaps",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "Identifiers must stay gapless and in insertion order",
			},
			{
				Metric:    "catalog_growth",
				Condition: func(v float64) bool { return v == float64(s.Concurrency) },
				Message:   "Catalog must grow by exactly the number of creates",
			},
			{
				Metric:    "create_failures",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "No valid create may fail",
			},
		},
		Duration:       s.Duration,
		SampleInterval: s.SampleInterval,
	}
}

// InvalidInputExperiment floods the catalog with movies that break field rules.
func (e *Engine) InvalidInputExperiment(s Settings) Experiment {
	var baseline atomic.Int64
	var unexpected atomic.Int64

	return Experiment{
		Name:       "invalid-input-flood",
		Hypothesis: "Rejected creates leave the catalog untouched and consume no identifiers",
		SteadyState: []Metric{
			{
				Name: "catalog_growth",
				Query: func(ctx context.Context) (float64, error) {
					size, err := e.catalogSize(ctx)
					return float64(int64(size) - baseline.Load()), err
				},
				Threshold: Threshold{Operator: ">=", Value: 0},
			},
			{
				Name: "unexpected_outcomes",
				Query: func(ctx context.Context) (float64, error) {
					return float64(unexpected.Load()), nil
				},
				Threshold: Threshold{Operator: "==", Value: 0},
			},
		},
		Method: []Action{
			{
				Type:   "invalid-requests",
				Target: "catalog",
				Execute: func(ctx context.Context) error {
					size, err := e.catalogSize(ctx)
					if err != nil {
						return err
					}
					baseline.Store(int64(size))

					fanOut(s.Concurrency, func(i int) {
						m := probeMovie(i)
						m.Rating = 11.0
						_, err := e.target.AddMovie(ctx, m)
						var verr *catalog.ValidationError
						if !errors.As(err, &verr) {
							unexpected.Add(1)
						}
					})
					return nil
				},
			},
		},
		Validation: []Assertion{
			{
				Metric:    "catalog_growth",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "Invalid movies must never be stored",
			},
			{
				Metric:    "unexpected_outcomes",
				Condition: func(v float64) bool { return v == 0 },
				Message:   "Every invalid create must be rejected with field errors",
			},
		},
		Duration:       s.Duration,
		SampleInterval: s.SampleInterval,
	}
}
