package chaos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"moviecatalog/internal/catalog"
)

func testSettings() Settings {
	return Settings{
		Concurrency:    50,
		Duration:       30 * time.Millisecond,
		SampleInterval: 10 * time.Millisecond,
	}
}

func newTestEngine(t *testing.T) (*Engine, catalog.Service) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := catalog.NewService(catalog.NewSeededStore(), nil, logger)
	return NewEngine(ServiceTarget(svc), logger), svc
}

func TestConcurrentCreateExperimentHolds(t *testing.T) {
	engine, svc := newTestEngine(t)

	result, err := engine.RunExperiment(context.Background(), engine.ConcurrentCreateExperiment(testSettings()))
	require.NoError(t, err)
	assert.True(t, result.SteadyStateValid)
	assert.True(t, result.HypothesisHeld, "failed: %v", result.FailedAssertions)
	assert.Empty(t, result.Violations)
	assert.NotEmpty(t, result.Observations["identifier_gaps"])
	assert.Len(t, svc.ListMovies(context.Background()), 3+50)
}

func TestInvalidInputExperimentHolds(t *testing.T) {
	engine, svc := newTestEngine(t)

	result, err := engine.RunExperiment(context.Background(), engine.InvalidInputExperiment(testSettings()))
	require.NoError(t, err)
	assert.True(t, result.HypothesisHeld, "failed: %v", result.FailedAssertions)
	assert.Len(t, svc.ListMovies(context.Background()), 3)

	created, err := svc.AddMovie(context.Background(), probeMovie(0))
	require.NoError(t, err)
	assert.Equal(t, int64(4), created.ID)
}

func TestGameDayRunsAllExperiments(t *testing.T) {
	engine, _ := newTestEngine(t)
	engine.RegisterExperiments(testSettings())
	require.Len(t, engine.Experiments(), 2)

	held, err := engine.ExecuteGameDay(context.Background(), GameDay{
		Name:      "test",
		Date:      time.Now(),
		Scenarios: engine.Experiments(),
		Pause:     time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, held)
	assert.Len(t, engine.Results(), 2)
}

type brokenTarget struct{}

func (brokenTarget) AddMovie(context.Context, catalog.Movie) (catalog.Movie, error) {
	return catalog.Movie{}, errors.New("connection refused")
}

func (brokenTarget) ListMovies(context.Context) ([]catalog.Movie, error) {
	return nil, errors.New("connection refused")
}

func TestSteadyStateFailureAbortsExperiment(t *testing.T) {
	engine := NewEngine(brokenTarget{}, zaptest.NewLogger(t))

	result, err := engine.RunExperiment(context.Background(), engine.ConcurrentCreateExperiment(testSettings()))
	assert.ErrorIs(t, err, ErrSteadyStateInvalid)
	assert.False(t, result.SteadyStateValid)
	assert.NotEmpty(t, result.Violations)
	assert.Empty(t, engine.Results())

	held, err := engine.ExecuteGameDay(context.Background(), GameDay{
		Name:      "broken",
		Scenarios: []Experiment{engine.InvalidInputExperiment(testSettings())},
	})
	require.NoError(t, err)
	assert.False(t, held)
}

func TestIdentifierGaps(t *testing.T) {
	movies := []catalog.Movie{{ID: 1}, {ID: 2}, {ID: 4}, {ID: 4}}
	assert.Equal(t, float64(2), identifierGaps(movies))
	assert.Zero(t, identifierGaps(nil))
}

func TestEvaluateThreshold(t *testing.T) {
	tests := []struct {
		op    string
		value float64
		want  bool
	}{
		{">", 2, true},
		{"<", 2, false},
		{">=", 1, true},
		{"<=", 1, true},
		{"==", 1, true},
		{"!=", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evaluateThreshold(tt.value, Threshold{Operator: tt.op, Value: 1}), tt.op)
	}
}
