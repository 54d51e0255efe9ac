package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemind-ai/beemind/internal/testutil"
	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
	"github.com/beemind-ai/beemind/pkg/families"
	"github.com/beemind-ai/beemind/pkg/history"
)

// paramScore derives a deterministic fitness from a configuration's sampled
// parameters, so repeated evaluation of the same parameters always agrees.
func paramScore(config core.Configuration) float64 {
	if v, ok := config.Parameters["n_estimators"].(int); ok {
		return float64(v) / 400.0
	}
	if v, ok := config.Parameters["max_iter"].(int); ok {
		return float64(v) / 2000.0
	}
	return 0.5
}

func paramStub() *testutil.StubEvaluator {
	return &testutil.StubEvaluator{
		Score: func(config core.Configuration) core.EvaluatedCandidate {
			return testutil.ScoreOK(config, paramScore(config))
		},
	}
}

func baseSession() core.EvolutionSession {
	return core.EvolutionSession{
		PopulationSize: 12,
		Generations:    5,
		MutationRate:   0.3,
		CrossoverRate:  0.7,
		EliteCount:     2,
		Seed:           7,
		Concurrency:    4,
	}
}

type captureSink struct {
	mu     sync.Mutex
	events []core.GenerationEvent
	err    error
	onEach func()
}

func (s *captureSink) RecordGeneration(_ context.Context, event core.GenerationEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	if s.onEach != nil {
		s.onEach()
	}
	return s.err
}

func (s *captureSink) all() []core.GenerationEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.GenerationEvent, len(s.events))
	copy(out, s.events)
	return out
}

func TestNewValidation(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := paramStub()

	tests := []struct {
		name     string
		mutate   func(*core.EvolutionSession)
		expected errors.ErrorCode
	}{
		{
			name:     "population below minimum",
			mutate:   func(s *core.EvolutionSession) { s.PopulationSize = 1 },
			expected: errors.ValidationFailed,
		},
		{
			name:     "zero generations",
			mutate:   func(s *core.EvolutionSession) { s.Generations = 0 },
			expected: errors.ValidationFailed,
		},
		{
			name:     "mutation rate above one",
			mutate:   func(s *core.EvolutionSession) { s.MutationRate = 1.5 },
			expected: errors.ValidationFailed,
		},
		{
			name:     "unknown focus family",
			mutate:   func(s *core.EvolutionSession) { s.FocusFamily = "neural-net" },
			expected: errors.UnknownFamily,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := baseSession()
			tt.mutate(&session)

			_, err := New(session, factory, stub)
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.Code(err))
		})
	}
}

func TestNewDefaults(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := paramStub()

	t.Run("negative elite count selects ten percent", func(t *testing.T) {
		session := baseSession()
		session.PopulationSize = 30
		session.EliteCount = -1

		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.Equal(t, 3, e.session.EliteCount)
	})

	t.Run("small population still gets one elite", func(t *testing.T) {
		session := baseSession()
		session.PopulationSize = 5
		session.EliteCount = -1

		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.Equal(t, 1, e.session.EliteCount)
	})

	t.Run("tournament and cross-family defaults", func(t *testing.T) {
		session := baseSession()
		session.CrossFamilyRate = -1
		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.Equal(t, DefaultTournamentSize, e.session.TournamentSize)
		assert.Equal(t, DefaultCrossFamilyRate, e.session.CrossFamilyRate)
		assert.Greater(t, e.session.Concurrency, 0)
	})

	t.Run("explicit zero disables cross-family crossover", func(t *testing.T) {
		session := baseSession()
		session.CrossFamilyRate = 0
		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.Zero(t, e.session.CrossFamilyRate)
	})

	t.Run("zero seed is replaced", func(t *testing.T) {
		session := baseSession()
		session.Seed = 0
		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.NotZero(t, e.session.Seed)
	})

	t.Run("elite count clamped to population", func(t *testing.T) {
		session := baseSession()
		session.PopulationSize = 4
		session.EliteCount = 100
		e, err := New(session, factory, stub)
		require.NoError(t, err)
		assert.Equal(t, 4, e.session.EliteCount)
	})
}

func TestRunCompletes(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := paramStub()
	session := baseSession()

	e, err := New(session, factory, stub)
	require.NoError(t, err)
	assert.Equal(t, StateInitializing, e.State())

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, core.RunCompleted, result.Status)
	assert.Equal(t, StateTerminated, e.State())
	assert.Len(t, result.History, session.Generations)
	assert.NotEmpty(t, result.Best.ID)
	assert.True(t, factory.Registry().Known(result.Best.Family))
	assert.Equal(t, session.PopulationSize*session.Generations, stub.Calls())

	t.Run("best matches the strongest history record", func(t *testing.T) {
		top := result.History[0].BestFitness.Primary
		for _, record := range result.History {
			if record.BestFitness.Primary > top {
				top = record.BestFitness.Primary
			}
		}
		assert.Equal(t, top, result.BestFitness.Primary)
	})

	t.Run("history is dense and ordered", func(t *testing.T) {
		for i, record := range result.History {
			assert.Equal(t, i, record.Generation)
			assert.NotEmpty(t, record.Best.ID)
			assert.False(t, record.Timestamp.IsZero())
			assert.LessOrEqual(t, record.MeanFitness, record.BestFitness.Primary)
		}
	})
}

// TestElitismKeepsBestMonotone verifies the core elitism guarantee: with
// fitness a pure function of parameters, the per-generation best never
// decreases because the elite carry their parameters forward unchanged.
func TestElitismKeepsBestMonotone(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	session := baseSession()
	session.Generations = 8

	e, err := New(session, factory, paramStub())
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	for i := 1; i < len(result.History); i++ {
		assert.GreaterOrEqual(t,
			result.History[i].BestFitness.Primary,
			result.History[i-1].BestFitness.Primary,
			"generation %d best regressed", i)
	}
}

func TestEliteCountBoundaries(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)

	t.Run("zero elites disables elitism", func(t *testing.T) {
		session := baseSession()
		session.EliteCount = 0

		e, err := New(session, factory, paramStub())
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, core.RunCompleted, result.Status)
		assert.Len(t, result.History, session.Generations)
	})

	t.Run("all elites freezes the population", func(t *testing.T) {
		session := baseSession()
		session.EliteCount = session.PopulationSize
		session.Generations = 3

		e, err := New(session, factory, paramStub())
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, core.RunCompleted, result.Status)

		// With the whole population carried over, the best cannot change
		// after the first generation.
		for i := 1; i < len(result.History); i++ {
			assert.Equal(t,
				result.History[0].BestFitness.Primary,
				result.History[i].BestFitness.Primary)
		}
	})
}

func TestRunDeterminism(t *testing.T) {
	run := func() *core.EvolutionResult {
		factory := families.NewFactory(families.NewRegistry(), 0)
		e, err := New(baseSession(), factory, paramStub())
		require.NoError(t, err)
		result, err := e.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()

	assert.Equal(t, first.BestFitness, second.BestFitness)
	assert.Equal(t, first.Best.Family, second.Best.Family)
	assert.Equal(t, first.Best.Parameters, second.Best.Parameters)

	require.Equal(t, len(first.History), len(second.History))
	for i := range first.History {
		assert.Equal(t,
			first.History[i].BestFitness.Primary,
			second.History[i].BestFitness.Primary,
			"generation %d diverged", i)
	}
}

func TestRunCancelledBeforeStart(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := paramStub()

	e, err := New(baseSession(), factory, stub)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := e.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RunCancelled, result.Status)
	assert.Empty(t, result.History)
	assert.Zero(t, stub.Calls(), "no evaluation after cancellation")
}

func TestRunCancelledAtGenerationBoundary(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := paramStub()
	session := baseSession()

	ctx, cancel := context.WithCancel(context.Background())
	sink := &captureSink{onEach: cancel}

	e, err := New(session, factory, stub, WithAuditSink(sink))
	require.NoError(t, err)

	result, err := e.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, core.RunCancelled, result.Status)
	assert.Len(t, result.History, 1, "the in-flight generation completes")
	assert.Equal(t, session.PopulationSize, stub.Calls())
	assert.NotEmpty(t, result.Best.ID, "partial results are preserved")
}

// TestFullFailureRecovery covers the one-retry recovery path: a generation
// where every candidate fails is regenerated once before the run stalls.
func TestFullFailureRecovery(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)

	t.Run("recovery succeeds on the regenerated population", func(t *testing.T) {
		stub := &testutil.StubEvaluator{
			Score: func(config core.Configuration) core.EvaluatedCandidate {
				if config.Origin == core.OriginRegenerated {
					return testutil.ScoreOK(config, paramScore(config))
				}
				return testutil.ScoreFailed(config, "synthetic failure")
			},
		}

		session := baseSession()
		session.Generations = 1

		e, err := New(session, factory, stub)
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)

		assert.Equal(t, core.RunCompleted, result.Status)
		assert.Len(t, result.History, 1)
		assert.Equal(t, core.OriginRegenerated, result.Best.Origin)
		assert.Equal(t, 2*session.PopulationSize, stub.Calls(),
			"the failed and regenerated populations were both evaluated")
	})

	t.Run("second full failure stalls the run", func(t *testing.T) {
		stub := &testutil.StubEvaluator{
			Score: func(config core.Configuration) core.EvaluatedCandidate {
				return testutil.ScoreFailed(config, "synthetic failure")
			},
		}

		session := baseSession()
		e, err := New(session, factory, stub)
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, errors.EvolutionStalled, errors.Code(err))

		require.NotNil(t, result, "a stalled run still returns its partial result")
		assert.Equal(t, core.RunStalled, result.Status)
		assert.Equal(t, session.PopulationSize, result.FinalFailures)
		assert.Equal(t, 2*session.PopulationSize, stub.Calls(),
			"exactly one regeneration is attempted")
	})
}

func TestStallEarlyStop(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := &testutil.StubEvaluator{
		Score: func(config core.Configuration) core.EvaluatedCandidate {
			return testutil.ScoreOK(config, 0.7)
		},
	}

	session := baseSession()
	session.Generations = 10
	session.StallGenerations = 2

	e, err := New(session, factory, stub)
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, core.RunCompleted, result.Status)
	assert.Len(t, result.History, 3,
		"one improving generation plus the configured stall window")
	assert.GreaterOrEqual(t, result.StallCounter, session.StallGenerations)
}

func TestAuditSink(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)

	t.Run("one event per generation", func(t *testing.T) {
		sink := &captureSink{}
		session := baseSession()

		e, err := New(session, factory, paramStub(), WithAuditSink(sink))
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)

		events := sink.all()
		require.Len(t, events, len(result.History))
		for i, event := range events {
			assert.Equal(t, e.RunID(), event.RunID)
			assert.Equal(t, i, event.Generation)
			assert.Equal(t, result.History[i].BestFitness.Primary, event.BestPrimary)
		}
	})

	t.Run("sink errors never fail the run", func(t *testing.T) {
		sink := &captureSink{err: errors.New(errors.Unknown, "sink unavailable")}

		e, err := New(baseSession(), factory, paramStub(), WithAuditSink(sink))
		require.NoError(t, err)

		result, err := e.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, core.RunCompleted, result.Status)
	})
}

func TestWithHistory(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	store := history.NewStore(2)
	session := baseSession()

	e, err := New(session, factory, paramStub(), WithHistory(store))
	require.NoError(t, err)
	assert.Same(t, store, e.History())

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.History, 2,
		"the result carries only what the bounded store retained")

	best, err := store.Best()
	require.NoError(t, err)
	assert.Equal(t, result.BestFitness.Primary, best.BestFitness.Primary,
		"the globally best record survives ring eviction")
}

func TestFinalFailuresSurfaced(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)
	stub := &testutil.StubEvaluator{
		Score: func(config core.Configuration) core.EvaluatedCandidate {
			if config.Family == families.Linear {
				return testutil.ScoreFailed(config, "synthetic failure")
			}
			return testutil.ScoreOK(config, paramScore(config))
		},
	}

	e, err := New(baseSession(), factory, stub)
	require.NoError(t, err)

	result, err := e.Run(context.Background())
	require.NoError(t, err)

	last := result.History[len(result.History)-1]
	assert.Equal(t, last.Failures, result.FinalFailures)
}

func TestFocusFamilyDominatesInitialPopulation(t *testing.T) {
	factory := families.NewFactory(families.NewRegistry(), 0)

	var mu sync.Mutex
	familyCounts := make(map[string]int)
	stub := &testutil.StubEvaluator{
		Score: func(config core.Configuration) core.EvaluatedCandidate {
			mu.Lock()
			familyCounts[config.Family]++
			mu.Unlock()
			return testutil.ScoreOK(config, paramScore(config))
		},
	}

	session := baseSession()
	session.PopulationSize = 100
	session.Generations = 1
	session.FocusFamily = families.Linear

	e, err := New(session, factory, stub)
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, familyCounts[families.Linear], 40,
		"the focus family should dominate the initial population")
}
