// Package engine owns the generational loop: it builds an initial population,
// evaluates it in parallel, selects the elite, breeds the next generation,
// and records one history entry per generation until the configured
// generation count is reached or the run is cancelled.
package engine

import (
	"context"
	"math/rand"
	"runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/stat"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
	"github.com/beemind-ai/beemind/pkg/families"
	"github.com/beemind-ai/beemind/pkg/history"
	"github.com/beemind-ai/beemind/pkg/logging"
	"github.com/beemind-ai/beemind/pkg/selector"
)

// State is the engine's position in the generational state machine.
type State string

const (
	StateInitializing State = "initializing"
	StateEvaluating   State = "evaluating"
	StateSelecting    State = "selecting"
	StateBreeding     State = "breeding"
	StateTerminated   State = "terminated"
)

// Defaults applied when the session leaves a knob unset.
const (
	DefaultTournamentSize  = 3
	DefaultCrossFamilyRate = 0.1
	DefaultEliteFraction   = 0.1
)

// Evaluator scores a single configuration. Implemented by pkg/evaluator;
// tests inject stubs.
type Evaluator interface {
	Evaluate(ctx context.Context, config core.Configuration) core.EvaluatedCandidate
}

// Option configures an Engine.
type Option func(*Engine)

// WithAuditSink attaches a write-only sink that receives one event per
// generation. Sink failures are logged, never fatal.
func WithAuditSink(sink core.AuditSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// WithHistory substitutes a caller-owned history store.
func WithHistory(store *history.Store) Option {
	return func(e *Engine) {
		e.history = store
	}
}

// Engine drives one evolution run. It exclusively owns the current
// population during generation transitions; all cross-component exchange is
// by value.
type Engine struct {
	session   core.EvolutionSession
	factory   *families.Factory
	evaluator Evaluator
	history   *history.Store
	sink      core.AuditSink
	rng       *rand.Rand
	runID     string

	state        State
	stallCounter int
	bestEver     *core.EvaluatedCandidate
}

var validate = validator.New()

// New validates the session, applies defaults, and prepares an engine. An
// unknown focus family fails here, before any evaluation.
func New(session core.EvolutionSession, factory *families.Factory, eval Evaluator, opts ...Option) (*Engine, error) {
	if err := validate.Struct(session); err != nil {
		return nil, errors.Wrap(err, errors.ValidationFailed, "invalid evolution session")
	}

	if session.FocusFamily != "" && !factory.Registry().Known(session.FocusFamily) {
		return nil, errors.WithFields(
			errors.New(errors.UnknownFamily, "unknown focus family"),
			errors.Fields{"family": session.FocusFamily, "known": factory.Registry().Names()})
	}

	if session.TournamentSize == 0 {
		session.TournamentSize = DefaultTournamentSize
	}
	if session.CrossFamilyRate < 0 {
		session.CrossFamilyRate = DefaultCrossFamilyRate
	}
	if session.EliteCount < 0 {
		session.EliteCount = int(float64(session.PopulationSize) * DefaultEliteFraction)
		if session.EliteCount < 1 {
			session.EliteCount = 1
		}
	}
	if session.EliteCount > session.PopulationSize {
		session.EliteCount = session.PopulationSize
	}
	if session.Concurrency == 0 {
		session.Concurrency = runtime.NumCPU()
	}
	if session.Seed == 0 {
		session.Seed = time.Now().UnixNano()
	}

	e := &Engine{
		session:   session,
		factory:   factory,
		evaluator: eval,
		rng:       rand.New(rand.NewSource(session.Seed)),
		runID:     uuid.New().String(),
		state:     StateInitializing,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.history == nil {
		e.history = history.NewStore(session.HistoryCap)
	}
	return e, nil
}

// RunID identifies this run in logs and audit events.
func (e *Engine) RunID() string {
	return e.runID
}

// State returns the engine's current state.
func (e *Engine) State() State {
	return e.state
}

// StallCounter returns the number of consecutive generations without an
// improvement in best fitness.
func (e *Engine) StallCounter() int {
	return e.stallCounter
}

// History exposes the run's bounded generation history.
func (e *Engine) History() *history.Store {
	return e.history
}

// Run executes the full evolution and returns the best configuration
// observed with the generation history. Cancellation is cooperative: it is
// checked at generation boundaries and the in-progress generation's
// evaluation always runs to completion. A stalled run returns the partial
// result alongside an EvolutionStalled error.
func (e *Engine) Run(ctx context.Context) (*core.EvolutionResult, error) {
	ctx = logging.WithRunID(ctx, e.runID)
	logger := logging.GetLogger()

	logger.Info(ctx, "starting evolution: population_size=%d generations=%d focus_family=%q seed=%d",
		e.session.PopulationSize, e.session.Generations, e.session.FocusFamily, e.session.Seed)

	e.state = StateInitializing
	configs, err := e.initialPopulation()
	if err != nil {
		return nil, err
	}

	status := core.RunCompleted
	finalFailures := 0

	for generation := 0; generation < e.session.Generations; generation++ {
		if ctx.Err() != nil {
			logger.Info(ctx, "cancellation observed at generation boundary %d", generation)
			status = core.RunCancelled
			break
		}

		genCtx := logging.WithGeneration(ctx, generation)

		e.state = StateEvaluating
		population := e.evaluateAll(genCtx, generation, configs)

		e.state = StateSelecting
		ranked, err := selector.Rank(&population)
		if errors.Code(err) == errors.EmptyPopulation {
			logger.Warn(genCtx, "all candidates failed, regenerating population")
			population, ranked, err = e.recoverGeneration(genCtx, generation)
		}
		if err != nil {
			stallErr := errors.Wrap(err, errors.EvolutionStalled, "evolution stalled")
			result := e.result(core.RunStalled, population.FailureCount())
			return result, stallErr
		}

		e.observeBest(genCtx, ranked[0])
		finalFailures = population.FailureCount()

		record := e.makeRecord(generation, ranked, &population)
		e.history.Append(record)
		e.emitAudit(genCtx, record)

		logger.Info(genCtx, "generation complete: best=%.4f mean=%.4f failures=%d family=%s",
			record.BestFitness.Primary, record.MeanFitness, record.Failures, record.Best.Family)

		if e.session.StallGenerations > 0 && e.stallCounter >= e.session.StallGenerations {
			logger.Info(genCtx, "early stop: %d generations without improvement", e.stallCounter)
			break
		}

		if generation < e.session.Generations-1 {
			e.state = StateBreeding
			configs = e.breed(generation, &population, ranked)
		}
	}

	e.state = StateTerminated
	result := e.result(status, finalFailures)

	logger.Info(ctx, "evolution %s: best_fitness=%.4f best_family=%s generations_recorded=%d",
		result.Status, result.BestFitness.Primary, result.Best.Family, len(result.History))
	return result, nil
}

func (e *Engine) initialPopulation() ([]core.Configuration, error) {
	configs := make([]core.Configuration, e.session.PopulationSize)
	for i := range configs {
		config, err := e.factory.Create(e.rng, e.session.FocusFamily)
		if err != nil {
			return nil, err
		}
		configs[i] = config
	}
	return configs, nil
}

// evaluateAll dispatches every configuration to a bounded worker pool and
// blocks until all have returned. Results are written back by index so the
// resulting population preserves the original ordering regardless of
// completion order.
func (e *Engine) evaluateAll(ctx context.Context, generation int, configs []core.Configuration) core.Population {
	results := make([]core.EvaluatedCandidate, len(configs))

	p := pool.New().WithMaxGoroutines(e.session.Concurrency)
	for i, config := range configs {
		i, config := i, config
		p.Go(func() {
			results[i] = e.evaluator.Evaluate(ctx, config)
		})
	}
	p.Wait()

	return core.Population{Generation: generation, Candidates: results}
}

// recoverGeneration handles a fully failed generation: one fresh population
// is generated and evaluated; a second empty ranking in the same generation
// stalls the run.
func (e *Engine) recoverGeneration(ctx context.Context, generation int) (core.Population, []core.EvaluatedCandidate, error) {
	configs := make([]core.Configuration, e.session.PopulationSize)
	for i := range configs {
		config, err := e.factory.Create(e.rng, e.session.FocusFamily)
		if err != nil {
			return core.Population{}, nil, err
		}
		config.Origin = core.OriginRegenerated
		config.Generation = generation
		configs[i] = config
	}

	population := e.evaluateAll(ctx, generation, configs)
	ranked, err := selector.Rank(&population)
	return population, ranked, err
}

func (e *Engine) observeBest(ctx context.Context, best core.EvaluatedCandidate) {
	if e.bestEver == nil || best.Fitness.Primary > e.bestEver.Fitness.Primary {
		snapshot := best
		e.bestEver = &snapshot
		e.stallCounter = 0
		logging.GetLogger().Debug(ctx, "new best candidate: family=%s fitness=%.4f",
			best.Config.Family, best.Fitness.Primary)
		return
	}
	e.stallCounter++
}

func (e *Engine) makeRecord(generation int, ranked []core.EvaluatedCandidate, population *core.Population) core.GenerationRecord {
	primaries := make([]float64, len(ranked))
	for i, candidate := range ranked {
		primaries[i] = candidate.Fitness.Primary
	}

	return core.GenerationRecord{
		Generation:  generation,
		BestFitness: ranked[0].Fitness,
		MeanFitness: stat.Mean(primaries, nil),
		Failures:    population.FailureCount(),
		Best:        ranked[0].Config,
		Timestamp:   time.Now(),
	}
}

func (e *Engine) emitAudit(ctx context.Context, record core.GenerationRecord) {
	if e.sink == nil {
		return
	}
	event := core.GenerationEvent{
		RunID:       e.runID,
		Generation:  record.Generation,
		BestPrimary: record.BestFitness.Primary,
		BestFamily:  record.Best.Family,
		Timestamp:   record.Timestamp,
	}
	if err := e.sink.RecordGeneration(ctx, event); err != nil {
		logging.GetLogger().Warn(ctx, "audit sink rejected generation event: %v", err)
	}
}

func (e *Engine) result(status core.RunStatus, finalFailures int) *core.EvolutionResult {
	result := &core.EvolutionResult{
		History:       e.history.All(),
		Status:        status,
		StallCounter:  e.stallCounter,
		FinalFailures: finalFailures,
	}
	if e.bestEver != nil {
		result.Best = e.bestEver.Config
		result.BestFitness = e.bestEver.Fitness
	}
	return result
}
