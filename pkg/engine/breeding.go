package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/logging"
	"github.com/beemind-ai/beemind/pkg/selector"
)

// breed produces the next generation's configurations: offspring from
// tournament-selected parents fill population_size - elite_count slots, then
// the population's elites are carried over unchanged.
func (e *Engine) breed(generation int, population *core.Population, ranked []core.EvaluatedCandidate) []core.Configuration {
	offspringCount := e.session.PopulationSize - e.session.EliteCount
	next := make([]core.Configuration, 0, e.session.PopulationSize)

	for len(next) < offspringCount {
		parentA := e.tournament(ranked)
		parentB := e.tournament(ranked)

		child := e.crossover(parentA.Config, parentB.Config)
		child = e.mutate(child)
		child.Generation = generation + 1
		next = append(next, child)
	}

	// A population with no survivors yields no elites; breeding then fills
	// every slot.
	elites, err := selector.SelectElite(population, e.session.EliteCount)
	if err != nil {
		elites = nil
	}
	for _, candidate := range elites {
		// Elites keep their identity and parameters; the value copy keeps
		// the original population immutable.
		elite := candidate.Config
		elite.Origin = core.OriginElite
		next = append(next, elite)
	}

	// A generation where more elites were requested than survived gets the
	// shortfall refilled with fresh candidates.
	for len(next) < e.session.PopulationSize {
		config, err := e.factory.Create(e.rng, e.session.FocusFamily)
		if err != nil {
			break
		}
		config.Generation = generation + 1
		next = append(next, config)
	}

	return next
}

// tournament samples tournament_size candidates from the ranked population
// and returns the best. The ranking is best-first, so the winner is the
// sampled entry with the lowest index.
func (e *Engine) tournament(ranked []core.EvaluatedCandidate) core.EvaluatedCandidate {
	best := e.rng.Intn(len(ranked))
	for i := 1; i < e.session.TournamentSize; i++ {
		idx := e.rng.Intn(len(ranked))
		if idx < best {
			best = idx
		}
	}
	return ranked[best]
}

// crossover combines two parents. With probability crossover_rate a child is
// produced either by parameter-level blending (child keeps parent A's family
// and draws each parameter from either parent) or, for the cross-family
// share, by adopting one parent's family wholesale with a freshly sampled
// parameter set, since blending across different schemas is undefined. When
// crossover does not trigger, the child is a straight copy of parent A.
func (e *Engine) crossover(parentA, parentB core.Configuration) core.Configuration {
	if e.rng.Float64() >= e.session.CrossoverRate {
		child := parentA.Clone()
		child.ID = uuid.New().String()
		child.ParentIDs = []string{parentA.ID}
		child.Origin = core.OriginClone
		child.CreatedAt = time.Now()
		return child
	}

	if e.rng.Float64() < e.session.CrossFamilyRate {
		return e.crossFamilyChild(parentA, parentB)
	}

	return e.blendChild(parentA, parentB)
}

func (e *Engine) blendChild(parentA, parentB core.Configuration) core.Configuration {
	child := parentA.Clone()
	child.ID = uuid.New().String()
	child.ParentIDs = []string{parentA.ID, parentB.ID}
	child.Origin = core.OriginCrossover
	child.CreatedAt = time.Now()

	schema, err := e.factory.Registry().Schema(parentA.Family)
	if err != nil {
		return child
	}

	// Iterate the schema, not the map, so the random stream is consumed in a
	// fixed order. Parameters parent B lacks (a different family) stay with
	// parent A's value.
	for _, spec := range schema {
		valueB, ok := parentB.Parameters[spec.Name]
		if !ok {
			continue
		}
		if e.rng.Float64() < 0.5 {
			child.Parameters[spec.Name] = valueB
		}
	}
	return child
}

// crossFamilyChild adopts one parent's family wholesale and resamples that
// family's entire parameter set: a family switch seeded by the chosen
// parent's success.
func (e *Engine) crossFamilyChild(parentA, parentB core.Configuration) core.Configuration {
	chosen := parentA
	if e.rng.Float64() < 0.5 {
		chosen = parentB
	}

	child, err := e.factory.CreateForFamily(e.rng, chosen.Family)
	if err != nil {
		// The parent's family came out of the registry, so this only
		// happens if a host unregistered it mid-run. Fall back to a copy.
		logging.GetLogger().Warn(nil, "cross-family crossover failed for %q: %v", chosen.Family, err)
		child = chosen.Clone()
		child.ID = uuid.New().String()
	}
	child.ParentIDs = []string{parentA.ID, parentB.ID}
	child.Origin = core.OriginCrossFamily
	return child
}

// mutate resamples each parameter independently with probability
// mutation_rate. Resampling draws from the parameter's full declared range
// rather than perturbing by a small delta, preserving exploration. Mutation
// never changes the family.
func (e *Engine) mutate(config core.Configuration) core.Configuration {
	schema, err := e.factory.Registry().Schema(config.Family)
	if err != nil {
		return config
	}

	child := config.Clone()
	mutated := false
	for _, spec := range schema {
		if e.rng.Float64() < e.session.MutationRate {
			child.Parameters[spec.Name] = spec.Sample(e.rng)
			mutated = true
		}
	}
	if !mutated {
		return config
	}

	child.ID = uuid.New().String()
	child.ParentIDs = []string{config.ID}
	child.Origin = core.OriginMutation
	child.CreatedAt = time.Now()
	return child
}
