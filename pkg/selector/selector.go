// Package selector ranks an evaluated population and picks the elite subset.
// Failed candidates are filtered before ranking; if nothing survives, the
// caller is told so it can regenerate rather than crash the run.
package selector

import (
	"sort"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// Rank returns the population's surviving candidates ordered best first:
// primary score descending, ties broken by secondary f1 descending, then by
// insertion order. The sort is stable so a fixed seed yields a fully
// deterministic ranking.
func Rank(population *core.Population) ([]core.EvaluatedCandidate, error) {
	survivors := make([]core.EvaluatedCandidate, 0, len(population.Candidates))
	for _, candidate := range population.Candidates {
		if !candidate.Failed() {
			survivors = append(survivors, candidate)
		}
	}

	if len(survivors) == 0 {
		return nil, errors.WithFields(
			errors.New(errors.EmptyPopulation, "no candidates survived evaluation"),
			errors.Fields{
				"generation": population.Generation,
				"candidates": len(population.Candidates),
			})
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		a, b := survivors[i].Fitness, survivors[j].Fitness
		if a.Primary != b.Primary {
			return a.Primary > b.Primary
		}
		return a.Secondary["f1"] > b.Secondary["f1"]
	})

	return survivors, nil
}

// SelectElite returns at most eliteCount candidates from the top of the
// ranking. An eliteCount of 0 returns an empty elite set; breeding then
// fills the whole next generation.
func SelectElite(population *core.Population, eliteCount int) ([]core.EvaluatedCandidate, error) {
	ranked, err := Rank(population)
	if err != nil {
		return nil, err
	}

	if eliteCount < 0 {
		eliteCount = 0
	}
	if eliteCount > len(ranked) {
		eliteCount = len(ranked)
	}

	elite := make([]core.EvaluatedCandidate, eliteCount)
	copy(elite, ranked[:eliteCount])
	return elite, nil
}
