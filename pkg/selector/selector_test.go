package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

func candidate(id string, primary, f1 float64) core.EvaluatedCandidate {
	return core.EvaluatedCandidate{
		Config: core.Configuration{ID: id},
		Fitness: core.Fitness{
			Primary:   primary,
			Secondary: map[string]float64{"f1": f1},
		},
		Status: core.StatusOK,
	}
}

func failed(id string) core.EvaluatedCandidate {
	return core.EvaluatedCandidate{
		Config:  core.Configuration{ID: id},
		Fitness: core.Fitness{Primary: core.WorstFitness},
		Status:  core.StatusFailed,
		Error:   "training blew up",
	}
}

func ids(candidates []core.EvaluatedCandidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Config.ID
	}
	return out
}

func TestRank(t *testing.T) {
	t.Run("orders by primary descending", func(t *testing.T) {
		population := &core.Population{Candidates: []core.EvaluatedCandidate{
			candidate("low", 0.6, 0.5),
			candidate("high", 0.9, 0.5),
			candidate("mid", 0.75, 0.5),
		}}

		ranked, err := Rank(population)
		require.NoError(t, err)
		assert.Equal(t, []string{"high", "mid", "low"}, ids(ranked))
	})

	t.Run("primary ties break on secondary f1", func(t *testing.T) {
		population := &core.Population{Candidates: []core.EvaluatedCandidate{
			candidate("weak-f1", 0.8, 0.6),
			candidate("strong-f1", 0.8, 0.9),
		}}

		ranked, err := Rank(population)
		require.NoError(t, err)
		assert.Equal(t, []string{"strong-f1", "weak-f1"}, ids(ranked))
	})

	t.Run("full ties keep insertion order", func(t *testing.T) {
		population := &core.Population{Candidates: []core.EvaluatedCandidate{
			candidate("first", 0.8, 0.7),
			candidate("second", 0.8, 0.7),
			candidate("third", 0.8, 0.7),
		}}

		ranked, err := Rank(population)
		require.NoError(t, err)
		assert.Equal(t, []string{"first", "second", "third"}, ids(ranked))
	})

	t.Run("failed candidates are filtered", func(t *testing.T) {
		population := &core.Population{Candidates: []core.EvaluatedCandidate{
			failed("dead-1"),
			candidate("alive", 0.5, 0.5),
			failed("dead-2"),
		}}

		ranked, err := Rank(population)
		require.NoError(t, err)
		assert.Equal(t, []string{"alive"}, ids(ranked))
	})

	t.Run("fully failed population", func(t *testing.T) {
		population := &core.Population{
			Generation: 4,
			Candidates: []core.EvaluatedCandidate{failed("a"), failed("b")},
		}

		_, err := Rank(population)
		require.Error(t, err)
		assert.Equal(t, errors.EmptyPopulation, errors.Code(err))
	})

	t.Run("empty population", func(t *testing.T) {
		_, err := Rank(&core.Population{})
		require.Error(t, err)
		assert.Equal(t, errors.EmptyPopulation, errors.Code(err))
	})

	t.Run("input population is not reordered", func(t *testing.T) {
		population := &core.Population{Candidates: []core.EvaluatedCandidate{
			candidate("low", 0.2, 0.2),
			candidate("high", 0.9, 0.9),
		}}

		_, err := Rank(population)
		require.NoError(t, err)
		assert.Equal(t, "low", population.Candidates[0].Config.ID)
	})
}

func TestSelectElite(t *testing.T) {
	population := &core.Population{Candidates: []core.EvaluatedCandidate{
		candidate("c", 0.7, 0.7),
		candidate("a", 0.9, 0.9),
		candidate("b", 0.8, 0.8),
		failed("dead"),
	}}

	t.Run("takes the top of the ranking", func(t *testing.T) {
		elite, err := SelectElite(population, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(elite))
	})

	t.Run("zero elite count disables elitism", func(t *testing.T) {
		elite, err := SelectElite(population, 0)
		require.NoError(t, err)
		assert.Empty(t, elite)
	})

	t.Run("count above survivors is clamped", func(t *testing.T) {
		elite, err := SelectElite(population, 10)
		require.NoError(t, err)
		assert.Len(t, elite, 3, "the failed candidate never enters the elite")
	})

	t.Run("negative count treated as zero", func(t *testing.T) {
		elite, err := SelectElite(population, -1)
		require.NoError(t, err)
		assert.Empty(t, elite)
	})

	t.Run("fully failed population propagates the error", func(t *testing.T) {
		dead := &core.Population{Candidates: []core.EvaluatedCandidate{failed("x")}}
		_, err := SelectElite(dead, 1)
		assert.Equal(t, errors.EmptyPopulation, errors.Code(err))
	})
}
