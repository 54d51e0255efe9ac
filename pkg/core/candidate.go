package core

import (
	"math"
	"time"
)

// Origin describes how a configuration came to exist.
type Origin string

const (
	OriginInitial     Origin = "initial"
	OriginCrossover   Origin = "crossover"
	OriginCrossFamily Origin = "cross_family"
	OriginMutation    Origin = "mutation"
	OriginClone       Origin = "clone"
	OriginElite       Origin = "elite"
	OriginRegenerated Origin = "regenerated"
)

// Configuration identifies a candidate model: a family tag plus a concrete
// hyperparameter assignment. Configurations are immutable once created;
// crossover and mutation always produce fresh copies.
type Configuration struct {
	ID         string                 `json:"id"`
	Family     string                 `json:"family"`
	Parameters map[string]interface{} `json:"parameters"`
	Generation int                    `json:"generation"`
	ParentIDs  []string               `json:"parent_ids,omitempty"`
	Origin     Origin                 `json:"origin"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Clone returns a deep copy of the configuration. Callers that derive new
// candidates mutate the clone, never the original.
func (c Configuration) Clone() Configuration {
	params := make(map[string]interface{}, len(c.Parameters))
	for k, v := range c.Parameters {
		params[k] = v
	}
	parents := make([]string, len(c.ParentIDs))
	copy(parents, c.ParentIDs)

	clone := c
	clone.Parameters = params
	clone.ParentIDs = parents
	return clone
}

// CandidateStatus reports whether a candidate's evaluation succeeded.
type CandidateStatus string

const (
	StatusOK     CandidateStatus = "ok"
	StatusFailed CandidateStatus = "failed"
)

// WorstFitness is the sentinel primary score assigned to failed candidates so
// they rank below every successful one. Never NaN.
var WorstFitness = math.Inf(-1)

// Fitness is the scored quality of a trained candidate.
type Fitness struct {
	// Primary is the discrimination metric (ROC AUC), higher is better.
	Primary float64 `json:"primary"`
	// Secondary holds additional named scores, e.g. weighted F1.
	Secondary map[string]float64 `json:"secondary,omitempty"`
}

// EvaluatedCandidate pairs a configuration with its fitness record. It is
// created by the evaluator and never mutated afterwards.
type EvaluatedCandidate struct {
	Config  Configuration   `json:"config"`
	Fitness Fitness         `json:"fitness"`
	Status  CandidateStatus `json:"status"`
	Error   string          `json:"error,omitempty"`
}

// Failed reports whether the candidate's evaluation failed.
func (e EvaluatedCandidate) Failed() bool {
	return e.Status == StatusFailed
}

// Population is one generation's ordered sequence of evaluated candidates.
// Insertion order is the candidate index within the generation and is not
// meaningful for ranking.
type Population struct {
	Generation int                  `json:"generation"`
	Candidates []EvaluatedCandidate `json:"candidates"`
}

// FailureCount returns the number of failed candidates in the population.
func (p *Population) FailureCount() int {
	count := 0
	for _, c := range p.Candidates {
		if c.Failed() {
			count++
		}
	}
	return count
}
