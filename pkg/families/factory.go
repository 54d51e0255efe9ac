package families

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/beemind-ai/beemind/pkg/core"
	"github.com/beemind-ai/beemind/pkg/errors"
)

// DefaultFocusWeight is the probability mass placed on the focus family when
// one is configured; the remainder is split evenly across the other families.
const DefaultFocusWeight = 0.6

// Factory produces candidate configurations: a family chosen from the
// registry (optionally biased toward a focus family) plus a hyperparameter
// set sampled uniformly from the family's schema. The factory is a pure
// function of its inputs and the supplied random stream.
type Factory struct {
	registry    *Registry
	focusWeight float64
}

// NewFactory creates a factory over the given registry. A focusWeight of 0
// selects DefaultFocusWeight.
func NewFactory(registry *Registry, focusWeight float64) *Factory {
	if focusWeight <= 0 {
		focusWeight = DefaultFocusWeight
	}
	return &Factory{registry: registry, focusWeight: focusWeight}
}

// Registry exposes the family registry backing this factory.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Create samples a new configuration. With a focus family set, the focus
// receives the configured weight and the rest is split evenly; otherwise
// sampling is uniform across all known families. An unrecognized focus
// family is a caller-input error, not retried.
func (f *Factory) Create(rng *rand.Rand, focusFamily string) (core.Configuration, error) {
	family, err := f.pickFamily(rng, focusFamily)
	if err != nil {
		return core.Configuration{}, err
	}
	return f.CreateForFamily(rng, family)
}

// CreateForFamily samples a configuration for a specific family. Used by
// cross-family crossover, where the child adopts one parent's family with a
// freshly sampled parameter set.
func (f *Factory) CreateForFamily(rng *rand.Rand, family string) (core.Configuration, error) {
	schema, err := f.registry.Schema(family)
	if err != nil {
		return core.Configuration{}, err
	}

	return core.Configuration{
		ID:         uuid.New().String(),
		Family:     family,
		Parameters: schema.Sample(rng),
		Origin:     core.OriginInitial,
		CreatedAt:  time.Now(),
	}, nil
}

func (f *Factory) pickFamily(rng *rand.Rand, focusFamily string) (string, error) {
	names := f.registry.Names()
	if len(names) == 0 {
		return "", errors.New(errors.InvalidInput, "family registry is empty")
	}

	if focusFamily == "" {
		return names[rng.Intn(len(names))], nil
	}

	if !f.registry.Known(focusFamily) {
		return "", errors.WithFields(
			errors.New(errors.UnknownFamily, "unknown focus family"),
			errors.Fields{"family": focusFamily, "known": names})
	}

	others := make([]string, 0, len(names)-1)
	for _, name := range names {
		if name != focusFamily {
			others = append(others, name)
		}
	}
	if len(others) == 0 {
		return focusFamily, nil
	}

	if rng.Float64() < f.focusWeight {
		return focusFamily, nil
	}
	return others[rng.Intn(len(others))], nil
}
