package families

import (
	"sort"
	"sync"

	"github.com/beemind-ai/beemind/pkg/errors"
)

// Built-in family names.
const (
	TreeEnsemble    = "tree-ensemble"
	BoostedEnsemble = "boosted-ensemble"
	Linear          = "linear"
)

// Registry holds the known model families and their parameter schemas. The
// set is closed for a given run but extensible: hosts may register additional
// families before starting evolution.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]Schema
	names   []string // sorted for deterministic iteration
}

// NewRegistry returns a registry populated with the built-in families.
func NewRegistry() *Registry {
	r := &Registry{schemas: make(map[string]Schema)}

	r.Register(TreeEnsemble, Schema{
		{Name: "n_estimators", Kind: IntParam, Min: 50, Max: 400},
		{Name: "max_depth", Kind: IntParam, Min: 3, Max: 20},
		{Name: "min_samples_split", Kind: IntParam, Min: 2, Max: 15},
		{Name: "min_samples_leaf", Kind: IntParam, Min: 1, Max: 10},
		{Name: "max_features", Kind: CategoricalParam, Choices: []string{"sqrt", "log2", "all"}},
	})

	r.Register(BoostedEnsemble, Schema{
		{Name: "n_estimators", Kind: IntParam, Min: 50, Max: 400},
		{Name: "max_depth", Kind: IntParam, Min: 2, Max: 10},
		{Name: "learning_rate", Kind: FloatParam, Min: 0.01, Max: 0.3, LogScale: true},
		{Name: "subsample", Kind: FloatParam, Min: 0.6, Max: 1.0},
	})

	r.Register(Linear, Schema{
		{Name: "c", Kind: FloatParam, Min: 0.1, Max: 20.0, LogScale: true},
		{Name: "max_iter", Kind: IntParam, Min: 200, Max: 2000},
		{Name: "penalty", Kind: CategoricalParam, Choices: []string{"l2", "none"}},
	})

	return r
}

// Register adds or replaces a family schema.
func (r *Registry) Register(name string, schema Schema) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[name]; !exists {
		r.names = append(r.names, name)
		sort.Strings(r.names)
	}
	r.schemas[name] = schema
}

// Names returns the known family names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Schema returns the schema for a family.
func (r *Registry) Schema(name string) (Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, ok := r.schemas[name]
	if !ok {
		return nil, errors.WithFields(
			errors.New(errors.UnknownFamily, "unknown model family"),
			errors.Fields{"family": name, "known": r.names})
	}
	return schema, nil
}

// Known reports whether the family is registered.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.schemas[name]
	return ok
}
