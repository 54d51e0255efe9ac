package families

import (
	"math"
	"math/rand"
)

// ParamKind distinguishes the three supported hyperparameter shapes.
type ParamKind int

const (
	IntParam ParamKind = iota
	FloatParam
	CategoricalParam
)

// ParamSpec declares one hyperparameter: its name, kind, and the range or
// set it is sampled from. Ranges are deliberately wide enough to cover both
// under- and over-fit regimes.
type ParamSpec struct {
	Name string
	Kind ParamKind

	// Min and Max bound numeric parameters. Int ranges are inclusive.
	Min float64
	Max float64

	// LogScale samples float parameters log-uniformly, used for ranges that
	// span an order of magnitude or more (learning rates).
	LogScale bool

	// Choices is the allowed set for categorical parameters.
	Choices []string
}

// Sample draws a value uniformly within the spec's declared range or set.
func (p ParamSpec) Sample(rng *rand.Rand) interface{} {
	switch p.Kind {
	case IntParam:
		lo, hi := int(p.Min), int(p.Max)
		return lo + rng.Intn(hi-lo+1)
	case FloatParam:
		if p.LogScale {
			logLo, logHi := math.Log(p.Min), math.Log(p.Max)
			return math.Exp(logLo + rng.Float64()*(logHi-logLo))
		}
		return p.Min + rng.Float64()*(p.Max-p.Min)
	case CategoricalParam:
		return p.Choices[rng.Intn(len(p.Choices))]
	}
	return nil
}

// Schema is a family's ordered list of parameter specs. Sampling follows
// declaration order so a seeded random stream produces the same assignment
// every time.
type Schema []ParamSpec

// Sample draws a full parameter assignment for the schema.
func (s Schema) Sample(rng *rand.Rand) map[string]interface{} {
	params := make(map[string]interface{}, len(s))
	for _, spec := range s {
		params[spec.Name] = spec.Sample(rng)
	}
	return params
}

// Spec returns the spec with the given name, if declared.
func (s Schema) Spec(name string) (ParamSpec, bool) {
	for _, spec := range s {
		if spec.Name == name {
			return spec, true
		}
	}
	return ParamSpec{}, false
}
