// Package beemind is an automated model-discovery engine: given a labeled
// tabular dataset, it searches a space of statistical-model configurations
// (model family plus hyperparameters) with a population-based evolutionary
// algorithm and returns fitness-ranked configurations.
//
// Key Components:
//
//   - Core: the shared data model: Dataset, Configuration,
//     EvaluatedCandidate, Population, GenerationRecord, EvolutionSession,
//     and the AuditSink contract for external audit logging.
//
//   - Families: the model-family registry and candidate factory. Each family
//     declares a hyperparameter schema (integer ranges, float ranges,
//     categorical sets); the factory samples configurations, optionally
//     biased toward a focus family.
//
//   - Models: the family-specific trainers behind a single Classifier
//     interface: bagged decision trees, gradient-boosted trees, and
//     multinomial logistic regression.
//
//   - Evaluator: trains a configuration on a training split and scores it on
//     a held-out split (ROC AUC primary, weighted F1 secondary). Per-candidate
//     failures become failed records and never abort a generation.
//
//   - Selector: filters failed candidates and produces the deterministic
//     best-first ranking used for elitism and statistics.
//
//   - Engine: the generational loop: parallel evaluation on a bounded
//     worker pool, tournament selection, parameter-level and cross-family
//     crossover, full-resample mutation, elitism, convergence tracking, and
//     cooperative cancellation at generation boundaries.
//
//   - History: the bounded ring-buffer record of per-generation statistics,
//     with an optional SQLite archive for unbounded persistence.
//
// A minimal run wires the pieces together:
//
//	eval, err := evaluator.New(dataset, session.Seed)
//	if err != nil {
//	    return err
//	}
//	factory := families.NewFactory(families.NewRegistry(), session.FocusWeight)
//	eng, err := engine.New(session, factory, eval)
//	if err != nil {
//	    return err
//	}
//	result, err := eng.Run(ctx)
package beemind
