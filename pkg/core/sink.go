package core

import (
	"context"
	"time"
)

// GenerationEvent is the one event per generation the engine may emit to an
// injected audit sink. How the sink persists or verifies it is not the
// core's concern.
type GenerationEvent struct {
	RunID       string    `json:"run_id"`
	Generation  int       `json:"generation"`
	BestPrimary float64   `json:"best_primary"`
	BestFamily  string    `json:"best_family"`
	Timestamp   time.Time `json:"timestamp"`
}

// AuditSink receives generation events. Write-only from the core's
// perspective; sink failures are logged, never fatal to the run.
type AuditSink interface {
	RecordGeneration(ctx context.Context, event GenerationEvent) error
}

// EvaluationObserver is invoked by the evaluator after each candidate is
// scored. Telemetry belongs to the host, not the core.
type EvaluationObserver func(candidate EvaluatedCandidate)
