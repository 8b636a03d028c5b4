package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/state"
	"resumecraft/internal/types"
)

// Scorer computes an ATS score for a document against a job description.
// Implementations may block on a network round trip and may fail.
type Scorer interface {
	Score(ctx context.Context, doc *types.TailoredResumeData, jobDescription string) (types.ScoreResult, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, doc *types.TailoredResumeData, jobDescription string) (types.ScoreResult, error)

func (f ScorerFunc) Score(ctx context.Context, doc *types.TailoredResumeData, jobDescription string) (types.ScoreResult, error) {
	return f(ctx, doc, jobDescription)
}

// Reconciler recomputes scores and merges them into canonical state.
//
// Overlapping reconciliations are not queued or cancelled. Whichever
// resolves last for the current canonical document wins; results for a
// document that has since been replaced are dropped.
type Reconciler struct {
	scorer   Scorer
	logger   *resumecraftErrors.Logger
	inFlight atomic.Int64
}

// New creates a Reconciler backed by scorer.
func New(scorer Scorer, logger *resumecraftErrors.Logger) *Reconciler {
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &Reconciler{scorer: scorer, logger: logger}
}

// Busy reports whether any reconciliation is in flight.
func (r *Reconciler) Busy() bool {
	return r.inFlight.Load() > 0
}

// Reconcile scores doc against jobDescription without touching any state.
func (r *Reconciler) Reconcile(ctx context.Context, doc *types.TailoredResumeData, jobDescription string) (types.ScoreResult, error) {
	r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	result, err := r.scorer.Score(ctx, doc, jobDescription)
	if err != nil {
		return types.ScoreResult{}, resumecraftErrors.NewAIError(
			resumecraftErrors.ErrCodeReconcileFailed, "score reconciliation failed", err)
	}

	result.ATSScore = clampScore(result.ATSScore)
	result.ATSScoreExplanation = strings.TrimSpace(result.ATSScoreExplanation)
	return result, nil
}

// ReconcileAndApply scores the current canonical document and installs the
// score if that document is still canonical when the call resolves.
// On failure the canonical score is left as it was.
func (r *Reconciler) ReconcileAndApply(ctx context.Context, store *state.Store) (state.Snapshot, error) {
	snap := store.Snapshot()
	if !snap.Loaded() {
		return snap, resumecraftErrors.NewStateError(
			resumecraftErrors.ErrCodeNoResult, "nothing to reconcile", state.ErrNoResult)
	}
	return r.apply(ctx, store, snap.Document, snap.JobDescription)
}

// ReconcileDocument scores doc, which the caller has just made canonical,
// and installs the score under the same identity guard.
func (r *Reconciler) ReconcileDocument(ctx context.Context, store *state.Store, doc *types.TailoredResumeData, jobDescription string) (state.Snapshot, error) {
	return r.apply(ctx, store, doc, jobDescription)
}

func (r *Reconciler) apply(ctx context.Context, store *state.Store, doc *types.TailoredResumeData, jobDescription string) (state.Snapshot, error) {
	score, err := r.Reconcile(ctx, doc, jobDescription)
	if err != nil {
		r.logger.LogError(err, "Reconciliation failed, keeping previous score")
		return store.Snapshot(), err
	}

	snap, err := store.ApplyScore(doc, score)
	if err != nil {
		if errors.Is(err, state.ErrStale) || errors.Is(err, state.ErrNoResult) {
			r.logger.Debug("Dropping score for a document that is no longer canonical",
				"score", score.ATSScore)
			return store.Snapshot(), resumecraftErrors.NewConflictError(
				resumecraftErrors.ErrCodeStaleResult, "document changed while scoring", state.ErrStale)
		}
		return store.Snapshot(), fmt.Errorf("apply score: %w", err)
	}

	r.logger.Debug("Score reconciled", "score", score.ATSScore, "version", snap.Version)
	return snap, nil
}

func clampScore(score int) int {
	return max(0, min(100, score))
}
