// Package workflow composes a document mutation with score reconciliation
// into a single canonical state transition.
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/reconcile"
	"resumecraft/internal/state"
	"resumecraft/internal/types"
)

// ErrBusy is returned when a workflow is already running for the workspace.
var ErrBusy = errors.New("another workflow is in flight")

// ErrNoMismatch is returned by FixJobTitle when there is nothing to fix.
var ErrNoMismatch = errors.New("no job title mismatch to resolve")

// Integrator weaves a keyword into one section of a document and returns
// the complete updated document.
type Integrator interface {
	Integrate(ctx context.Context, doc *types.TailoredResumeData, keyword, section string) (*types.TailoredResumeData, error)
}

// IntegratorFunc adapts a function to Integrator.
type IntegratorFunc func(ctx context.Context, doc *types.TailoredResumeData, keyword, section string) (*types.TailoredResumeData, error)

func (f IntegratorFunc) Integrate(ctx context.Context, doc *types.TailoredResumeData, keyword, section string) (*types.TailoredResumeData, error) {
	return f(ctx, doc, keyword, section)
}

// Workflow runs keyword integration and job-title fixes against a store.
// At most one workflow runs per Workflow value at a time.
type Workflow struct {
	store      *state.Store
	integrator Integrator
	reconciler *reconcile.Reconciler
	logger     *resumecraftErrors.Logger

	running sync.Mutex
}

// New creates a Workflow.
func New(store *state.Store, integrator Integrator, reconciler *reconcile.Reconciler, logger *resumecraftErrors.Logger) *Workflow {
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &Workflow{
		store:      store,
		integrator: integrator,
		reconciler: reconciler,
		logger:     logger,
	}
}

// Busy reports whether a workflow is in flight.
func (w *Workflow) Busy() bool {
	if w.running.TryLock() {
		w.running.Unlock()
		return false
	}
	return true
}

// IntegrateKeyword integrates keyword into section, rescores the new
// document and commits {document, score, explanation, gaps without
// keyword} in one transition. On any failure canonical state is unchanged
// and the keyword remains a gap.
func (w *Workflow) IntegrateKeyword(ctx context.Context, keyword, section string) (state.Snapshot, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return state.Snapshot{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"keyword is required", nil)
	}
	if !types.IsValidSection(section) {
		return state.Snapshot{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"section must be one of Summary, Work Experience, Skills", nil).WithContext("section", section)
	}

	return w.run(ctx, "integrate_keyword", func(ctx context.Context, base state.Snapshot) (*types.TailoredResumeData, func(*types.AnalysisResult), error) {
		updated, err := w.integrator.Integrate(ctx, base.Document, keyword, section)
		if err != nil {
			return nil, nil, resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeIntegrationFailed,
				"keyword integration failed", err).WithContext("keyword", keyword)
		}
		updated = document.Normalize(updated)
		if section == types.SectionSkills {
			updated = ensureSkillOnce(updated, keyword)
		}

		return updated, func(next *types.AnalysisResult) {
			next.KeywordGaps = withoutGap(next.KeywordGaps, keyword)
		}, nil
	})
}

// FixJobTitle replaces the document's job title with the suggested title,
// rescores, and commits {document, score, explanation, mismatch cleared} in
// one transition.
func (w *Workflow) FixJobTitle(ctx context.Context) (state.Snapshot, error) {
	return w.run(ctx, "fix_job_title", func(ctx context.Context, base state.Snapshot) (*types.TailoredResumeData, func(*types.AnalysisResult), error) {
		mismatch := base.Result.JobTitleMismatch
		if mismatch == nil {
			return nil, nil, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoJobTitleMismatch,
				"there is no job title mismatch to resolve", ErrNoMismatch)
		}

		updated, err := document.SetAtPath(base.Document, document.Path{"jobTitle"}, mismatch.SuggestedTitle)
		if err != nil {
			return nil, nil, resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeInvalidPath,
				"cannot set job title", err)
		}

		return updated, func(next *types.AnalysisResult) {
			next.JobTitleMismatch = nil
		}, nil
	})
}

type mutation func(ctx context.Context, base state.Snapshot) (*types.TailoredResumeData, func(*types.AnalysisResult), error)

func (w *Workflow) run(ctx context.Context, name string, mutate mutation) (state.Snapshot, error) {
	if !w.running.TryLock() {
		return w.store.Snapshot(), resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeWorkflowBusy,
			"a keyword or job title update is already running", ErrBusy).WithContext("workflow", name)
	}
	defer w.running.Unlock()

	base := w.store.Snapshot()
	if !base.Loaded() {
		return base, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoResult,
			"no analysis result loaded", state.ErrNoResult)
	}

	// Step 1: new document.
	updated, patch, err := mutate(ctx, base)
	if err != nil {
		w.logger.LogError(err, "Workflow aborted before reconciliation", "workflow", name)
		return base, err
	}

	// Step 2: score the new document.
	score, err := w.reconciler.Reconcile(ctx, updated, base.JobDescription)
	if err != nil {
		w.logger.LogError(err, "Workflow aborted during reconciliation", "workflow", name)
		return base, err
	}

	// Step 3: one transition.
	snap, err := w.store.Commit(base, updated, func(next *types.AnalysisResult) {
		next.ATSScore = score.ATSScore
		next.ATSScoreExplanation = score.ATSScoreExplanation
		patch(next)
	})
	if err != nil {
		w.logger.Warn("Workflow result discarded, canonical state moved", "workflow", name, "error", err)
		return w.store.Snapshot(), resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeStaleResult,
			"the resume changed while the update was running", err).WithContext("workflow", name)
	}

	w.logger.Info("Workflow committed", "workflow", name, "score", score.ATSScore, "version", snap.Version)
	return snap, nil
}

// withoutGap returns a new slice without entries for keyword.
func withoutGap(gaps []types.KeywordGap, keyword string) []types.KeywordGap {
	out := make([]types.KeywordGap, 0, len(gaps))
	for _, g := range gaps {
		if g.Keyword != keyword {
			out = append(out, g)
		}
	}
	return out
}

// ensureSkillOnce makes keyword appear exactly once in skills, whatever the
// integrator returned. Matching is exact, like gap removal, so a differently
// cased entry does not stand in for keyword.
func ensureSkillOnce(doc *types.TailoredResumeData, keyword string) *types.TailoredResumeData {
	skills := make([]string, 0, len(doc.Skills)+1)
	seen := false
	for _, s := range doc.Skills {
		if strings.TrimSpace(s) == keyword {
			if seen {
				continue
			}
			seen = true
		}
		skills = append(skills, s)
	}
	if !seen {
		skills = append(skills, keyword)
	}
	if len(skills) == len(doc.Skills) && seen {
		return doc
	}

	out := *doc
	out.Skills = skills
	return &out
}
