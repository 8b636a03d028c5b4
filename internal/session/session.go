package session

import (
	"context"
	"errors"
	"sync"

	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/reconcile"
	"resumecraft/internal/state"
	"resumecraft/internal/types"
)

// EditSession is the working copy behind one editing surface.
//
// Keystrokes land in the working copy through OnFieldChange. Nothing
// reaches canonical state until OnFieldCommit, which replaces the canonical
// document wholesale and then reconciles the score once. Whenever the
// canonical document changes identity the working copy is reseeded from it.
// Edits discarded by such a reseed are reported as ErrStale by the next
// OnFieldChange or OnFieldCommit.
type EditSession struct {
	store      *state.Store
	reconciler *reconcile.Reconciler

	mu        sync.Mutex
	base      state.Snapshot
	working   *types.TailoredResumeData
	dirty     bool
	discarded bool
}

// New creates a session seeded from the store's current document.
func New(store *state.Store, reconciler *reconcile.Reconciler) *EditSession {
	s := &EditSession{store: store, reconciler: reconciler}
	s.resync(store.Snapshot())
	return s
}

func (s *EditSession) resync(snap state.Snapshot) {
	s.base = snap
	s.working = snap.Document
	s.dirty = false
}

// syncLocked reseeds the working copy if the canonical document moved.
// Dirty edits lost to the reseed are remembered until takeDiscardedLocked.
func (s *EditSession) syncLocked() {
	snap := s.store.Snapshot()
	if snap.Document == s.base.Document && snap.Generation == s.base.Generation {
		// Same document; keep the newer score and version.
		s.base = snap
		return
	}
	if s.dirty {
		s.discarded = true
	}
	s.resync(snap)
}

// takeDiscardedLocked syncs and reports, once, whether uncommitted edits
// were dropped since the last change or commit.
func (s *EditSession) takeDiscardedLocked() bool {
	s.syncLocked()
	dropped := s.discarded
	s.discarded = false
	return dropped
}

func staleWorkingCopy(msg string) error {
	return resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeStaleResult, msg, state.ErrStale)
}

// WorkingCopy returns the current working copy. The returned document must
// be treated as read-only.
func (s *EditSession) WorkingCopy() *types.TailoredResumeData {
	doc, _ := s.State()
	return doc
}

// Dirty reports whether the working copy has uncommitted edits.
func (s *EditSession) Dirty() bool {
	_, dirty := s.State()
	return dirty
}

// State returns the working copy and its dirty flag as one consistent pair.
func (s *EditSession) State() (*types.TailoredResumeData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
	return s.working, s.dirty
}

// OnFieldChange replaces the node at path in the working copy. Canonical
// state is not touched. If earlier uncommitted edits were dropped because
// the canonical document moved, the change is not applied and ErrStale is
// returned; the working copy is already reseeded for the retry.
func (s *EditSession) OnFieldChange(path document.Path, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.takeDiscardedLocked() {
		return staleWorkingCopy("canonical document changed; uncommitted edits were discarded")
	}
	if s.working == nil {
		return resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoResult,
			"no document to edit", state.ErrNoResult)
	}

	updated, err := document.SetAtPath(s.working, path, value)
	if err != nil {
		code := resumecraftErrors.ErrCodeInvalidPath
		if errors.Is(err, document.ErrTypeMismatch) {
			code = resumecraftErrors.ErrCodeTypeMismatch
		}
		return resumecraftErrors.NewValidationError(code, "cannot apply field change", err).
			WithContext("path", path.String())
	}

	s.working = updated
	s.dirty = true
	return nil
}

// OnFieldCommit pushes the working copy to canonical state and reconciles
// the score against the job description exactly once.
//
// If reconciliation fails the committed document stays canonical and the
// score is left stale; the error is returned. If the canonical document
// moved since the working copy was seeded, nothing is committed, the
// working copy is reseeded and ErrStale is returned.
func (s *EditSession) OnFieldCommit(ctx context.Context) (state.Snapshot, error) {
	s.mu.Lock()
	if s.takeDiscardedLocked() {
		snap := s.base
		s.mu.Unlock()
		return snap, staleWorkingCopy("canonical document changed before commit; working copy was reseeded")
	}
	if s.working == nil {
		s.mu.Unlock()
		return state.Snapshot{}, resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoResult,
			"no document to commit", state.ErrNoResult)
	}

	committed, err := s.store.Commit(s.base, s.working, nil)
	if err != nil {
		s.mu.Unlock()
		return state.Snapshot{}, resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeStaleResult,
			"commit rejected", err)
	}
	s.base = committed
	s.dirty = false
	doc := s.working
	s.mu.Unlock()

	// Reconciliation runs outside the lock so the surface stays editable.
	snap, err := s.reconciler.ReconcileDocument(ctx, s.store, doc, committed.JobDescription)
	if errors.Is(err, state.ErrStale) {
		// A newer commit superseded this one and reconciles on its own.
		return snap, nil
	}
	return snap, err
}
