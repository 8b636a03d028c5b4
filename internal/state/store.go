// Package state owns the canonical analysis result of one workspace.
//
// A Snapshot's Result is never mutated after it is installed. Every
// transition builds a new AnalysisResult that shares untouched fields with
// the previous one. Snapshot.Document is the canonical document pointer; it
// changes exactly when the document is replaced, which is what edit
// sessions key their resynchronization on.
package state

import (
	"errors"
	"sync"

	"resumecraft/internal/document"
	"resumecraft/internal/types"
)

var (
	// ErrNoResult is returned when the store holds no analysis.
	ErrNoResult = errors.New("no analysis result loaded")
	// ErrStale is returned when a transition was computed against a
	// document or generation that is no longer canonical.
	ErrStale = errors.New("result is stale")
)

// Snapshot is a consistent view of the canonical state.
type Snapshot struct {
	Result         *types.AnalysisResult
	Document       *types.TailoredResumeData
	JobDescription string
	ProfilePicture string
	Version        uint64
	Generation     uint64
}

// Loaded reports whether the snapshot carries a result.
func (s Snapshot) Loaded() bool {
	return s.Result != nil
}

// Store is the single source of truth for a workspace.
type Store struct {
	mu         sync.RWMutex
	result     *types.AnalysisResult
	doc        *types.TailoredResumeData
	jd         string
	picture    string
	version    uint64
	generation uint64

	subMu       sync.Mutex
	subscribers map[chan uint64]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{subscribers: make(map[chan uint64]struct{})}
}

// Load installs a freshly generated result and starts a new generation.
// Results of calls started against the previous generation are dropped.
func (s *Store) Load(result *types.AnalysisResult, jobDescription, profilePicture string) Snapshot {
	normalized := document.NormalizeResult(result)

	s.mu.Lock()
	s.result = normalized
	s.doc = &normalized.TailoredResume
	s.jd = jobDescription
	s.picture = profilePicture
	s.generation++
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap.Version)
	return snap
}

// Reset discards the current result.
func (s *Store) Reset() Snapshot {
	s.mu.Lock()
	s.result = nil
	s.doc = nil
	s.jd = ""
	s.picture = ""
	s.generation++
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap.Version)
	return snap
}

// Snapshot returns the current canonical state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Result:         s.result,
		Document:       s.doc,
		JobDescription: s.jd,
		ProfilePicture: s.picture,
		Version:        s.version,
		Generation:     s.generation,
	}
}

// ApplyScore installs score if forDoc is still the canonical document.
// A score computed for a replaced document is dropped with ErrStale.
func (s *Store) ApplyScore(forDoc *types.TailoredResumeData, score types.ScoreResult) (Snapshot, error) {
	s.mu.RLock()
	gen := s.generation
	s.mu.RUnlock()

	expect := &Snapshot{Document: forDoc, Generation: gen}
	return s.transition(expect, func(next *types.AnalysisResult) {
		next.ATSScore = score.ATSScore
		next.ATSScoreExplanation = score.ATSScoreExplanation
	}, nil)
}

// Commit applies mutate to a copy of the current result as one transition.
// It fails with ErrStale unless the canonical document and generation are
// still those of expect. If doc is non-nil it becomes the canonical document.
// mutate receives a shallow copy and must build new slices rather than
// modify shared ones in place.
func (s *Store) Commit(expect Snapshot, doc *types.TailoredResumeData, mutate func(next *types.AnalysisResult)) (Snapshot, error) {
	return s.transition(&expect, mutate, doc)
}

func (s *Store) transition(expect *Snapshot, mutate func(next *types.AnalysisResult), doc *types.TailoredResumeData) (Snapshot, error) {
	s.mu.Lock()
	if s.result == nil {
		s.mu.Unlock()
		return Snapshot{}, ErrNoResult
	}
	if expect != nil && (expect.Generation != s.generation || expect.Document != s.doc) {
		s.mu.Unlock()
		return Snapshot{}, ErrStale
	}

	next := *s.result
	if mutate != nil {
		mutate(&next)
	}
	if doc != nil {
		next.TailoredResume = *doc
		s.doc = doc
	} else {
		next.TailoredResume = *s.doc
	}
	s.result = &next
	s.version++
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap.Version)
	return snap, nil
}

// Subscribe returns a channel that receives the version number after each
// transition. Slow subscribers miss intermediate versions rather than
// blocking the store. Call the returned func to unsubscribe.
func (s *Store) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
}

func (s *Store) notify(version uint64) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- version:
		default:
			// Drop the stale pending value and deliver the latest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- version:
			default:
			}
		}
	}
}
