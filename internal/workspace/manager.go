// Package workspace keeps the canonical state of every open resume in a
// long running process. Each workspace owns one store and the sessions,
// reconciler and workflow bound to it.
package workspace

import (
	"sort"
	"sync"
	"time"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/reconcile"
	"resumecraft/internal/session"
	"resumecraft/internal/state"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"
	"resumecraft/internal/workflow"

	"github.com/google/uuid"
)

// Workspace is one loaded analysis and everything that edits it.
type Workspace struct {
	ID         string
	Template   templates.Variant
	CreatedAt  time.Time
	Store      *state.Store
	Surfaces   *session.Registry
	Reconciler *reconcile.Reconciler
	Workflow   *workflow.Workflow

	mu       sync.Mutex
	lastUsed time.Time
}

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastUsed = now
	w.mu.Unlock()
}

// LastUsed returns when the workspace was last looked up.
func (w *Workspace) LastUsed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

// Summary is the listing view of a workspace.
type Summary struct {
	ID        string    `json:"id"`
	Template  string    `json:"template"`
	Version   uint64    `json:"version"`
	Loaded    bool      `json:"loaded"`
	ATSScore  int       `json:"atsScore"`
	Surfaces  []string  `json:"surfaces"`
	CreatedAt time.Time `json:"createdAt"`
	LastUsed  time.Time `json:"lastUsed"`
}

// Summary reports the workspace's current state.
func (w *Workspace) Summary() Summary {
	snap := w.Store.Snapshot()
	s := Summary{
		ID:        w.ID,
		Template:  string(w.Template),
		Version:   snap.Version,
		Loaded:    snap.Loaded(),
		Surfaces:  w.Surfaces.Surfaces(),
		CreatedAt: w.CreatedAt,
		LastUsed:  w.LastUsed(),
	}
	if snap.Loaded() {
		s.ATSScore = snap.Result.ATSScore
	}
	return s
}

// Manager creates and looks up workspaces. All workspaces share one scorer
// and one integrator.
type Manager struct {
	scorer     reconcile.Scorer
	integrator workflow.Integrator
	logger     *resumecraftErrors.Logger
	now        func() time.Time

	mu         sync.RWMutex
	workspaces map[string]*Workspace
}

// NewManager creates an empty manager.
func NewManager(scorer reconcile.Scorer, integrator workflow.Integrator, logger *resumecraftErrors.Logger) *Manager {
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &Manager{
		scorer:     scorer,
		integrator: integrator,
		logger:     logger,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Create loads result into a new workspace.
func (m *Manager) Create(result *types.AnalysisResult, jobDescription, profilePicture string, variant templates.Variant) (*Workspace, state.Snapshot) {
	id := uuid.NewString()
	logger := m.logger.With("workspace_id", id)

	store := state.NewStore()
	reconciler := reconcile.New(m.scorer, logger)
	now := m.now()
	ws := &Workspace{
		ID:         id,
		Template:   variant,
		CreatedAt:  now,
		Store:      store,
		Surfaces:   session.NewRegistry(store, reconciler),
		Reconciler: reconciler,
		Workflow:   workflow.New(store, m.integrator, reconciler, logger),
		lastUsed:   now,
	}
	snap := store.Load(result, jobDescription, profilePicture)

	m.mu.Lock()
	m.workspaces[id] = ws
	m.mu.Unlock()

	logger.Info("Workspace created", "template", variant, "version", snap.Version)
	return ws, snap
}

// Get returns the workspace with id.
func (m *Manager) Get(id string) (*Workspace, error) {
	m.mu.RLock()
	ws, ok := m.workspaces[id]
	m.mu.RUnlock()
	if !ok {
		return nil, resumecraftErrors.NewNotFoundError(resumecraftErrors.ErrCodeWorkspaceNotFound,
			"workspace not found", nil).WithContext("workspace_id", id)
	}
	ws.touch(m.now())
	return ws, nil
}

// Delete removes a workspace. Calls still in flight against it complete
// against its detached store.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	ws, ok := m.workspaces[id]
	delete(m.workspaces, id)
	m.mu.Unlock()
	if !ok {
		return resumecraftErrors.NewNotFoundError(resumecraftErrors.ErrCodeWorkspaceNotFound,
			"workspace not found", nil).WithContext("workspace_id", id)
	}
	ws.Store.Reset()
	m.logger.Info("Workspace deleted", "workspace_id", id)
	return nil
}

// List returns summaries ordered by creation time.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	all := make([]*Workspace, 0, len(m.workspaces))
	for _, ws := range m.workspaces {
		all = append(all, ws)
	}
	m.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	out := make([]Summary, len(all))
	for i, ws := range all {
		out[i] = ws.Summary()
	}
	return out
}

// Len returns the number of open workspaces.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.workspaces)
}

// PruneIdle deletes workspaces not used for maxIdle and returns how many
// were removed.
func (m *Manager) PruneIdle(maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var idle []*Workspace
	for id, ws := range m.workspaces {
		if ws.LastUsed().Before(cutoff) {
			idle = append(idle, ws)
			delete(m.workspaces, id)
		}
	}
	m.mu.Unlock()

	for _, ws := range idle {
		ws.Store.Reset()
	}
	if len(idle) > 0 {
		m.logger.Info("Pruned idle workspaces", "count", len(idle), "max_idle", maxIdle)
	}
	return len(idle)
}
