package repo

import (
	"context"
	"sync"
	"time"

	"github.com/ansel1/merry"
	"github.com/google/uuid"
)

var ErrClosed = merry.New("record store is closed")

// MemoryRepository keeps the records of one session in process memory.
// Records live in insertion order and are gone after Close.
type MemoryRepository struct {
	mu       sync.RWMutex
	projects []Project
	analyses []Analysis
	settings Settings
	closed   bool

	now func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{settings: DefaultSettings, now: time.Now}
}

func (r *MemoryRepository) CreateProject(_ context.Context, p Project) (Project, error) {
	p, err := prepareProject(p, uuid.NewString(), r.now())
	if err != nil {
		return Project{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Project{}, merry.Here(ErrClosed)
	}
	r.projects = append(r.projects, p)
	return p, nil
}

func (r *MemoryRepository) ListProjects(context.Context) ([]Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, merry.Here(ErrClosed)
	}
	return append([]Project{}, r.projects...), nil
}

func (r *MemoryRepository) GetProject(_ context.Context, id string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.projects {
		if p.ID == id {
			return p, nil
		}
	}
	return Project{}, merry.Here(ErrNotFound).Appendf("project %s", id)
}

func (r *MemoryRepository) SaveAnalysis(_ context.Context, kind AnalysisKind, payload interface{}) (Analysis, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{ID: uuid.NewString(), Kind: kind, Payload: raw, Timestamp: r.now().UTC()}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Analysis{}, merry.Here(ErrClosed)
	}
	r.analyses = append(r.analyses, a)
	return a, nil
}

// ListAnalyses returns the newest analysis first.
func (r *MemoryRepository) ListAnalyses(context.Context) ([]Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return nil, merry.Here(ErrClosed)
	}
	out := make([]Analysis, len(r.analyses))
	for i, a := range r.analyses {
		out[len(out)-1-i] = a
	}
	return out, nil
}

func (r *MemoryRepository) GetAnalysis(_ context.Context, id string) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.analyses {
		if a.ID == id {
			return a, nil
		}
	}
	return Analysis{}, merry.Here(ErrNotFound).Appendf("analysis %s", id)
}

func (r *MemoryRepository) Settings(context.Context) (Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings, nil
}

func (r *MemoryRepository) UpdateSettings(_ context.Context, s Settings) (Settings, error) {
	s = prepareSettings(s)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Settings{}, merry.Here(ErrClosed)
	}
	r.settings = s
	return s, nil
}

func (r *MemoryRepository) Stats(context.Context) (Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return computeStats(r.projects, len(r.analyses)), nil
}

func (r *MemoryRepository) Export(context.Context) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Projects: append([]Project{}, r.projects...),
		Analyses: append([]Analysis{}, r.analyses...),
		Settings: r.settings,
	}, nil
}

// Import replaces every record with the content of s. On error nothing changes.
func (r *MemoryRepository) Import(_ context.Context, s Snapshot) error {
	if err := validateSnapshot(s); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return merry.Here(ErrClosed)
	}
	r.projects = append([]Project{}, s.Projects...)
	r.analyses = append([]Analysis{}, s.Analyses...)
	r.settings = prepareSettings(s.Settings)
	return nil
}

func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects, r.analyses = nil, nil
	r.closed = true
	return nil
}
