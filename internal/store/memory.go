package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sitepulse/compete-cli/internal/model"
)

// MemoryStore is a mutex-protected in-memory Store. It backs the
// ephemeral "memory" driver and test setups that do not want a database
// file.
type MemoryStore struct {
	mu          sync.RWMutex
	runs        map[string]*model.Run
	cache       map[string]*model.CacheEntry
	profiles    map[string]*model.BusinessProfile
	connections map[string]map[string]model.SocialHandle // ownerID -> platform -> handle
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[string]*model.Run),
		cache:       make(map[string]*model.CacheEntry),
		profiles:    make(map[string]*model.BusinessProfile),
		connections: make(map[string]map[string]model.SocialHandle),
	}
}

func (s *MemoryStore) CreateRun(ctx context.Context, ownerID, yourDomain, competitorDomain string) (*model.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	run := &model.Run{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		YourDomain:       yourDomain,
		CompetitorDomain: competitorDomain,
		Status:           model.RunStatusQueued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.runs[run.ID] = run
	cloned := *run
	return &cloned, nil
}

func (s *MemoryStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("memory: run %s not found", runID)
	}
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) UpdateRunResult(ctx context.Context, runID string, result *model.AnalyzeResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return eris.Errorf("memory: run %s not found", runID)
	}
	run.Result = result
	run.Status = model.RunStatusComplete
	run.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok {
		return nil, eris.Errorf("memory: run %s not found", runID)
	}
	cloned := *run
	return &cloned, nil
}

func (s *MemoryStore) GetCachedMetric(ctx context.Context, key string) (*model.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.cache[key]
	if !ok {
		return nil, nil
	}
	cloned := *entry
	return &cloned, nil
}

func (s *MemoryStore) SetCachedMetric(ctx context.Context, entry *model.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := *entry
	s.cache[entry.Key] = &cloned
	return nil
}

func (s *MemoryStore) DeleteCachedMetric(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cache, key)
	return nil
}

func (s *MemoryStore) DeleteExpiredMetrics(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	n := 0
	for key, entry := range s.cache {
		if !entry.Valid(now) {
			delete(s.cache, key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, ownerID string) (*model.BusinessProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	cloned := *profile
	return &cloned, nil
}

func (s *MemoryStore) UpsertProfile(ctx context.Context, profile *model.BusinessProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cloned := *profile
	s.profiles[profile.OwnerID] = &cloned
	return nil
}

func (s *MemoryStore) ListConnections(ctx context.Context, ownerID string) ([]model.SocialHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byPlatform := s.connections[ownerID]
	handles := make([]model.SocialHandle, 0, len(byPlatform))
	for _, h := range byPlatform {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool {
		return handles[i].Platform < handles[j].Platform
	})
	return handles, nil
}

func (s *MemoryStore) UpsertConnection(ctx context.Context, ownerID string, handle model.SocialHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connections[ownerID] == nil {
		s.connections[ownerID] = make(map[string]model.SocialHandle)
	}
	s.connections[ownerID][handle.Platform] = handle
	return nil
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
