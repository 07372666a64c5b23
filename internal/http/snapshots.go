package http

import (
	"sync"

	"github.com/google/uuid"

	"github.com/tomek7667/serachart/internal/history"
)

// snapshotStore keeps the most recent render states so hover requests can
// be answered without redrawing. The oldest entry is evicted first.
type snapshotStore struct {
	mu    sync.RWMutex
	limit int
	order []string
	byID  map[string]*history.RenderState
}

func newSnapshotStore(limit int) *snapshotStore {
	if limit < 1 {
		limit = 1
	}
	return &snapshotStore{
		limit: limit,
		byID:  make(map[string]*history.RenderState, limit),
	}
}

func (s *snapshotStore) Put(state *history.RenderState) string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = state
	s.order = append(s.order, id)
	for len(s.order) > s.limit {
		delete(s.byID, s.order[0])
		s.order = s.order[1:]
	}
	return id
}

func (s *snapshotStore) Get(id string) (*history.RenderState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.byID[id]
	return state, ok
}

func (s *snapshotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
