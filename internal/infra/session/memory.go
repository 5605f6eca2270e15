package session

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/metrics"
)

// MemoryStore keeps session records in process memory. Records are
// replaced whole on every update and copied on every read.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]domain.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]domain.Record)}
}

func (s *MemoryStore) Create(_ context.Context, id string, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; ok {
		return fmt.Errorf("session %s already exists", id)
	}
	s.records[id] = rec.Clone()
	metrics.ActiveSessions.Inc()
	return nil
}

// Update applies patch to a copy of the current record and stores the copy.
func (s *MemoryStore) Update(_ context.Context, id string, patch domain.Patch) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.records[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	next := patch(cur.Clone())
	s.records[id] = next.Clone()
	return next, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, domain.ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.records, id)
	metrics.ActiveSessions.Dec()
	return nil
}

// Ping always succeeds; it lets the store take part in health checks.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of records held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
