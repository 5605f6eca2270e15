package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/analysis"
	domain "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
)

// setupRedis requires REDIS_ADDR, e.g. "localhost:6379".
func setupRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := NewRedisStore(RedisConfig{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]domain.Store {
	out := map[string]domain.Store{"memory": NewMemoryStore()}
	if os.Getenv("REDIS_ADDR") != "" {
		out["redis"] = setupRedis(t)
	}
	return out
}

func newRecord() domain.Record {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return domain.Record{
		Status:    domain.StatusProcessing,
		Filename:  "lease.pdf",
		StartedAt: now,
		UpdatedAt: now,
		Insights:  analysis.Insights{WordCount: 600, CharacterCount: 3000, EstimatedPages: 2, EstimatedReadTime: 3},
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.NewString()

			require.NoError(t, s.Create(ctx, id, newRecord()))
			assert.Error(t, s.Create(ctx, id, newRecord()))

			got, err := s.Update(ctx, id, func(r domain.Record) domain.Record {
				r.Status = domain.StatusCompleted
				r.Result = &analysis.FinalResult{Type: analysis.ResultCasualResponse, Message: "hi", SessionID: id}
				return r
			})
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, got.Status)

			read, err := s.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "hi", read.Result.Message)
			assert.Equal(t, 600, read.Insights.WordCount)

			require.NoError(t, s.Delete(ctx, id))
			_, err = s.Get(ctx, id)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, id), domain.ErrNotFound)
			_, err = s.Update(ctx, id, func(r domain.Record) domain.Record { return r })
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	rec := newRecord()
	rec.Result = &analysis.FinalResult{
		Type:     analysis.ResultLegalAnalysis,
		Analysis: &analysis.Result{Summary: "original", Risks: []analysis.RiskItem{{Description: "a"}}},
	}
	require.NoError(t, s.Create(ctx, "x", rec))

	got, err := s.Get(ctx, "x")
	require.NoError(t, err)
	got.Result.Analysis.Summary = "mutated"
	got.Result.Analysis.Risks[0].Description = "mutated"

	again, err := s.Get(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Result.Analysis.Summary)
	assert.Equal(t, "a", again.Result.Analysis.Risks[0].Description)
	assert.Equal(t, got.StartedAt, again.StartedAt)
}

func TestStoreKeepsEmptyRiskList(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id := uuid.NewString()
			rec := newRecord()
			rec.Result = &analysis.FinalResult{
				Type:     analysis.ResultLegalAnalysis,
				Analysis: &analysis.Result{Summary: "A short mutual NDA.", Risks: []analysis.RiskItem{}},
			}
			require.NoError(t, s.Create(ctx, id, rec))

			got, err := s.Get(ctx, id)
			require.NoError(t, err)
			require.NotNil(t, got.Result.Analysis.Risks)
			assert.Empty(t, got.Result.Analysis.Risks)

			body, err := json.Marshal(got)
			require.NoError(t, err)
			assert.Contains(t, string(body), `"risks":[]`)
		})
	}
}

func TestMemoryStoreConcurrentReaders(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, "x", newRecord()))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, err := s.Update(ctx, "x", func(r domain.Record) domain.Record {
				r.Message = fmt.Sprintf("step %d", i)
				r.Insights.WordCount = i
				return r
			})
			assert.NoError(t, err)
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				rec, err := s.Get(ctx, "x")
				assert.NoError(t, err)
				if rec.Message != "" {
					// message and word count are always written together
					assert.Equal(t, fmt.Sprintf("step %d", rec.Insights.WordCount), rec.Message)
				}
			}
		}()
	}
	wg.Wait()
}

func TestRedisConcurrentUpdates(t *testing.T) {
	s := setupRedis(t)
	ctx := context.Background()
	id := uuid.NewString()
	require.NoError(t, s.Create(ctx, id, newRecord()))
	defer s.Delete(ctx, id)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, id, func(r domain.Record) domain.Record {
				r.Insights.WordCount++
				return r
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 603, rec.Insights.WordCount)
}
