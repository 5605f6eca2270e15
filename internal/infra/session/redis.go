package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
)

const (
	keyPrefix        = "legalyze:session:"
	maxUpdateRetries = 5
)

// RedisConfig holds configuration for the Redis connection
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL of a record; zero keeps records until they are deleted.
	TTL time.Duration
}

// RedisStore shares session records between processes. Updates use
// WATCH/MULTI so a record is always replaced as a whole.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a client and validates the connection
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{rdb: rdb, ttl: cfg.TTL}, nil
}

func key(id string) string { return keyPrefix + id }

func (s *RedisStore) Create(ctx context.Context, id string, rec domain.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, key(id), b, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", id)
	}
	return nil
}

func (s *RedisStore) Update(ctx context.Context, id string, patch domain.Patch) (domain.Record, error) {
	var next domain.Record
	txf := func(tx *redis.Tx) error {
		cur, err := s.read(ctx, tx, id)
		if err != nil {
			return err
		}
		next = patch(cur)
		b, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key(id), b, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key(id))
		if err == nil {
			return next, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return domain.Record{}, err
	}
	return domain.Record{}, fmt.Errorf("update session %s: too much contention", id)
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Record, error) {
	return s.read(ctx, s.rdb, id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c getter, id string) (domain.Record, error) {
	b, err := c.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("get session: %w", err)
	}
	var rec domain.Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("decode session: %w", err)
	}
	return rec, nil
}
