package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"clinicfront/models"
	"clinicfront/utils"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("session: not found")

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, sess *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Values are stored encoded so callers
// never share a *Session.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	item, ok := s.items[id]
	if ok && !item.expiresAt.IsZero() && s.now().After(item.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	var sess models.Session
	if err := json.Unmarshal(item.data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

func (s *MemoryStore) Save(_ context.Context, sess *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[sess.ID] = item
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// sweep drops every expired session and reports how many went.
func (s *MemoryStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for id, item := range s.items {
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// StartCleanup sweeps expired sessions every interval until ctx is done.
// Sessions that are never read again, like one-off queue joins, would
// otherwise stay in memory forever.
func (s *MemoryStore) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Len is the number of live and not yet swept sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// RedisStore keeps sessions under utils.SessionCachePrefix with a TTL.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string {
	return utils.SessionCachePrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("session: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
