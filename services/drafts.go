package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "wizard:draft:"

// DraftStore persists wizard drafts between requests.
type DraftStore interface {
	Get(ctx context.Context, id string) (*Draft, error)
	Save(ctx context.Context, draft *Draft) error
	// Claim takes the one-shot submission lock for a draft. It reports false when already held.
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// RedisDraftStore keeps drafts as JSON strings that expire after ttl.
type RedisDraftStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisDraftStore(client redis.Cmdable, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{client: client, ttl: ttl}
}

func (s *RedisDraftStore) Get(ctx context.Context, id string) (*Draft, error) {
	data, err := s.client.Get(ctx, draftKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("reading draft: %w", err)
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &draft, nil
}

func (s *RedisDraftStore) Save(ctx context.Context, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKeyPrefix+draft.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Claim(ctx context.Context, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, draftKeyPrefix+id+":submit", 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claiming draft: %w", err)
	}
	return ok, nil
}

func (s *RedisDraftStore) Release(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, draftKeyPrefix+id+":submit").Err(); err != nil {
		return fmt.Errorf("releasing draft: %w", err)
	}
	return nil
}

// MemoryDraftStore is used in tests and when no Redis is configured. Drafts never expire.
type MemoryDraftStore struct {
	mu      sync.Mutex
	drafts  map[string][]byte
	claimed map[string]bool
}

func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{
		drafts:  make(map[string][]byte),
		claimed: make(map[string]bool),
	}
}

func (s *MemoryDraftStore) Get(_ context.Context, id string) (*Draft, error) {
	s.mu.Lock()
	data, ok := s.drafts[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return &draft, nil
}

func (s *MemoryDraftStore) Save(_ context.Context, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	s.mu.Lock()
	s.drafts[draft.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryDraftStore) Claim(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed[id] {
		return false, nil
	}
	s.claimed[id] = true
	return true, nil
}

func (s *MemoryDraftStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.claimed, id)
	s.mu.Unlock()
	return nil
}
