package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// UIStateStore persists advisory per-user UI state (panel width, scroll
// offsets) in Redis. It implements uistate.Store; the values are never a
// source of truth for application data.
type UIStateStore struct {
	client *redis.Client
}

func NewUIStateStore(client *redis.Client) *UIStateStore {
	return &UIStateStore{client: client}
}

func (s *UIStateStore) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *UIStateStore) Set(ctx context.Context, key string, value string) {
	// Advisory state only, errors are not worth surfacing
	s.client.Set(ctx, key, value, 0)
}
