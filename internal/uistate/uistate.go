package uistate

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Store is a simple key-value store for advisory UI state. It survives
// reloads but is never synchronized remotely and must never be treated as a
// source of truth for application data.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

const (
	panelWidthKey = "documents-panel-width"
	DefaultWidth  = 400
	MinPanelWidth = 250
	MaxPanelWidth = 1200
)

func scrollKey(agentID string) string {
	return fmt.Sprintf("chat-scroll-%s", agentID)
}

func userKey(userID, key string) string {
	return fmt.Sprintf("uistate:%s:%s", userID, key)
}

// Preferences reads and writes one user's UI state.
type Preferences struct {
	store  Store
	userID string
}

func NewPreferences(store Store, userID string) *Preferences {
	return &Preferences{store: store, userID: userID}
}

// PanelWidth returns the saved documents-panel width or the default.
func (p *Preferences) PanelWidth(ctx context.Context) int {
	raw, ok := p.store.Get(ctx, userKey(p.userID, panelWidthKey))
	if !ok {
		return DefaultWidth
	}
	width, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultWidth
	}
	return width
}

// SetPanelWidth stores the width clamped to the allowed range.
func (p *Preferences) SetPanelWidth(ctx context.Context, width int) {
	if width < MinPanelWidth {
		width = MinPanelWidth
	}
	if width > MaxPanelWidth {
		width = MaxPanelWidth
	}
	p.store.Set(ctx, userKey(p.userID, panelWidthKey), strconv.Itoa(width))
}

// ScrollOffset returns the saved scroll offset for an agent's chat, or -1.
func (p *Preferences) ScrollOffset(ctx context.Context, agentID string) int {
	raw, ok := p.store.Get(ctx, userKey(p.userID, scrollKey(agentID)))
	if !ok {
		return -1
	}
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return offset
}

func (p *Preferences) SetScrollOffset(ctx context.Context, agentID string, offset int) {
	p.store.Set(ctx, userKey(p.userID, scrollKey(agentID)), strconv.Itoa(offset))
}

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
