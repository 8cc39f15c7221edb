package chat

import (
	"agent-workspace/internal/store"
	"agent-workspace/internal/worker"
	"context"
	"encoding/json"
	"log"
	"sort"
	"sync"
)

type StreamState int

const (
	StateIdle StreamState = iota
	StateLoading
	StateReady
)

// Stream keeps the in-memory view of one (workspace, agent) conversation
// synchronized with the store: initial load, live merge of streamed inserts,
// and the read/unread cursor.
type Stream struct {
	service Service
	gateway store.Gateway
	pool    *worker.Pool
	scope   store.Scope
	userID  string

	mu        sync.Mutex
	state     StreamState
	messages  []Message
	atBottom  bool
	hasUnread bool
	unsub     store.Unsubscribe

	// Callbacks are invoked without the internal lock held. Set them before
	// calling Start.
	OnMessage func(Message)
	OnUnread  func(bool)
}

func NewStream(service Service, gateway store.Gateway, pool *worker.Pool, workspaceID, agentID, userID string) *Stream {
	return &Stream{
		service: service,
		gateway: gateway,
		pool:    pool,
		scope:   store.Scope{WorkspaceID: workspaceID, AgentID: agentID},
		userID:  userID,
		state:   StateIdle,
		// The view starts scrolled to the newest message
		atBottom: true,
	}
}

// Start opens the live subscription, then loads the conversation. A failed
// initial load is logged and leaves the list empty; an empty conversation is
// a valid state.
func (s *Stream) Start(ctx context.Context) {
	unsub := s.gateway.Subscribe(store.TableMessages, s.handleInsert)

	s.mu.Lock()
	s.state = StateLoading
	s.unsub = unsub
	s.mu.Unlock()

	messages, err := s.service.LoadMessages(ctx, s.scope.WorkspaceID, s.scope.AgentID)
	if err != nil {
		log.Printf("Failed to load messages for agent %s: %v", s.scope.AgentID, err)
		messages = nil
	}

	s.mu.Lock()
	// Inserts can be delivered while the load is in flight; fold the loaded
	// snapshot into whatever already arrived instead of replacing it.
	s.messages = mergeMessages(messages, s.messages)
	s.state = StateReady
	markRead := s.atBottom && len(s.messages) > 0
	s.mu.Unlock()

	if markRead {
		s.markRead()
	}
}

// mergeMessages combines a loaded snapshot with messages that arrived as
// events, deduped by id and ordered by created_at.
func mergeMessages(loaded, arrived []Message) []Message {
	merged := make([]Message, 0, len(loaded)+len(arrived))
	seen := make(map[string]bool, len(loaded)+len(arrived))
	for _, list := range [][]Message{loaded, arrived} {
		for _, msg := range list {
			if seen[msg.ID] {
				continue
			}
			seen[msg.ID] = true
			merged = append(merged, msg)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	return merged
}

// Close tears down the subscription channel.
func (s *Stream) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Stream) handleInsert(payload []byte) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.Printf("Failed to decode message event: %v", err)
		return
	}

	// The transport delivers every insert on the table; scope is re-checked
	// here, not trusted to any server-side filter.
	if !s.scope.Accepts(msg.WorkspaceID, msg.AgentID, "") {
		return
	}

	s.mu.Lock()
	for _, existing := range s.messages {
		if existing.ID == msg.ID {
			s.mu.Unlock()
			return
		}
	}
	s.messages = append(s.messages, msg)
	// Receive order roughly matches commit order but is not guaranteed to
	// match created_at order; keep the list strictly ordered.
	sort.SliceStable(s.messages, func(i, j int) bool {
		return s.messages[i].CreatedAt.Before(s.messages[j].CreatedAt)
	})

	unreadChanged := false
	if msg.Role == RoleAssistant && !s.atBottom && !s.hasUnread {
		s.hasUnread = true
		unreadChanged = true
	}
	s.mu.Unlock()

	if s.OnMessage != nil {
		s.OnMessage(msg)
	}
	if unreadChanged && s.OnUnread != nil {
		s.OnUnread(true)
	}
}

// Send forwards the text to the automation worker. On failure the caller is
// expected to restore the unsent text into the input for a manual retry.
func (s *Stream) Send(ctx context.Context, text string) error {
	return s.service.SendMessage(ctx, s.scope.WorkspaceID, s.scope.AgentID, s.userID, text)
}

// SetAtBottom records whether the view is scrolled to the newest message.
// Crossing into the bottom clears the unread flag and upserts the read
// cursor exactly once.
func (s *Stream) SetAtBottom(atBottom bool) {
	s.mu.Lock()
	wasAtBottom := s.atBottom
	s.atBottom = atBottom

	unreadCleared := false
	if atBottom && s.hasUnread {
		s.hasUnread = false
		unreadCleared = true
	}
	markRead := atBottom && !wasAtBottom && len(s.messages) > 0
	s.mu.Unlock()

	if unreadCleared && s.OnUnread != nil {
		s.OnUnread(false)
	}
	if markRead {
		s.markRead()
	}
}

func (s *Stream) markRead() {
	task := func(ctx context.Context) error {
		return s.service.MarkRead(ctx, s.scope.WorkspaceID, s.scope.AgentID, s.userID)
	}

	if s.pool != nil {
		s.pool.Submit(task)
		return
	}
	if err := task(context.Background()); err != nil {
		log.Printf("Failed to update read status: %v", err)
	}
}

// Messages returns a copy of the ordered conversation.
func (s *Stream) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Stream) HasUnread() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasUnread
}

func (s *Stream) State() StreamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
