package chat

import (
	"agent-workspace/internal/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stub implementation of the Service interface
type stubService struct {
	messages      []Message
	loadErr       error
	markReadCalls int
	// onLoad runs once inside LoadMessages, before it returns. Lets tests
	// deliver inserts while the initial load is still in flight.
	onLoad func()
}

func (s *stubService) LoadMessages(ctx context.Context, workspaceID, agentID string) ([]Message, error) {
	if s.onLoad != nil {
		fn := s.onLoad
		s.onLoad = nil
		fn()
	}
	return s.messages, s.loadErr
}

func (s *stubService) SendMessage(ctx context.Context, workspaceID, agentID, userID, text string) error {
	return nil
}

func (s *stubService) MarkRead(ctx context.Context, workspaceID, agentID, userID string) error {
	s.markReadCalls++
	return nil
}

func (s *stubService) LastReadAt(ctx context.Context, workspaceID, agentID, userID string) (*time.Time, error) {
	return nil, nil
}

func at(sec int) time.Time {
	return time.Date(2025, 6, 1, 12, 0, sec, 0, time.UTC)
}

func newTestStream(service Service, gateway store.Gateway) *Stream {
	// nil pool keeps read-status writes synchronous
	return NewStream(service, gateway, nil, "ws-1", "agent-1", "user-1")
}

func TestStream_StartMarksReadWhenAtBottom(t *testing.T) {
	service := &stubService{messages: []Message{
		{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)},
	}}
	stream := newTestStream(service, store.NewMemoryGateway())

	stream.Start(context.Background())
	defer stream.Close()

	assert.Equal(t, StateReady, stream.State())
	assert.Len(t, stream.Messages(), 1)
	assert.Equal(t, 1, service.markReadCalls)
}

func TestStream_StartEmptyConversationSkipsMarkRead(t *testing.T) {
	service := &stubService{}
	stream := newTestStream(service, store.NewMemoryGateway())

	stream.Start(context.Background())
	defer stream.Close()

	assert.Equal(t, StateReady, stream.State())
	assert.Empty(t, stream.Messages())
	assert.Equal(t, 0, service.markReadCalls)
}

func TestStream_InsertsMergeDedupedAndOrdered(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{messages: []Message{
		{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(10)},
	}}
	stream := newTestStream(service, gateway)
	stream.Start(context.Background())
	defer stream.Close()

	ctx := context.Background()
	// A duplicate of an already-known message, one out-of-order older message
	// and one newer message
	require.NoError(t, gateway.Insert(ctx, store.TableMessages,
		Message{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(10)}))
	require.NoError(t, gateway.Insert(ctx, store.TableMessages,
		Message{ID: "m3", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleAssistant, CreatedAt: at(30)}))
	require.NoError(t, gateway.Insert(ctx, store.TableMessages,
		Message{ID: "m2", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleAssistant, CreatedAt: at(20)}))

	messages := stream.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
	assert.Equal(t, "m3", messages[2].ID)
}

func TestStream_KeepsInsertsDeliveredDuringLoad(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{messages: []Message{
		{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)},
	}}
	stream := newTestStream(service, gateway)

	// These inserts land after the subscription opens but before the initial
	// load returns; the snapshot must be merged over them, not assigned.
	service.onLoad = func() {
		ctx := context.Background()
		require.NoError(t, gateway.Insert(ctx, store.TableMessages,
			Message{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)}))
		require.NoError(t, gateway.Insert(ctx, store.TableMessages,
			Message{ID: "m2", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleAssistant, CreatedAt: at(5)}))
	}

	stream.Start(context.Background())
	defer stream.Close()

	messages := stream.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestStream_RejectsOutOfScopeInserts(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{}
	stream := newTestStream(service, gateway)
	stream.Start(context.Background())
	defer stream.Close()

	ctx := context.Background()
	require.NoError(t, gateway.Insert(ctx, store.TableMessages,
		Message{ID: "m1", WorkspaceID: "ws-2", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)}))
	require.NoError(t, gateway.Insert(ctx, store.TableMessages,
		Message{ID: "m2", WorkspaceID: "ws-1", AgentID: "agent-9", Role: RoleUser, CreatedAt: at(1)}))

	assert.Empty(t, stream.Messages())
}

func TestStream_UnreadLifecycle(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{messages: []Message{
		{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)},
	}}
	stream := newTestStream(service, gateway)
	stream.Start(context.Background())
	defer stream.Close()

	require.Equal(t, 1, service.markReadCalls)

	// Scrolled away, an assistant reply arrives
	stream.SetAtBottom(false)
	require.NoError(t, gateway.Insert(context.Background(), store.TableMessages,
		Message{ID: "m2", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleAssistant, CreatedAt: at(5)}))
	assert.True(t, stream.HasUnread())

	// Crossing back to the bottom clears the flag and upserts exactly once
	stream.SetAtBottom(true)
	assert.False(t, stream.HasUnread())
	assert.Equal(t, 2, service.markReadCalls)

	// Staying at the bottom does not upsert again
	stream.SetAtBottom(true)
	assert.Equal(t, 2, service.markReadCalls)
}

func TestStream_UserMessagesNeverRaiseUnread(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{}
	stream := newTestStream(service, gateway)
	stream.Start(context.Background())
	defer stream.Close()

	stream.SetAtBottom(false)
	require.NoError(t, gateway.Insert(context.Background(), store.TableMessages,
		Message{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)}))

	assert.False(t, stream.HasUnread())
}

func TestStream_CloseStopsDelivery(t *testing.T) {
	gateway := store.NewMemoryGateway()
	service := &stubService{}
	stream := newTestStream(service, gateway)
	stream.Start(context.Background())
	stream.Close()

	require.NoError(t, gateway.Insert(context.Background(), store.TableMessages,
		Message{ID: "m1", WorkspaceID: "ws-1", AgentID: "agent-1", Role: RoleUser, CreatedAt: at(0)}))

	assert.Empty(t, stream.Messages())
	assert.Equal(t, 0, gateway.SubscriberCount(store.TableMessages))
}
