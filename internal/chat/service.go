package chat

import (
	"agent-workspace/internal/errors"
	"agent-workspace/internal/store"
	"agent-workspace/internal/workspace"
	"context"
	"time"
)

type Service interface {
	LoadMessages(ctx context.Context, workspaceID, agentID string) ([]Message, error)
	SendMessage(ctx context.Context, workspaceID, agentID, userID, text string) error
	MarkRead(ctx context.Context, workspaceID, agentID, userID string) error
	LastReadAt(ctx context.Context, workspaceID, agentID, userID string) (*time.Time, error)
}

// WorkspaceProvider supplies the reference data a send needs: the workspace's
// webhook URL and the agent's external workflow id.
type WorkspaceProvider interface {
	GetWorkspace(ctx context.Context, id string) (*workspace.Workspace, error)
	GetAgent(ctx context.Context, id string) (*workspace.Agent, error)
}

type DefaultService struct {
	gateway    store.Gateway
	workspaces WorkspaceProvider
	webhook    *WebhookClient
}

func NewService(gateway store.Gateway, workspaces WorkspaceProvider, webhook *WebhookClient) Service {
	return &DefaultService{
		gateway:    gateway,
		workspaces: workspaces,
		webhook:    webhook,
	}
}

// LoadMessages fetches the full conversation ordered by created_at ascending.
func (s *DefaultService) LoadMessages(ctx context.Context, workspaceID, agentID string) ([]Message, error) {
	var messages []Message
	err := s.gateway.Query(ctx, store.TableMessages, &messages, store.QueryOptions{
		Filters: store.Filter{"workspace_id": workspaceID, "agent_id": agentID},
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage hands the text off to the automation worker. The worker writes
// both the user's message row and any assistant reply; nothing is inserted
// locally here.
func (s *DefaultService) SendMessage(ctx context.Context, workspaceID, agentID, userID, text string) error {
	ws, err := s.workspaces.GetWorkspace(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.WebhookURL == "" {
		return errors.UnprocessableEntity("No webhook URL configured", nil)
	}

	agent, err := s.workspaces.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}

	return s.webhook.Send(ctx, ws.WebhookURL, WebhookPayload{
		Text:            text,
		UserID:          userID,
		AgentID:         agentID,
		AgentWorkflowID: agent.WorkflowID,
		WorkspaceID:     workspaceID,
	})
}

// MarkRead upserts the read cursor to now.
func (s *DefaultService) MarkRead(ctx context.Context, workspaceID, agentID, userID string) error {
	status := ReadStatus{
		UserID:      userID,
		AgentID:     agentID,
		WorkspaceID: workspaceID,
		LastReadAt:  time.Now().UTC(),
	}
	return s.gateway.Upsert(ctx, store.TableReadStatus, &status, ReadStatusConflictColumns)
}

// LastReadAt returns the stored read cursor, or nil when the user has never
// read this conversation.
func (s *DefaultService) LastReadAt(ctx context.Context, workspaceID, agentID, userID string) (*time.Time, error) {
	var status ReadStatus
	err := s.gateway.First(ctx, store.TableReadStatus, &status, store.QueryOptions{
		Filters: store.Filter{
			"user_id":      userID,
			"agent_id":     agentID,
			"workspace_id": workspaceID,
		},
	})
	if store.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status.LastReadAt, nil
}
