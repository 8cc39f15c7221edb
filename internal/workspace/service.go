package workspace

import (
	"agent-workspace/internal/errors"
	"agent-workspace/internal/store"
	"context"
)

type Service interface {
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)
	GetAgent(ctx context.Context, id string) (*Agent, error)
	ListAgents(ctx context.Context) ([]Agent, error)
}

type DefaultService struct {
	gateway store.Gateway
}

func NewService(gateway store.Gateway) Service {
	return &DefaultService{gateway: gateway}
}

func (s *DefaultService) GetWorkspace(ctx context.Context, id string) (*Workspace, error) {
	var ws Workspace
	err := s.gateway.First(ctx, store.TableWorkspaces, &ws, store.QueryOptions{
		Filters: store.Filter{"id": id},
	})
	if store.IsNotFound(err) {
		return nil, errors.NotFound("Workspace not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (s *DefaultService) GetAgent(ctx context.Context, id string) (*Agent, error) {
	var agent Agent
	err := s.gateway.First(ctx, store.TableAgents, &agent, store.QueryOptions{
		Filters: store.Filter{"id": id},
	})
	if store.IsNotFound(err) {
		return nil, errors.NotFound("Agent not found", err)
	}
	if err != nil {
		return nil, err
	}
	return &agent, nil
}

func (s *DefaultService) ListAgents(ctx context.Context) ([]Agent, error) {
	var agents []Agent
	err := s.gateway.Query(ctx, store.TableAgents, &agents, store.QueryOptions{
		OrderBy: "name",
	})
	if err != nil {
		return nil, err
	}
	return agents, nil
}
