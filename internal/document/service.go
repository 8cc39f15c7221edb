package document

import (
	"agent-workspace/internal/store"
	"context"
	"log"
	"time"
)

// Info is a directory entry: the document plus the created_at of its newest
// content row in the current workspace, when any exists.
type Info struct {
	Document
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type Service interface {
	ListForAgent(ctx context.Context, workspaceID, agentID string) ([]Info, error)
	GetDocument(ctx context.Context, id string) (*Document, error)
}

type DefaultService struct {
	gateway store.Gateway
}

func NewService(gateway store.Gateway) Service {
	return &DefaultService{gateway: gateway}
}

// ListForAgent returns the documents whose agent_ids contains the agent. The
// membership check runs client-side; the store's filter syntax cannot
// express it. The directory itself is a read-mostly view, only a selected
// document's content stream is live.
func (s *DefaultService) ListForAgent(ctx context.Context, workspaceID, agentID string) ([]Info, error) {
	var documents []Document
	err := s.gateway.Query(ctx, store.TableDocuments, &documents, store.QueryOptions{
		OrderBy: "created_at",
	})
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(documents))
	for i := range documents {
		doc := documents[i]
		if !doc.HasAgent(agentID) {
			continue
		}
		infos = append(infos, Info{
			Document:    doc,
			LastUpdated: s.lastUpdated(ctx, &doc, workspaceID),
		})
	}
	return infos, nil
}

// lastUpdated looks up the newest content row for the document. No row is
// not an error, the document simply has no "recently updated" timestamp yet.
func (s *DefaultService) lastUpdated(ctx context.Context, doc *Document, workspaceID string) *time.Time {
	var row struct {
		CreatedAt time.Time `json:"created_at"`
	}
	err := s.gateway.First(ctx, ContentTable(doc.Type), &row, store.QueryOptions{
		Filters: store.Filter{"document_id": doc.ID, "workspace_id": workspaceID},
		OrderBy: "created_at",
		Desc:    true,
	})
	if store.IsNotFound(err) {
		return nil
	}
	if err != nil {
		log.Printf("Failed to read last update of document %s: %v", doc.ID, err)
		return nil
	}
	return &row.CreatedAt
}

func (s *DefaultService) GetDocument(ctx context.Context, id string) (*Document, error) {
	var doc Document
	err := s.gateway.First(ctx, store.TableDocuments, &doc, store.QueryOptions{
		Filters: store.Filter{"id": id},
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
