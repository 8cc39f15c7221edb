package document

import (
	"agent-workspace/internal/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doc(id, name, docType string, agentIDs ...string) Document {
	return Document{
		ID:        id,
		Name:      name,
		AgentIDs:  agentIDs,
		Type:      docType,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestListForAgent_FiltersByMembership(t *testing.T) {
	gateway := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gateway.Insert(ctx, store.TableDocuments, doc("d1", "Notes", TypeText, "agent-1")))
	require.NoError(t, gateway.Insert(ctx, store.TableDocuments, doc("d2", "Other", TypeText, "agent-2")))
	require.NoError(t, gateway.Insert(ctx, store.TableDocuments, doc("d3", "Shared", TypeTable, "agent-1", "agent-2")))

	service := NewService(gateway)
	infos, err := service.ListForAgent(ctx, "ws-1", "agent-1")

	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "d1", infos[0].ID)
	assert.Equal(t, "d3", infos[1].ID)
}

func TestListForAgent_LastUpdatedFromContentTable(t *testing.T) {
	gateway := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gateway.Insert(ctx, store.TableDocuments, doc("d1", "Notes", TypeText, "agent-1")))

	older := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	newest := time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC)
	for _, createdAt := range []time.Time{older, newest} {
		require.NoError(t, gateway.Insert(ctx, store.TableContents, map[string]any{
			"id":           createdAt.String(),
			"document_id":  "d1",
			"workspace_id": "ws-1",
			"created_at":   createdAt,
		}))
	}
	// Content in another workspace must not count
	require.NoError(t, gateway.Insert(ctx, store.TableContents, map[string]any{
		"id":           "foreign",
		"document_id":  "d1",
		"workspace_id": "ws-2",
		"created_at":   newest.Add(time.Hour),
	}))

	service := NewService(gateway)
	infos, err := service.ListForAgent(ctx, "ws-1", "agent-1")

	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.NotNil(t, infos[0].LastUpdated)
	assert.True(t, infos[0].LastUpdated.Equal(newest))
}

func TestListForAgent_NoContentMeansNoTimestamp(t *testing.T) {
	gateway := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gateway.Insert(ctx, store.TableDocuments, doc("d1", "Notes", TypeText, "agent-1")))

	service := NewService(gateway)
	infos, err := service.ListForAgent(ctx, "ws-1", "agent-1")

	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Nil(t, infos[0].LastUpdated)
}

func TestContentTable_PerDocumentType(t *testing.T) {
	assert.Equal(t, "contents", ContentTable(TypeText))
	assert.Equal(t, "table_entries", ContentTable(TypeTable))
	assert.Equal(t, "webpages", ContentTable(TypeWebpage))
}

func TestGetDocument_NotFound(t *testing.T) {
	service := NewService(store.NewMemoryGateway())

	_, err := service.GetDocument(context.Background(), "missing")
	assert.True(t, store.IsNotFound(err))
}
