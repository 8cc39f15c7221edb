package content

import (
	"agent-workspace/internal/store"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revision(id string, version int, text string) Content {
	return Content{
		ID:          id,
		DocumentID:  "doc-1",
		WorkspaceID: "ws-1",
		Content:     text,
		Version:     version,
		CreatedAt:   time.Date(2025, 6, 1, 12, 0, version, 0, time.UTC),
	}
}

func newTestResolver(t *testing.T, seed ...Content) (*Resolver, *store.MemoryGateway) {
	t.Helper()
	gateway := store.NewMemoryGateway()
	ctx := context.Background()
	for _, rev := range seed {
		require.NoError(t, gateway.Insert(ctx, store.TableContents, rev))
	}

	resolver := NewResolver(gateway, "doc-1", "ws-1")
	resolver.UpdatedFlagDuration = 20 * time.Millisecond
	require.NoError(t, resolver.Load(ctx))
	t.Cleanup(resolver.Close)
	return resolver, gateway
}

func TestResolver_EmptyDocumentIsValid(t *testing.T) {
	resolver, _ := newTestResolver(t)

	assert.Nil(t, resolver.Current())
	assert.Empty(t, resolver.History())
}

func TestResolver_LoadsLatestAndHistory(t *testing.T) {
	resolver, _ := newTestResolver(t,
		revision("c1", 1, "first"),
		revision("c3", 3, "third"),
		revision("c2", 2, "second"),
	)

	current := resolver.Current()
	require.NotNil(t, current)
	assert.Equal(t, 3, current.Version)

	history := resolver.History()
	require.Len(t, history, 3)
	assert.Equal(t, []int{3, 2, 1}, []int{history[0].Version, history[1].Version, history[2].Version})
}

// gateway wrapper whose Query runs a hook after the snapshot is taken,
// before it returns. Lets tests deliver inserts while Load's fetch is in
// flight.
type fetchHookGateway struct {
	*store.MemoryGateway
	afterQuery func()
}

func (g *fetchHookGateway) Query(ctx context.Context, table string, dest any, opts store.QueryOptions) error {
	err := g.MemoryGateway.Query(ctx, table, dest, opts)
	if g.afterQuery != nil {
		fn := g.afterQuery
		g.afterQuery = nil
		fn()
	}
	return err
}

func TestResolver_KeepsInsertsDeliveredDuringLoad(t *testing.T) {
	base := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, base.Insert(ctx, store.TableContents, revision("c1", 1, "first")))

	gateway := &fetchHookGateway{MemoryGateway: base}
	// This revision lands after the subscription opens but misses the fetch
	// snapshot; the merge must keep it.
	gateway.afterQuery = func() {
		require.NoError(t, base.Insert(ctx, store.TableContents, revision("c2", 2, "second")))
	}

	resolver := NewResolver(gateway, "doc-1", "ws-1")
	resolver.UpdatedFlagDuration = 20 * time.Millisecond
	require.NoError(t, resolver.Load(ctx))
	t.Cleanup(resolver.Close)

	current := resolver.Current()
	require.NotNil(t, current)
	assert.Equal(t, "c2", current.ID)

	history := resolver.History()
	require.Len(t, history, 2)
	assert.Equal(t, []string{"c2", "c1"}, []string{history[0].ID, history[1].ID})
}

func TestResolver_RemoteInsertBecomesCurrent(t *testing.T) {
	resolver, gateway := newTestResolver(t, revision("c1", 1, "first"))

	require.NoError(t, gateway.Insert(context.Background(), store.TableContents, revision("c2", 2, "second")))

	current := resolver.Current()
	require.NotNil(t, current)
	assert.Equal(t, "c2", current.ID)
	assert.Len(t, resolver.History(), 2)
	assert.True(t, resolver.JustUpdated())

	// The flag auto-clears
	assert.Eventually(t, func() bool { return !resolver.JustUpdated() },
		time.Second, 5*time.Millisecond)
}

func TestResolver_DedupesAndScopes(t *testing.T) {
	resolver, gateway := newTestResolver(t, revision("c1", 1, "first"))
	ctx := context.Background()

	// Duplicate of a known revision
	require.NoError(t, gateway.Insert(ctx, store.TableContents, revision("c1", 1, "first")))
	// Revision for a different document
	other := revision("c9", 9, "other")
	other.DocumentID = "doc-2"
	require.NoError(t, gateway.Insert(ctx, store.TableContents, other))

	assert.Len(t, resolver.History(), 1)
	require.NotNil(t, resolver.Current())
	assert.Equal(t, "c1", resolver.Current().ID)
}

func TestResolver_SelectVersionIsLocalOnly(t *testing.T) {
	resolver, gateway := newTestResolver(t,
		revision("c1", 1, "first"),
		revision("c2", 2, "second"),
	)

	rowsBefore := gateway.RowCount(store.TableContents)
	require.True(t, resolver.SelectVersion("c1"))

	current := resolver.Current()
	require.NotNil(t, current)
	assert.Equal(t, "c1", current.ID)
	assert.Equal(t, rowsBefore, gateway.RowCount(store.TableContents))

	assert.False(t, resolver.SelectVersion("missing"))
}

func TestResolver_PreviousOf(t *testing.T) {
	resolver, _ := newTestResolver(t,
		revision("c1", 1, "first"),
		revision("c2", 2, "second"),
		revision("c3", 3, "third"),
	)

	current := resolver.Current()
	prev := resolver.PreviousOf(current)
	require.NotNil(t, prev)
	assert.Equal(t, "c2", prev.ID)

	oldest := prev
	for {
		next := resolver.PreviousOf(oldest)
		if next == nil {
			break
		}
		oldest = next
	}
	assert.Equal(t, "c1", oldest.ID)
	assert.Nil(t, resolver.PreviousOf(nil))
}

func TestResolver_PreviousOfSingleRevision(t *testing.T) {
	resolver, _ := newTestResolver(t, revision("c1", 1, "only"))

	assert.Nil(t, resolver.PreviousOf(resolver.Current()))
}
