package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	ID      string `json:"id"`
	Group   string `json:"group"`
	Version int    `json:"version"`
}

func TestMemoryGateway_QueryFiltersAndOrders(t *testing.T) {
	gateway := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, gateway.Insert(ctx, "rows", fakeRow{ID: "a", Group: "g1", Version: 2}))
	require.NoError(t, gateway.Insert(ctx, "rows", fakeRow{ID: "b", Group: "g2", Version: 1}))
	require.NoError(t, gateway.Insert(ctx, "rows", fakeRow{ID: "c", Group: "g1", Version: 1}))

	var rows []fakeRow
	err := gateway.Query(ctx, "rows", &rows, QueryOptions{
		Filters: Filter{"group": "g1"},
		OrderBy: "version",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "c", rows[0].ID)
	assert.Equal(t, "a", rows[1].ID)
}

func TestMemoryGateway_FirstNotFound(t *testing.T) {
	gateway := NewMemoryGateway()

	var row fakeRow
	err := gateway.First(context.Background(), "rows", &row, QueryOptions{
		Filters: Filter{"id": "missing"},
	})
	assert.True(t, IsNotFound(err))
}

func TestMemoryGateway_InsertNotifiesSubscribers(t *testing.T) {
	gateway := NewMemoryGateway()

	var got []string
	unsub := gateway.Subscribe("rows", func(payload []byte) {
		got = append(got, string(payload))
	})

	require.NoError(t, gateway.Insert(context.Background(), "rows", fakeRow{ID: "a"}))
	require.Len(t, got, 1)
	assert.Contains(t, got[0], `"id":"a"`)

	unsub()
	require.NoError(t, gateway.Insert(context.Background(), "rows", fakeRow{ID: "b"}))
	assert.Len(t, got, 1)
	assert.Equal(t, 0, gateway.SubscriberCount("rows"))
}

func TestMemoryGateway_UpsertReplacesOnConflict(t *testing.T) {
	gateway := NewMemoryGateway()
	ctx := context.Background()

	require.NoError(t, gateway.Upsert(ctx, "rows", fakeRow{ID: "a", Group: "g1", Version: 1}, []string{"id"}))
	require.NoError(t, gateway.Upsert(ctx, "rows", fakeRow{ID: "a", Group: "g1", Version: 5}, []string{"id"}))

	assert.Equal(t, 1, gateway.RowCount("rows"))

	var row fakeRow
	require.NoError(t, gateway.First(ctx, "rows", &row, QueryOptions{Filters: Filter{"id": "a"}}))
	assert.Equal(t, 5, row.Version)
}

func TestMemoryGateway_InsertErr(t *testing.T) {
	gateway := NewMemoryGateway()
	gateway.InsertErr = assert.AnError

	err := gateway.Insert(context.Background(), "rows", fakeRow{ID: "a"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, gateway.RowCount("rows"))
}
