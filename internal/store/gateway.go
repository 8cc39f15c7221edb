package store

import (
	"context"
	"errors"
)

// Table names in the remote store.
const (
	TableWorkspaces   = "workspaces"
	TableAgents       = "agents"
	TableMessages     = "messages"
	TableDocuments    = "documents"
	TableContents     = "contents"
	TableTableEntries = "table_entries"
	TableWebpages     = "webpages"
	TableReadStatus   = "message_read_status"
)

// ErrNotFound signals "no row yet". It is a recoverable empty state, not a
// fault; callers must treat it as null/empty instead of propagating it.
var ErrNotFound = errors.New("row not found")

// Filter is a column -> value equality filter.
type Filter map[string]any

type QueryOptions struct {
	Filters Filter
	OrderBy string // column name, empty = store order
	Desc    bool
	Limit   int // 0 = no limit
}

// Unsubscribe tears down one subscription channel. Safe to call once.
type Unsubscribe func()

// Gateway abstracts the persisted store. Every mutation is a single-row
// insert (append-only versioned rows) or an upsert for the few
// single-row-per-key tables. Callers never update or delete.
//
// The subscription delivers every insert for a table without server-side
// filtering; consumers must re-check workspace/agent/document scope fields
// on each incoming row (see Scope).
type Gateway interface {
	// Query fills dest (a pointer to a slice) with all matching rows.
	Query(ctx context.Context, table string, dest any, opts QueryOptions) error
	// First fills dest (a pointer to a struct) with the first matching row,
	// returning ErrNotFound when there is none.
	First(ctx context.Context, table string, dest any, opts QueryOptions) error
	Insert(ctx context.Context, table string, row any) error
	// Upsert inserts or replaces keyed by the given conflict columns.
	Upsert(ctx context.Context, table string, row any, conflictColumns []string) error
	// Subscribe delivers the JSON payload of every row inserted into table.
	Subscribe(table string, onInsert func(payload []byte)) Unsubscribe
}

// Notifier is the change-notification transport behind Subscribe.
type Notifier interface {
	Publish(table string, payload []byte)
	Subscribe(table string, fn func(payload []byte)) Unsubscribe
}

// IsNotFound reports whether err is the recoverable "no row" signal.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
