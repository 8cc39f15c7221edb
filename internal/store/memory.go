package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// MemoryGateway is an in-memory Gateway used in tests and local development.
// Rows are kept as decoded JSON objects so it stays agnostic of the model
// types, the same way the remote store is. Insert notifications are
// dispatched synchronously to subscribers.
type MemoryGateway struct {
	mu        sync.Mutex
	tables    map[string][]map[string]any
	listeners map[string]map[int]func([]byte)
	nextID    int

	// InsertErr, when set, makes every Insert fail. Lets tests exercise the
	// transient-failure paths.
	InsertErr error
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		tables:    make(map[string][]map[string]any),
		listeners: make(map[string]map[int]func([]byte)),
	}
}

func (g *MemoryGateway) Query(ctx context.Context, table string, dest any, opts QueryOptions) error {
	g.mu.Lock()
	rows := g.matchingRows(table, opts)
	g.mu.Unlock()

	return decodeRows(rows, dest)
}

func (g *MemoryGateway) First(ctx context.Context, table string, dest any, opts QueryOptions) error {
	opts.Limit = 1
	g.mu.Lock()
	rows := g.matchingRows(table, opts)
	g.mu.Unlock()

	if len(rows) == 0 {
		return ErrNotFound
	}

	payload, err := json.Marshal(rows[0])
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

func (g *MemoryGateway) Insert(ctx context.Context, table string, row any) error {
	if g.InsertErr != nil {
		return g.InsertErr
	}

	decoded, payload, err := encodeRow(row)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.tables[table] = append(g.tables[table], decoded)
	fns := make([]func([]byte), 0, len(g.listeners[table]))
	for _, fn := range g.listeners[table] {
		fns = append(fns, fn)
	}
	g.mu.Unlock()

	// Synchronous dispatch keeps tests deterministic; consumers must not
	// hold their own locks across gateway calls.
	for _, fn := range fns {
		fn(payload)
	}
	return nil
}

func (g *MemoryGateway) Upsert(ctx context.Context, table string, row any, conflictColumns []string) error {
	decoded, _, err := encodeRow(row)
	if err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for i, existing := range g.tables[table] {
		if matchesColumns(existing, decoded, conflictColumns) {
			g.tables[table][i] = decoded
			return nil
		}
	}
	g.tables[table] = append(g.tables[table], decoded)
	return nil
}

func (g *MemoryGateway) Subscribe(table string, onInsert func(payload []byte)) Unsubscribe {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listeners[table] == nil {
		g.listeners[table] = make(map[int]func([]byte))
	}
	id := g.nextID
	g.nextID++
	g.listeners[table][id] = onInsert

	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.listeners[table], id)
	}
}

// SubscriberCount reports open subscriptions for a table (test helper).
func (g *MemoryGateway) SubscriberCount(table string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.listeners[table])
}

// RowCount reports stored rows for a table (test helper).
func (g *MemoryGateway) RowCount(table string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tables[table])
}

func (g *MemoryGateway) matchingRows(table string, opts QueryOptions) []map[string]any {
	var rows []map[string]any
	for _, row := range g.tables[table] {
		if matchesFilters(row, opts.Filters) {
			rows = append(rows, row)
		}
	}

	if opts.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			less := compareValues(rows[i][opts.OrderBy], rows[j][opts.OrderBy])
			if opts.Desc {
				return !less
			}
			return less
		})
	}

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	return rows
}

func encodeRow(row any) (map[string]any, []byte, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, nil, err
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, nil, err
	}
	return decoded, payload, nil
}

func decodeRows(rows []map[string]any, dest any) error {
	if rows == nil {
		rows = []map[string]any{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

func matchesFilters(row map[string]any, filters Filter) bool {
	for column, want := range filters {
		if !equalValues(row[column], want) {
			return false
		}
	}
	return true
}

func matchesColumns(existing, row map[string]any, columns []string) bool {
	for _, column := range columns {
		if !equalValues(existing[column], row[column]) {
			return false
		}
	}
	return len(columns) > 0
}

// equalValues compares through JSON so int filters match float64-decoded
// numbers and so on.
func equalValues(a, b any) bool {
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aj) == string(bj)
}

func compareValues(a, b any) bool {
	af, aOK := a.(float64)
	bf, bOK := b.(float64)
	if aOK && bOK {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}
