package tableentry

import (
	"agent-workspace/internal/document"
	"agent-workspace/internal/store"
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Flag durations, shortened in tests.
const (
	DefaultSavedFlagDuration   = time.Second
	DefaultUpdatedFlagDuration = 2 * time.Second
)

// CommitResult reports what a commit did. Invalid marks a value that failed
// its column-type check but was written anyway, last write wins.
type CommitResult struct {
	Committed bool    `json:"committed"`
	Cell      CellRef `json:"cell"`
	Invalid   bool    `json:"invalid,omitempty"`
}

// Synchronizer keeps the live projection of one table document and drives
// the single-cell edit protocol over it. The projection always holds the
// highest version per row, ordered by position.
type Synchronizer struct {
	gateway store.Gateway
	scope   store.Scope
	schema  *document.TableSchema

	SavedFlagDuration   time.Duration
	UpdatedFlagDuration time.Duration

	mu            sync.Mutex
	rows          []TableEntry
	ed            editor
	pendingID     string
	savedCell     *CellRef
	savedTimer    *time.Timer
	updatedTimers map[string]*time.Timer
	unsub         store.Unsubscribe

	// Callbacks run without the internal lock held.
	OnRows       func(rows []TableEntry)
	OnEditing    func(state string, cell CellRef, draft string)
	OnSaved      func(cell CellRef, raised bool)
	OnRowUpdated func(rowID string, raised bool)
}

func NewSynchronizer(gateway store.Gateway, documentID, workspaceID string, schema *document.TableSchema) *Synchronizer {
	return &Synchronizer{
		gateway:             gateway,
		scope:               store.Scope{WorkspaceID: workspaceID, DocumentID: documentID},
		schema:              schema,
		SavedFlagDuration:   DefaultSavedFlagDuration,
		UpdatedFlagDuration: DefaultUpdatedFlagDuration,
		ed:                  newEditor(),
		updatedTimers:       make(map[string]*time.Timer),
	}
}

// Load opens the subscription, then fetches every revision row for the
// document and reduces them to the visible projection.
func (s *Synchronizer) Load(ctx context.Context) error {
	unsub := s.gateway.Subscribe(store.TableTableEntries, s.handleInsert)
	s.mu.Lock()
	s.unsub = unsub
	s.mu.Unlock()

	var entries []TableEntry
	err := s.gateway.Query(ctx, store.TableTableEntries, &entries, store.QueryOptions{
		Filters: store.Filter{
			"document_id":  s.scope.DocumentID,
			"workspace_id": s.scope.WorkspaceID,
		},
	})
	if err != nil {
		s.Close()
		return err
	}

	s.mu.Lock()
	// Inserts can be delivered while the fetch is in flight; replay the rows
	// that already arrived over the reduced snapshot instead of discarding
	// them. Apply keeps whichever revision carries the higher version.
	rows := Reduce(entries)
	for _, row := range s.rows {
		rows, _ = Apply(rows, row)
	}
	s.rows = rows
	s.mu.Unlock()
	return nil
}

// Close tears down the subscription and pending flag timers.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	for id, t := range s.updatedTimers {
		t.Stop()
		delete(s.updatedTimers, id)
	}
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (s *Synchronizer) handleInsert(payload []byte) {
	var row TableEntry
	if err := json.Unmarshal(payload, &row); err != nil {
		log.Printf("Failed to decode table entry event: %v", err)
		return
	}
	if !s.scope.Accepts(row.WorkspaceID, "", row.DocumentID) {
		return
	}

	s.mu.Lock()
	rows, changed := Apply(s.rows, row)
	if !changed {
		s.mu.Unlock()
		return
	}
	s.rows = rows
	own := row.ID == s.pendingID
	snapshot := s.snapshotRowsLocked()
	s.mu.Unlock()

	if s.OnRows != nil {
		s.OnRows(snapshot)
	}
	if !own {
		s.raiseRowUpdated(row.RowID)
	}
}

// StartEdit begins editing a cell, snapshotting its stored value as the
// draft. An edit already in progress on another cell is committed first, the
// way a focus change blurs the previous input.
func (s *Synchronizer) StartEdit(ctx context.Context, cell CellRef) error {
	s.mu.Lock()
	if s.ed.state == EditActive && s.ed.cell != cell && s.ed.dirty() {
		s.mu.Unlock()
		if _, err := s.Commit(ctx); err != nil {
			log.Printf("Failed to commit cell on focus change: %v", err)
		}
		s.mu.Lock()
	}

	row := s.findRowLocked(cell.RowID)
	if row == nil {
		s.mu.Unlock()
		return store.ErrNotFound
	}
	s.ed.start(cell, row.CellString(cell.ColumnKey))
	state, draft := s.ed.state, s.ed.draft
	s.mu.Unlock()

	s.notifyEditing(state, cell, draft)
	return nil
}

// SetDraft replaces the draft value of the in-progress edit.
func (s *Synchronizer) SetDraft(value string) {
	s.mu.Lock()
	if s.ed.state != EditActive {
		s.mu.Unlock()
		return
	}
	s.ed.draft = value
	cell, draft := s.ed.cell, s.ed.draft
	s.mu.Unlock()

	s.notifyEditing(EditActive, cell, draft)
}

// Cancel discards the draft without writing anything.
func (s *Synchronizer) Cancel() {
	s.mu.Lock()
	if s.ed.state != EditActive {
		s.mu.Unlock()
		return
	}
	s.ed.reset()
	s.mu.Unlock()

	s.notifyEditing(EditIdle, CellRef{}, "")
}

// Blur commits the in-progress edit unless a Tab-driven move is underway,
// which performs its own commit.
func (s *Synchronizer) Blur(ctx context.Context) error {
	s.mu.Lock()
	if s.ed.state != EditActive || s.ed.navigating {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	_, err := s.Commit(ctx)
	return err
}

// Commit writes the draft as a new revision of the edited row. An unchanged
// draft is a no-op and writes nothing. On insert failure the projection is
// left untouched and the edit is dropped.
func (s *Synchronizer) Commit(ctx context.Context) (CommitResult, error) {
	s.mu.Lock()
	if s.ed.state != EditActive {
		s.mu.Unlock()
		return CommitResult{}, nil
	}
	cell, draft := s.ed.cell, s.ed.draft

	row := s.findRowLocked(cell.RowID)
	if row == nil || !s.ed.dirty() {
		s.ed.reset()
		s.mu.Unlock()
		s.notifyEditing(EditIdle, CellRef{}, "")
		return CommitResult{Cell: cell}, nil
	}

	data := row.CloneData()
	data[cell.ColumnKey] = draft
	entry := TableEntry{
		ID:          uuid.NewString(),
		DocumentID:  s.scope.DocumentID,
		WorkspaceID: s.scope.WorkspaceID,
		RowID:       row.RowID,
		Position:    row.Position,
		Version:     row.Version + 1,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	var column *document.TableColumn
	if s.schema != nil {
		column = s.schema.Column(cell.ColumnKey)
	}
	invalid := ValidateCell(column, draft) != nil

	s.ed.state = EditSaving
	s.pendingID = entry.ID
	s.mu.Unlock()
	s.notifyEditing(EditSaving, cell, draft)

	err := s.gateway.Insert(ctx, store.TableTableEntries, &entry)

	s.mu.Lock()
	s.pendingID = ""
	s.ed.reset()
	if err != nil {
		s.mu.Unlock()
		s.notifyEditing(EditIdle, CellRef{}, "")
		log.Printf("Failed to save cell %s/%s: %v", cell.RowID, cell.ColumnKey, err)
		return CommitResult{}, err
	}
	rows, changed := Apply(s.rows, entry)
	if changed {
		s.rows = rows
	}
	var snapshot []TableEntry
	if changed {
		snapshot = s.snapshotRowsLocked()
	}
	s.mu.Unlock()

	s.notifyEditing(EditIdle, CellRef{}, "")
	if changed && s.OnRows != nil {
		s.OnRows(snapshot)
	}
	s.raiseSaved(cell)
	return CommitResult{Committed: true, Cell: cell, Invalid: invalid}, nil
}

// HandleKey applies an editing keystroke. Enter commits, except that
// Shift+Enter inside a textarea column appends a newline to the draft.
// Escape discards. Tab commits then moves row-major to the adjacent cell,
// staying put at the table's edge.
func (s *Synchronizer) HandleKey(ctx context.Context, key string, shift bool) error {
	switch key {
	case "Enter":
		s.mu.Lock()
		if s.ed.state != EditActive {
			s.mu.Unlock()
			return nil
		}
		if shift && s.columnTypeLocked(s.ed.cell.ColumnKey) == document.ColumnTextarea {
			s.ed.draft += "\n"
			cell, draft := s.ed.cell, s.ed.draft
			s.mu.Unlock()
			s.notifyEditing(EditActive, cell, draft)
			return nil
		}
		s.mu.Unlock()
		_, err := s.Commit(ctx)
		return err

	case "Escape":
		s.Cancel()
		return nil

	case "Tab":
		return s.tabMove(ctx, shift)

	default:
		return nil
	}
}

func (s *Synchronizer) tabMove(ctx context.Context, backward bool) error {
	s.mu.Lock()
	if s.ed.state != EditActive {
		s.mu.Unlock()
		return nil
	}
	from := s.ed.cell
	s.ed.navigating = true
	s.mu.Unlock()

	_, err := s.Commit(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	var columns []document.TableColumn
	if s.schema != nil {
		columns = s.schema.Columns
	}
	next, ok := adjacentCell(s.rows, columns, from, backward)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.StartEdit(ctx, next)
}

// AddRow appends a blank row after the last position and immediately begins
// editing its first column. Returns the new row's identifier.
func (s *Synchronizer) AddRow(ctx context.Context) (string, error) {
	s.mu.Lock()
	data := make(map[string]any)
	var firstColumn string
	if s.schema != nil {
		for i, col := range s.schema.Columns {
			data[col.Key] = ""
			if i == 0 {
				firstColumn = col.Key
			}
		}
	}
	entry := TableEntry{
		ID:          uuid.NewString(),
		DocumentID:  s.scope.DocumentID,
		WorkspaceID: s.scope.WorkspaceID,
		RowID:       uuid.NewString(),
		Position:    MaxPosition(s.rows) + 1,
		Version:     1,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
	s.pendingID = entry.ID
	s.mu.Unlock()

	err := s.gateway.Insert(ctx, store.TableTableEntries, &entry)

	s.mu.Lock()
	s.pendingID = ""
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	rows, changed := Apply(s.rows, entry)
	if changed {
		s.rows = rows
	}
	var snapshot []TableEntry
	if changed {
		snapshot = s.snapshotRowsLocked()
	}
	s.mu.Unlock()

	if changed && s.OnRows != nil {
		s.OnRows(snapshot)
	}
	if firstColumn != "" {
		if err := s.StartEdit(ctx, CellRef{RowID: entry.RowID, ColumnKey: firstColumn}); err != nil {
			return entry.RowID, err
		}
	}
	return entry.RowID, nil
}

// Rows returns a copy of the current projection.
func (s *Synchronizer) Rows() []TableEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotRowsLocked()
}

// Editing returns the edit state, edited cell and draft value.
func (s *Synchronizer) Editing() (string, CellRef, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ed.state, s.ed.cell, s.ed.draft
}

// SavedCell returns the cell whose just-saved flag is raised, nil when none.
func (s *Synchronizer) SavedCell() *CellRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.savedCell == nil {
		return nil
	}
	cell := *s.savedCell
	return &cell
}

// RowJustUpdated reports whether a remote insert recently touched the row.
func (s *Synchronizer) RowJustUpdated(rowID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.updatedTimers[rowID]
	return ok
}

func (s *Synchronizer) raiseSaved(cell CellRef) {
	s.mu.Lock()
	s.savedCell = &cell
	if s.savedTimer != nil {
		s.savedTimer.Stop()
	}
	s.savedTimer = time.AfterFunc(s.SavedFlagDuration, func() {
		s.mu.Lock()
		s.savedCell = nil
		s.savedTimer = nil
		s.mu.Unlock()
		if s.OnSaved != nil {
			s.OnSaved(cell, false)
		}
	})
	s.mu.Unlock()

	if s.OnSaved != nil {
		s.OnSaved(cell, true)
	}
}

func (s *Synchronizer) raiseRowUpdated(rowID string) {
	s.mu.Lock()
	if t, ok := s.updatedTimers[rowID]; ok {
		t.Stop()
	}
	s.updatedTimers[rowID] = time.AfterFunc(s.UpdatedFlagDuration, func() {
		s.mu.Lock()
		delete(s.updatedTimers, rowID)
		s.mu.Unlock()
		if s.OnRowUpdated != nil {
			s.OnRowUpdated(rowID, false)
		}
	})
	s.mu.Unlock()

	if s.OnRowUpdated != nil {
		s.OnRowUpdated(rowID, true)
	}
}

func (s *Synchronizer) notifyEditing(state string, cell CellRef, draft string) {
	if s.OnEditing != nil {
		s.OnEditing(state, cell, draft)
	}
}

func (s *Synchronizer) findRowLocked(rowID string) *TableEntry {
	for i := range s.rows {
		if s.rows[i].RowID == rowID {
			return &s.rows[i]
		}
	}
	return nil
}

func (s *Synchronizer) columnTypeLocked(key string) string {
	if s.schema == nil {
		return ""
	}
	if col := s.schema.Column(key); col != nil {
		return col.Type
	}
	return ""
}

func (s *Synchronizer) snapshotRowsLocked() []TableEntry {
	out := make([]TableEntry, len(s.rows))
	copy(out, s.rows)
	return out
}
