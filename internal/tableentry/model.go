package tableentry

import (
	"time"
)

// TableEntry is one revision of one table row. Rows are append-only: an edit
// inserts a new revision with the same row_id and position and a higher
// version. The projection keeps only the highest version per row.
type TableEntry struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	DocumentID  string         `gorm:"index" json:"document_id"`
	WorkspaceID string         `gorm:"index" json:"workspace_id"`
	RowID       string         `gorm:"index" json:"row_id"`
	Position    int            `json:"position"`
	Version     int            `json:"version"`
	Data        map[string]any `gorm:"serializer:json" json:"data"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (TableEntry) TableName() string { return "table_entries" }

// CloneData returns a shallow copy of the entry's cell values.
func (e *TableEntry) CloneData() map[string]any {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return data
}

// CellString renders a cell value for editing and display. Missing and nil
// values render empty.
func (e *TableEntry) CellString(key string) string {
	return valueString(e.Data[key])
}
