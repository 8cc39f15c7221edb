package document

import (
	"time"
)

// Document kinds
const (
	TypeText    = "text"
	TypeTable   = "table"
	TypeWebpage = "webpage"
)

// Document is a named content container attached to one or more agents. The
// actual content lives in the type-appropriate versioned table (contents,
// table_entries or webpages).
type Document struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	AgentIDs    []string     `gorm:"serializer:json" json:"agent_ids"`
	Type        string       `json:"type"`
	TableSchema *TableSchema `gorm:"serializer:json" json:"table_schema"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (Document) TableName() string { return "documents" }

// HasAgent reports whether the document is associated with the agent.
func (d *Document) HasAgent(agentID string) bool {
	for _, id := range d.AgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// Column value types
const (
	ColumnText     = "text"
	ColumnTextarea = "textarea"
	ColumnURL      = "url"
	ColumnNumber   = "number"
	ColumnDate     = "date"
	ColumnEmail    = "email"
)

type TableColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// TableSchema defines a table document's ordered columns plus the optional
// columns used to synthesize a human-readable row title.
type TableSchema struct {
	Columns      []TableColumn `json:"columns"`
	TitleColumns []string      `json:"title_columns,omitempty"`
}

// Column returns the schema column with the given key, or nil.
func (s *TableSchema) Column(key string) *TableColumn {
	for i := range s.Columns {
		if s.Columns[i].Key == key {
			return &s.Columns[i]
		}
	}
	return nil
}

// ContentTable returns the store table holding a document type's content
// rows.
func ContentTable(docType string) string {
	switch docType {
	case TypeTable:
		return "table_entries"
	case TypeWebpage:
		return "webpages"
	default:
		return "contents"
	}
}
