package content

import (
	"time"
)

// Content is one revision of a text document's markdown body. Rows are
// append-only per document; version strictly increases per insert.
type Content struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"index" json:"document_id"`
	WorkspaceID string    `gorm:"index" json:"workspace_id"`
	Content     string    `json:"content"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Content) TableName() string { return "contents" }
