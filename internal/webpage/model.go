package webpage

import (
	"time"
)

// WebpageEntry is one snapshot version of a webpage document. The automation
// worker writes new versions after crawling URL; the user only ever edits
// URL itself, which bumps the version and carries the crawled fields along.
type WebpageEntry struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	DocumentID  string    `gorm:"index" json:"document_id"`
	WorkspaceID string    `gorm:"index" json:"workspace_id"`
	URL         string    `json:"url"`
	Title       *string   `json:"title"`
	Thumbnail   *string   `json:"thumbnail"`
	Description *string   `json:"description"`
	Content     *string   `json:"content"`
	Links       []string  `gorm:"serializer:json" json:"links"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
}

func (WebpageEntry) TableName() string { return "webpages" }
