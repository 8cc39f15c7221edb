package chat

import (
	"time"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one chat message. Rows are append-only; `id` is the sole
// de-duplication key when merging locally-known messages with streamed
// inserts.
type Message struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	WorkspaceID string    `gorm:"index" json:"workspace_id"`
	AgentID     string    `gorm:"index" json:"agent_id"`
	UserID      *string   `json:"user_id"`
	Content     string    `json:"content"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

// ReadStatus tracks when a user last read an agent's conversation. One row
// per (user, agent, workspace), insert-or-replace.
type ReadStatus struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	AgentID     string    `gorm:"primaryKey" json:"agent_id"`
	WorkspaceID string    `gorm:"primaryKey" json:"workspace_id"`
	LastReadAt  time.Time `json:"last_read_at"`
}

func (ReadStatus) TableName() string { return "message_read_status" }

// ReadStatusConflictColumns is the upsert key for ReadStatus rows.
var ReadStatusConflictColumns = []string{"user_id", "agent_id", "workspace_id"}
