package workspace

import (
	"time"
)

// Workspace is the tenant boundary. It owns the agents' conversations and
// documents and carries the single outbound webhook URL that forwards user
// messages to the automation worker.
type Workspace struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Name       string    `json:"name"`
	WebhookURL string    `json:"webhook_url"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Workspace) TableName() string { return "workspaces" }

// Agent is a named conversational persona. Read-only reference data from the
// client's perspective.
type Agent struct {
	ID                string    `gorm:"primaryKey" json:"id"`
	Name              string    `json:"name"`
	Role              string    `json:"role"`
	Thumbnail         string    `json:"thumbnail"`
	SystemInstruction string    `json:"system_instruction"`
	WorkflowID        *string   `json:"workflow_id"` // external automation workflow
	CreatedAt         time.Time `json:"created_at"`
}

func (Agent) TableName() string { return "agents" }
