package db

import (
	"agent-workspace/internal/chat"
	"agent-workspace/internal/content"
	"agent-workspace/internal/document"
	"agent-workspace/internal/tableentry"
	"agent-workspace/internal/webpage"
	"agent-workspace/internal/workspace"
	"log"

	"github.com/google/uuid"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&workspace.Workspace{},
		&workspace.Agent{},
		&chat.Message{},
		&chat.ReadStatus{},
		&document.Document{},
		&content.Content{},
		&tableentry.TableEntry{},
		&webpage.WebpageEntry{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

// SeedData seeds the database with initial data (for development only)
func SeedData() {
	var count int64
	AppDb.Model(&workspace.Workspace{}).Count(&count)
	if count > 0 {
		log.Println("Demo workspace already exists")
		return
	}

	ws := workspace.Workspace{
		ID:         uuid.NewString(),
		Name:       "Demo Workspace",
		WebhookURL: "https://hooks.example.com/agent-inbox",
	}
	agent := workspace.Agent{
		ID:   uuid.NewString(),
		Name: "Research Assistant",
		Role: "Collects and summarizes sources",
	}

	notes := document.Document{
		ID:       uuid.NewString(),
		Name:     "Research Notes",
		AgentIDs: []string{agent.ID},
		Type:     document.TypeText,
	}
	contacts := document.Document{
		ID:       uuid.NewString(),
		Name:     "Contact List",
		AgentIDs: []string{agent.ID},
		Type:     document.TypeTable,
		TableSchema: &document.TableSchema{
			Columns: []document.TableColumn{
				{Key: "name", Label: "Name", Type: document.ColumnText},
				{Key: "email", Label: "Email", Type: document.ColumnEmail},
				{Key: "website", Label: "Website", Type: document.ColumnURL},
				{Key: "notes", Label: "Notes", Type: document.ColumnTextarea},
			},
			TitleColumns: []string{"name"},
		},
	}
	source := document.Document{
		ID:       uuid.NewString(),
		Name:     "Source Page",
		AgentIDs: []string{agent.ID},
		Type:     document.TypeWebpage,
	}

	for _, record := range []any{&ws, &agent, &notes, &contacts, &source} {
		if err := AppDb.Create(record).Error; err != nil {
			log.Printf("Error seeding demo data: %v", err)
			return
		}
	}
	log.Printf("Created demo workspace: %s", ws.ID)
}
