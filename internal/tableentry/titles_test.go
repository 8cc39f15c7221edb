package tableentry

import (
	"agent-workspace/internal/document"
	"testing"

	"github.com/stretchr/testify/assert"
)

func contactSchema(titleColumns ...string) *document.TableSchema {
	return &document.TableSchema{
		Columns: []document.TableColumn{
			{Key: "name", Label: "Name", Type: document.ColumnText},
			{Key: "email", Label: "Email", Type: document.ColumnEmail},
			{Key: "company", Label: "Company", Type: document.ColumnText},
			{Key: "notes", Label: "Notes", Type: document.ColumnTextarea},
		},
		TitleColumns: titleColumns,
	}
}

func TestRowTitle_ConfiguredColumns(t *testing.T) {
	row := entry("e1", "r1", 1, 1, map[string]any{
		"name": "Ada", "company": "Analytical", "notes": "met at conf",
	})

	assert.Equal(t, "Ada Analytical", RowTitle(contactSchema("name", "company"), &row))
}

func TestRowTitle_ConfiguredColumnsSkipEmpty(t *testing.T) {
	row := entry("e1", "r1", 1, 1, map[string]any{
		"name": "", "company": "Analytical",
	})

	assert.Equal(t, "Analytical", RowTitle(contactSchema("name", "company"), &row))
}

func TestRowTitle_FallbackFirstThreeValues(t *testing.T) {
	row := entry("e1", "r1", 1, 1, map[string]any{
		"name": "Ada", "email": "ada@example.com", "company": "Analytical", "notes": "met at conf",
	})

	// No configured title columns: first three non-empty values in schema order
	assert.Equal(t, "Ada ada@example.com Analytical", RowTitle(contactSchema(), &row))
}

func TestRowTitle_FallbackWhenConfiguredAllEmpty(t *testing.T) {
	row := entry("e1", "r1", 1, 1, map[string]any{
		"name": "", "email": "ada@example.com",
	})

	assert.Equal(t, "ada@example.com", RowTitle(contactSchema("name"), &row))
}

func TestRowTitle_Placeholder(t *testing.T) {
	row := entry("e1", "r1", 1, 1, map[string]any{"name": "", "notes": "  "})

	assert.Equal(t, UntitledRow, RowTitle(contactSchema(), &row))
	assert.Equal(t, UntitledRow, RowTitle(nil, &row))
}

func TestRowTitle_NumericValues(t *testing.T) {
	schema := &document.TableSchema{
		Columns: []document.TableColumn{
			{Key: "amount", Label: "Amount", Type: document.ColumnNumber},
		},
	}
	row := entry("e1", "r1", 1, 1, map[string]any{"amount": 42.0})

	assert.Equal(t, "42", RowTitle(schema, &row))
}
