package tableentry

import (
	"agent-workspace/internal/document"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateCell checks a drafted value against its column's value type. Empty
// values always pass; a failed check does not block the commit, the value is
// written anyway and the failure reported back to the caller.
func ValidateCell(column *document.TableColumn, value string) error {
	if column == nil || value == "" {
		return nil
	}
	switch column.Type {
	case document.ColumnURL:
		return validate.Var(value, "url")
	case document.ColumnEmail:
		return validate.Var(value, "email")
	case document.ColumnNumber:
		return validate.Var(value, "numeric")
	case document.ColumnDate:
		return validate.Var(value, "datetime=2006-01-02")
	default:
		return nil
	}
}
