package tableentry

import (
	"fmt"
	"strconv"
	"strings"

	"agent-workspace/internal/document"
)

// UntitledRow is shown for rows with no usable title values.
const UntitledRow = "Untitled"

// RowTitle synthesizes the card title of a row. Configured title columns win
// when any of them holds a value; otherwise the first up to three non-empty
// values in schema order; otherwise a fixed placeholder.
func RowTitle(schema *document.TableSchema, row *TableEntry) string {
	if schema == nil {
		return UntitledRow
	}

	var parts []string
	for _, key := range schema.TitleColumns {
		if v := strings.TrimSpace(row.CellString(key)); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	for _, col := range schema.Columns {
		if v := strings.TrimSpace(row.CellString(col.Key)); v != "" {
			parts = append(parts, v)
			if len(parts) == 3 {
				break
			}
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return UntitledRow
}

// valueString renders a cell value the way it is edited: numbers without an
// exponent, nil as empty.
func valueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
