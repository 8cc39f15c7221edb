package tableentry

import (
	"agent-workspace/internal/document"
)

// Editor states
const (
	EditIdle   = "idle"
	EditActive = "editing"
	EditSaving = "saving"
)

// CellRef addresses one cell of the projected table.
type CellRef struct {
	RowID     string `json:"row_id"`
	ColumnKey string `json:"column_key"`
}

// editor tracks the single in-flight cell edit. All fields are guarded by
// the owning synchronizer's lock.
type editor struct {
	state      string
	cell       CellRef
	draft      string
	original   string
	navigating bool
}

func newEditor() editor {
	return editor{state: EditIdle}
}

func (e *editor) start(cell CellRef, value string) {
	e.state = EditActive
	e.cell = cell
	e.draft = value
	e.original = value
}

func (e *editor) reset() {
	e.state = EditIdle
	e.cell = CellRef{}
	e.draft = ""
	e.original = ""
	e.navigating = false
}

func (e *editor) dirty() bool {
	return e.draft != e.original
}

// adjacentCell returns the next editable cell in row-major order (or the
// previous one when backward), and false at the table's edge. Navigation
// never wraps around.
func adjacentCell(rows []TableEntry, columns []document.TableColumn, from CellRef, backward bool) (CellRef, bool) {
	rowIdx, colIdx := -1, -1
	for i := range rows {
		if rows[i].RowID == from.RowID {
			rowIdx = i
			break
		}
	}
	for i := range columns {
		if columns[i].Key == from.ColumnKey {
			colIdx = i
			break
		}
	}
	if rowIdx < 0 || colIdx < 0 {
		return CellRef{}, false
	}

	if backward {
		colIdx--
		if colIdx < 0 {
			rowIdx--
			colIdx = len(columns) - 1
		}
	} else {
		colIdx++
		if colIdx >= len(columns) {
			rowIdx++
			colIdx = 0
		}
	}
	if rowIdx < 0 || rowIdx >= len(rows) {
		return CellRef{}, false
	}
	return CellRef{RowID: rows[rowIdx].RowID, ColumnKey: columns[colIdx].Key}, true
}
