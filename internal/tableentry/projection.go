package tableentry

import (
	"sort"
)

// Reduce collapses revision rows into the visible table: the highest version
// per row_id, ordered by position.
func Reduce(entries []TableEntry) []TableEntry {
	latest := make(map[string]TableEntry, len(entries))
	for _, e := range entries {
		if cur, ok := latest[e.RowID]; !ok || e.Version > cur.Version {
			latest[e.RowID] = e
		}
	}

	rows := make([]TableEntry, 0, len(latest))
	for _, e := range latest {
		rows = append(rows, e)
	}
	sortRows(rows)
	return rows
}

// Apply folds one incoming revision into an already-reduced projection. A
// revision whose version does not exceed the row's current version is stale
// and leaves the projection untouched; the second return reports whether
// anything changed.
func Apply(rows []TableEntry, incoming TableEntry) ([]TableEntry, bool) {
	for i := range rows {
		if rows[i].RowID != incoming.RowID {
			continue
		}
		if incoming.Version <= rows[i].Version {
			return rows, false
		}
		out := make([]TableEntry, len(rows))
		copy(out, rows)
		out[i] = incoming
		sortRows(out)
		return out, true
	}

	out := make([]TableEntry, 0, len(rows)+1)
	out = append(out, rows...)
	out = append(out, incoming)
	sortRows(out)
	return out, true
}

// MaxPosition returns the highest position among the rows, 0 when empty.
func MaxPosition(rows []TableEntry) int {
	max := 0
	for _, r := range rows {
		if r.Position > max {
			max = r.Position
		}
	}
	return max
}

func sortRows(rows []TableEntry) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Position < rows[j].Position
	})
}
