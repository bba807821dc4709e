// Package types contains shared types used across the catalog clients and the
// finder to avoid import cycles.
package types

import (
	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/starsift/internal/coord"
)

// Row maps column name to raw cell text, in the column order of the service.
type Row = *orderedmap.OrderedMap[string, string]

// Table is one catalog's result from a region query.
type Table struct {
	Name    string   // catalog designation, e.g. "I/350/gaiaedr3"
	Columns []string // column names in service order
	Units   []string // units row, aligned with Columns (may be empty strings)
	Rows    []Row
}

// NewRow builds a Row from parallel column and value slices. Missing values
// are stored as empty strings; surplus values are dropped.
func NewRow(columns, values []string) Row {
	row := orderedmap.NewOrderedMap[string, string]()
	for i, col := range columns {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		row.Set(col, v)
	}
	return row
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cell returns the raw value of column col in row, or "" when absent.
func Cell(row Row, col string) string {
	if row == nil {
		return ""
	}
	v, _ := row.Get(col)
	return v
}

// RegionQuery describes a cone search against one or more catalogs.
// Settings travel with the request; the client holds no query state.
type RegionQuery struct {
	Center    coord.Coordinate
	RadiusDeg float64
	Catalogs  []string
	RowLimit  int      // -1 for unlimited
	Columns   []string // output columns for the first catalog; empty for service defaults
}

// ObjectInfo is the resolved identity of a single SIMBAD object.
type ObjectInfo struct {
	MainID string
	RA     float64 // degrees
	Dec    float64 // degrees
}
