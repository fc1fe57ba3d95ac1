package model

// Column describes one result column: its name as returned by the engine and the
// storage type the engine declared for it (empty when the driver gave none).
type Column struct {
	Name     string `json:"name"`
	TypeName string `json:"type,omitempty"`
}

// ResultSet is the materialized output of one governed query execution. Once
// produced it is immutable and shared read-only by the classifier, the chart
// selector, and the insight engine. Every row has the same arity as Columns.
type ResultSet struct {
	Columns   []Column `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Truncated bool     `json:"truncated"`         // Row cap was hit; there may be more rows
	ElapsedMS int64    `json:"elapsed_ms"`        // Wall-clock execution time
	Query     string   `json:"query,omitempty"`   // Normalized statement that produced this
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (rs *ResultSet) ColumnIndex(name string) int {
	for i, c := range rs.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnValues returns all values of the column at idx, in row order.
func (rs *ResultSet) ColumnValues(idx int) []any {
	vals := make([]any, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if idx < len(row) {
			vals = append(vals, row[idx])
		}
	}
	return vals
}

// Empty reports whether the result has no rows.
func (rs *ResultSet) Empty() bool {
	return len(rs.Rows) == 0
}
