package galleon

import (
	"fmt"
)

// DataFrame is an ordered collection of equally long, uniquely named columns.
// A DataFrame is immutable: every operation returns a new frame that may
// share column data with its source.
type DataFrame struct {
	columns []Column
	index   map[string]int
	height  int
}

// ============================================================================
// Creation
// ============================================================================

// NewDataFrame creates a DataFrame from columns. All columns must have the
// same length and distinct names.
func NewDataFrame(columns ...Column) (*DataFrame, error) {
	df := &DataFrame{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := df.index[col.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, col.Name())
		}
		if i == 0 {
			df.height = col.Len()
		} else if col.Len() != df.height {
			return nil, fmt.Errorf("%w: column %s has %d rows, expected %d",
				ErrLengthMismatch, col.Name(), col.Len(), df.height)
		}
		df.index[col.Name()] = len(df.columns)
		df.columns = append(df.columns, col)
	}
	return df, nil
}

// mustDataFrame assembles columns already known to be consistent.
func mustDataFrame(columns []Column, height int) *DataFrame {
	df := &DataFrame{
		columns: columns,
		index:   make(map[string]int, len(columns)),
		height:  height,
	}
	for i, col := range columns {
		df.index[col.Name()] = i
	}
	return df
}

// ============================================================================
// Access
// ============================================================================

// Height returns the number of rows in the DataFrame.
func (df *DataFrame) Height() int {
	return df.height
}

// Width returns the number of columns in the DataFrame.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Shape returns (height, width).
func (df *DataFrame) Shape() (int, int) {
	return df.height, len(df.columns)
}

// Columns returns the columns in order.
func (df *DataFrame) Columns() []Column {
	return append([]Column{}, df.columns...)
}

// ColumnNames returns the names of all columns in order.
func (df *DataFrame) ColumnNames() []string {
	names := make([]string, len(df.columns))
	for i, col := range df.columns {
		names[i] = col.Name()
	}
	return names
}

// Column returns the i-th column, or nil if i is out of range.
func (df *DataFrame) Column(i int) Column {
	if i < 0 || i >= len(df.columns) {
		return nil
	}
	return df.columns[i]
}

// ColumnByName returns the named column, or nil if there is none.
func (df *DataFrame) ColumnByName(name string) Column {
	if i, ok := df.index[name]; ok {
		return df.columns[i]
	}
	return nil
}

// ColumnIndex returns the position of the named column.
func (df *DataFrame) ColumnIndex(name string) (int, bool) {
	i, ok := df.index[name]
	return i, ok
}

// HasColumn reports whether the frame has a column with the given name.
func (df *DataFrame) HasColumn(name string) bool {
	_, ok := df.index[name]
	return ok
}

// Schema returns the names and dtypes of the columns.
func (df *DataFrame) Schema() *Schema {
	dtypes := make([]DType, len(df.columns))
	for i, col := range df.columns {
		dtypes[i] = col.DType()
	}
	return &Schema{names: df.ColumnNames(), dtypes: dtypes}
}

// columnsByName resolves names to columns, failing on the first missing one.
func (df *DataFrame) columnsByName(names []string) ([]Column, error) {
	cols := make([]Column, len(names))
	for i, name := range names {
		col := df.ColumnByName(name)
		if col == nil {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
		cols[i] = col
	}
	return cols, nil
}

// Row returns the values of row i in column order, with nil for nulls.
func (df *DataFrame) Row(i int) []any {
	row := make([]any, len(df.columns))
	for j, col := range df.columns {
		row[j] = col.Get(i)
	}
	return row
}

// ============================================================================
// Selection
// ============================================================================

// Select returns a new DataFrame with only the named columns, in the given order.
func (df *DataFrame) Select(names ...string) (*DataFrame, error) {
	cols, err := df.columnsByName(names)
	if err != nil {
		return nil, err
	}
	return NewDataFrame(cols...)
}

// Drop returns a new DataFrame without the named columns.
// Names that are not present are ignored.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	drop := make(map[string]bool, len(names))
	for _, name := range names {
		drop[name] = true
	}
	cols := make([]Column, 0, len(df.columns))
	for _, col := range df.columns {
		if !drop[col.Name()] {
			cols = append(cols, col)
		}
	}
	return mustDataFrame(cols, df.height)
}

// Rename returns a new DataFrame with one column renamed.
func (df *DataFrame) Rename(oldName, newName string) (*DataFrame, error) {
	i, ok := df.index[oldName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, oldName)
	}
	cols := df.Columns()
	cols[i] = cols[i].Rename(newName)
	return NewDataFrame(cols...)
}

// WithColumn returns a new DataFrame with the column added, or replacing the
// column of the same name.
func (df *DataFrame) WithColumn(col Column) (*DataFrame, error) {
	cols := df.Columns()
	if i, ok := df.index[col.Name()]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return NewDataFrame(cols...)
}

// ============================================================================
// Row Selection
// ============================================================================

// Take gathers rows by position. Negative positions produce all-null rows.
func (df *DataFrame) Take(rows []int) *DataFrame {
	cols := make([]Column, len(df.columns))
	for i, col := range df.columns {
		cols[i] = col.Take(rows)
	}
	return mustDataFrame(cols, len(rows))
}

// Filter keeps the rows where mask is true.
func (df *DataFrame) Filter(mask []bool) (*DataFrame, error) {
	if len(mask) != df.height {
		return nil, fmt.Errorf("%w: mask has %d rows, frame has %d", ErrLengthMismatch, len(mask), df.height)
	}
	rows := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			rows = append(rows, i)
		}
	}
	return df.Take(rows), nil
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	return df.Slice(0, n)
}

// Tail returns the last n rows.
func (df *DataFrame) Tail(n int) *DataFrame {
	return df.Slice(df.height-n, df.height)
}

// Slice returns rows [start, end), clamped to the frame.
func (df *DataFrame) Slice(start, end int) *DataFrame {
	start = max(start, 0)
	end = min(end, df.height)
	return df.Take(seq(start, end))
}

// Equal reports whether two frames have the same column names, dtypes and
// values, using the grouping notion of equality (null equals null).
func (df *DataFrame) Equal(other *DataFrame) bool {
	if df.height != other.height || len(df.columns) != len(other.columns) {
		return false
	}
	for j, col := range df.columns {
		oc := other.columns[j]
		if col.Name() != oc.Name() || col.DType() != oc.DType() {
			return false
		}
		for i := 0; i < df.height; i++ {
			if !valuesEqual(col, i, oc, i) {
				return false
			}
		}
	}
	return true
}

// Release drops references held on Arrow memory by ArrowColumn columns.
func (df *DataFrame) Release() {
	for _, col := range df.columns {
		if ac, ok := col.(*ArrowColumn); ok {
			ac.Release()
		}
	}
}
