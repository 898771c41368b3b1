package galleon

// Column is the capability set the grouping and join engine reads from a
// column. Implementations are immutable once built.
//
// Get returns nil for nulls and otherwise the natural Go value of the element:
// float64, float32, int64, int32, uint64, uint32, bool or string (categoricals
// return their category string). HashAt must return the same value for equal
// elements across every implementation, so rows of differently backed tables
// can be matched.
type Column interface {
	Name() string
	DType() DType
	Len() int
	IsNull(i int) bool
	Get(i int) any
	HashAt(i int) uint64

	// Take gathers the given positions into a new Series.
	// A negative index yields a null at that position.
	Take(indices []int) *Series

	// Rename returns the same data under another name.
	Rename(name string) Column
}

// ColumnValues materializes a column as a slice, with nil for nulls.
func ColumnValues(c Column) []any {
	out := make([]any, c.Len())
	for i := range out {
		out[i] = c.Get(i)
	}
	return out
}

// NullCount counts the nulls of any Column.
func NullCount(c Column) int {
	if s, ok := c.(*Series); ok {
		return s.NullCount()
	}
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}
