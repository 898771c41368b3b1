package galleon

import (
	"cmp"
	"fmt"
)

// GroupBy represents a groupby operation on a DataFrame.
// Groups are numbered in order of first appearance and every aggregate
// returns one row per group in that order, led by the key columns.
type GroupBy struct {
	df   *DataFrame
	dict *RowGroupDict
}

// GroupBy groups the rows of df by the given key columns. Naming a key
// column twice is an error.
func (df *DataFrame) GroupBy(columns ...string) (*GroupBy, error) {
	dict, err := BuildRowGroupDict(df, columns...)
	if err != nil {
		return nil, err
	}
	return &GroupBy{df: df, dict: dict}, nil
}

// NumGroups returns the number of groups.
func (g *GroupBy) NumGroups() int {
	return g.dict.NumGroups()
}

// Dict returns the underlying row group dict.
func (g *GroupBy) Dict() *RowGroupDict {
	return g.dict
}

// Group returns the rows of group i as a DataFrame.
func (g *GroupBy) Group(i int) *DataFrame {
	return g.df.Take(g.dict.GroupRows(i).rows())
}

// Keys returns one row per group holding its key values.
func (g *GroupBy) Keys() *DataFrame {
	rows := g.dict.firstRows()
	cols := make([]Column, len(g.dict.cols))
	for i, col := range g.dict.cols {
		cols[i] = col.Take(rows)
	}
	return mustDataFrame(cols, len(rows))
}

// withKeys prepends the key columns to per-group result columns.
func (g *GroupBy) withKeys(cols ...Column) (*DataFrame, error) {
	out := g.Keys().Columns()
	return NewDataFrame(append(out, cols...)...)
}

// Count returns the number of rows of every group in column "count".
func (g *GroupBy) Count() (*DataFrame, error) {
	counts := make([]int64, g.dict.NumGroups())
	for i := range counts {
		counts[i] = int64(g.dict.GroupRows(i).Len())
	}
	return g.withKeys(NewSeriesInt64("count", counts))
}

// First returns the first value of the column in each group, null included.
func (g *GroupBy) First(column string) (*DataFrame, error) {
	col := g.df.ColumnByName(column)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	return g.withKeys(col.Take(g.dict.firstRows()).WithName(column + "_first"))
}

// Sum adds up the non-null values of a numeric column per group.
// Integer columns sum to Int64, float columns to Float64.
func (g *GroupBy) Sum(column string) (*DataFrame, error) {
	col, err := g.numericColumn(column)
	if err != nil {
		return nil, err
	}

	ng := g.dict.NumGroups()
	if col.DType().IsInteger() {
		sums := make([]int64, ng)
		for i := range sums {
			for _, r := range g.dict.GroupRows(i).rows() {
				if neg, mag, ok := toInteger(col.Get(r)); ok {
					sums[i] += signed(neg, mag)
				}
			}
		}
		return g.withKeys(NewSeriesInt64(column+"_sum", sums))
	}

	sums := make([]float64, ng)
	for i := range sums {
		for _, r := range g.dict.GroupRows(i).rows() {
			if f, ok := toFloat(col.Get(r)); ok {
				sums[i] += f
			}
		}
	}
	return g.withKeys(NewSeriesFloat64(column+"_sum", sums))
}

// Mean averages the non-null values of a numeric column per group.
// A group without values gets a null mean.
func (g *GroupBy) Mean(column string) (*DataFrame, error) {
	col, err := g.numericColumn(column)
	if err != nil {
		return nil, err
	}

	ng := g.dict.NumGroups()
	means := make([]float64, ng)
	valid := make([]bool, ng)
	for i := range means {
		var sum float64
		var n int
		for _, r := range g.dict.GroupRows(i).rows() {
			if f, ok := toFloat(col.Get(r)); ok {
				sum += f
				n++
			}
		}
		if n > 0 {
			means[i] = sum / float64(n)
			valid[i] = true
		}
	}
	return g.withKeys(NewSeriesFloat64WithNulls(column+"_mean", means, valid))
}

// Min returns the smallest non-null value of the column per group.
func (g *GroupBy) Min(column string) (*DataFrame, error) {
	return g.extreme(column, "_min", -1)
}

// Max returns the largest non-null value of the column per group.
func (g *GroupBy) Max(column string) (*DataFrame, error) {
	return g.extreme(column, "_max", 1)
}

// extreme keeps, per group, the value v for which compareValues(v, best)
// has the sign of want. Categorical columns yield String results.
func (g *GroupBy) extreme(column, suffix string, want int) (*DataFrame, error) {
	col := g.df.ColumnByName(column)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	dtype := col.DType()
	if dtype == Categorical {
		dtype = String
	}

	b := newSeriesBuilder(column+suffix, dtype, g.dict.NumGroups())
	for i := 0; i < g.dict.NumGroups(); i++ {
		var best any
		for _, r := range g.dict.GroupRows(i).rows() {
			v := col.Get(r)
			if v == nil {
				continue
			}
			if best == nil || compareValues(v, best)*want > 0 {
				best = v
			}
		}
		if err := b.append(best); err != nil {
			return nil, fmt.Errorf("%s%s: %w", column, suffix, err)
		}
	}
	return g.withKeys(b.finish())
}

func (g *GroupBy) numericColumn(column string) (Column, error) {
	col := g.df.ColumnByName(column)
	if col == nil {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	if !col.DType().IsNumeric() {
		return nil, fmt.Errorf("%w: %s is %s, want a numeric column", ErrUnsupportedDType, column, col.DType())
	}
	return col, nil
}

// compareValues orders two present values of the same key class.
// NaN compares equal to everything so it never wins an extreme.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case string:
		return cmp.Compare(x, b.(string))
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case y:
			return -1
		default:
			return 1
		}
	case float64, float32:
		fx, _ := toFloat(x)
		fy, _ := toFloat(b)
		switch {
		case fx < fy:
			return -1
		case fx > fy:
			return 1
		default:
			return 0
		}
	}
	xn, xm, _ := toInteger(a)
	yn, ym, _ := toInteger(b)
	switch {
	case xn && !yn:
		return -1
	case !xn && yn:
		return 1
	case xn:
		return cmp.Compare(ym, xm)
	default:
		return cmp.Compare(xm, ym)
	}
}

// ============================================================================
// Row Deduplication
// ============================================================================

// Unique keeps the first row of every distinct combination of the given
// columns, in original order. Without columns all columns are used.
func (df *DataFrame) Unique(columns ...string) (*DataFrame, error) {
	if len(columns) == 0 {
		columns = df.ColumnNames()
	}
	dict, err := BuildRowGroupDict(df, columns...)
	if err != nil {
		return nil, err
	}
	return df.Take(dict.firstRows()), nil
}

// Duplicated marks every row whose values over the given columns already
// appeared in an earlier row. Without columns all columns are used.
func (df *DataFrame) Duplicated(columns ...string) ([]bool, error) {
	if len(columns) == 0 {
		columns = df.ColumnNames()
	}
	dict, err := BuildRowGroupDict(df, columns...)
	if err != nil {
		return nil, err
	}
	dup := make([]bool, df.Height())
	for i := range dup {
		dup[i] = dict.representative(dict.groups[i]) != i
	}
	return dup, nil
}
