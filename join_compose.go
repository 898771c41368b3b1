package galleon

import (
	"fmt"
)

// Indicator column categories, in code order.
var indicatorCategories = []string{"left_only", "right_only", "both"}

// compose assembles the join result from the index maps: left columns
// gathered by result row, then the right non-key columns, then the optional
// indicator. Rows without a source on one side are null on that side, except
// for the key columns, which fall back to the right key values.
func compose(p *joinPlanner, maps *JoinMaps, opts JoinOptions) (*DataFrame, error) {
	n := maps.Rows

	lidx := getIntSlice(n, -1)
	defer lidx.Release()
	scatter(lidx.Data, maps.Left)
	scatter(lidx.Data, maps.LeftOnly)

	ridx := getIntSlice(n, -1)
	defer ridx.Release()
	scatter(ridx.Data, maps.Right)
	scatter(ridx.Data, maps.RightOnly)

	leftKeyAt := make(map[string]int, len(p.leftKeys))
	for k, name := range p.leftKeys {
		leftKeyAt[name] = k
	}
	rightKey := make(map[string]bool, len(p.rightKeys))
	for _, name := range p.rightKeys {
		rightKey[name] = true
	}
	backfill := maps.RightOnly.Len() > 0

	out := make([]Column, 0, p.left.Width()+p.right.Width()+1)
	taken := make(map[string]bool, cap(out))

	for _, col := range p.left.columns {
		var c Column
		if k, isKey := leftKeyAt[col.Name()]; isKey && backfill {
			s, err := coalesceKey(col, p.rightCols[k], lidx.Data, ridx.Data)
			if err != nil {
				return nil, err
			}
			c = s
		} else {
			c = col.Take(lidx.Data)
		}
		out = append(out, c)
		taken[col.Name()] = true
	}

	for _, col := range p.right.columns {
		if rightKey[col.Name()] {
			continue
		}
		name := uniqueName(col.Name(), taken, opts.suffix)
		out = append(out, col.Take(ridx.Data).WithName(name))
		taken[name] = true
	}

	if opts.indicator != "" {
		name := uniqueName(opts.indicator, taken, opts.suffix)
		out = append(out, indicatorColumn(name, lidx.Data, ridx.Data))
	}

	return mustDataFrame(out, n), nil
}

// scatter writes m's source rows at their result positions.
func scatter(dst []int, m RowIndexMap) {
	for i, j := range m.Join {
		dst[j] = m.Orig[i]
	}
}

// coalesceKey gathers a left key column, taking the right key value wherever
// the row has no left source. Differing dtypes are widened to the promoted
// key dtype.
func coalesceKey(l, r Column, lidx, ridx []int) (*Series, error) {
	dtype := promoteKeyDType(l.DType(), r.DType())
	b := newSeriesBuilder(l.Name(), dtype, len(lidx))
	for i := range lidx {
		var v any
		switch {
		case lidx[i] >= 0:
			v = l.Get(lidx[i])
		case ridx[i] >= 0:
			v = r.Get(ridx[i])
		}
		if err := b.append(v); err != nil {
			return nil, fmt.Errorf("key %s as %s: %w", l.Name(), dtype, err)
		}
	}
	return b.finish(), nil
}

func indicatorColumn(name string, lidx, ridx []int) *Series {
	codes := make([]int32, len(lidx))
	for i := range lidx {
		switch {
		case lidx[i] >= 0 && ridx[i] >= 0:
			codes[i] = 2
		case lidx[i] >= 0:
			codes[i] = 0
		default:
			codes[i] = 1
		}
	}
	return newCategorical(name, append([]string{}, indicatorCategories...), codes, nil)
}

// uniqueName returns name if it is free. Otherwise it tries name+suffix when
// a suffix is set, then name_1, name_2, ... until a free name is found.
func uniqueName(name string, taken map[string]bool, suffix string) string {
	if !taken[name] {
		return name
	}
	if suffix != "" && !taken[name+suffix] {
		return name + suffix
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s_%d", name, k)
		if !taken[candidate] {
			return candidate
		}
	}
}

// crossJoin builds the cartesian product: each left row repeated once per
// right row, contiguously, against the whole right table.
func crossJoin(left, right *DataFrame, suffix string) *DataFrame {
	nl, nr := left.Height(), right.Height()
	n := nl * nr
	lidx := make([]int, n)
	ridx := make([]int, n)
	for i := 0; i < nl; i++ {
		for j := 0; j < nr; j++ {
			lidx[i*nr+j] = i
			ridx[i*nr+j] = j
		}
	}

	out := make([]Column, 0, left.Width()+right.Width())
	taken := make(map[string]bool, cap(out))
	for _, col := range left.columns {
		out = append(out, col.Take(lidx))
		taken[col.Name()] = true
	}
	for _, col := range right.columns {
		name := uniqueName(col.Name(), taken, suffix)
		out = append(out, col.Take(ridx).WithName(name))
		taken[name] = true
	}

	logger().Debug("cross join finished", "left_rows", nl, "right_rows", nr, "rows", n)
	return mustDataFrame(out, n)
}
