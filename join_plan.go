package galleon

import (
	"fmt"
)

// RowIndexMap pairs source row positions with result row positions:
// source row Orig[i] lands at result row Join[i].
type RowIndexMap struct {
	Orig []int
	Join []int
}

// Len returns the number of mapped rows.
func (m RowIndexMap) Len() int {
	return len(m.Orig)
}

func (m *RowIndexMap) add(orig, join int) {
	m.Orig = append(m.Orig, orig)
	m.Join = append(m.Join, join)
}

// JoinMaps holds the row index maps a join result is assembled from.
// Left and Right have the same length and describe matched pairs;
// LeftOnly and RightOnly describe rows without a partner.
type JoinMaps struct {
	Left      RowIndexMap
	LeftOnly  RowIndexMap
	Right     RowIndexMap
	RightOnly RowIndexMap

	// Rows is the number of result rows.
	Rows int
}

func (m *JoinMaps) swap() {
	m.Left, m.Right = m.Right, m.Left
	m.LeftOnly, m.RightOnly = m.RightOnly, m.LeftOnly
}

// PlanJoin computes the row index maps of an inner, left, right or outer join
// without building the result table.
func PlanJoin(left, right *DataFrame, opts JoinOptions) (*JoinMaps, error) {
	switch opts.how {
	case InnerJoin, LeftJoin, RightJoin, OuterJoin:
	case SemiJoin, AntiJoin, CrossJoin:
		return nil, fmt.Errorf("%w: %s join has no index maps", ErrUnknownJoinKind, opts.how)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownJoinKind, int(opts.how))
	}
	p, err := newJoinPlanner(left, right, opts)
	if err != nil {
		return nil, err
	}
	return p.plan(opts.how)
}

// joinPlanner holds the resolved key columns of one join call and lazily
// builds the row group dicts it needs.
type joinPlanner struct {
	left, right         *DataFrame
	leftKeys, rightKeys []string
	leftCols, rightCols []Column

	leftDict, rightDict *RowGroupDict
}

func newJoinPlanner(left, right *DataFrame, opts JoinOptions) (*joinPlanner, error) {
	leftKeys, rightKeys, err := resolveJoinColumns(left, right, opts)
	if err != nil {
		return nil, err
	}
	leftCols, _ := left.columnsByName(leftKeys)
	rightCols, _ := right.columnsByName(rightKeys)
	// right and outer results backfill left key columns with right key values
	coalesce := opts.how == RightJoin || opts.how == OuterJoin
	for i := range leftCols {
		lt, rt := leftCols[i].DType(), rightCols[i].DType()
		if !keysCompatible(lt, rt) {
			return nil, fmt.Errorf("%w: %s (%s) and %s (%s)", ErrKeyMismatch,
				leftKeys[i], lt, rightKeys[i], rt)
		}
		if coalesce && !keysCoalesce(lt, rt) {
			return nil, fmt.Errorf("%w: %s join cannot hold %s (%s) and %s (%s) in one key column",
				ErrKeyMismatch, opts.how, leftKeys[i], lt, rightKeys[i], rt)
		}
	}
	return &joinPlanner{
		left:      left,
		right:     right,
		leftKeys:  leftKeys,
		rightKeys: rightKeys,
		leftCols:  leftCols,
		rightCols: rightCols,
	}, nil
}

func (p *joinPlanner) leftGroups() (*RowGroupDict, error) {
	if p.leftDict == nil {
		d, err := newRowGroupDict(p.left, p.leftKeys, p.leftCols)
		if err != nil {
			return nil, err
		}
		p.leftDict = d
	}
	return p.leftDict, nil
}

func (p *joinPlanner) rightGroups() (*RowGroupDict, error) {
	if p.rightDict == nil {
		d, err := newRowGroupDict(p.right, p.rightKeys, p.rightCols)
		if err != nil {
			return nil, err
		}
		p.rightDict = d
	}
	return p.rightDict, nil
}

// validate checks key uniqueness on the requested sides.
func (p *joinPlanner) validate(uniqueLeft, uniqueRight bool) error {
	if uniqueLeft {
		d, err := p.leftGroups()
		if err != nil {
			return err
		}
		if d.NumGroups() != p.left.Height() {
			return fmt.Errorf("%w: left keys %v have %d groups over %d rows",
				ErrNotUnique, p.leftKeys, d.NumGroups(), p.left.Height())
		}
	}
	if uniqueRight {
		d, err := p.rightGroups()
		if err != nil {
			return err
		}
		if d.NumGroups() != p.right.Height() {
			return fmt.Errorf("%w: right keys %v have %d groups over %d rows",
				ErrNotUnique, p.rightKeys, d.NumGroups(), p.right.Height())
		}
	}
	return nil
}

// plan builds the index maps for inner, left, right and outer joins.
// A right join probes the right rows against a dict over the left keys and
// swaps the roles back afterwards.
func (p *joinPlanner) plan(kind JoinType) (*JoinMaps, error) {
	if kind == RightJoin {
		d, err := p.leftGroups()
		if err != nil {
			return nil, err
		}
		maps := probeJoin(p.rightCols, p.right.Height(), d, true, false)
		maps.swap()
		return maps, nil
	}

	d, err := p.rightGroups()
	if err != nil {
		return nil, err
	}
	switch kind {
	case InnerJoin:
		return probeJoin(p.leftCols, p.left.Height(), d, false, false), nil
	case LeftJoin:
		return probeJoin(p.leftCols, p.left.Height(), d, true, false), nil
	case OuterJoin:
		return probeJoin(p.leftCols, p.left.Height(), d, true, true), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownJoinKind, kind)
	}
}

// probeJoin walks the n probe rows in order and looks each one up in the
// build side dict d. Matches are recorded in build order. keepUnmatched keeps
// probe rows without a match in place; appendUnmatched appends every build row
// whose group matched nothing after all probe-derived rows.
func probeJoin(probe []Column, n int, d *RowGroupDict, keepUnmatched, appendUnmatched bool) *JoinMaps {
	hashes := hashRows(probe)
	maps := &JoinMaps{
		Left:  RowIndexMap{Orig: make([]int, 0, n), Join: make([]int, 0, n)},
		Right: RowIndexMap{Orig: make([]int, 0, n), Join: make([]int, 0, n)},
	}

	var matched *BoolMask
	if appendUnmatched {
		matched = getBoolMask(d.NumGroups())
		defer matched.Release()
	}

	pos := 0
	for i := 0; i < n; i++ {
		g, ok := d.lookup(probe, i, hashes[i])
		if !ok {
			if keepUnmatched {
				maps.LeftOnly.add(i, pos)
				pos++
			}
			continue
		}
		for _, r := range d.GroupRows(g).rows() {
			maps.Left.add(i, pos)
			maps.Right.add(r, pos)
			pos++
		}
		if matched != nil {
			matched.Data[g] = true
		}
	}

	if matched != nil {
		for r, g := range d.groups {
			if !matched.Data[g] {
				maps.RightOnly.add(r, pos)
				pos++
			}
		}
	}

	maps.Rows = pos
	return maps
}

// filter returns the left rows that have (keep) or lack (!keep) a match on
// the right, each at most once, in left order.
func (p *joinPlanner) filter(keep bool) ([]int, error) {
	d, err := p.rightGroups()
	if err != nil {
		return nil, err
	}
	n := p.left.Height()
	hashes := hashRows(p.leftCols)
	rows := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if _, ok := d.lookup(p.leftCols, i, hashes[i]); ok == keep {
			rows = append(rows, i)
		}
	}
	return rows, nil
}
