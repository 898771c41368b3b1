package galleon

import (
	"fmt"
)

// RowGroupDict partitions the rows of a table into groups of equal key values.
//
// Rows are hashed over the key columns and placed in an open-addressing slot
// table with linear probing. A slot holds the representative row of a group
// (stored as row+1, 0 meaning empty). Rows whose hash and key values equal a
// representative join its group. Once built, rperm lists the rows ordered by
// group, and group g occupies rperm[starts[g]:stops[g]] in original row order.
//
// A RowGroupDict is immutable and safe for concurrent lookups.
type RowGroupDict struct {
	df       *DataFrame
	keyNames []string
	cols     []Column

	ngroups int
	rhashes []uint64
	slots   []int
	mask    uint64
	groups  []int

	rperm  []int
	starts []int
	stops  []int
}

// BuildRowGroupDict groups the rows of df by the named key columns.
func BuildRowGroupDict(df *DataFrame, keys ...string) (*RowGroupDict, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("%w: grouping needs at least one key column", ErrMissingJoinKeys)
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return nil, fmt.Errorf("%w: key %s named twice", ErrDuplicateColumn, k)
		}
		seen[k] = true
	}
	cols, err := df.columnsByName(keys)
	if err != nil {
		return nil, err
	}
	d, err := newRowGroupDict(df, keys, cols)
	if err != nil {
		return nil, err
	}
	logger().Debug("row groups built", "keys", keys, "rows", df.Height(), "groups", d.ngroups)
	return d, nil
}

func newRowGroupDict(df *DataFrame, keys []string, cols []Column) (*RowGroupDict, error) {
	n := df.Height()
	size := max(16, nextPowerOf2(n))
	d := &RowGroupDict{
		df:       df,
		keyNames: append([]string{}, keys...),
		cols:     cols,
		rhashes:  hashRows(cols),
		slots:    make([]int, size),
		mask:     uint64(size - 1),
		groups:   make([]int, n),
	}
	if err := d.classify(); err != nil {
		return nil, err
	}
	d.permute()
	return d, nil
}

// classify assigns a group id to every row.
func (d *RowGroupDict) classify() error {
	size := len(d.slots)
	for i, h := range d.rhashes {
		slot := h & d.mask
		probes := 0
		for {
			r := d.slots[slot]
			if r == 0 {
				d.slots[slot] = i + 1
				d.groups[i] = d.ngroups
				d.ngroups++
				break
			}
			r--
			if d.rhashes[r] == h && rowsEqual(d.cols, i, d.cols, r) {
				d.groups[i] = d.groups[r]
				break
			}
			slot = (slot + 1) & d.mask
			probes++
			if probes >= size {
				return fmt.Errorf("%w: row %d after %d probes", ErrProbeOverflow, i, probes)
			}
		}
	}
	return nil
}

// permute derives starts, stops and rperm from the group ids.
func (d *RowGroupDict) permute() {
	d.starts = make([]int, d.ngroups)
	d.stops = make([]int, d.ngroups)
	for _, g := range d.groups {
		d.stops[g]++
	}
	pos := 0
	for g := range d.stops {
		d.starts[g] = pos
		pos += d.stops[g]
		d.stops[g] = d.starts[g]
	}
	// stops doubles as the placement cursor and ends at the group's end
	d.rperm = make([]int, len(d.groups))
	for i, g := range d.groups {
		d.rperm[d.stops[g]] = i
		d.stops[g]++
	}
}

// lookup probes the slot table for row of the foreign key columns cols, which
// must line up with the dict's key columns. Probing stops at an empty slot or
// after visiting every slot once.
func (d *RowGroupDict) lookup(cols []Column, row int, h uint64) (int, bool) {
	slot := h & d.mask
	for range len(d.slots) {
		r := d.slots[slot]
		if r == 0 {
			return -1, false
		}
		r--
		if d.rhashes[r] == h && rowsEqual(cols, row, d.cols, r) {
			return d.groups[r], true
		}
		slot = (slot + 1) & d.mask
	}
	return -1, false
}

// NumGroups returns the number of distinct key combinations.
func (d *RowGroupDict) NumGroups() int {
	return d.ngroups
}

// Len returns the number of rows of the grouped table.
func (d *RowGroupDict) Len() int {
	return len(d.groups)
}

// KeyNames returns the key column names the dict was built over.
func (d *RowGroupDict) KeyNames() []string {
	return append([]string{}, d.keyNames...)
}

// Source returns the grouped table.
func (d *RowGroupDict) Source() *DataFrame {
	return d.df
}

// GroupIDs returns the group id of every row.
func (d *RowGroupDict) GroupIDs() []int {
	return append([]int{}, d.groups...)
}

// GroupRows returns the rows of group g in original order. The slice is empty
// when g is out of range.
func (d *RowGroupDict) GroupRows(g int) RowSlice {
	if g < 0 || g >= d.ngroups {
		return RowSlice{group: -1}
	}
	return RowSlice{perm: d.rperm, group: g, start: d.starts[g], stop: d.stops[g]}
}

// FirstRow returns the earliest row of group g, which is also its
// representative. ok is false when g is out of range.
func (d *RowGroupDict) FirstRow(g int) (row int, ok bool) {
	if g < 0 || g >= d.ngroups {
		return -1, false
	}
	return d.representative(g), true
}

func (d *RowGroupDict) representative(g int) int {
	return d.rperm[d.starts[g]]
}

// firstRows returns the representative row of every group.
func (d *RowGroupDict) firstRows() []int {
	rows := make([]int, d.ngroups)
	for g := range rows {
		rows[g] = d.representative(g)
	}
	return rows
}

// FindGroup looks up row of the foreign table by content and returns the
// matching group id. The foreign table must have columns named like the
// dict's keys. Looking up the dict's own table returns the row's group directly.
func (d *RowGroupDict) FindGroup(foreign *DataFrame, row int) (int, bool) {
	if foreign == d.df {
		if row < 0 || row >= len(d.groups) {
			return -1, false
		}
		return d.groups[row], true
	}
	cols, err := foreign.columnsByName(d.keyNames)
	if err != nil || row < 0 || row >= foreign.Height() {
		return -1, false
	}
	return d.lookup(cols, row, hashRow(cols, row))
}

// MatchingRows returns the rows sharing the key values of the foreign row.
// The slice is empty and ok is false when no group matches.
func (d *RowGroupDict) MatchingRows(foreign *DataFrame, row int) (RowSlice, bool) {
	g, ok := d.FindGroup(foreign, row)
	if !ok {
		return RowSlice{group: -1}, false
	}
	return d.GroupRows(g), true
}

// GroupOf is FindGroup for callers that treat a miss as an error.
func (d *RowGroupDict) GroupOf(foreign *DataFrame, row int) (int, error) {
	g, ok := d.FindGroup(foreign, row)
	if !ok {
		return -1, fmt.Errorf("%w: row %d over %v", ErrKeyNotFound, row, d.keyNames)
	}
	return g, nil
}

// RowSlice is a view of one group's rows inside a RowGroupDict permutation.
type RowSlice struct {
	perm        []int
	group       int
	start, stop int
}

// Len returns the number of rows in the slice.
func (s RowSlice) Len() int { return s.stop - s.start }

// At returns the i-th row position.
func (s RowSlice) At(i int) int { return s.perm[s.start+i] }

// Group returns the group id, or -1 for an empty lookup result.
func (s RowSlice) Group() int { return s.group }

// Rows copies the row positions out.
func (s RowSlice) Rows() []int {
	if s.Len() == 0 {
		return []int{}
	}
	return append([]int{}, s.perm[s.start:s.stop]...)
}

// rows exposes the backing positions without copying.
func (s RowSlice) rows() []int {
	if s.Len() == 0 {
		return nil
	}
	return s.perm[s.start:s.stop]
}
