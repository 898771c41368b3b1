package galleon

import (
	"fmt"
	"strings"
)

// JoinType represents the type of join operation
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	OuterJoin
	SemiJoin
	AntiJoin
	CrossJoin
)

func (t JoinType) String() string {
	switch t {
	case InnerJoin:
		return "inner"
	case LeftJoin:
		return "left"
	case RightJoin:
		return "right"
	case OuterJoin:
		return "outer"
	case SemiJoin:
		return "semi"
	case AntiJoin:
		return "anti"
	case CrossJoin:
		return "cross"
	default:
		return fmt.Sprintf("JoinType(%d)", int(t))
	}
}

func (t JoinType) valid() bool {
	return t >= InnerJoin && t <= CrossJoin
}

// ParseJoinType parses a join kind name. "full" is accepted for outer.
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inner":
		return InnerJoin, nil
	case "left":
		return LeftJoin, nil
	case "right":
		return RightJoin, nil
	case "outer", "full":
		return OuterJoin, nil
	case "semi":
		return SemiJoin, nil
	case "anti":
		return AntiJoin, nil
	case "cross":
		return CrossJoin, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownJoinKind, s)
	}
}

// JoinOptions configures join behavior
type JoinOptions struct {
	on        []string // Columns to join on (same name in both DataFrames)
	leftOn    []string // Left DataFrame join columns
	rightOn   []string // Right DataFrame join columns
	suffix    string   // Suffix for duplicate column names (default: _1, _2, ...)
	how       JoinType // Join type (default InnerJoin)
	indicator string   // Name of the match indicator column, empty for none

	uniqueLeft  bool
	uniqueRight bool
}

// On creates join options for joining on columns with the same name
func On(columns ...string) JoinOptions {
	return JoinOptions{on: columns}
}

// LeftOn creates join options with different column names for left and right
func LeftOn(columns ...string) JoinOptions {
	return JoinOptions{leftOn: columns}
}

// RightOn specifies right DataFrame columns for the join
func (o JoinOptions) RightOn(columns ...string) JoinOptions {
	o.rightOn = columns
	return o
}

// WithSuffix sets the suffix for duplicate column names
func (o JoinOptions) WithSuffix(suffix string) JoinOptions {
	o.suffix = suffix
	return o
}

// How sets the join kind used by Join.
func (o JoinOptions) How(kind JoinType) JoinOptions {
	o.how = kind
	return o
}

// WithIndicator adds a categorical column with the given name telling, per
// result row, whether it came from "left_only", "right_only" or "both".
// Only inner, left, right and outer joins produce it.
func (o JoinOptions) WithIndicator(name string) JoinOptions {
	o.indicator = name
	return o
}

// Validate makes the join fail with ErrNotUnique unless the keys are unique
// in the left and/or right table.
func (o JoinOptions) Validate(uniqueLeft, uniqueRight bool) JoinOptions {
	o.uniqueLeft = uniqueLeft
	o.uniqueRight = uniqueRight
	return o
}

// Kind returns the configured join kind.
func (o JoinOptions) Kind() JoinType {
	return o.how
}

// Join performs an inner join with another DataFrame
func (df *DataFrame) Join(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(InnerJoin))
}

// LeftJoin performs a left join with another DataFrame
func (df *DataFrame) LeftJoin(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(LeftJoin))
}

// RightJoin performs a right join with another DataFrame
func (df *DataFrame) RightJoin(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(RightJoin))
}

// OuterJoin performs a full outer join with another DataFrame
func (df *DataFrame) OuterJoin(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(OuterJoin))
}

// SemiJoin keeps the rows of df that have a match in other.
func (df *DataFrame) SemiJoin(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(SemiJoin))
}

// AntiJoin keeps the rows of df that have no match in other.
func (df *DataFrame) AntiJoin(other *DataFrame, opts JoinOptions) (*DataFrame, error) {
	return Join(df, other, opts.How(AntiJoin))
}

// CrossJoin performs a cross join (cartesian product) with another DataFrame
func (df *DataFrame) CrossJoin(other *DataFrame) (*DataFrame, error) {
	return Join(df, other, JoinOptions{how: CrossJoin})
}

// Join combines left and right according to opts. The inputs are not modified.
//
// Rows that come from the left table keep their left order. Within one left
// row, matches follow right table order. Right-only rows of an outer join
// follow all left-derived rows in right order; a right join is the mirror of a
// left join and follows right table order.
func Join(left, right *DataFrame, opts JoinOptions) (*DataFrame, error) {
	if !opts.how.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownJoinKind, int(opts.how))
	}
	if opts.how == CrossJoin {
		if len(opts.on) > 0 || len(opts.leftOn) > 0 || len(opts.rightOn) > 0 {
			return nil, ErrCrossJoinKeys
		}
		return crossJoin(left, right, opts.suffix), nil
	}

	p, err := newJoinPlanner(left, right, opts)
	if err != nil {
		return nil, err
	}
	if err := p.validate(opts.uniqueLeft, opts.uniqueRight); err != nil {
		return nil, err
	}
	return p.execute(opts)
}

// execute runs a keyed join whose inputs are already resolved and validated.
func (p *joinPlanner) execute(opts JoinOptions) (*DataFrame, error) {
	log := logger()
	log.Debug("join started",
		"how", opts.how.String(),
		"left_keys", p.leftKeys,
		"right_keys", p.rightKeys,
		"left_rows", p.left.Height(),
		"right_rows", p.right.Height(),
	)

	switch opts.how {
	case SemiJoin, AntiJoin:
		rows, err := p.filter(opts.how == SemiJoin)
		if err != nil {
			return nil, err
		}
		log.Debug("join finished", "how", opts.how.String(), "rows", len(rows))
		return p.left.Take(rows), nil
	}

	maps, err := p.plan(opts.how)
	if err != nil {
		return nil, err
	}
	result, err := compose(p, maps, opts)
	if err != nil {
		return nil, err
	}
	log.Debug("join finished",
		"how", opts.how.String(),
		"rows", result.Height(),
		"matched", maps.Left.Len(),
		"left_only", maps.LeftOnly.Len(),
		"right_only", maps.RightOnly.Len(),
	)
	return result, nil
}

func resolveJoinColumns(left, right *DataFrame, opts JoinOptions) ([]string, []string, error) {
	var leftCols, rightCols []string

	switch {
	case len(opts.on) > 0:
		if len(opts.leftOn) > 0 || len(opts.rightOn) > 0 {
			return nil, nil, fmt.Errorf("%w: On cannot be combined with LeftOn/RightOn", ErrKeyMismatch)
		}
		leftCols = opts.on
		rightCols = opts.on
	case len(opts.leftOn) > 0 || len(opts.rightOn) > 0:
		if len(opts.leftOn) != len(opts.rightOn) {
			return nil, nil, fmt.Errorf("%w: %d left keys and %d right keys",
				ErrKeyMismatch, len(opts.leftOn), len(opts.rightOn))
		}
		leftCols = opts.leftOn
		rightCols = opts.rightOn
	default:
		return nil, nil, fmt.Errorf("%w: %s join", ErrMissingJoinKeys, opts.how)
	}

	for _, col := range leftCols {
		if !left.HasColumn(col) {
			return nil, nil, fmt.Errorf("%w: '%s' in left DataFrame", ErrColumnNotFound, col)
		}
	}
	for _, col := range rightCols {
		if !right.HasColumn(col) {
			return nil, nil, fmt.Errorf("%w: '%s' in right DataFrame", ErrColumnNotFound, col)
		}
	}

	return leftCols, rightCols, nil
}
