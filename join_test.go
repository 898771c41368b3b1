package galleon

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// rowsOf materializes every row of df for comparison.
func rowsOf(df *DataFrame) [][]any {
	rows := make([][]any, df.Height())
	for i := range rows {
		rows[i] = df.Row(i)
	}
	return rows
}

func assertRows(t *testing.T, df *DataFrame, want [][]any) {
	t.Helper()
	got := rowsOf(df)
	if len(got) != len(want) {
		t.Fatalf("expected %d rows, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Errorf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func assertColumns(t *testing.T, df *DataFrame, want ...string) {
	t.Helper()
	if got := df.ColumnNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected columns %v, got %v", want, got)
	}
}

func peopleAndJobs(t *testing.T) (*DataFrame, *DataFrame) {
	t.Helper()
	left, err := NewDataFrame(
		NewSeriesInt64("ID", []int64{1, 2, 3}),
		NewSeriesString("Name", []string{"J", "A", "B"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	right, err := NewDataFrame(
		NewSeriesInt64("ID", []int64{1, 2, 4}),
		NewSeriesString("Job", []string{"Lawyer", "Doctor", "Farmer"}),
	)
	if err != nil {
		t.Fatal(err)
	}
	return left, right
}

func TestJoinScenarioInner(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := Join(left, right, On("ID"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertColumns(t, result, "ID", "Name", "Job")
	assertRows(t, result, [][]any{
		{int64(1), "J", "Lawyer"},
		{int64(2), "A", "Doctor"},
	})
}

func TestJoinScenarioLeft(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.LeftJoin(right, On("ID"))
	if err != nil {
		t.Fatalf("failed to left join: %v", err)
	}
	assertRows(t, result, [][]any{
		{int64(1), "J", "Lawyer"},
		{int64(2), "A", "Doctor"},
		{int64(3), "B", nil},
	})
}

func TestJoinScenarioRight(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.RightJoin(right, On("ID"))
	if err != nil {
		t.Fatalf("failed to right join: %v", err)
	}
	assertColumns(t, result, "ID", "Name", "Job")
	assertRows(t, result, [][]any{
		{int64(1), "J", "Lawyer"},
		{int64(2), "A", "Doctor"},
		{int64(4), nil, "Farmer"},
	})
}

func TestJoinScenarioOuter(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.OuterJoin(right, On("ID"))
	if err != nil {
		t.Fatalf("failed to outer join: %v", err)
	}
	assertRows(t, result, [][]any{
		{int64(1), "J", "Lawyer"},
		{int64(2), "A", "Doctor"},
		{int64(3), "B", nil},
		{int64(4), nil, "Farmer"},
	})
	if dt := result.ColumnByName("ID").DType(); dt != Int64 {
		t.Errorf("expected Int64 key column, got %s", dt)
	}
}

func TestJoinScenarioSemi(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.SemiJoin(right, On("ID"))
	if err != nil {
		t.Fatalf("failed to semi join: %v", err)
	}
	assertColumns(t, result, "ID", "Name")
	assertRows(t, result, [][]any{
		{int64(1), "J"},
		{int64(2), "A"},
	})
}

func TestJoinScenarioCross(t *testing.T) {
	a, _ := NewDataFrame(NewSeriesInt64("A", []int64{1, 2}))
	b, _ := NewDataFrame(NewSeriesInt64("A", []int64{1, 2, 3}))

	result, err := Join(a, b, JoinOptions{}.How(CrossJoin))
	if err != nil {
		t.Fatalf("failed to cross join: %v", err)
	}
	assertColumns(t, result, "A", "A_1")
	assertRows(t, result, [][]any{
		{int64(1), int64(1)},
		{int64(1), int64(2)},
		{int64(1), int64(3)},
		{int64(2), int64(1)},
		{int64(2), int64(2)},
		{int64(2), int64(3)},
	})
}

func TestAntiJoin(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.AntiJoin(right, On("ID"))
	if err != nil {
		t.Fatalf("failed to anti join: %v", err)
	}
	assertColumns(t, result, "ID", "Name")
	assertRows(t, result, [][]any{{int64(3), "B"}})
}

func TestInnerJoin(t *testing.T) {
	// Left DataFrame: customers
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 3, 4}),
		NewSeriesString("name", []string{"Alice", "Bob", "Carol", "Dave"}),
	)

	// Right DataFrame: orders
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 2, 5}),
		NewSeriesFloat64("amount", []float64{100, 200, 150, 300}),
	)

	result, err := left.Join(right, On("id"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	// id 1 once, id 2 twice in right order
	assertColumns(t, result, "id", "name", "amount")
	assertRows(t, result, [][]any{
		{int64(1), "Alice", 100.0},
		{int64(2), "Bob", 200.0},
		{int64(2), "Bob", 150.0},
	})
}

func TestLeftJoinNullFill(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 3, 4}),
		NewSeriesString("name", []string{"Alice", "Bob", "Carol", "Dave"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 5}),
		NewSeriesFloat64("amount", []float64{100, 200, 300}),
	)

	result, err := left.LeftJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to left join: %v", err)
	}

	// All left rows preserved
	if result.Height() != 4 {
		t.Fatalf("expected 4 rows, got %d", result.Height())
	}

	// Carol (id=3) and Dave (id=4) have a null amount
	amount := result.ColumnByName("amount")
	for i := 0; i < result.Height(); i++ {
		id := result.ColumnByName("id").Get(i).(int64)
		if (id == 3 || id == 4) != amount.IsNull(i) {
			t.Errorf("id %d: unexpected amount null state %v", id, amount.IsNull(i))
		}
	}
	if n := NullCount(amount); n != 2 {
		t.Errorf("expected 2 null amounts, got %d", n)
	}
}

func TestOuterJoinRightOnlyOrder(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{3, 1}),
		NewSeriesString("l", []string{"c", "a"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{9, 1, 7, 8}),
		NewSeriesString("r", []string{"x", "y", "z", "w"}),
	)

	result, err := left.OuterJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to outer join: %v", err)
	}
	assertRows(t, result, [][]any{
		{int64(3), "c", nil},
		{int64(1), "a", "y"},
		{int64(9), nil, "x"},
		{int64(7), nil, "z"},
		{int64(8), nil, "w"},
	})
}

func TestJoinDifferentColumnNames(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("customer_id", []int64{1, 2, 3}),
		NewSeriesString("name", []string{"Alice", "Bob", "Carol"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("cust_id", []int64{1, 2, 4}),
		NewSeriesFloat64("amount", []float64{100, 200, 300}),
	)

	result, err := left.Join(right, LeftOn("customer_id").RightOn("cust_id"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	// The right key column is not duplicated
	assertColumns(t, result, "customer_id", "name", "amount")
	assertRows(t, result, [][]any{
		{int64(1), "Alice", 100.0},
		{int64(2), "Bob", 200.0},
	})
}

func TestOuterJoinDifferentColumnNamesBackfill(t *testing.T) {
	left, _ := NewDataFrame(NewSeriesInt64("a", []int64{1, 2}))
	right, _ := NewDataFrame(
		NewSeriesInt64("b", []int64{2, 3}),
		NewSeriesString("v", []string{"two", "three"}),
	)

	result, err := left.OuterJoin(right, LeftOn("a").RightOn("b"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertColumns(t, result, "a", "v")
	assertRows(t, result, [][]any{
		{int64(1), nil},
		{int64(2), "two"},
		{int64(3), "three"},
	})
}

func TestJoinColumnNameCollision(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesString("value", []string{"a", "b"}),
		NewSeriesString("value_1", []string{"x", "y"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesString("value", []string{"c", "d"}),
	)

	result, err := left.Join(right, On("id"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	// value_1 is taken, so the right value becomes value_2
	assertColumns(t, result, "id", "value", "value_1", "value_2")
	assertRows(t, result, [][]any{
		{int64(1), "a", "x", "c"},
		{int64(2), "b", "y", "d"},
	})
}

func TestJoinCustomSuffix(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesString("value", []string{"a", "b"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesString("value", []string{"c", "d"}),
	)

	result, err := left.Join(right, On("id").WithSuffix("_right"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertColumns(t, result, "id", "value", "value_right")
}

func TestJoinMultipleKeys(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesString("region", []string{"east", "east", "west"}),
		NewSeriesInt64("year", []int64{2020, 2021, 2020}),
		NewSeriesFloat64("sales", []float64{1, 2, 3}),
	)
	right, _ := NewDataFrame(
		NewSeriesString("region", []string{"west", "east", "east"}),
		NewSeriesInt64("year", []int64{2020, 2021, 2022}),
		NewSeriesFloat64("target", []float64{30, 20, 99}),
	)

	result, err := left.Join(right, On("region", "year"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertRows(t, result, [][]any{
		{"east", int64(2021), 2.0, 20.0},
		{"west", int64(2020), 3.0, 30.0},
	})
}

func TestJoinEmptyDataFrame(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{}),
		NewSeriesString("name", []string{}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesFloat64("amount", []float64{100, 200}),
	)

	for _, how := range []JoinType{InnerJoin, LeftJoin, SemiJoin, AntiJoin, CrossJoin} {
		opts := On("id").How(how)
		if how == CrossJoin {
			opts = JoinOptions{}.How(how)
		}
		result, err := Join(left, right, opts)
		if err != nil {
			t.Fatalf("%s: failed to join: %v", how, err)
		}
		if result.Height() != 0 {
			t.Errorf("%s: expected 0 rows, got %d", how, result.Height())
		}
	}

	result, err := left.OuterJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to outer join: %v", err)
	}
	assertRows(t, result, [][]any{
		{int64(1), nil, 100.0},
		{int64(2), nil, 200.0},
	})
}

func TestLeftJoinEmptyRight(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2, 3}),
		NewSeriesString("name", []string{"Alice", "Bob", "Carol"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{}),
		NewSeriesFloat64("amount", []float64{}),
	)

	result, err := left.LeftJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to left join: %v", err)
	}
	if result.Height() != 3 {
		t.Errorf("expected 3 rows, got %d", result.Height())
	}
	if n := NullCount(result.ColumnByName("amount")); n != 3 {
		t.Errorf("expected 3 null amounts, got %d", n)
	}
}

func TestJoinErrors(t *testing.T) {
	left, right := peopleAndJobs(t)

	tests := []struct {
		name string
		opts JoinOptions
		want error
	}{
		{"missing left column", On("nope"), ErrColumnNotFound},
		{"missing right column", LeftOn("ID").RightOn("Name2"), ErrColumnNotFound},
		{"no keys", JoinOptions{}, ErrMissingJoinKeys},
		{"no keys semi", JoinOptions{}.How(SemiJoin), ErrMissingJoinKeys},
		{"cross with keys", On("ID").How(CrossJoin), ErrCrossJoinKeys},
		{"key count mismatch", LeftOn("ID", "Name").RightOn("ID"), ErrKeyMismatch},
		{"on mixed with left on", On("ID").RightOn("ID"), ErrKeyMismatch},
		{"key class mismatch", LeftOn("ID").RightOn("Job"), ErrKeyMismatch},
		{"unknown kind", On("ID").How(JoinType(42)), ErrUnknownJoinKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Join(left, right, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if result != nil {
				t.Error("expected no partial result")
			}
		})
	}
}

func TestParseJoinType(t *testing.T) {
	tests := map[string]JoinType{
		"inner": InnerJoin,
		"Left":  LeftJoin,
		"right": RightJoin,
		"outer": OuterJoin,
		"full":  OuterJoin,
		"semi":  SemiJoin,
		"anti":  AntiJoin,
		"cross": CrossJoin,
	}
	for s, want := range tests {
		got, err := ParseJoinType(s)
		if err != nil || got != want {
			t.Errorf("ParseJoinType(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if OuterJoin.String() != "outer" || JoinType(42).String() != "JoinType(42)" {
		t.Errorf("unexpected names %q %q", OuterJoin.String(), JoinType(42).String())
	}

	if _, err := ParseJoinType("sideways"); !errors.Is(err, ErrUnknownJoinKind) {
		t.Errorf("expected ErrUnknownJoinKind, got %v", err)
	}
}

func TestJoinPreservesTypes(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesFloat32("f32", []float32{1.5, 2.5}),
		NewSeriesInt32("i32", []int32{10, 20}),
		NewSeriesBool("flag", []bool{true, false}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 2}),
		NewSeriesCategorical("cat", []string{"x", "y"}),
		NewSeriesUInt32("u32", []uint32{7, 8}),
	)

	result, err := left.LeftJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	want := map[string]DType{
		"id": Int64, "f32": Float32, "i32": Int32, "flag": Bool,
		"cat": Categorical, "u32": UInt32,
	}
	for name, dt := range want {
		col := result.ColumnByName(name)
		if col == nil {
			t.Fatalf("missing column %s", name)
		}
		if col.DType() != dt {
			t.Errorf("%s: expected %s, got %s", name, dt, col.DType())
		}
	}
}

func TestJoinNullKeysMatch(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64WithNulls("k", []int64{1, 0, 2}, []bool{true, false, true}),
		NewSeriesString("l", []string{"a", "b", "c"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64WithNulls("k", []int64{0, 2}, []bool{false, true}),
		NewSeriesString("r", []string{"n", "two"}),
	)

	result, err := left.Join(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertRows(t, result, [][]any{
		{nil, "b", "n"},
		{int64(2), "c", "two"},
	})
}

func TestJoinMixedIntegerKeys(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt32("k", []int32{1, 2}),
		NewSeriesString("l", []string{"a", "b"}),
	)
	right, _ := NewDataFrame(
		NewSeriesUInt64("k", []uint64{2, 5}),
		NewSeriesString("r", []string{"x", "y"}),
	)

	result, err := left.OuterJoin(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if dt := result.ColumnByName("k").DType(); dt != Int64 {
		t.Fatalf("expected promoted Int64 key, got %s", dt)
	}
	assertRows(t, result, [][]any{
		{int64(1), "a", nil},
		{int64(2), "b", "x"},
		{int64(5), nil, "y"},
	})
}

func TestJoinNegativeNeverMatchesUnsigned(t *testing.T) {
	left, _ := NewDataFrame(NewSeriesInt64("k", []int64{-1}))
	right, _ := NewDataFrame(NewSeriesUInt64("k", []uint64{1<<64 - 1}))

	result, err := left.Join(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if result.Height() != 0 {
		t.Errorf("expected no match, got %d rows", result.Height())
	}
}

func TestJoinSignedAgainstUInt64Backfill(t *testing.T) {
	left, _ := NewDataFrame(NewSeriesInt64("k", []int64{-1}))
	right, _ := NewDataFrame(NewSeriesUInt64("k", []uint64{1<<64 - 1}))

	for _, how := range []JoinType{RightJoin, OuterJoin} {
		result, err := Join(left, right, On("k").How(how))
		if !errors.Is(err, ErrKeyMismatch) {
			t.Errorf("%s join: expected ErrKeyMismatch, got %v", how, err)
		}
		if result != nil {
			t.Errorf("%s join: expected no result", how)
		}
		if _, err := PlanJoin(left, right, On("k").How(how)); !errors.Is(err, ErrKeyMismatch) {
			t.Errorf("%s plan: expected ErrKeyMismatch, got %v", how, err)
		}
	}

	// Kinds that keep only left key values still accept the pair.
	for _, how := range []JoinType{InnerJoin, LeftJoin, SemiJoin, AntiJoin} {
		result, err := Join(left, right, On("k").How(how))
		if err != nil {
			t.Fatalf("%s join: %v", how, err)
		}
		want := 0
		if how == LeftJoin || how == AntiJoin {
			want = 1
		}
		if result.Height() != want {
			t.Errorf("%s join: got %d rows, want %d", how, result.Height(), want)
		}
	}

	// Unsigned keys of any width coalesce into UInt64.
	narrow, _ := NewDataFrame(NewSeriesUInt32("k", []uint32{1}))
	result, err := narrow.OuterJoin(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	assertRows(t, result, [][]any{{uint64(1)}, {uint64(1<<64 - 1)}})
}

func TestJoinCategoricalAgainstString(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesCategorical("k", []string{"b", "a", "b"}),
		NewSeriesInt64("v", []int64{1, 2, 3}),
	)
	right, _ := NewDataFrame(
		NewSeriesString("k", []string{"a", "b", "z"}),
		NewSeriesInt64("w", []int64{10, 20, 30}),
	)

	result, err := left.OuterJoin(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if dt := result.ColumnByName("k").DType(); dt != String {
		t.Fatalf("expected String key, got %s", dt)
	}
	assertRows(t, result, [][]any{
		{"b", int64(1), int64(20)},
		{"a", int64(2), int64(10)},
		{"b", int64(3), int64(20)},
		{"z", nil, int64(30)},
	})
}

func TestJoinFloatKeys(t *testing.T) {
	nan := math.NaN()

	left, _ := NewDataFrame(NewSeriesFloat64("k", []float64{nan, 1.5, 0}))
	right, _ := NewDataFrame(
		NewSeriesFloat32("k", []float32{1.5, float32(nan)}),
		NewSeriesString("r", []string{"x", "n"}),
	)

	result, err := left.Join(right, On("k"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	if result.Height() != 2 {
		t.Fatalf("expected NaN and 1.5 to match, got %d rows", result.Height())
	}
	if got := result.ColumnByName("r").Get(0); got != "n" {
		t.Errorf("expected NaN row first, got %v", got)
	}
}

func TestJoinIndicator(t *testing.T) {
	left, right := peopleAndJobs(t)
	result, err := left.OuterJoin(right, On("ID").WithIndicator("_merge"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}
	ind := result.ColumnByName("_merge")
	if ind == nil || ind.DType() != Categorical {
		t.Fatalf("expected categorical indicator column, got %v", ind)
	}
	want := []any{"both", "both", "left_only", "right_only"}
	if got := ColumnValues(ind); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestJoinValidate(t *testing.T) {
	left, _ := NewDataFrame(NewSeriesInt64("k", []int64{1, 2}))
	right, _ := NewDataFrame(NewSeriesInt64("k", []int64{1, 1}))

	if _, err := left.Join(right, On("k").Validate(true, false)); err != nil {
		t.Fatalf("left keys are unique: %v", err)
	}
	_, err := left.Join(right, On("k").Validate(false, true))
	if !errors.Is(err, ErrNotUnique) {
		t.Fatalf("expected ErrNotUnique, got %v", err)
	}
}

func TestJoinDuplicateMatches(t *testing.T) {
	left, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 1}),
		NewSeriesString("l", []string{"a", "b"}),
	)
	right, _ := NewDataFrame(
		NewSeriesInt64("id", []int64{1, 1, 1}),
		NewSeriesString("r", []string{"x", "y", "z"}),
	)

	result, err := left.Join(right, On("id"))
	if err != nil {
		t.Fatalf("failed to join: %v", err)
	}

	// 2 x 3 pairs, left order outside, right order inside
	assertRows(t, result, [][]any{
		{int64(1), "a", "x"}, {int64(1), "a", "y"}, {int64(1), "a", "z"},
		{int64(1), "b", "x"}, {int64(1), "b", "y"}, {int64(1), "b", "z"},
	})

	semi, err := left.SemiJoin(right, On("id"))
	if err != nil {
		t.Fatalf("failed to semi join: %v", err)
	}
	if semi.Height() != 2 {
		t.Errorf("semi join must keep each left row once, got %d rows", semi.Height())
	}
}

func TestJoinDoesNotModifyInputs(t *testing.T) {
	left, right := peopleAndJobs(t)
	leftBefore, rightBefore := rowsOf(left), rowsOf(right)

	for _, how := range []JoinType{InnerJoin, LeftJoin, RightJoin, OuterJoin, SemiJoin, AntiJoin} {
		if _, err := Join(left, right, On("ID").How(how)); err != nil {
			t.Fatalf("%s: %v", how, err)
		}
	}
	if !reflect.DeepEqual(rowsOf(left), leftBefore) || !reflect.DeepEqual(rowsOf(right), rightBefore) {
		t.Error("join modified its inputs")
	}
}

func TestPlanJoin(t *testing.T) {
	left, right := peopleAndJobs(t)

	maps, err := PlanJoin(left, right, On("ID").How(OuterJoin))
	if err != nil {
		t.Fatalf("failed to plan: %v", err)
	}
	if maps.Rows != 4 {
		t.Errorf("expected 4 result rows, got %d", maps.Rows)
	}
	if !reflect.DeepEqual(maps.Left.Orig, []int{0, 1}) || !reflect.DeepEqual(maps.Right.Orig, []int{0, 1}) {
		t.Errorf("unexpected matched maps %+v %+v", maps.Left, maps.Right)
	}
	if !reflect.DeepEqual(maps.LeftOnly, RowIndexMap{Orig: []int{2}, Join: []int{2}}) {
		t.Errorf("unexpected left-only map %+v", maps.LeftOnly)
	}
	if !reflect.DeepEqual(maps.RightOnly, RowIndexMap{Orig: []int{2}, Join: []int{3}}) {
		t.Errorf("unexpected right-only map %+v", maps.RightOnly)
	}

	if _, err := PlanJoin(left, right, On("ID").How(SemiJoin)); !errors.Is(err, ErrUnknownJoinKind) {
		t.Errorf("expected ErrUnknownJoinKind for semi plan, got %v", err)
	}
}

func TestJoinArrowBackedInputs(t *testing.T) {
	left, right := peopleAndJobs(t)
	record, err := right.ToArrow(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer record.Release()
	arrowRight, err := NewDataFrameFromArrow(record)
	if err != nil {
		t.Fatal(err)
	}
	defer arrowRight.Release()

	fromSeries, err := left.OuterJoin(right, On("ID"))
	if err != nil {
		t.Fatal(err)
	}
	fromArrow, err := left.OuterJoin(arrowRight, On("ID"))
	if err != nil {
		t.Fatal(err)
	}
	if !fromSeries.Equal(fromArrow) {
		t.Errorf("arrow-backed join differs:\n%v\n%v", fromSeries, fromArrow)
	}
}

func makeJoinBenchData(n, keys int) (*DataFrame, *DataFrame) {
	leftIDs := make([]int64, n)
	leftVals := make([]float64, n)
	for i := range leftIDs {
		leftIDs[i] = int64(i % keys)
		leftVals[i] = float64(i)
	}
	rightIDs := make([]int64, keys)
	rightVals := make([]float64, keys)
	for i := range rightIDs {
		rightIDs[i] = int64(i * 2)
		rightVals[i] = float64(i) * 1.5
	}
	left, _ := NewDataFrame(NewSeriesInt64("id", leftIDs), NewSeriesFloat64("a", leftVals))
	right, _ := NewDataFrame(NewSeriesInt64("id", rightIDs), NewSeriesFloat64("b", rightVals))
	return left, right
}

func BenchmarkInnerJoin(b *testing.B) {
	left, right := makeJoinBenchData(100_000, 10_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := left.Join(right, On("id")); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLeftJoin(b *testing.B) {
	left, right := makeJoinBenchData(100_000, 10_000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := left.LeftJoin(right, On("id")); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkOuterJoinStringKeys(b *testing.B) {
	n := 50_000
	lk := make([]string, n)
	rk := make([]string, n/2)
	for i := range lk {
		lk[i] = "key-" + string(rune('a'+i%26)) + string(rune('a'+(i/26)%26))
	}
	for i := range rk {
		rk[i] = "key-" + string(rune('a'+(i*3)%26)) + string(rune('a'+(i/7)%26))
	}
	left, _ := NewDataFrame(NewSeriesString("k", lk))
	right, _ := NewDataFrame(NewSeriesString("k", rk), NewSeriesInt64("v", make([]int64, len(rk))))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := left.OuterJoin(right, On("k")); err != nil {
			b.Fatal(err)
		}
	}
}
