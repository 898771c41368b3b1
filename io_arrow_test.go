package galleon

import (
	"errors"
	"reflect"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// roundtripArrow exports df and imports the record back as Arrow-backed columns.
func roundtripArrow(t *testing.T, df *DataFrame) *DataFrame {
	t.Helper()
	record, err := df.ToArrow(memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	imported, err := NewDataFrameFromArrow(record)
	if err != nil {
		t.Fatalf("NewDataFrameFromArrow failed: %v", err)
	}
	t.Cleanup(imported.Release)
	return imported
}

func TestArrow_ExportNumeric(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesFloat64("f64", []float64{1.0, 2.0, 3.0}),
		NewSeriesInt64("i64", []int64{10, 20, 30}),
		NewSeriesFloat32("f32", []float32{0.1, 0.2, 0.3}),
		NewSeriesInt32("i32", []int32{100, 200, 300}),
		NewSeriesUInt64("u64", []uint64{1, 2, 3}),
		NewSeriesUInt32("u32", []uint32{4, 5, 6}),
	)

	record, err := df.ToArrow(memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	schema := record.Schema()
	if schema.NumFields() != 6 {
		t.Errorf("Expected 6 fields, got %d", schema.NumFields())
	}
	if record.NumRows() != 3 {
		t.Errorf("Expected 3 rows, got %d", record.NumRows())
	}
	if schema.Field(4).Type.ID() != arrow.UINT64 {
		t.Errorf("u64 exported as %s", schema.Field(4).Type)
	}
}

func TestArrow_ExportNulls(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesInt64WithNulls("a", []int64{1, 0, 3}, []bool{true, false, true}),
		NewSeriesNull("n", 3),
	)

	record, err := df.ToArrow(nil)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	if record.Column(0).NullN() != 1 {
		t.Errorf("a has %d nulls, want 1", record.Column(0).NullN())
	}
	if record.Column(1).DataType().ID() != arrow.NULL {
		t.Errorf("n exported as %s", record.Column(1).DataType())
	}
}

func TestArrow_ExportCategorical(t *testing.T) {
	df, _ := NewDataFrame(
		NewSeriesCategorical("fruit", []string{"apple", "banana", "apple", "cherry"}),
	)

	record, err := df.ToArrow(memory.DefaultAllocator)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	if id := record.Schema().Field(0).Type.ID(); id != arrow.DICTIONARY {
		t.Errorf("Expected DICTIONARY type, got %s", id)
	}
}

func TestArrow_Roundtrip(t *testing.T) {
	original, _ := NewDataFrame(
		NewSeriesFloat64("f64", []float64{0.0, -1.5, 3.14159, 1e10, -1e-10}),
		NewSeriesInt64WithNulls("i64", []int64{0, -1, 0, 1 << 62, -(1 << 62)}, []bool{true, true, false, true, true}),
		NewSeriesInt32("i32", []int32{1, 2, 3, 4, 5}),
		NewSeriesString("str", []string{"", "hello", "世界", "tab\there", "x"}),
		NewSeriesBool("bool", []bool{true, false, true, false, true}),
		NewSeriesCategorical("cat", []string{"b", "a", "b", "c", "a"}),
	)

	imported := roundtripArrow(t, original)

	if !original.Equal(imported) {
		t.Errorf("round trip changed the frame:\n%v\n%v", original, imported)
	}
	if !reflect.DeepEqual(imported.ColumnNames(), original.ColumnNames()) {
		t.Errorf("column order = %v", imported.ColumnNames())
	}
	for _, col := range imported.Columns() {
		if _, ok := col.(*ArrowColumn); !ok {
			t.Errorf("column %s imported as %T, want *ArrowColumn", col.Name(), col)
		}
	}
}

func TestArrow_ImportedColumnsHashLikeSeries(t *testing.T) {
	original, _ := NewDataFrame(
		NewSeriesFloat64("f", []float64{1.5, -0.25}),
		NewSeriesUInt32("u", []uint32{7, 0}),
		NewSeriesStringWithNulls("s", []string{"a", ""}, []bool{true, false}),
		NewSeriesCategorical("c", []string{"q", "r"}),
	)
	imported := roundtripArrow(t, original)

	for j := 0; j < original.Width(); j++ {
		for i := 0; i < original.Height(); i++ {
			if original.Column(j).HashAt(i) != imported.Column(j).HashAt(i) {
				t.Errorf("column %s row %d hashes differ", original.Column(j).Name(), i)
			}
		}
	}
}

func TestArrow_ArrowColumnTake(t *testing.T) {
	original, _ := NewDataFrame(
		NewSeriesInt64("i", []int64{10, 20, 30}),
		NewSeriesCategorical("c", []string{"x", "y", "x"}),
	)
	imported := roundtripArrow(t, original)

	taken := imported.Take([]int{2, -1, 0})
	want := [][]any{{int64(30), "x"}, {nil, nil}, {int64(10), "x"}}
	for i, row := range want {
		if got := taken.Row(i); !reflect.DeepEqual(got, row) {
			t.Errorf("row %d = %v, want %v", i, got, row)
		}
	}
	if taken.ColumnByName("c").DType() != Categorical {
		t.Errorf("taken categorical dtype = %s", taken.ColumnByName("c").DType())
	}

	materialized := imported.Materialize()
	for _, col := range materialized.Columns() {
		if _, ok := col.(*Series); !ok {
			t.Errorf("materialized column %s is %T", col.Name(), col)
		}
	}
	if !materialized.Equal(original) {
		t.Error("Materialize changed the values")
	}
}

func TestArrow_ReexportSharesArrays(t *testing.T) {
	original, _ := NewDataFrame(NewSeriesString("s", []string{"a", "b"}))
	imported := roundtripArrow(t, original)

	record, err := imported.ToArrow(nil)
	if err != nil {
		t.Fatalf("ToArrow failed: %v", err)
	}
	defer record.Release()

	if record.Column(0) != imported.Column(0).(*ArrowColumn).Array() {
		t.Error("re-export copied an Arrow-backed column")
	}
}

func TestArrow_Table(t *testing.T) {
	original, _ := NewDataFrame(
		NewSeriesInt64("a", []int64{1, 2}),
		NewSeriesString("b", []string{"x", "y"}),
	)

	table, err := original.ToArrowTable(nil)
	if err != nil {
		t.Fatalf("ToArrowTable failed: %v", err)
	}
	defer table.Release()

	imported, err := NewDataFrameFromArrowTable(table)
	if err != nil {
		t.Fatalf("NewDataFrameFromArrowTable failed: %v", err)
	}
	defer imported.Release()

	if !original.Equal(imported) {
		t.Errorf("table round trip changed the frame")
	}
}

func TestArrow_TableMultipleChunks(t *testing.T) {
	mem := memory.NewGoAllocator()

	first, _ := NewDataFrame(NewSeriesInt64("a", []int64{1, 2}))
	second, _ := NewDataFrame(NewSeriesInt64("a", []int64{3}))
	r1, err := first.ToArrow(mem)
	if err != nil {
		t.Fatal(err)
	}
	defer r1.Release()
	r2, err := second.ToArrow(mem)
	if err != nil {
		t.Fatal(err)
	}
	defer r2.Release()

	table := array.NewTableFromRecords(r1.Schema(), []arrow.Record{r1, r2})
	defer table.Release()

	imported, err := NewDataFrameFromArrowTable(table)
	if err != nil {
		t.Fatalf("NewDataFrameFromArrowTable failed: %v", err)
	}
	defer imported.Release()

	if got := ColumnValues(imported.Column(0)); !reflect.DeepEqual(got, []any{int64(1), int64(2), int64(3)}) {
		t.Errorf("a = %v", got)
	}
}

func TestArrow_ImportErrors(t *testing.T) {
	if _, err := NewDataFrameFromArrow(nil); err == nil {
		t.Error("expected error for nil record")
	}
	if _, err := NewDataFrameFromArrowTable(nil); err == nil {
		t.Error("expected error for nil table")
	}

	b := array.NewInt16Builder(memory.DefaultAllocator)
	defer b.Release()
	b.Append(1)
	arr := b.NewArray()
	defer arr.Release()

	if _, err := NewArrowColumn("x", arr); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("expected ErrUnsupportedDType, got %v", err)
	}
}

func TestArrow_RenameKeepsArray(t *testing.T) {
	original, _ := NewDataFrame(NewSeriesInt64("a", []int64{1, 2}))
	imported := roundtripArrow(t, original)

	renamed, err := imported.Rename("a", "b")
	if err != nil {
		t.Fatal(err)
	}
	defer renamed.Release()

	if got := ColumnValues(renamed.ColumnByName("b")); !reflect.DeepEqual(got, []any{int64(1), int64(2)}) {
		t.Errorf("b = %v", got)
	}
}

func BenchmarkArrowRoundtrip(b *testing.B) {
	n := 100_000
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i)
	}
	df, _ := NewDataFrame(NewSeriesFloat64("v", vals))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		record, err := df.ToArrow(nil)
		if err != nil {
			b.Fatal(err)
		}
		imported, err := NewDataFrameFromArrow(record)
		if err != nil {
			b.Fatal(err)
		}
		imported.Release()
		record.Release()
	}
}
