package galleon

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ============================================================================
// Arrow Export
// ============================================================================

// ToArrow exports a DataFrame to an Arrow Record.
// The caller is responsible for calling Release() on the returned Record.
func (df *DataFrame) ToArrow(mem memory.Allocator) (arrow.Record, error) {
	if mem == nil {
		mem = memory.DefaultAllocator
	}

	// Build Arrow schema
	fields := make([]arrow.Field, df.Width())
	for i, col := range df.columns {
		arrowType, err := dtypeToArrowType(col.DType())
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		fields[i] = arrow.Field{Name: col.Name(), Type: arrowType, Nullable: true}
	}
	schema := arrow.NewSchema(fields, nil)

	// Convert each column to Arrow array
	arrays := make([]arrow.Array, df.Width())
	for i, col := range df.columns {
		arr, err := columnToArrowArray(col, mem)
		if err != nil {
			// Clean up already created arrays
			for j := 0; j < i; j++ {
				arrays[j].Release()
			}
			return nil, fmt.Errorf("column %s: %w", col.Name(), err)
		}
		arrays[i] = arr
	}

	// Create Record
	record := array.NewRecord(schema, arrays, int64(df.Height()))

	// Release arrays (Record retains them)
	for _, arr := range arrays {
		arr.Release()
	}

	return record, nil
}

// ToArrowTable exports a DataFrame to an Arrow Table.
// The caller is responsible for calling Release() on the returned Table.
func (df *DataFrame) ToArrowTable(mem memory.Allocator) (arrow.Table, error) {
	record, err := df.ToArrow(mem)
	if err != nil {
		return nil, err
	}
	defer record.Release()

	return array.NewTableFromRecords(record.Schema(), []arrow.Record{record}), nil
}

// dtypeToArrowType converts Galleon DType to Arrow DataType
func dtypeToArrowType(dtype DType) (arrow.DataType, error) {
	switch dtype {
	case Float64:
		return arrow.PrimitiveTypes.Float64, nil
	case Float32:
		return arrow.PrimitiveTypes.Float32, nil
	case Int64:
		return arrow.PrimitiveTypes.Int64, nil
	case Int32:
		return arrow.PrimitiveTypes.Int32, nil
	case UInt64:
		return arrow.PrimitiveTypes.Uint64, nil
	case UInt32:
		return arrow.PrimitiveTypes.Uint32, nil
	case Bool:
		return arrow.FixedWidthTypes.Boolean, nil
	case String:
		return arrow.BinaryTypes.String, nil
	case Null:
		return arrow.Null, nil
	case Categorical:
		// Dictionary encoded strings
		return &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int32,
			ValueType: arrow.BinaryTypes.String,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
}

// columnToArrowArray converts a Column to an Arrow Array. Arrow-backed
// columns are shared, not copied.
func columnToArrowArray(col Column, mem memory.Allocator) (arrow.Array, error) {
	switch c := col.(type) {
	case *ArrowColumn:
		c.arr.Retain()
		return c.arr, nil
	case *Series:
		return seriesToArrowArray(c, mem)
	default:
		return seriesToArrowArray(col.Take(seq(0, col.Len())), mem)
	}
}

// validity returns the Arrow style valid flags of a series, or nil when it
// has no nulls.
func (s *Series) validity() []bool {
	if !s.HasNulls() {
		return nil
	}
	valid := make([]bool, s.length)
	for i := range valid {
		valid[i] = !s.IsNull(i)
	}
	return valid
}

// seriesToArrowArray converts a Series to an Arrow Array
func seriesToArrowArray(s *Series, mem memory.Allocator) (arrow.Array, error) {
	valid := s.validity()

	switch s.DType() {
	case Float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Float64(), valid)
		return builder.NewArray(), nil

	case Float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Float32(), valid)
		return builder.NewArray(), nil

	case Int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Int64(), valid)
		return builder.NewArray(), nil

	case Int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.Int32(), valid)
		return builder.NewArray(), nil

	case UInt64:
		builder := array.NewUint64Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.UInt64(), valid)
		return builder.NewArray(), nil

	case UInt32:
		builder := array.NewUint32Builder(mem)
		defer builder.Release()
		builder.AppendValues(s.UInt32(), valid)
		return builder.NewArray(), nil

	case Bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(s.Bool(), valid)
		return builder.NewArray(), nil

	case String:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(s.Strings(), valid)
		return builder.NewArray(), nil

	case Null:
		return array.NewNull(s.Len()), nil

	case Categorical:
		// Build dictionary-encoded array
		dictType := &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Int32,
			ValueType: arrow.BinaryTypes.String,
		}
		builder := array.NewDictionaryBuilder(mem, dictType)
		defer builder.Release()

		categories := s.Categories()
		indices := s.CategoricalIndices()

		dictBuilder := builder.(*array.BinaryDictionaryBuilder)
		for i, idx := range indices {
			if s.IsNull(i) {
				dictBuilder.AppendNull()
				continue
			}
			if err := dictBuilder.AppendString(categories[idx]); err != nil {
				return nil, err
			}
		}
		return builder.NewArray(), nil

	default:
		return nil, fmt.Errorf("%w: %s for Arrow export", ErrUnsupportedDType, s.DType())
	}
}

// ============================================================================
// Arrow Import
// ============================================================================

// NewDataFrameFromArrow creates a DataFrame over the columns of an Arrow
// Record without copying them. The frame holds references on the arrays;
// call Release on it when done.
func NewDataFrameFromArrow(record arrow.Record) (*DataFrame, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}

	schema := record.Schema()
	numCols := int(record.NumCols())
	cols := make([]Column, 0, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		col, err := NewArrowColumn(field.Name, record.Column(i))
		if err != nil {
			releaseColumns(cols)
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		cols = append(cols, col)
	}

	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseColumns(cols)
		return nil, err
	}
	return df, nil
}

// NewDataFrameFromArrowTable creates a DataFrame from an Arrow Table.
// Columns made of several chunks are concatenated first.
func NewDataFrameFromArrowTable(table arrow.Table) (*DataFrame, error) {
	if table == nil {
		return nil, fmt.Errorf("table is nil")
	}

	schema := table.Schema()
	numCols := int(table.NumCols())
	cols := make([]Column, 0, numCols)

	for i := 0; i < numCols; i++ {
		field := schema.Field(i)
		col, err := chunkedToColumn(field, table.Column(i).Data())
		if err != nil {
			releaseColumns(cols)
			return nil, fmt.Errorf("column %s: %w", field.Name, err)
		}
		cols = append(cols, col)
	}

	df, err := NewDataFrame(cols...)
	if err != nil {
		releaseColumns(cols)
		return nil, err
	}
	return df, nil
}

func chunkedToColumn(field arrow.Field, data *arrow.Chunked) (*ArrowColumn, error) {
	chunks := data.Chunks()
	switch len(chunks) {
	case 0:
		arr := array.MakeArrayOfNull(memory.DefaultAllocator, field.Type, 0)
		defer arr.Release()
		return NewArrowColumn(field.Name, arr)
	case 1:
		return NewArrowColumn(field.Name, chunks[0])
	}

	arr, err := array.Concatenate(chunks, memory.DefaultAllocator)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return NewArrowColumn(field.Name, arr)
}

func releaseColumns(cols []Column) {
	for _, col := range cols {
		if ac, ok := col.(*ArrowColumn); ok {
			ac.Release()
		}
	}
}

// Materialize copies every Arrow-backed column into a Series.
func (df *DataFrame) Materialize() *DataFrame {
	cols := make([]Column, len(df.columns))
	for i, col := range df.columns {
		if ac, ok := col.(*ArrowColumn); ok {
			cols[i] = ac.Materialize()
			continue
		}
		cols[i] = col
	}
	return mustDataFrame(cols, df.height)
}
