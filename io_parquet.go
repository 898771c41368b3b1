package galleon

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// columnOrderKey stores the frame's column order in the file metadata, since
// a parquet group orders its fields by name.
const columnOrderKey = "galleon.column_order"

// ParquetReadOptions configures Parquet reading behavior
type ParquetReadOptions struct {
	Columns []string // Only read these columns (nil = all)
	MaxRows int      // Max rows to read (0 = unlimited)
}

// DefaultParquetReadOptions returns default Parquet reading options
func DefaultParquetReadOptions() ParquetReadOptions {
	return ParquetReadOptions{}
}

// ReadParquet reads a Parquet file into a DataFrame
func ReadParquet(path string, opts ...ParquetReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	return ReadParquetFromReader(f, stat.Size(), opts...)
}

// ReadParquetFromReader reads Parquet data from an io.ReaderAt into a DataFrame
func ReadParquetFromReader(r io.ReaderAt, size int64, opts ...ParquetReadOptions) (*DataFrame, error) {
	opt := DefaultParquetReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	schema := pf.Schema()

	// Determine columns to read
	var colNames []string
	switch {
	case len(opt.Columns) > 0:
		colNames = opt.Columns
	default:
		if order, ok := pf.Lookup(columnOrderKey); ok && order != "" {
			colNames = strings.Split(order, "\x1f")
		} else {
			fields := schema.Fields()
			colNames = make([]string, len(fields))
			for i, f := range fields {
				colNames[i] = f.Name()
			}
		}
	}

	// Build column index map
	colIndexMap := make(map[string]int)
	for i, col := range schema.Columns() {
		if len(col) > 0 {
			colIndexMap[col[0]] = i
		}
	}

	// Initialize builders based on schema
	builders := make([]*seriesBuilder, len(colNames))
	colIndices := make([]int, len(colNames))
	for i, name := range colNames {
		idx, ok := colIndexMap[name]
		if !ok {
			return nil, fmt.Errorf("%w: '%s' in parquet file", ErrColumnNotFound, name)
		}
		colIndices[i] = idx
		dtype := parquetLeafToDType(schema, schema.Columns()[idx])
		builders[i] = newSeriesBuilder(name, dtype, int(pf.NumRows()))
	}

	rowCount := 0
	full := func() bool { return opt.MaxRows > 0 && rowCount >= opt.MaxRows }

	rowBuf := make([]parquet.Row, 1000)
	for _, rg := range pf.RowGroups() {
		if full() {
			break
		}

		rows := rg.Rows()
		for !full() {
			n, err := rows.ReadRows(rowBuf)
			for _, row := range rowBuf[:n] {
				if full() {
					break
				}
				for i, colIdx := range colIndices {
					var appendErr error
					if colIdx < len(row) {
						appendErr = appendParquetValue(builders[i], row[colIdx])
					} else {
						builders[i].appendNull()
					}
					if appendErr != nil {
						rows.Close()
						return nil, fmt.Errorf("column %s row %d: %w", colNames[i], rowCount, appendErr)
					}
				}
				rowCount++
			}
			if err == io.EOF || n == 0 {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to read rows: %w", err)
			}
		}
		rows.Close()
	}

	columns := make([]Column, len(builders))
	for i, b := range builders {
		columns[i] = b.finish()
	}
	return NewDataFrame(columns...)
}

func parquetLeafToDType(schema *parquet.Schema, leaf []string) DType {
	if len(leaf) == 0 {
		return String
	}

	// Find the column definition
	for _, col := range schema.Fields() {
		if col.Name() != leaf[0] {
			continue
		}
		t := col.Type()
		if t == nil {
			return String
		}
		unsigned := false
		if lt := t.LogicalType(); lt != nil && lt.Integer != nil {
			unsigned = !lt.Integer.IsSigned
		}
		switch t.Kind() {
		case parquet.Boolean:
			return Bool
		case parquet.Int32:
			if unsigned {
				return UInt32
			}
			return Int32
		case parquet.Int64:
			if unsigned {
				return UInt64
			}
			return Int64
		case parquet.Float:
			return Float32
		case parquet.Double:
			return Float64
		default:
			return String
		}
	}
	return String
}

func appendParquetValue(b *seriesBuilder, val parquet.Value) error {
	if val.IsNull() {
		b.appendNull()
		return nil
	}

	switch b.dtype {
	case Float64:
		return b.append(val.Double())
	case Float32:
		return b.append(val.Float())
	case Int64:
		return b.append(val.Int64())
	case Int32:
		return b.append(val.Int32())
	case UInt64:
		return b.append(val.Uint64())
	case UInt32:
		return b.append(val.Uint32())
	case Bool:
		return b.append(val.Boolean())
	default:
		return b.append(string(val.ByteArray()))
	}
}

// ParquetWriteOptions configures Parquet writing behavior
type ParquetWriteOptions struct {
	Compression  string // "snappy", "gzip", "zstd", "none" (default "snappy")
	RowGroupSize int    // Rows per row group (default 1000000)
}

// DefaultParquetWriteOptions returns default Parquet writing options
func DefaultParquetWriteOptions() ParquetWriteOptions {
	return ParquetWriteOptions{
		Compression:  "snappy",
		RowGroupSize: 1000000,
	}
}

// WriteParquet writes a DataFrame to a Parquet file
func (df *DataFrame) WriteParquet(path string, opts ...ParquetWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	return df.WriteParquetToWriter(f, opts...)
}

// WriteParquetToWriter writes a DataFrame to an io.Writer. Every column is
// optional so nulls survive a round trip.
func (df *DataFrame) WriteParquetToWriter(w io.Writer, opts ...ParquetWriteOptions) error {
	opt := DefaultParquetWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}

	if df.Width() == 0 || df.Height() == 0 {
		return nil
	}

	// Build schema as a group of named columns
	group := make(parquet.Group)
	for _, col := range df.columns {
		group[col.Name()] = parquet.Optional(dtypeToParquetNode(col.DType()))
	}
	schema := parquet.NewSchema("dataframe", group)

	// Leaf columns of a group come in name order.
	leafOrder := df.ColumnNames()
	sort.Strings(leafOrder)
	leafCols := make([]Column, len(leafOrder))
	for i, name := range leafOrder {
		leafCols[i] = df.ColumnByName(name)
	}

	writerOpts := []parquet.WriterOption{
		schema,
		parquet.KeyValueMetadata(columnOrderKey, strings.Join(df.ColumnNames(), "\x1f")),
	}
	switch opt.Compression {
	case "snappy":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Snappy))
	case "gzip":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Gzip))
	case "zstd":
		writerOpts = append(writerOpts, parquet.Compression(&parquet.Zstd))
	}

	pw := parquet.NewWriter(w, writerOpts...)

	height := df.Height()
	batchSize := 1000
	if opt.RowGroupSize > 0 {
		batchSize = min(batchSize, opt.RowGroupSize)
	}

	rows := make([]parquet.Row, 0, batchSize)
	written := 0
	for i := 0; i < height; i++ {
		row := make(parquet.Row, len(leafCols))
		for j, col := range leafCols {
			row[j] = toParquetValue(col.Get(i)).Level(0, definitionLevel(col, i), j)
		}
		rows = append(rows, row)

		if len(rows) >= batchSize {
			if _, err := pw.WriteRows(rows); err != nil {
				return fmt.Errorf("failed to write rows at %d: %w", i-len(rows)+1, err)
			}
			written += len(rows)
			rows = rows[:0]
			if opt.RowGroupSize > 0 && written%opt.RowGroupSize == 0 {
				if err := pw.Flush(); err != nil {
					return fmt.Errorf("failed to flush row group: %w", err)
				}
			}
		}
	}

	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			return fmt.Errorf("failed to write final rows: %w", err)
		}
	}

	return pw.Close()
}

func definitionLevel(col Column, i int) int {
	if col.IsNull(i) {
		return 0
	}
	return 1
}

func dtypeToParquetNode(dtype DType) parquet.Node {
	switch dtype {
	case Float64:
		return parquet.Leaf(parquet.DoubleType)
	case Float32:
		return parquet.Leaf(parquet.FloatType)
	case Int64:
		return parquet.Int(64)
	case Int32:
		return parquet.Int(32)
	case UInt64:
		return parquet.Uint(64)
	case UInt32:
		return parquet.Uint(32)
	case Bool:
		return parquet.Leaf(parquet.BooleanType)
	case Categorical:
		return parquet.Encoded(parquet.String(), &parquet.RLEDictionary)
	default:
		return parquet.String()
	}
}

func toParquetValue(v any) parquet.Value {
	if v == nil {
		return parquet.NullValue()
	}

	switch x := v.(type) {
	case float64:
		return parquet.DoubleValue(x)
	case float32:
		return parquet.FloatValue(x)
	case int64:
		return parquet.Int64Value(x)
	case int32:
		return parquet.Int32Value(x)
	case uint64:
		return parquet.Int64Value(int64(x))
	case uint32:
		return parquet.Int32Value(int32(x))
	case bool:
		return parquet.BooleanValue(x)
	case string:
		return parquet.ByteArrayValue([]byte(x))
	}

	// Fallback to string representation
	return parquet.ByteArrayValue([]byte(fmt.Sprintf("%v", v)))
}
