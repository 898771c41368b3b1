package galleon

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	arrowcsv "github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// CSVReadOptions configures CSV reading behavior
type CSVReadOptions struct {
	Delimiter   rune             // Field delimiter (default ',')
	HasHeader   bool             // First row is header (default true)
	ColumnNames []string         // Override column names
	ColumnTypes map[string]DType // Force column types
	InferTypes  bool             // Auto-detect types (default true)
	NullValues  []string         // Strings to treat as null
	SkipRows    int              // Skip first N rows
	MaxRows     int              // Max rows to read (0 = unlimited)
	TrimSpace   bool             // Trim whitespace from values
	Comment     rune             // Comment character (skip lines starting with this)
}

// DefaultCSVReadOptions returns default CSV reading options
func DefaultCSVReadOptions() CSVReadOptions {
	return CSVReadOptions{
		Delimiter:  ',',
		HasHeader:  true,
		InferTypes: true,
		NullValues: []string{"", "null", "NULL", "NA", "N/A", "nan", "NaN"},
		TrimSpace:  true,
	}
}

// ReadCSV reads a CSV file into a DataFrame
func ReadCSV(path string, opts ...CSVReadOptions) (*DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ReadCSVFromReader(f, opts...)
}

// ReadCSVFromReader reads CSV data from an io.Reader into a DataFrame
func ReadCSVFromReader(r io.Reader, opts ...CSVReadOptions) (*DataFrame, error) {
	opt := csvReadOptions(opts)
	reader := newCSVReader(r, opt)

	headers, err := readCSVHeader(reader, opt)
	if err == io.EOF {
		return NewDataFrame()
	}
	if err != nil {
		return nil, err
	}

	// Read all data
	var records [][]string
	for opt.MaxRows <= 0 || len(records) < opt.MaxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records), err)
		}

		// Generate headers if needed
		if headers == nil {
			headers = generatedHeaders(len(record))
		}

		records = append(records, record)
	}

	return csvFrame(headers, csvDTypes(headers, records, opt), records, opt)
}

func csvReadOptions(opts []CSVReadOptions) CSVReadOptions {
	opt := DefaultCSVReadOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}
	return opt
}

func newCSVReader(r io.Reader, opt CSVReadOptions) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = opt.Delimiter
	if opt.Comment != 0 {
		reader.Comment = opt.Comment
	}
	reader.TrimLeadingSpace = opt.TrimSpace
	reader.FieldsPerRecord = -1
	return reader
}

// readCSVHeader skips the configured rows and returns the column names:
// the ColumnNames override, the header row, or nil when the names are to be
// generated from the first record. io.EOF means the input has no header.
func readCSVHeader(reader *csv.Reader, opt CSVReadOptions) ([]string, error) {
	for i := 0; i < opt.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, fmt.Errorf("failed to skip row %d: %w", i, err)
		}
	}

	var headers []string
	if opt.HasHeader {
		var err error
		headers, err = reader.Read()
		if err == io.EOF {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		for i := range headers {
			headers[i] = strings.TrimSpace(headers[i])
		}
	}
	if len(opt.ColumnNames) > 0 {
		headers = opt.ColumnNames
	}
	return headers, nil
}

func generatedHeaders(n int) []string {
	headers := make([]string, n)
	for i := range headers {
		headers[i] = fmt.Sprintf("column_%d", i)
	}
	return headers
}

// csvDTypes picks the dtype of every column: forced by ColumnTypes, inferred
// from records, or String.
func csvDTypes(headers []string, records [][]string, opt CSVReadOptions) []DType {
	dtypes := make([]DType, len(headers))
	for i, name := range headers {
		dtypes[i] = String
		if opt.InferTypes {
			dtypes[i] = inferColumnType(records, i, opt)
		}
		if forced, ok := opt.ColumnTypes[name]; ok {
			dtypes[i] = forced
		}
	}
	return dtypes
}

func csvFrame(headers []string, dtypes []DType, records [][]string, opt CSVReadOptions) (*DataFrame, error) {
	columns := make([]Column, len(headers))
	for i, name := range headers {
		col, err := buildColumn(name, dtypes[i], records, i, opt)
		if err != nil {
			return nil, fmt.Errorf("failed to build column '%s': %w", name, err)
		}
		columns[i] = col
	}
	return NewDataFrame(columns...)
}

// cell returns the trimmed field of a record and whether it is null.
// Missing trailing fields are null.
func cell(record []string, colIdx int, opt CSVReadOptions) (string, bool) {
	if colIdx >= len(record) {
		return "", true
	}
	val := record[colIdx]
	if opt.TrimSpace {
		val = strings.TrimSpace(val)
	}
	for _, nv := range opt.NullValues {
		if val == nv {
			return "", true
		}
	}
	return val, false
}

// inferColumnType picks the narrowest of Bool, Int64, Float64 and String
// that parses every non-null field. Booleans never mix with numbers.
func inferColumnType(records [][]string, colIdx int, opt CSVReadOptions) DType {
	hasInt := false
	hasFloat := false
	hasBool := false
	hasString := false

	for _, record := range records {
		val, null := cell(record, colIdx, opt)
		if null {
			continue
		}

		// Try bool
		lower := strings.ToLower(val)
		if lower == "true" || lower == "false" {
			hasBool = true
			continue
		}

		// Try int
		if _, err := strconv.ParseInt(val, 10, 64); err == nil {
			hasInt = true
			continue
		}

		// Try float
		if _, err := strconv.ParseFloat(val, 64); err == nil {
			hasFloat = true
			continue
		}

		// It's a string
		hasString = true
		break
	}

	switch {
	case hasString, hasBool && (hasInt || hasFloat):
		return String
	case hasFloat:
		return Float64
	case hasInt:
		return Int64
	case hasBool:
		return Bool
	default:
		return String
	}
}

func buildColumn(name string, dtype DType, records [][]string, colIdx int, opt CSVReadOptions) (*Series, error) {
	b := newSeriesBuilder(name, dtype, len(records))
	for i, record := range records {
		val, null := cell(record, colIdx, opt)
		if null {
			b.appendNull()
			continue
		}
		v, err := parseField(val, dtype)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := b.append(v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.finish(), nil
}

// parseField converts a CSV field to the Go value stored for dtype.
func parseField(val string, dtype DType) (any, error) {
	switch dtype {
	case Float64:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as float64", val)
		}
		return f, nil
	case Float32:
		f, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as float32", val)
		}
		return float32(f), nil
	case Int64, Int32:
		v, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s", val, dtype)
		}
		return v, nil
	case UInt64, UInt32:
		v, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cannot parse '%s' as %s", val, dtype)
		}
		return v, nil
	case Bool:
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return nil, fmt.Errorf("cannot parse '%s' as bool", val)
	case String, Categorical:
		return val, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
}

// CSVWriteOptions configures CSV writing behavior
type CSVWriteOptions struct {
	Delimiter   rune   // Field delimiter (default ',')
	WriteHeader bool   // Write header row (default true)
	NullString  string // String to write for null values (default "")
}

// DefaultCSVWriteOptions returns default CSV writing options
func DefaultCSVWriteOptions() CSVWriteOptions {
	return CSVWriteOptions{
		Delimiter:   ',',
		WriteHeader: true,
		NullString:  "",
	}
}

// WriteCSV writes a DataFrame to a CSV file
func (df *DataFrame) WriteCSV(path string, opts ...CSVWriteOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := df.WriteCSVToWriter(w, opts...); err != nil {
		return err
	}
	return w.Flush()
}

// WriteCSVToWriter writes a DataFrame to an io.Writer through the Arrow CSV
// writer. Categorical and all-null columns are written as strings.
func (df *DataFrame) WriteCSVToWriter(w io.Writer, opts ...CSVWriteOptions) error {
	opt := DefaultCSVWriteOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Delimiter == 0 {
		opt.Delimiter = ','
	}

	cols := make([]Column, df.Width())
	for i, col := range df.columns {
		switch col.DType() {
		case Categorical, Null:
			cols[i] = castToString(col)
		default:
			cols[i] = col
		}
	}

	record, err := mustDataFrame(cols, df.height).ToArrow(memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer record.Release()

	writer := arrowcsv.NewWriter(w, record.Schema(),
		arrowcsv.WithComma(opt.Delimiter),
		arrowcsv.WithHeader(opt.WriteHeader),
		arrowcsv.WithNullWriter(opt.NullString),
	)
	if err := writer.Write(record); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return writer.Error()
}

// castToString copies a text or all-null column into a String series.
func castToString(col Column) *Series {
	b := newSeriesBuilder(col.Name(), String, col.Len())
	for i := 0; i < col.Len(); i++ {
		v := col.Get(i)
		if v == nil {
			b.appendNull()
			continue
		}
		_ = b.append(fmt.Sprint(v))
	}
	return b.finish()
}
