package galleon

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultBatchSize is the number of rows per batch when none is given.
const DefaultBatchSize = 65536

// BatchReader is an interface for reading data in batches.
// Only one batch of raw input is held at a time.
type BatchReader interface {
	// Next reads the next batch of data.
	// Returns io.EOF when there are no more batches.
	Next(ctx context.Context) (*DataFrame, error)

	// Schema returns the schema of the data.
	// May return nil if schema is unknown until first read.
	Schema() *Schema

	// Close releases any resources held by the reader.
	Close() error
}

// ============================================================================
// CSV Batches
// ============================================================================

// CSVBatchReader reads CSV data in batches. Column types are fixed by the
// first batch: forced ones from ColumnTypes, the rest inferred from it.
// A later field that does not parse as its column's type fails the batch.
type CSVBatchReader struct {
	reader    *csv.Reader
	closer    io.Closer
	opt       CSVReadOptions
	headers   []string
	dtypes    []DType
	schema    *Schema
	batchSize int
	remaining int // rows left under MaxRows, -1 for unlimited
	done      bool
}

// NewCSVBatchReader creates a batch reader over r. A batchSize <= 0 uses
// DefaultBatchSize. If r is an io.Closer, Close closes it.
func NewCSVBatchReader(r io.Reader, batchSize int, opts ...CSVReadOptions) (*CSVBatchReader, error) {
	opt := csvReadOptions(opts)
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	br := &CSVBatchReader{
		reader:    newCSVReader(r, opt),
		opt:       opt,
		batchSize: batchSize,
		remaining: -1,
	}
	if c, ok := r.(io.Closer); ok {
		br.closer = c
	}
	if opt.MaxRows > 0 {
		br.remaining = opt.MaxRows
	}

	headers, err := readCSVHeader(br.reader, opt)
	switch {
	case err == io.EOF:
		br.done = true
	case err != nil:
		return nil, err
	}
	br.headers = headers
	return br, nil
}

// OpenCSVBatches opens a CSV file for batch reading.
func OpenCSVBatches(path string, batchSize int, opts ...CSVReadOptions) (*CSVBatchReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	br, err := NewCSVBatchReader(f, batchSize, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	return br, nil
}

// Next reads the next batch of data.
func (r *CSVBatchReader) Next(ctx context.Context) (*DataFrame, error) {
	if r.done {
		return nil, io.EOF
	}

	limit := r.batchSize
	if r.remaining >= 0 {
		limit = min(limit, r.remaining)
	}

	records := make([][]string, 0, limit)
	for len(records) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.reader.Read()
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if r.headers == nil {
			r.headers = generatedHeaders(len(record))
		}
		records = append(records, record)
	}
	if r.remaining >= 0 {
		r.remaining -= len(records)
		if r.remaining == 0 {
			r.done = true
		}
	}

	if r.dtypes == nil {
		r.dtypes = csvDTypes(r.headers, records, r.opt)
		r.schema, _ = NewSchema(r.headers, r.dtypes)
	}
	if len(records) == 0 {
		r.done = true
		return nil, io.EOF
	}

	return csvFrame(r.headers, r.dtypes, records, r.opt)
}

// Schema returns the schema of the data.
func (r *CSVBatchReader) Schema() *Schema {
	return r.schema
}

// Close releases resources.
func (r *CSVBatchReader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadAll drains r into one DataFrame. Without any batch the result is an
// empty frame with r's schema, if known.
func ReadAll(ctx context.Context, r BatchReader) (*DataFrame, error) {
	var batches []*DataFrame
	for {
		batch, err := r.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	if len(batches) == 0 {
		if schema := r.Schema(); schema != nil {
			return emptyDataFrameFromSchema(schema), nil
		}
		return NewDataFrame()
	}
	return ConcatDataFrames(batches...)
}

// emptyDataFrameFromSchema creates an empty DataFrame with the given schema
func emptyDataFrameFromSchema(schema *Schema) *DataFrame {
	cols := make([]Column, schema.Len())
	for i, name := range schema.Names() {
		cols[i] = newSeriesBuilder(name, schema.dtypes[i], 0).finish()
	}
	return mustDataFrame(cols, 0)
}

// ConcatDataFrames stacks frames with identical column names and dtypes
// vertically.
func ConcatDataFrames(dfs ...*DataFrame) (*DataFrame, error) {
	if len(dfs) == 0 {
		return NewDataFrame()
	}
	if len(dfs) == 1 {
		return dfs[0], nil
	}

	ref := dfs[0]
	height := 0
	for i, df := range dfs {
		if df.Width() != ref.Width() {
			return nil, fmt.Errorf("%w: frame %d has %d columns, expected %d",
				ErrSchemaMismatch, i, df.Width(), ref.Width())
		}
		for j, col := range df.columns {
			rc := ref.columns[j]
			if col.Name() != rc.Name() || col.DType() != rc.DType() {
				return nil, fmt.Errorf("%w: frame %d column %d is %s (%s), expected %s (%s)",
					ErrSchemaMismatch, i, j, col.Name(), col.DType(), rc.Name(), rc.DType())
			}
		}
		height += df.Height()
	}

	cols := make([]Column, ref.Width())
	for j, rc := range ref.columns {
		b := newSeriesBuilder(rc.Name(), rc.DType(), height)
		for _, df := range dfs {
			col := df.columns[j]
			for i := 0; i < col.Len(); i++ {
				if err := b.append(col.Get(i)); err != nil {
					return nil, fmt.Errorf("column %s: %w", rc.Name(), err)
				}
			}
		}
		cols[j] = b.finish()
	}
	return mustDataFrame(cols, height), nil
}
