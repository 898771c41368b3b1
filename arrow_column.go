package galleon

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// ArrowColumn exposes an Arrow array as a Column without copying it.
// The column holds a reference on the array; call Release when done.
type ArrowColumn struct {
	name  string
	dtype DType
	arr   arrow.Array

	// dictionary encoded strings
	dict      *array.Dictionary
	dictVals  *array.String
	dictHashs []uint64
}

// NewArrowColumn wraps arr. Supported arrays are the signed and unsigned
// 32/64-bit integers, float32/float64, boolean, string, null and
// dictionaries of strings.
func NewArrowColumn(name string, arr arrow.Array) (*ArrowColumn, error) {
	c := &ArrowColumn{name: name, arr: arr}
	switch a := arr.(type) {
	case *array.Float64:
		c.dtype = Float64
	case *array.Float32:
		c.dtype = Float32
	case *array.Int64:
		c.dtype = Int64
	case *array.Int32:
		c.dtype = Int32
	case *array.Uint64:
		c.dtype = UInt64
	case *array.Uint32:
		c.dtype = UInt32
	case *array.Boolean:
		c.dtype = Bool
	case *array.String:
		c.dtype = String
	case *array.Null:
		c.dtype = Null
	case *array.Dictionary:
		vals, ok := a.Dictionary().(*array.String)
		if !ok {
			return nil, fmt.Errorf("%w: dictionary of %s", ErrUnsupportedDType, a.Dictionary().DataType())
		}
		c.dtype = Categorical
		c.dict = a
		c.dictVals = vals
		c.dictHashs = make([]uint64, vals.Len())
		for i := range c.dictHashs {
			c.dictHashs[i] = hashString(vals.Value(i))
		}
	default:
		return nil, fmt.Errorf("%w: arrow type %s", ErrUnsupportedDType, arr.DataType())
	}
	arr.Retain()
	return c, nil
}

// Release drops the column's reference on the Arrow array.
func (c *ArrowColumn) Release() { c.arr.Release() }

// Array returns the wrapped Arrow array.
func (c *ArrowColumn) Array() arrow.Array { return c.arr }

func (c *ArrowColumn) Name() string { return c.name }
func (c *ArrowColumn) DType() DType { return c.dtype }
func (c *ArrowColumn) Len() int     { return c.arr.Len() }

func (c *ArrowColumn) IsNull(i int) bool {
	return c.dtype == Null || c.arr.IsNull(i)
}

func (c *ArrowColumn) Get(i int) any {
	if c.IsNull(i) {
		return nil
	}
	switch a := c.arr.(type) {
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Uint64:
		return a.Value(i)
	case *array.Uint32:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.String:
		return a.Value(i)
	case *array.Dictionary:
		return c.dictVals.Value(a.GetValueIndex(i))
	}
	return nil
}

func (c *ArrowColumn) HashAt(i int) uint64 {
	if c.IsNull(i) {
		return nullHash
	}
	switch a := c.arr.(type) {
	case *array.Float64:
		return hashFloat(a.Value(i))
	case *array.Float32:
		return hashFloat(float64(a.Value(i)))
	case *array.Int64:
		return hashInteger(uint64(a.Value(i)))
	case *array.Int32:
		return hashInteger(uint64(int64(a.Value(i))))
	case *array.Uint64:
		return hashInteger(a.Value(i))
	case *array.Uint32:
		return hashInteger(uint64(a.Value(i)))
	case *array.Boolean:
		return hashBool(a.Value(i))
	case *array.String:
		return hashString(a.Value(i))
	case *array.Dictionary:
		return c.dictHashs[a.GetValueIndex(i)]
	}
	return nullHash
}

// Take copies the selected rows out of Arrow memory into a Series.
func (c *ArrowColumn) Take(indices []int) *Series {
	if c.dtype == Categorical {
		categories := make([]string, c.dictVals.Len())
		for i := range categories {
			categories[i] = c.dictVals.Value(i)
		}
		codes := make([]int32, len(indices))
		for k, idx := range indices {
			if idx < 0 || c.dict.IsNull(idx) {
				codes[k] = -1
				continue
			}
			codes[k] = int32(c.dict.GetValueIndex(idx))
		}
		return newCategorical(c.name, categories, codes, nil)
	}

	b := newSeriesBuilder(c.name, c.dtype, len(indices))
	for _, idx := range indices {
		if idx < 0 {
			b.appendNull()
			continue
		}
		// Get yields the dtype's own Go type, which the builder always accepts.
		_ = b.append(c.Get(idx))
	}
	return b.finish()
}

// Rename returns a column over the same array under another name.
func (c *ArrowColumn) Rename(name string) Column {
	out := *c
	out.name = name
	c.arr.Retain()
	return &out
}

// Materialize copies the whole column into a Series.
func (c *ArrowColumn) Materialize() *Series {
	return c.Take(seq(0, c.Len()))
}
