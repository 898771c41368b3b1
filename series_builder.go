package galleon

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// seriesBuilder accumulates boxed values into a typed Series.
type seriesBuilder struct {
	name  string
	dtype DType
	n     int

	f64   []float64
	f32   []float32
	i64   []int64
	i32   []int32
	u64   []uint64
	u32   []uint32
	bools []bool
	strs  []string

	catLookup map[string]int32
	catValues []string
	catIdx    []int32

	nulls *roaring.Bitmap
}

func newSeriesBuilder(name string, dtype DType, capacity int) *seriesBuilder {
	b := &seriesBuilder{name: name, dtype: dtype}
	switch dtype {
	case Float64:
		b.f64 = make([]float64, 0, capacity)
	case Float32:
		b.f32 = make([]float32, 0, capacity)
	case Int64:
		b.i64 = make([]int64, 0, capacity)
	case Int32:
		b.i32 = make([]int32, 0, capacity)
	case UInt64:
		b.u64 = make([]uint64, 0, capacity)
	case UInt32:
		b.u32 = make([]uint32, 0, capacity)
	case Bool:
		b.bools = make([]bool, 0, capacity)
	case String:
		b.strs = make([]string, 0, capacity)
	case Categorical:
		b.catLookup = make(map[string]int32)
		b.catIdx = make([]int32, 0, capacity)
	}
	return b
}

func (b *seriesBuilder) appendNull() {
	if b.nulls == nil {
		b.nulls = roaring.New()
	}
	b.nulls.Add(uint32(b.n))
	switch b.dtype {
	case Float64:
		b.f64 = append(b.f64, 0)
	case Float32:
		b.f32 = append(b.f32, 0)
	case Int64:
		b.i64 = append(b.i64, 0)
	case Int32:
		b.i32 = append(b.i32, 0)
	case UInt64:
		b.u64 = append(b.u64, 0)
	case UInt32:
		b.u32 = append(b.u32, 0)
	case Bool:
		b.bools = append(b.bools, false)
	case String:
		b.strs = append(b.strs, "")
	case Categorical:
		b.catIdx = append(b.catIdx, 0)
	}
	b.n++
}

func (b *seriesBuilder) append(v any) error {
	if v == nil {
		b.appendNull()
		return nil
	}

	switch b.dtype {
	case Float64:
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		b.f64 = append(b.f64, f)
	case Float32:
		f, ok := v.(float32)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		b.f32 = append(b.f32, f)
	case Int64, Int32, UInt64, UInt32:
		neg, mag, ok := toInteger(v)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		if err := b.appendInteger(neg, mag); err != nil {
			return err
		}
	case Bool:
		x, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		b.bools = append(b.bools, x)
	case String:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		b.strs = append(b.strs, x)
	case Categorical:
		x, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
		}
		idx, seen := b.catLookup[x]
		if !seen {
			idx = int32(len(b.catValues))
			b.catLookup[x] = idx
			b.catValues = append(b.catValues, x)
		}
		b.catIdx = append(b.catIdx, idx)
	default:
		return fmt.Errorf("%w: cannot store %T in %s", ErrUnsupportedDType, v, b.dtype)
	}
	b.n++
	return nil
}

// appendInteger stores an integer given as sign and magnitude, range checked
// against the target dtype.
func (b *seriesBuilder) appendInteger(neg bool, mag uint64) error {
	outOfRange := fmt.Errorf("integer out of range for %s", b.dtype)
	switch b.dtype {
	case Int64:
		if (!neg && mag > math.MaxInt64) || (neg && mag > 1<<63) {
			return outOfRange
		}
		b.i64 = append(b.i64, signed(neg, mag))
	case Int32:
		if (!neg && mag > math.MaxInt32) || (neg && mag > 1<<31) {
			return outOfRange
		}
		b.i32 = append(b.i32, int32(signed(neg, mag)))
	case UInt64:
		if neg {
			return outOfRange
		}
		b.u64 = append(b.u64, mag)
	case UInt32:
		if neg || mag > math.MaxUint32 {
			return outOfRange
		}
		b.u32 = append(b.u32, uint32(mag))
	}
	return nil
}

func signed(neg bool, mag uint64) int64 {
	if neg {
		return int64(-mag)
	}
	return int64(mag)
}

func (b *seriesBuilder) finish() *Series {
	if b.dtype == Categorical {
		s := newCategorical(b.name, b.catValues, b.catIdx, b.nulls)
		return s
	}
	if b.dtype == Null {
		return NewSeriesNull(b.name, b.n)
	}
	if b.nulls != nil {
		b.nulls.RunOptimize()
	}
	return &Series{
		name:   b.name,
		dtype:  b.dtype,
		length: b.n,
		f64:    b.f64,
		f32:    b.f32,
		i64:    b.i64,
		i32:    b.i32,
		u64:    b.u64,
		u32:    b.u32,
		bools:  b.bools,
		strs:   b.strs,
		nulls:  b.nulls,
	}
}
