package galleon

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Series is a named, typed column held in Go slices.
// Exactly one of the typed slices is populated, chosen by dtype. Null
// positions live in a roaring bitmap; the data slot at a null position holds
// the zero value and is never read.
type Series struct {
	name   string
	dtype  DType
	length int

	f64   []float64
	f32   []float32
	i64   []int64
	i32   []int32
	u64   []uint64
	u32   []uint32
	bools []bool
	strs  []string

	catData   *categoricalData
	catHashes []uint64 // content hash per category, indexed like Categories

	nulls *roaring.Bitmap
}

// categoricalData is the dictionary encoding of a Categorical series.
type categoricalData struct {
	Categories []string
	Indices    []int32
}

// NewSeriesFloat64 creates a Float64 Series from a Go slice.
func NewSeriesFloat64(name string, data []float64) *Series {
	return &Series{name: name, dtype: Float64, length: len(data), f64: data}
}

// NewSeriesFloat32 creates a Float32 Series from a Go slice.
func NewSeriesFloat32(name string, data []float32) *Series {
	return &Series{name: name, dtype: Float32, length: len(data), f32: data}
}

// NewSeriesInt64 creates an Int64 Series from a Go slice.
func NewSeriesInt64(name string, data []int64) *Series {
	return &Series{name: name, dtype: Int64, length: len(data), i64: data}
}

// NewSeriesInt32 creates an Int32 Series from a Go slice.
func NewSeriesInt32(name string, data []int32) *Series {
	return &Series{name: name, dtype: Int32, length: len(data), i32: data}
}

// NewSeriesUInt64 creates a UInt64 Series from a Go slice.
func NewSeriesUInt64(name string, data []uint64) *Series {
	return &Series{name: name, dtype: UInt64, length: len(data), u64: data}
}

// NewSeriesUInt32 creates a UInt32 Series from a Go slice.
func NewSeriesUInt32(name string, data []uint32) *Series {
	return &Series{name: name, dtype: UInt32, length: len(data), u32: data}
}

// NewSeriesBool creates a Bool Series from a Go slice.
func NewSeriesBool(name string, data []bool) *Series {
	return &Series{name: name, dtype: Bool, length: len(data), bools: data}
}

// NewSeriesString creates a String Series from a Go slice.
func NewSeriesString(name string, data []string) *Series {
	return &Series{name: name, dtype: String, length: len(data), strs: data}
}

// NewSeriesNull creates a Series of n nulls.
func NewSeriesNull(name string, n int) *Series {
	return &Series{name: name, dtype: Null, length: n, nulls: allNulls(n)}
}

// NewSeriesCategorical creates a Categorical Series, building the dictionary
// from the values in order of first appearance.
func NewSeriesCategorical(name string, data []string) *Series {
	lookup := make(map[string]int32)
	categories := make([]string, 0)
	indices := make([]int32, len(data))
	for i, v := range data {
		idx, ok := lookup[v]
		if !ok {
			idx = int32(len(categories))
			lookup[v] = idx
			categories = append(categories, v)
		}
		indices[i] = idx
	}
	return newCategorical(name, categories, indices, nil)
}

// NewSeriesCategoricalWithCategories creates a Categorical Series with a fixed
// dictionary. Every value must be one of the categories.
func NewSeriesCategoricalWithCategories(name string, data []string, categories []string) (*Series, error) {
	lookup := make(map[string]int32, len(categories))
	for i, c := range categories {
		if _, dup := lookup[c]; dup {
			return nil, fmt.Errorf("duplicate category %q", c)
		}
		lookup[c] = int32(i)
	}

	indices := make([]int32, len(data))
	for i, v := range data {
		idx, ok := lookup[v]
		if !ok {
			return nil, fmt.Errorf("value %q at row %d is not a category of %s", v, i, name)
		}
		indices[i] = idx
	}
	return newCategorical(name, append([]string{}, categories...), indices, nil), nil
}

// newCategorical wires up a categorical series. Negative indices are nulls.
func newCategorical(name string, categories []string, indices []int32, nulls *roaring.Bitmap) *Series {
	for i, idx := range indices {
		if idx < 0 {
			if nulls == nil {
				nulls = roaring.New()
			}
			nulls.Add(uint32(i))
			indices[i] = 0
		}
	}
	hashes := make([]uint64, len(categories))
	for i, c := range categories {
		hashes[i] = hashString(c)
	}
	return &Series{
		name:      name,
		dtype:     Categorical,
		length:    len(indices),
		catData:   &categoricalData{Categories: categories, Indices: indices},
		catHashes: hashes,
		nulls:     nulls,
	}
}

// NewSeriesInt64WithNulls creates an Int64 Series with null values.
// The valid slice indicates which values are valid (true) vs null (false).
func NewSeriesInt64WithNulls(name string, data []int64, valid []bool) *Series {
	return NewSeriesInt64(name, data).WithNulls(valid)
}

// NewSeriesFloat64WithNulls creates a Float64 Series with null values.
func NewSeriesFloat64WithNulls(name string, data []float64, valid []bool) *Series {
	return NewSeriesFloat64(name, data).WithNulls(valid)
}

// NewSeriesStringWithNulls creates a String Series with null values.
func NewSeriesStringWithNulls(name string, data []string, valid []bool) *Series {
	return NewSeriesString(name, data).WithNulls(valid)
}

// WithNulls returns a Series sharing this data with the given validity.
func (s *Series) WithNulls(valid []bool) *Series {
	out := *s
	out.nulls = nullsFromValid(valid)
	return &out
}

// NewSeriesFromValues builds a Series of the given dtype from boxed values.
// nil entries become nulls. Numeric values are converted within their class.
func NewSeriesFromValues(name string, dtype DType, values []any) (*Series, error) {
	b := newSeriesBuilder(name, dtype, len(values))
	for i, v := range values {
		if err := b.append(v); err != nil {
			return nil, fmt.Errorf("%s row %d: %w", name, i, err)
		}
	}
	return b.finish(), nil
}

// ============================================================================
// Metadata
// ============================================================================

// Name returns the series name.
func (s *Series) Name() string {
	return s.name
}

// DType returns the data type.
func (s *Series) DType() DType {
	return s.dtype
}

// Len returns the number of elements.
func (s *Series) Len() int {
	return s.length
}

// NullCount returns the number of null values.
func (s *Series) NullCount() int {
	return nullCount(s.nulls)
}

// HasNulls returns true if the series has any null values.
func (s *Series) HasNulls() bool {
	return s.nulls != nil && !s.nulls.IsEmpty()
}

// Rename returns the series under a new name. Data is shared.
func (s *Series) Rename(name string) Column {
	return s.WithName(name)
}

// WithName is Rename with a concrete return type.
func (s *Series) WithName(name string) *Series {
	out := *s
	out.name = name
	return &out
}

// ============================================================================
// Data Access
// ============================================================================

// IsNull returns true if the value at index is null.
func (s *Series) IsNull(i int) bool {
	return isNullAt(s.nulls, i)
}

// IsValid returns true if the value at the given index is valid (not null).
// Returns false if index is out of bounds.
func (s *Series) IsValid(i int) bool {
	return i >= 0 && i < s.length && !s.IsNull(i)
}

// Get returns the value at index, or nil if it is null.
func (s *Series) Get(i int) any {
	if s.IsNull(i) {
		return nil
	}
	switch s.dtype {
	case Float64:
		return s.f64[i]
	case Float32:
		return s.f32[i]
	case Int64:
		return s.i64[i]
	case Int32:
		return s.i32[i]
	case UInt64:
		return s.u64[i]
	case UInt32:
		return s.u32[i]
	case Bool:
		return s.bools[i]
	case String:
		return s.strs[i]
	case Categorical:
		return s.catData.Categories[s.catData.Indices[i]]
	default:
		return nil
	}
}

// GetInt64 returns the value at index as int64 for any integer dtype.
func (s *Series) GetInt64(i int) (int64, bool) {
	if s.IsNull(i) {
		return 0, false
	}
	switch s.dtype {
	case Int64:
		return s.i64[i], true
	case Int32:
		return int64(s.i32[i]), true
	case UInt64:
		if s.u64[i] > math.MaxInt64 {
			return 0, false
		}
		return int64(s.u64[i]), true
	case UInt32:
		return int64(s.u32[i]), true
	default:
		return 0, false
	}
}

// GetFloat64 returns the value at index as float64 for any numeric dtype.
func (s *Series) GetFloat64(i int) (float64, bool) {
	if s.IsNull(i) {
		return 0, false
	}
	switch s.dtype {
	case Float64:
		return s.f64[i], true
	case Float32:
		return float64(s.f32[i]), true
	case Int64:
		return float64(s.i64[i]), true
	case Int32:
		return float64(s.i32[i]), true
	case UInt64:
		return float64(s.u64[i]), true
	case UInt32:
		return float64(s.u32[i]), true
	default:
		return 0, false
	}
}

// GetString returns the value at index for String and Categorical series.
func (s *Series) GetString(i int) (string, bool) {
	if s.IsNull(i) {
		return "", false
	}
	switch s.dtype {
	case String:
		return s.strs[i], true
	case Categorical:
		return s.catData.Categories[s.catData.Indices[i]], true
	default:
		return "", false
	}
}

// Float64 returns the underlying float64 slice (nil for other dtypes).
func (s *Series) Float64() []float64 { return s.f64 }

// Float32 returns the underlying float32 slice.
func (s *Series) Float32() []float32 { return s.f32 }

// Int64 returns the underlying int64 slice.
func (s *Series) Int64() []int64 { return s.i64 }

// Int32 returns the underlying int32 slice.
func (s *Series) Int32() []int32 { return s.i32 }

// UInt64 returns the underlying uint64 slice.
func (s *Series) UInt64() []uint64 { return s.u64 }

// UInt32 returns the underlying uint32 slice.
func (s *Series) UInt32() []uint32 { return s.u32 }

// Bool returns the underlying bool slice.
func (s *Series) Bool() []bool { return s.bools }

// Strings returns the underlying string slice.
func (s *Series) Strings() []string { return s.strs }

// Categories returns the dictionary of a Categorical series.
func (s *Series) Categories() []string {
	if s.catData == nil {
		return nil
	}
	return s.catData.Categories
}

// CategoricalIndices returns the dictionary indices of a Categorical series.
// Indices at null positions are meaningless.
func (s *Series) CategoricalIndices() []int32 {
	if s.catData == nil {
		return nil
	}
	return s.catData.Indices
}

// Values materializes the series as boxed values with nil for nulls.
func (s *Series) Values() []any {
	return ColumnValues(s)
}

// ============================================================================
// Hashing and Equality
// ============================================================================

// HashAt returns the content hash of the element at i (nullHash for nulls).
func (s *Series) HashAt(i int) uint64 {
	if s.IsNull(i) {
		return nullHash
	}
	switch s.dtype {
	case Float64:
		return hashFloat(s.f64[i])
	case Float32:
		return hashFloat(float64(s.f32[i]))
	case Int64:
		return hashInteger(uint64(s.i64[i]))
	case Int32:
		return hashInteger(uint64(int64(s.i32[i])))
	case UInt64:
		return hashInteger(s.u64[i])
	case UInt32:
		return hashInteger(uint64(s.u32[i]))
	case Bool:
		return hashBool(s.bools[i])
	case String:
		return hashString(s.strs[i])
	case Categorical:
		return s.catHashes[s.catData.Indices[i]]
	default:
		return nullHash
	}
}

// equalAt compares two present elements of series with the same dtype.
func (s *Series) equalAt(i int, o *Series, j int) bool {
	switch s.dtype {
	case Float64:
		return floatsEqual(s.f64[i], o.f64[j])
	case Float32:
		return floatsEqual(float64(s.f32[i]), float64(o.f32[j]))
	case Int64:
		return s.i64[i] == o.i64[j]
	case Int32:
		return s.i32[i] == o.i32[j]
	case UInt64:
		return s.u64[i] == o.u64[j]
	case UInt32:
		return s.u32[i] == o.u32[j]
	case Bool:
		return s.bools[i] == o.bools[j]
	case String:
		return s.strs[i] == o.strs[j]
	case Categorical:
		if s.catData == o.catData {
			return s.catData.Indices[i] == o.catData.Indices[j]
		}
		return s.catData.Categories[s.catData.Indices[i]] == o.catData.Categories[o.catData.Indices[j]]
	default:
		return true
	}
}

// ============================================================================
// Gather
// ============================================================================

// Take gathers values by position into a new Series. Negative indices produce
// nulls. Categorical series keep their dictionary.
func (s *Series) Take(indices []int) *Series {
	n := len(indices)
	out := &Series{name: s.name, dtype: s.dtype, length: n}

	switch s.dtype {
	case Float64:
		out.f64 = gather(s.f64, indices)
	case Float32:
		out.f32 = gather(s.f32, indices)
	case Int64:
		out.i64 = gather(s.i64, indices)
	case Int32:
		out.i32 = gather(s.i32, indices)
	case UInt64:
		out.u64 = gather(s.u64, indices)
	case UInt32:
		out.u32 = gather(s.u32, indices)
	case Bool:
		out.bools = gather(s.bools, indices)
	case String:
		out.strs = gather(s.strs, indices)
	case Categorical:
		out.catData = &categoricalData{
			Categories: s.catData.Categories,
			Indices:    gather(s.catData.Indices, indices),
		}
		out.catHashes = s.catHashes
	case Null:
		out.nulls = allNulls(n)
		return out
	}

	out.nulls = gatherNulls(s.nulls, indices)
	return out
}

func gather[T any](src []T, indices []int) []T {
	dst := make([]T, len(indices))
	for i, idx := range indices {
		if idx >= 0 {
			dst[i] = src[idx]
		}
	}
	return dst
}

// Repeat returns each element repeated n times contiguously.
func (s *Series) Repeat(n int) *Series {
	indices := make([]int, 0, s.length*n)
	for i := 0; i < s.length; i++ {
		for k := 0; k < n; k++ {
			indices = append(indices, i)
		}
	}
	return s.Take(indices)
}

// Tile returns the whole series concatenated n times.
func (s *Series) Tile(n int) *Series {
	indices := make([]int, 0, s.length*n)
	for k := 0; k < n; k++ {
		for i := 0; i < s.length; i++ {
			indices = append(indices, i)
		}
	}
	return s.Take(indices)
}

// Head returns the first n elements.
func (s *Series) Head(n int) *Series {
	if n > s.length {
		n = s.length
	}
	return s.Take(seq(0, n))
}

// seq returns [start, end).
func seq(start, end int) []int {
	if end < start {
		return nil
	}
	out := make([]int, end-start)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func (s *Series) String() string {
	return fmt.Sprintf("Series(%s, %s, len=%d)", s.name, s.dtype, s.length)
}
