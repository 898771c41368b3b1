package galleon

import (
	"fmt"
	"strings"
)

// DType represents the data type of a Series
type DType uint8

const (
	// Numeric types
	Float64 DType = iota
	Float32
	Int64
	Int32
	UInt64
	UInt32

	// Other types
	Bool
	String

	// Null type (all values null, no storage)
	Null

	// Categorical type (dictionary-encoded strings)
	Categorical // String stored as integer indices into a dictionary
)

// String returns the string representation of the DType
func (d DType) String() string {
	switch d {
	case Float64:
		return "Float64"
	case Float32:
		return "Float32"
	case Int64:
		return "Int64"
	case Int32:
		return "Int32"
	case UInt64:
		return "UInt64"
	case UInt32:
		return "UInt32"
	case Bool:
		return "Bool"
	case String:
		return "String"
	case Null:
		return "Null"
	case Categorical:
		return "Categorical"
	default:
		return fmt.Sprintf("Unknown(%d)", d)
	}
}

// IsNumeric returns true if the dtype is a numeric type
func (d DType) IsNumeric() bool {
	switch d {
	case Float64, Float32, Int64, Int32, UInt64, UInt32:
		return true
	default:
		return false
	}
}

// IsFloat returns true if the dtype is a floating point type
func (d DType) IsFloat() bool {
	return d == Float64 || d == Float32
}

// IsInteger returns true if the dtype is an integer type
func (d DType) IsInteger() bool {
	switch d {
	case Int64, Int32, UInt64, UInt32:
		return true
	default:
		return false
	}
}

// IsSigned returns true if the dtype is a signed numeric type
func (d DType) IsSigned() bool {
	switch d {
	case Float64, Float32, Int64, Int32:
		return true
	default:
		return false
	}
}

// IsText returns true for String and Categorical
func (d DType) IsText() bool {
	return d == String || d == Categorical
}

// ============================================================================
// Key Classes
// ============================================================================

// keyClass groups dtypes whose values can be compared as join or group keys.
type keyClass uint8

const (
	classNull keyClass = iota
	classInteger
	classFloat
	classText
	classBool
)

func (k keyClass) String() string {
	switch k {
	case classInteger:
		return "integer"
	case classFloat:
		return "float"
	case classText:
		return "text"
	case classBool:
		return "bool"
	default:
		return "null"
	}
}

func (d DType) keyClass() keyClass {
	switch {
	case d.IsInteger():
		return classInteger
	case d.IsFloat():
		return classFloat
	case d.IsText():
		return classText
	case d == Bool:
		return classBool
	default:
		return classNull
	}
}

// keysCompatible reports whether two key dtypes can be matched against each other.
// An all-null column matches any class.
func keysCompatible(a, b DType) bool {
	ka, kb := a.keyClass(), b.keyClass()
	return ka == kb || ka == classNull || kb == classNull
}

// keysCoalesce reports whether every value of a and b fits the promoted key
// dtype. A signed key never shares a column with UInt64 values.
func keysCoalesce(a, b DType) bool {
	signed := func(d DType) bool { return d.IsInteger() && d.IsSigned() }
	return !(a == UInt64 && signed(b)) && !(b == UInt64 && signed(a))
}

// promoteKeyDType returns the dtype used when values of a and b end up in one column.
func promoteKeyDType(a, b DType) DType {
	switch {
	case a == b:
		return a
	case a == Null:
		return b
	case b == Null:
		return a
	}
	switch a.keyClass() {
	case classInteger:
		if !a.IsSigned() && !b.IsSigned() {
			return UInt64
		}
		return Int64
	case classFloat:
		return Float64
	case classText:
		return String
	default:
		return a
	}
}

// Schema represents the schema of a DataFrame
type Schema struct {
	names  []string
	dtypes []DType
}

// NewSchema creates a new schema from column names and types
func NewSchema(names []string, dtypes []DType) (*Schema, error) {
	if len(names) != len(dtypes) {
		return nil, fmt.Errorf("names and dtypes must have same length: %d != %d", len(names), len(dtypes))
	}

	// Check for duplicate names
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[name] = true
	}

	return &Schema{
		names:  append([]string{}, names...),
		dtypes: append([]DType{}, dtypes...),
	}, nil
}

// Len returns the number of columns in the schema
func (s *Schema) Len() int {
	return len(s.names)
}

// Names returns the column names
func (s *Schema) Names() []string {
	return append([]string{}, s.names...)
}

// DTypes returns the column data types
func (s *Schema) DTypes() []DType {
	return append([]DType{}, s.dtypes...)
}

// GetDType returns the dtype for a column name
func (s *Schema) GetDType(name string) (DType, bool) {
	for i, n := range s.names {
		if n == name {
			return s.dtypes[i], true
		}
	}
	return Null, false
}

// GetIndex returns the index of a column name
func (s *Schema) GetIndex(name string) (int, bool) {
	for i, n := range s.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// String returns a string representation of the schema
func (s *Schema) String() string {
	var b strings.Builder
	b.WriteString("Schema{\n")
	for i, name := range s.names {
		fmt.Fprintf(&b, "  %s: %s\n", name, s.dtypes[i])
	}
	b.WriteString("}")
	return b.String()
}
