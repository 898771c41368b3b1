package galleon

import (
	"math"

	"github.com/zeebo/xxh3"
)

// Row hashing.
//
// Every element hash is a content hash with the top bit cleared, while a null
// hashes to nullHash, which has the top bit set. A null therefore never shares
// an element hash with a present value. Equal values hash equally regardless
// of the column implementation or the width of the integer/float type, so that
// keys of different but compatible dtypes can be matched.

const (
	hashTopBit = uint64(1) << 63

	// nullHash is the element hash of a null.
	nullHash = hashTopBit | 0x2545f4914f6cdd1d

	// rowHashSeed starts every row hash.
	rowHashSeed = uint64(0x84222325cbf29ce4)

	canonicalNaN = uint64(0x7ff8000000000001)
)

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// hashInteger hashes the 64-bit two's complement bits of an integer.
// Signed values must be sign extended by the caller.
func hashInteger(v uint64) uint64 {
	return mix(v) &^ hashTopBit
}

// hashFloat hashes float64 bits. Every NaN hashes alike; -0 and +0 differ.
func hashFloat(f float64) uint64 {
	bits := math.Float64bits(f)
	if f != f {
		bits = canonicalNaN
	}
	return mix(bits^0x5851f42d4c957f2d) &^ hashTopBit
}

func hashString(s string) uint64 {
	return xxh3.HashString(s) &^ hashTopBit
}

func hashBool(b bool) uint64 {
	if b {
		return mix(0x9e3779b97f4a7c15) &^ hashTopBit
	}
	return mix(0x6a09e667f3bcc909) &^ hashTopBit
}

// combineHash folds an element hash into a running row hash.
func combineHash(h, v uint64) uint64 {
	h ^= v + 0x9e3779b97f4a7c15 + (h << 6) + (h >> 2)
	return mix(h)
}

// floatsEqual is value identity: NaN equals NaN and -0 does not equal +0.
func floatsEqual(a, b float64) bool {
	if a != a {
		return b != b
	}
	return a == b && math.Signbit(a) == math.Signbit(b)
}

// hashRows computes one hash per row over the given key columns.
// All columns must have the same length.
func hashRows(cols []Column) []uint64 {
	if len(cols) == 0 {
		return nil
	}
	n := cols[0].Len()
	hashes := make([]uint64, n)
	for i := range hashes {
		hashes[i] = rowHashSeed
	}
	for _, col := range cols {
		for i := range hashes {
			hashes[i] = combineHash(hashes[i], col.HashAt(i))
		}
	}
	return hashes
}

// hashRow computes the hash of a single row, identical to hashRows for that row.
func hashRow(cols []Column, row int) uint64 {
	h := rowHashSeed
	for _, col := range cols {
		h = combineHash(h, col.HashAt(row))
	}
	return h
}

// valuesEqual compares element i of a with element j of b.
// Null equals null and never equals a present value.
func valuesEqual(a Column, i int, b Column, j int) bool {
	an, bn := a.IsNull(i), b.IsNull(j)
	if an || bn {
		return an && bn
	}
	if sa, ok := a.(*Series); ok {
		if sb, ok := b.(*Series); ok && sa.dtype == sb.dtype {
			return sa.equalAt(i, sb, j)
		}
	}
	return canonicalEqual(a.Get(i), b.Get(j))
}

// rowsEqual compares row i over ac with row j over bc, column by column.
func rowsEqual(ac []Column, i int, bc []Column, j int) bool {
	for k := range ac {
		if !valuesEqual(ac[k], i, bc[k], j) {
			return false
		}
	}
	return true
}

// canonicalEqual compares two present boxed values. Integers compare by
// mathematical value and floats by floatsEqual. Values of different classes
// are never equal.
func canonicalEqual(a, b any) bool {
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case float64, float32:
		fx, _ := toFloat(x)
		switch b.(type) {
		case float64, float32:
			fy, _ := toFloat(b)
			return floatsEqual(fx, fy)
		}
		return false
	}
	xn, xm, ok := toInteger(a)
	if !ok {
		return false
	}
	yn, ym, ok := toInteger(b)
	return ok && xn == yn && xm == ym
}

// toInteger splits any Go integer into sign and magnitude.
func toInteger(v any) (neg bool, mag uint64, ok bool) {
	var s int64
	switch x := v.(type) {
	case int:
		s = int64(x)
	case int8:
		s = int64(x)
	case int16:
		s = int64(x)
	case int32:
		s = int64(x)
	case int64:
		s = x
	case uint:
		return false, uint64(x), true
	case uint8:
		return false, uint64(x), true
	case uint16:
		return false, uint64(x), true
	case uint32:
		return false, uint64(x), true
	case uint64:
		return false, x, true
	default:
		return false, 0, false
	}
	if s < 0 {
		return true, uint64(-(s + 1)) + 1, true
	}
	return false, uint64(s), true
}

// toFloat widens float32/float64 and integers to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	}
	neg, mag, ok := toInteger(v)
	if !ok {
		return 0, false
	}
	if neg {
		return -float64(mag), true
	}
	return float64(mag), true
}
