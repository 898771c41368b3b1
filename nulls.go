package galleon

import "github.com/RoaringBitmap/roaring/v2"

// Null positions of a Series are kept in a roaring bitmap. A nil bitmap means
// the Series has no nulls, which is the common case and costs nothing.

// nullsFromValid builds a null bitmap from a validity slice (true = present).
// A short validity slice leaves the trailing positions valid.
func nullsFromValid(valid []bool) *roaring.Bitmap {
	var bm *roaring.Bitmap
	for i, ok := range valid {
		if ok {
			continue
		}
		if bm == nil {
			bm = roaring.New()
		}
		bm.Add(uint32(i))
	}
	return bm
}

func isNullAt(bm *roaring.Bitmap, i int) bool {
	return bm != nil && bm.Contains(uint32(i))
}

func nullCount(bm *roaring.Bitmap) int {
	if bm == nil {
		return 0
	}
	return int(bm.GetCardinality())
}

// gatherNulls computes the null bitmap of a gather by indices.
// Negative indices produce nulls.
func gatherNulls(src *roaring.Bitmap, indices []int) *roaring.Bitmap {
	var bm *roaring.Bitmap
	for i, idx := range indices {
		if idx >= 0 && !isNullAt(src, idx) {
			continue
		}
		if bm == nil {
			bm = roaring.New()
		}
		bm.Add(uint32(i))
	}
	if bm != nil {
		bm.RunOptimize()
	}
	return bm
}

// allNulls returns a bitmap with every position in [0, n) set.
func allNulls(n int) *roaring.Bitmap {
	if n == 0 {
		return nil
	}
	bm := roaring.New()
	bm.AddRange(0, uint64(n))
	return bm
}
