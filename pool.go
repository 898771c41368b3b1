package galleon

import (
	"sync"
)

// BoolMask is a pooled boolean slice used for per-row match marks.
// Call Release() when done to return it to the pool.
type BoolMask struct {
	Data []bool
	pool *sync.Pool
}

// Release returns the mask to the pool for reuse
func (m *BoolMask) Release() {
	if m.pool != nil && m.Data != nil {
		clear(m.Data)
		m.pool.Put(m)
	}
}

// IntSlice is a pooled int slice used for gather index lists.
type IntSlice struct {
	Data []int
	pool *sync.Pool
}

// Release returns the slice to the pool for reuse
func (s *IntSlice) Release() {
	if s.pool != nil && s.Data != nil {
		s.pool.Put(s)
	}
}

// Pool sizes - we use power-of-2 buckets for efficiency
var (
	boolPools [32]*sync.Pool // pools for sizes 2^0 to 2^31
	intPools  [32]*sync.Pool
	poolInit  sync.Once
)

func initPools() {
	poolInit.Do(func() {
		for i := range boolPools {
			size := 1 << i
			boolPools[i] = &sync.Pool{
				New: func() any {
					return &BoolMask{Data: make([]bool, size)}
				},
			}
			intPools[i] = &sync.Pool{
				New: func() any {
					return &IntSlice{Data: make([]int, size)}
				},
			}
		}
	})
}

// getBucket returns the pool bucket index for a given size
func getBucket(size int) int {
	if size <= 0 {
		return 0
	}
	// Find the smallest power of 2 >= size
	bucket := 0
	n := size - 1
	for n > 0 {
		n >>= 1
		bucket++
	}
	if bucket >= 32 {
		bucket = 31
	}
	return bucket
}

// getBoolMask gets an all-false bool mask of exactly size elements.
func getBoolMask(size int) *BoolMask {
	initPools()
	bucket := getBucket(size)
	pool := boolPools[bucket]
	mask := pool.Get().(*BoolMask)
	mask.pool = pool

	if size > cap(mask.Data) {
		mask.Data = make([]bool, size)
		return mask
	}
	mask.Data = mask.Data[:size]
	return mask
}

// getIntSlice gets an int slice of exactly size elements, every one set to fill.
func getIntSlice(size, fill int) *IntSlice {
	initPools()
	bucket := getBucket(size)
	pool := intPools[bucket]
	slice := pool.Get().(*IntSlice)
	slice.pool = pool

	if size > cap(slice.Data) {
		slice.Data = make([]int, size)
	} else {
		slice.Data = slice.Data[:size]
	}
	for i := range slice.Data {
		slice.Data[i] = fill
	}
	return slice
}
