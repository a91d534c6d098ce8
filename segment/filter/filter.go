package filter

import (
	"math"

	"github.com/spaolacci/murmur3"
)

// Filter is an in-memory bloom filter over segment keys. It is rebuilt from
// the segment file on open and never persisted. Hashing is stateless, so a
// built filter is safe for concurrent Contains calls.
type Filter struct {
	bitset []bool
	seeds  []uint32
}

func New(n int, p float64) *Filter {
	if n <= 0 || p <= 0 || p >= 1 {
		return nil
	}

	m := int(math.Ceil(-float64(n) * math.Log(p) / math.Pow(math.Log(2), 2)))
	k := int(math.Round((float64(m) / float64(n)) * math.Log(2)))

	if m == 0 || k == 0 {
		return nil
	}

	seeds := make([]uint32, k)
	for i := range seeds {
		seeds[i] = uint32(i)
	}

	return &Filter{
		bitset: make([]bool, m),
		seeds:  seeds,
	}
}

// Add adds a key to the bloom filter.
func (f *Filter) Add(key string) {
	for _, seed := range f.seeds {
		index := int(murmur3.Sum32WithSeed([]byte(key), seed)) % len(f.bitset)
		f.bitset[index] = true
	}
}

// Contains reports whether the key might be in the set. False is definitive,
// true may be a false positive.
func (f *Filter) Contains(key string) bool {
	for _, seed := range f.seeds {
		index := int(murmur3.Sum32WithSeed([]byte(key), seed)) % len(f.bitset)
		if !f.bitset[index] {
			return false
		}
	}
	return true
}
