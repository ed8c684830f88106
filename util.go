package gora

import "math/bits"

// bitset is a fixed-size set of field indices.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) get(i int) bool {
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) unset(i int) {
	b[i/64] &^= 1 << (uint(i) % 64)
}

func (b bitset) reset() {
	clear(b)
}

func (b bitset) any() bool {
	for _, w := range b {
		if w != 0 {
			return true
		}
	}
	return false
}

func (b bitset) indices() []int {
	var result []int
	for wi, w := range b {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			result = append(result, wi*64+bit)
			w &^= 1 << uint(bit)
		}
	}
	return result
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
