package util

import "math/bits"

// Hamming weights of all 8-bit values.
var weights = func() [256]int {
	var w [256]int
	for i := range w {
		w[i] = bits.OnesCount8(uint8(i))
	}
	return w
}()

// Weight returns the Hamming weight of x.
func Weight(x byte) int {
	return weights[x]
}

// Parity returns the XOR of all bits of x.
func Parity(x byte) byte {
	return byte(weights[x] & 1)
}

// Dot returns the GF(2) inner product of two 8-bit vectors.
func Dot(a, b byte) byte {
	return Parity(a & b)
}
