// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to size transforms.

A spectrum whose transform length is left unset is computed over the
smallest power of two that holds every input sample:

	k := bitint.NextPowerOfTwo(len(samples)) // 44100 -> 65536

NextPowerOfTwo subtracts one before taking the bit length so that an exact
power of two maps to itself: 8-1 = 0b0111 has length 3, and 1<<3 = 8.
Without the subtraction 8 would be doubled to 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size. Sizes of zero or
// less return 1.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has exactly one bit set, so clearing its lowest set bit leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
