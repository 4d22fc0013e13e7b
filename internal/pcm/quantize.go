// SPDX-License-Identifier: MIT
/*
Package pcm maps floating point samples onto signed fixed-width integers.

Scaling is symmetric: a sample of 1.0 maps to 2^(bits-1)-1 and -1.0 maps to
-(2^(bits-1)-1). The scaled value is truncated toward zero and then clamped to
the signed range of the bit depth, so the most negative code is only reached
by samples below -1.0.
*/
package pcm

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnsupportedBitDepth is returned for widths other than 8, 16, 24 or 32 bits.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// SupportedBitDepths lists the container widths the quantizer can target.
var SupportedBitDepths = []int{8, 16, 24, 32}

// Quantizer holds the pre-computed scale and bounds for one bit depth.
type Quantizer struct {
	bitDepth int
	scale    float64 // 2^(bits-1) - 1
	min      int     // -(2^(bits-1))
	max      int     // 2^(bits-1) - 1
}

// NewQuantizer validates bitDepth and returns a quantizer for it.
func NewQuantizer(bitDepth int) (*Quantizer, error) {
	if !IsSupported(bitDepth) {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	half := 1 << (bitDepth - 1)
	return &Quantizer{
		bitDepth: bitDepth,
		scale:    float64(half - 1),
		min:      -half,
		max:      half - 1,
	}, nil
}

// IsSupported reports whether bitDepth is one of SupportedBitDepths.
func IsSupported(bitDepth int) bool {
	for _, b := range SupportedBitDepths {
		if b == bitDepth {
			return true
		}
	}
	return false
}

// Quantize converts one sample. NaN maps to 0, ±Inf saturate.
func (q *Quantizer) Quantize(sample float64) int {
	if math.IsNaN(sample) {
		return 0
	}
	v := math.Trunc(sample * q.scale)
	if v >= float64(q.max) {
		return q.max
	}
	if v <= float64(q.min) {
		return q.min
	}
	return int(v)
}

// BitDepth returns the configured width.
func (q *Quantizer) BitDepth() int {
	return q.bitDepth
}

// FullScale returns 2^(bits-1) - 1, the code for a sample of 1.0.
func (q *Quantizer) FullScale() int {
	return q.max
}

// Range returns the smallest and largest representable codes.
func (q *Quantizer) Range() (int, int) {
	return q.min, q.max
}

// Quantize is a convenience wrapper around NewQuantizer for one-off conversions.
func Quantize(sample float64, bitDepth int) (int, error) {
	q, err := NewQuantizer(bitDepth)
	if err != nil {
		return 0, err
	}
	return q.Quantize(sample), nil
}

// Normalize maps a code back into [-1, 1] using the same symmetric scale.
func (q *Quantizer) Normalize(code int) float64 {
	return float64(code) / q.scale
}
