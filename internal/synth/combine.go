// SPDX-License-Identifier: MIT
package synth

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// CombineOp selects how per-sample sources are merged.
type CombineOp int

const (
	Product CombineOp = iota
	Sum
	WeightedSum
)

func (op CombineOp) String() string {
	switch op {
	case Product:
		return "product"
	case Sum:
		return "sum"
	case WeightedSum:
		return "weighted_sum"
	default:
		return "unknown"
	}
}

// ParseCombineOp converts a case-insensitive name to a CombineOp.
func ParseCombineOp(name string) (CombineOp, error) {
	switch strings.ToLower(name) {
	case "", "product", "mul":
		return Product, nil
	case "sum", "add":
		return Sum, nil
	case "weighted_sum", "weighted-sum", "weighted":
		return WeightedSum, nil
	default:
		return Product, fmt.Errorf("unknown combine op: '%s'", name)
	}
}

// Combiner merges a fixed number of sources into one value.
type Combiner struct {
	op      CombineOp
	weights []float64
}

// NewCombiner validates the weights against the op. WeightedSum needs one
// weight per source; the other ops ignore weights.
func NewCombiner(op CombineOp, weights []float64) (*Combiner, error) {
	switch op {
	case Product, Sum:
		return &Combiner{op: op}, nil
	case WeightedSum:
		if len(weights) == 0 {
			return nil, fmt.Errorf("weighted sum requires weights")
		}
		w := make([]float64, len(weights))
		copy(w, weights)
		return &Combiner{op: op, weights: w}, nil
	default:
		return nil, fmt.Errorf("unknown combine op %d", op)
	}
}

// Op returns the configured operation.
func (c *Combiner) Op() CombineOp {
	return c.op
}

// Combine merges sources. For WeightedSum, len(sources) must equal the number
// of weights the combiner was built with.
func (c *Combiner) Combine(sources []float64) float64 {
	switch c.op {
	case Sum:
		return floats.Sum(sources)
	case WeightedSum:
		return floats.Dot(c.weights, sources)
	default:
		return floats.Prod(sources)
	}
}

// Clip is a hard saturating clamp to [lo, hi]. NaN passes through unchanged.
func Clip(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

// IsClipped reports whether Clip would change v.
func IsClipped(v, lo, hi float64) bool {
	return v > hi || v < lo
}

// IsFinite reports whether v is neither NaN nor ±Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
