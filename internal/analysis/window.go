// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc defines the type for selecting an analysis window function.
type WindowFunc int

// Enum for available window functions. None leaves the samples untouched,
// which is the default for spectrum export.
const (
	None WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

func (w WindowFunc) String() string {
	switch w {
	case None:
		return "none"
	case BartlettHann:
		return "bartletthann"
	case Blackman:
		return "blackman"
	case BlackmanNuttall:
		return "blackmannuttall"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Lanczos:
		return "lanczos"
	case Nuttall:
		return "nuttall"
	default:
		return "unknown"
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return None and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "", "none", "rectangular":
		return None, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return None, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// windowCoefficients returns n coefficients of the selected window. Windows
// of length 1 are degenerate (the gonum formulas divide by n-1), so a single
// sample is always weighted by 1.
func windowCoefficients(n int, windowType WindowFunc) []float64 {
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	if n < 2 {
		return coeffs
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	}
	return coeffs
}
