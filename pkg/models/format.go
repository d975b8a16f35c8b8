package models

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders v as CSV text. With precision >= 0 it uses a fixed
// number of decimals. Otherwise it produces the shortest decimal that
// round-trips, keeping one decimal for integral values (15 -> "15.0") and
// switching to exponent form outside [1e-4, 1e16).
func FormatFloat(v float64, precision int) string {
	if precision >= 0 {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}

	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
