package types

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat64 parses a catalog cell. Blank cells and unparseable text report
// ok=false; VizieR leaves masked values blank.
func ToFloat64(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ToFloat64OrNaN is ToFloat64 with NaN standing in for missing values.
func ToFloat64OrNaN(v string) float64 {
	f, ok := ToFloat64(v)
	if !ok {
		return math.NaN()
	}
	return f
}
