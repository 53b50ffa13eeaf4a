package dataprocessing

import (
	"math"
	"sort"
)

// Finite returns the values that are neither NaN nor infinite
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// Mean returns the arithmetic mean, skipping NaN. NaN when nothing remains.
func Mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// Median returns the median of the finite values, NaN when there are none
func Median(values []float64) float64 {
	vals := Finite(values)
	if len(vals) == 0 {
		return math.NaN()
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// MinMax returns the range of the finite values; ok is false when there are none
func MinMax(values []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range Finite(values) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

// Bin is one histogram bucket covering [Lower, Upper)
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram counts finite values into equal-width bins over [min, max].
// The last bin is closed so the maximum is counted.
func Histogram(values []float64, bins int) []Bin {
	if bins < 1 {
		bins = 1
	}
	lo, hi, ok := MinMax(values)
	if !ok {
		return []Bin{}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for b := range out {
		out[b].Lower = lo + float64(b)*width
		out[b].Upper = lo + float64(b+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range Finite(values) {
		b := bins - 1
		if width > 0 {
			b = int((v - lo) / width)
			if b >= bins {
				b = bins - 1
			}
		}
		out[b].Count++
	}
	return out
}
