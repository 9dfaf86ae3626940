package finance

import "math"

// priceAt reads vals[i], mapping absent, null and negative entries to NaN so the
// bar stays aligned with its timestamp.
func priceAt(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return math.NaN()
	}
	v := *vals[i]
	if v < 0 || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// dedupeByDate keeps the last bar of each date. Yahoo appends a live bar for the
// current session that can repeat the final daily timestamp's date.
func dedupeByDate(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date.Equal(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// allMissing reports whether no bar has a defined open, close or adjusted close.
func allMissing(bars []Bar) bool {
	for _, b := range bars {
		if !math.IsNaN(b.Close) || !math.IsNaN(b.AdjClose) || !math.IsNaN(b.Open) {
			return false
		}
	}
	return true
}
