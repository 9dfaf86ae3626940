package finance

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// ReturnSet holds one return series per symbol, aligned on Dates.
// Dates is the frame's index minus its first date.
type ReturnSet struct {
	Dates   []time.Time
	Symbols []string
	Series  map[string][]float64
}

// PercentChange computes (p[t]-p[t-1])/p[t-1] for t >= 1. A missing price at t or t-1,
// or a zero previous price, yields NaN.
func PercentChange(prices []float64) stats.Float64Data {
	if len(prices) < 2 {
		return stats.Float64Data{}
	}
	out := make(stats.Float64Data, len(prices)-1)
	for t := 1; t < len(prices); t++ {
		prev, cur := prices[t-1], prices[t]
		if math.IsNaN(prev) || math.IsNaN(cur) || prev == 0 {
			out[t-1] = math.NaN()
			continue
		}
		out[t-1] = (cur - prev) / prev
	}
	return out
}

// Returns derives a ReturnSet from frame on the given price field.
func Returns(frame *PriceFrame, field PriceField) *ReturnSet {
	rs := &ReturnSet{
		Symbols: append([]string(nil), frame.Symbols...),
		Series:  make(map[string][]float64, len(frame.Symbols)),
	}
	if frame.Len() > 1 {
		rs.Dates = append([]time.Time(nil), frame.Dates[1:]...)
	}
	for _, s := range frame.Symbols {
		rs.Series[s] = PercentChange(frame.Column(s, field))
	}
	return rs
}
