package finance

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// PriceField selects which price a return is computed on.
type PriceField string

const (
	FieldAdjClose PriceField = "adjclose"
	FieldClose    PriceField = "close"
)

// ParsePriceField accepts "adjclose" (also "adj_close", "adj close") or "close".
// An empty string selects adjusted close.
func ParsePriceField(s string) (PriceField, error) {
	switch strings.ToLower(strings.NewReplacer("_", "", " ", "", "-", "").Replace(strings.TrimSpace(s))) {
	case "", "adjclose", "adjusted", "adjustedclose":
		return FieldAdjClose, nil
	case "close":
		return FieldClose, nil
	}
	return "", fmt.Errorf("unknown price field %q", s)
}

// Bar is one daily sample. Missing values are NaN.
type Bar struct {
	Date     time.Time
	Open     float64
	Close    float64
	AdjClose float64
}

// Price returns the value of the selected field.
func (b Bar) Price(field PriceField) float64 {
	if field == FieldClose {
		return b.Close
	}
	return b.AdjClose
}

func missingBar(date time.Time) Bar {
	nan := math.NaN()
	return Bar{Date: date, Open: nan, Close: nan, AdjClose: nan}
}

// TickerSeries is one symbol's daily bars, ascending by date.
type TickerSeries struct {
	Symbol string
	Bars   []Bar
}

// Defined counts bars with a defined value for field.
func (s *TickerSeries) Defined(field PriceField) int {
	n := 0
	for _, b := range s.Bars {
		if !math.IsNaN(b.Price(field)) {
			n++
		}
	}
	return n
}

// PriceFrame aligns several TickerSeries on a common ascending date index.
type PriceFrame struct {
	Dates   []time.Time
	Symbols []string
	bars    map[string][]Bar
}

// NewPriceFrame aligns the given series on the union of their dates.
// Dates a symbol lacks become missing (NaN) bars.
func NewPriceFrame(series []*TickerSeries) *PriceFrame {
	seen := map[int64]time.Time{}
	for _, s := range series {
		for _, b := range s.Bars {
			seen[b.Date.Unix()] = b.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	pos := make(map[int64]int, len(dates))
	for i, d := range dates {
		pos[d.Unix()] = i
	}

	f := &PriceFrame{Dates: dates, bars: make(map[string][]Bar, len(series))}
	for _, s := range series {
		aligned := make([]Bar, len(dates))
		for i, d := range dates {
			aligned[i] = missingBar(d)
		}
		for _, b := range s.Bars {
			aligned[pos[b.Date.Unix()]] = b
		}
		if _, dup := f.bars[s.Symbol]; !dup {
			f.Symbols = append(f.Symbols, s.Symbol)
		}
		f.bars[s.Symbol] = aligned
	}
	sort.Strings(f.Symbols)
	return f
}

// Has reports whether symbol is part of the frame.
func (f *PriceFrame) Has(symbol string) bool {
	_, ok := f.bars[symbol]
	return ok
}

// Bars returns the aligned bars of symbol, or nil.
func (f *PriceFrame) Bars(symbol string) []Bar {
	return f.bars[symbol]
}

// Column returns the aligned values of field for symbol.
func (f *PriceFrame) Column(symbol string, field PriceField) []float64 {
	bars := f.bars[symbol]
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Price(field)
	}
	return out
}

// Len is the number of dates in the index.
func (f *PriceFrame) Len() int { return len(f.Dates) }

// TailStart returns the first index of the last n rows.
func (f *PriceFrame) TailStart(n int) int {
	if n <= 0 || n >= len(f.Dates) {
		return 0
	}
	return len(f.Dates) - n
}
