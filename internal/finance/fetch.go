package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fetchConcurrency bounds in-flight requests per FetchFrame call.
const fetchConcurrency = 4

// FetchFrame fetches daily bars for every symbol and aligns them into a PriceFrame.
// Symbols that fail, or whose series has no defined value for field, are dropped and
// returned in the PartialSymbolFailure. If nothing usable comes back, or ctx expires
// before any series arrives, the error is a *NoDataError.
func FetchFrame(ctx context.Context, src Source, symbols []string, w Window, field PriceField) (*PriceFrame, *PartialSymbolFailure, error) {
	symbols = NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil, nil, errors.New("fetch: empty symbol set")
	}

	series := make([]*TickerSeries, len(symbols))
	reasons := make([]string, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			s, err := src.FetchDaily(gctx, sym, w)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				reasons[i] = err.Error()
			case s == nil || s.Defined(field) == 0:
				reasons[i] = "all values missing"
			default:
				series[i] = s
			}
			return nil
		})
	}
	_ = g.Wait()

	var kept []*TickerSeries
	var partial PartialSymbolFailure
	for i, sym := range symbols {
		if series[i] != nil {
			kept = append(kept, series[i])
			continue
		}
		partial.Failures = append(partial.Failures, SymbolFailure{Symbol: sym, Reason: reasons[i]})
	}
	if len(kept) == 0 {
		cause := ctx.Err()
		if cause == nil && len(partial.Failures) > 0 {
			cause = fmt.Errorf("%s: %s", partial.Failures[0].Symbol, partial.Failures[0].Reason)
		}
		return nil, nil, &NoDataError{Symbols: symbols, Cause: cause}
	}
	if len(partial.Failures) == 0 {
		return NewPriceFrame(kept), nil, nil
	}
	return NewPriceFrame(kept), &partial, nil
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols, keeping first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
