package finance

import (
	"fmt"
	"strings"
)

// NoDataError means the source returned nothing usable for the whole requested universe.
type NoDataError struct {
	Symbols []string
	Cause   error
}

func (e *NoDataError) Error() string {
	msg := "no data for " + strings.Join(e.Symbols, ", ")
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *NoDataError) Unwrap() error { return e.Cause }

// BenchmarkNotFoundError means the benchmark is missing from the fetched universe.
type BenchmarkNotFoundError struct {
	Benchmark string
}

func (e *BenchmarkNotFoundError) Error() string {
	return fmt.Sprintf("benchmark %s not found in fetched universe", e.Benchmark)
}

// DegenerateBenchmarkError means the benchmark's own variance is zero or undefined,
// so no scaled covariance would be finite.
type DegenerateBenchmarkError struct {
	Benchmark string
	Variance  float64
}

func (e *DegenerateBenchmarkError) Error() string {
	return fmt.Sprintf("benchmark %s has degenerate variance %v", e.Benchmark, e.Variance)
}

// SymbolFailure records why one symbol was dropped from the universe.
type SymbolFailure struct {
	Symbol string
	Reason string
}

// PartialSymbolFailure lists symbols dropped before computation. It is not fatal;
// the pipeline attaches it to the Result.
type PartialSymbolFailure struct {
	Failures []SymbolFailure
}

func (e *PartialSymbolFailure) Error() string {
	return "dropped symbols: " + strings.Join(e.Symbols(), ", ")
}

// Symbols returns the dropped symbols in the order they failed.
func (e *PartialSymbolFailure) Symbols() []string {
	out := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Symbol)
	}
	return out
}
