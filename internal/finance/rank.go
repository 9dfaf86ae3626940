package finance

import (
	"math"
	"sort"
)

// RankedMetric is one non-benchmark symbol's co-movement with the benchmark.
type RankedMetric struct {
	Symbol           string
	Correlation      float64
	Covariance       float64
	ScaledCovariance float64
}

// Rank scales each symbol's covariance with benchmark by the benchmark's own variance and
// sorts the rows by scaled covariance descending, ties by symbol ascending. Rows whose
// scaled covariance is NaN come last.
func Rank(m *Matrix, benchmark string) ([]RankedMetric, error) {
	self, ok := m.Cov(benchmark, benchmark)
	if !ok {
		return nil, &BenchmarkNotFoundError{Benchmark: benchmark}
	}
	if self == 0 || math.IsNaN(self) || math.IsInf(self, 0) {
		return nil, &DegenerateBenchmarkError{Benchmark: benchmark, Variance: self}
	}

	rows := make([]RankedMetric, 0, m.Len())
	for _, s := range m.Symbols {
		if s == benchmark {
			continue
		}
		cov, _ := m.Cov(s, benchmark)
		corr, _ := m.Corr(s, benchmark)
		rows = append(rows, RankedMetric{
			Symbol:           s,
			Correlation:      corr,
			Covariance:       cov,
			ScaledCovariance: cov / self,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rankLess(rows[i], rows[j]) })
	return rows, nil
}

func rankLess(a, b RankedMetric) bool {
	an, bn := math.IsNaN(a.ScaledCovariance), math.IsNaN(b.ScaledCovariance)
	switch {
	case an && bn:
		return a.Symbol < b.Symbol
	case an:
		return false
	case bn:
		return true
	case a.ScaledCovariance != b.ScaledCovariance:
		return a.ScaledCovariance > b.ScaledCovariance
	}
	return a.Symbol < b.Symbol
}

// Top returns at most n leading rows.
func Top(rows []RankedMetric, n int) []RankedMetric {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}
