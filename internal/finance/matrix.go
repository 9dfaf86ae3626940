package finance

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Matrix holds the covariance and correlation of every symbol pair.
// Cells are NaN where fewer than two overlapping returns exist or either side
// is constant over the overlap.
type Matrix struct {
	Symbols     []string
	Covariance  *mat.SymDense
	Correlation *mat.SymDense
	index       map[string]int
}

// ComputeMatrix builds both matrices from rs using pairwise-complete observations.
func ComputeMatrix(rs *ReturnSet) *Matrix {
	n := len(rs.Symbols)
	m := &Matrix{
		Symbols: append([]string(nil), rs.Symbols...),
		index:   make(map[string]int, n),
	}
	for i, s := range m.Symbols {
		m.index[s] = i
	}
	if n == 0 {
		return m
	}
	m.Covariance = mat.NewSymDense(n, nil)
	m.Correlation = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov, corr := pairwise(rs.Series[m.Symbols[i]], rs.Series[m.Symbols[j]], i == j)
			m.Covariance.SetSym(i, j, cov)
			m.Correlation.SetSym(i, j, corr)
		}
	}
	return m
}

// Len is the number of symbols.
func (m *Matrix) Len() int { return len(m.Symbols) }

// Has reports whether symbol is indexed.
func (m *Matrix) Has(symbol string) bool {
	_, ok := m.index[symbol]
	return ok
}

// Cov returns covariance[a][b]; ok is false if either symbol is unknown.
func (m *Matrix) Cov(a, b string) (float64, bool) {
	return m.at(m.Covariance, a, b)
}

// Corr returns correlation[a][b]; ok is false if either symbol is unknown.
func (m *Matrix) Corr(a, b string) (float64, bool) {
	return m.at(m.Correlation, a, b)
}

func (m *Matrix) at(d *mat.SymDense, a, b string) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return math.NaN(), false
	}
	j, ok := m.index[b]
	if !ok {
		return math.NaN(), false
	}
	return d.At(i, j), true
}

// pairwise computes sample covariance and Pearson correlation over the dates where
// both x and y are defined. diagonal marks x and y as the same series.
func pairwise(x, y []float64, diagonal bool) (cov, corr float64) {
	nan := math.NaN()
	xs, ys := overlap(x, y)
	if len(xs) < 2 {
		return nan, nan
	}
	if diagonal {
		if constant(xs) {
			return 0, nan
		}
		c, err := stats.Covariance(xs, xs)
		if err != nil {
			return nan, nan
		}
		return c, 1
	}
	if constant(xs) || constant(ys) {
		return nan, nan
	}
	c, err := stats.Covariance(xs, ys)
	if err != nil {
		return nan, nan
	}
	r, err := stats.Correlation(xs, ys)
	if err != nil {
		return c, nan
	}
	return c, r
}

func overlap(x, y []float64) (stats.Float64Data, stats.Float64Data) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make(stats.Float64Data, 0, n)
	ys := make(stats.Float64Data, 0, n)
	for t := 0; t < n; t++ {
		if math.IsNaN(x[t]) || math.IsNaN(y[t]) || math.IsInf(x[t], 0) || math.IsInf(y[t], 0) {
			continue
		}
		xs = append(xs, x[t])
		ys = append(ys, y[t])
	}
	return xs, ys
}

func constant(xs stats.Float64Data) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}
