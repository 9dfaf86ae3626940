package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeMatrixThreeDays(t *testing.T) {
	m := ComputeMatrix(Returns(threeDayFrame(), FieldAdjClose))
	require.Equal(t, []string{"AAPL", "MSFT", "SPY"}, m.Symbols)

	wantCorr := map[[2]string]float64{
		{"AAPL", "AAPL"}: 1, {"AAPL", "MSFT"}: -1, {"AAPL", "SPY"}: 1,
		{"MSFT", "MSFT"}: 1, {"MSFT", "SPY"}: -1,
		{"SPY", "SPY"}: 1,
	}
	for pair, want := range wantCorr {
		got, ok := m.Corr(pair[0], pair[1])
		require.True(t, ok)
		require.InDelta(t, want, got, 1e-9, "%v", pair)
	}

	wantCov := map[[2]string]float64{
		{"SPY", "SPY"}:   0.02,
		{"AAPL", "SPY"}:  0.04,
		{"MSFT", "SPY"}:  -0.015,
		{"AAPL", "AAPL"}: 0.08,
		{"MSFT", "MSFT"}: 0.01125,
	}
	for pair, want := range wantCov {
		got, _ := m.Cov(pair[0], pair[1])
		require.InDelta(t, want, got, 1e-12, "%v", pair)
	}
}

func TestMatrixSymmetry(t *testing.T) {
	m := ComputeMatrix(Returns(threeDayFrame(), FieldAdjClose))
	for _, a := range m.Symbols {
		for _, b := range m.Symbols {
			ab, _ := m.Cov(a, b)
			ba, _ := m.Cov(b, a)
			require.Equal(t, ab, ba)
			cab, _ := m.Corr(a, b)
			cba, _ := m.Corr(b, a)
			require.Equal(t, cab, cba)
		}
	}
}

func TestMatrixConstantSeries(t *testing.T) {
	frame := NewPriceFrame([]*TickerSeries{
		SeriesFromPrices("FLAT", day0, 50, 50, 50),
		SeriesFromPrices("SPY", day0, 100, 110, 99),
	})
	rs := Returns(frame, FieldAdjClose)
	require.Equal(t, []float64{0, 0}, rs.Series["FLAT"])

	m := ComputeMatrix(rs)
	v, _ := m.Cov("FLAT", "FLAT")
	require.Equal(t, 0.0, v)
	c, _ := m.Corr("FLAT", "FLAT")
	require.True(t, math.IsNaN(c))
	cov, _ := m.Cov("FLAT", "SPY")
	require.True(t, math.IsNaN(cov))
	corr, _ := m.Corr("SPY", "FLAT")
	require.True(t, math.IsNaN(corr))
}

func TestMatrixPairwiseComplete(t *testing.T) {
	nan := math.NaN()
	rs := &ReturnSet{
		Symbols: []string{"A", "B", "C"},
		Series: map[string][]float64{
			"A": {0.1, 0.2, nan, 0.3},
			"B": {0.2, 0.4, 0.5, 0.6},
			"C": {nan, nan, nan, 0.1},
		},
	}
	m := ComputeMatrix(rs)

	// A and B overlap on three dates where B = 2A.
	corr, _ := m.Corr("A", "B")
	require.InDelta(t, 1.0, corr, 1e-9)
	cov, _ := m.Cov("A", "B")
	require.InDelta(t, 0.02, cov, 1e-12)

	// C has a single defined value.
	for _, s := range []string{"A", "B", "C"} {
		v, _ := m.Cov("C", s)
		require.True(t, math.IsNaN(v), s)
	}
}

func TestMatrixUnknownSymbol(t *testing.T) {
	m := ComputeMatrix(Returns(threeDayFrame(), FieldAdjClose))
	_, ok := m.Cov("SPY", "TSLA")
	require.False(t, ok)
	require.False(t, m.Has("TSLA"))
}
