package finance

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const pngMagic = "\x89PNG"

func threeDayResult(t *testing.T) *Result {
	t.Helper()
	p := NewPipeline(threeDaySource(), time.Second)
	res, err := p.Run(context.Background(), Params{Tickers: []string{"AAPL", "MSFT"}, Period: Period{7, UnitDay}})
	require.NoError(t, err)
	return res
}

func TestChartsRenderPNG(t *testing.T) {
	res := threeDayResult(t)

	img, err := MakeScatterChart(res)
	require.NoError(t, err)
	require.Equal(t, pngMagic, string(img[:4]))

	img, err = MakeRankingBarChart(res, 10)
	require.NoError(t, err)
	require.Equal(t, pngMagic, string(img[:4]))

	img, err = MakeIndexedPriceChart(res.Frame, FieldAdjClose, nil)
	require.NoError(t, err)
	require.Equal(t, pngMagic, string(img[:4]))
}

func TestScatterSkipsUndefinedPoints(t *testing.T) {
	res := &Result{
		Params:  Params{Benchmark: "SPY", Period: Period{7, UnitDay}},
		Ranking: []RankedMetric{{Symbol: "FLAT", Correlation: math.NaN(), ScaledCovariance: math.NaN()}},
	}
	_, err := MakeScatterChart(res)
	require.ErrorContains(t, err, "no finite points")
	_, err = MakeScatterChart(&Result{})
	require.Error(t, err)
}

func TestScatterPlotsWholeRanking(t *testing.T) {
	var rows []RankedMetric
	for i := 0; i < 25; i++ {
		rows = append(rows, RankedMetric{Symbol: fmt.Sprintf("S%02d", i), Correlation: float64(i)/25 - 0.5, ScaledCovariance: float64(i)})
	}
	rows = append(rows, RankedMetric{Symbol: "FLAT", Correlation: math.NaN(), ScaledCovariance: math.NaN()})

	xs, ys, notes := scatterPoints(rows)
	require.Len(t, xs, 25)
	require.Len(t, ys, 25)
	require.Equal(t, "S24", notes[24].Label)

	img, err := MakeScatterChart(&Result{Params: Params{Benchmark: "SPY", Period: Period{7, UnitDay}}, Ranking: rows})
	require.NoError(t, err)
	require.Equal(t, pngMagic, string(img[:4]))
}

func TestPaddedRangeNeverEmpty(t *testing.T) {
	lo, hi := paddedRange([]float64{1, 1})
	require.Less(t, lo, 1.0)
	require.Greater(t, hi, 1.0)
}
