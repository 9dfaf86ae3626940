package finance

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestPipeline(src Source) *Pipeline {
	p := NewPipeline(src, time.Second)
	p.Now = func() time.Time { return day0.AddDate(0, 0, 3) }
	return p
}

func TestPipelineEndToEnd(t *testing.T) {
	res, err := newTestPipeline(threeDaySource()).Run(context.Background(), Params{
		Tickers: []string{"aapl", "MSFT", "AAPL"},
		Period:  Period{7, UnitDay},
	})
	require.NoError(t, err)
	require.Nil(t, res.Partial)
	require.Equal(t, "SPY", res.Params.Benchmark)
	require.Equal(t, FieldAdjClose, res.Params.PriceField)
	require.Equal(t, 1, res.Params.RecentDays)
	require.Equal(t, day0.AddDate(0, 0, -4), res.Window.Start)
	require.Equal(t, 3, res.Frame.Len())
	require.Len(t, res.Returns.Dates, 2)

	corr, _ := res.Matrix.Corr("AAPL", "MSFT")
	require.InDelta(t, -1.0, corr, 1e-9)
	corr, _ = res.Matrix.Corr("AAPL", "SPY")
	require.InDelta(t, 1.0, corr, 1e-9)
	corr, _ = res.Matrix.Corr("MSFT", "SPY")
	require.InDelta(t, -1.0, corr, 1e-9)

	require.Len(t, res.Ranking, 2)
	require.Equal(t, "AAPL", res.Ranking[0].Symbol)
	require.Equal(t, "MSFT", res.Ranking[1].Symbol)
	require.GreaterOrEqual(t, res.Ranking[0].ScaledCovariance, res.Ranking[1].ScaledCovariance)
}

func TestPipelineMissingBenchmark(t *testing.T) {
	src := &StaticSource{Series: map[string]*TickerSeries{
		"AAPL": SeriesFromPrices("AAPL", day0, 50, 60, 48),
	}}
	res, err := newTestPipeline(src).Run(context.Background(), Params{Tickers: []string{"AAPL"}, Benchmark: "SPY", Period: Period{7, UnitDay}})
	require.Nil(t, res)
	var nf *BenchmarkNotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "SPY", nf.Benchmark)
}

func TestPipelinePartialFailure(t *testing.T) {
	src := threeDaySource()
	src.Errs = map[string]error{"ZZZZ": errors.New("yahoo api error: No data found, symbol may be delisted")}
	src.Series["GONE"] = SeriesFromPrices("GONE", day0, math.NaN(), math.NaN(), math.NaN())

	res, err := newTestPipeline(src).Run(context.Background(), Params{
		Tickers: []string{"AAPL", "ZZZZ", "MSFT", "GONE"},
		Period:  Period{1, UnitMonth},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Partial)
	require.Equal(t, []string{"ZZZZ", "GONE"}, res.Partial.Symbols())
	require.Equal(t, "all values missing", res.Partial.Failures[1].Reason)
	require.Equal(t, []string{"AAPL", "MSFT", "SPY"}, res.Frame.Symbols)
	require.Len(t, res.Ranking, 2)
}

func TestPipelineNoData(t *testing.T) {
	src := &StaticSource{}
	_, err := newTestPipeline(src).Run(context.Background(), Params{Tickers: []string{"AAPL"}, Period: Period{7, UnitDay}})
	var nd *NoDataError
	require.True(t, errors.As(err, &nd))
	require.Equal(t, []string{"AAPL", "SPY"}, nd.Symbols)
}

type blockingSource struct{}

func (blockingSource) Name() string { return "blocking" }

func (blockingSource) FetchDaily(ctx context.Context, symbol string, w Window) (*TickerSeries, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestPipelineTimeoutIsNoData(t *testing.T) {
	p := NewPipeline(blockingSource{}, 20*time.Millisecond)
	_, err := p.Run(context.Background(), Params{Tickers: []string{"AAPL"}, Period: Period{7, UnitDay}})
	var nd *NoDataError
	require.True(t, errors.As(err, &nd))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipelineDegenerateBenchmark(t *testing.T) {
	src := threeDaySource()
	src.Series["SPY"] = SeriesFromPrices("SPY", day0, 100, 100, 100)
	_, err := newTestPipeline(src).Run(context.Background(), Params{Tickers: []string{"AAPL"}, Period: Period{7, UnitDay}})
	var deg *DegenerateBenchmarkError
	require.True(t, errors.As(err, &deg))
}

func TestParamsValidate(t *testing.T) {
	base := Params{Tickers: []string{"AAPL"}, Period: Period{7, UnitDay}}.WithDefaults()
	require.NoError(t, base.Validate())

	noTickers := base
	noTickers.Tickers = []string{" "}
	require.Error(t, noTickers.Validate())

	badPeriod := base
	badPeriod.Period = Period{}
	require.Error(t, badPeriod.Validate())

	badRecent := base
	badRecent.RecentDays = -1
	require.Error(t, badRecent.Validate())

	_, err := NewPipeline(threeDaySource(), 0).Run(context.Background(), Params{Tickers: []string{"AAPL"}})
	require.ErrorContains(t, err, "invalid period")
}

func TestPipelineNormalizesBenchmark(t *testing.T) {
	res, err := newTestPipeline(threeDaySource()).Run(context.Background(), Params{
		Tickers:   []string{"AAPL", "MSFT"},
		Benchmark: " spy ",
		Period:    Period{7, UnitDay},
	})
	require.NoError(t, err)
	require.Equal(t, "SPY", res.Params.Benchmark)
	require.Len(t, res.Ranking, 2)
	require.Equal(t, "AAPL", res.Ranking[0].Symbol)
}
