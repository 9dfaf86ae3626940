package telegram

import (
	"testing"

	"github.com/stretchr/testify/require"

	"telegramBenchBot/internal/finance"
)

var week = finance.Period{Count: 7, Unit: finance.UnitDay}

func TestParseRankArgs(t *testing.T) {
	defaults := []string{"SPY", "QQQ"}
	tests := []struct {
		name   string
		fields []string
		want   rankArgs
	}{
		{"defaults", nil, rankArgs{Tickers: []string{"SPY", "QQQ"}, Period: week, RecentDays: 1}},
		{"tickers only", []string{"aapl", "msft"}, rankArgs{Tickers: []string{"AAPL", "MSFT"}, Period: week, RecentDays: 1}},
		{"period", []string{"AAPL", "5mo"}, rankArgs{Tickers: []string{"AAPL"}, Period: finance.Period{Count: 5, Unit: finance.UnitMonth}, RecentDays: 1}},
		{"period and recent", []string{"AAPL", "1y", "3"}, rankArgs{Tickers: []string{"AAPL"}, Period: finance.Period{Count: 1, Unit: finance.UnitYear}, RecentDays: 3}},
		{"recent only", []string{"AAPL", "4"}, rankArgs{Tickers: []string{"AAPL"}, Period: week, RecentDays: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRankArgs(tt.fields, defaults, week, 1)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRankArgsErrors(t *testing.T) {
	_, err := parseRankArgs([]string{"AAPL", "0"}, nil, week, 1)
	require.ErrorContains(t, err, "recent days")
	_, err = parseRankArgs([]string{"AA$PL"}, nil, week, 1)
	require.ErrorContains(t, err, "invalid ticker")
	_, err = parseRankArgs(nil, nil, week, 1)
	require.ErrorContains(t, err, "at least one ticker")
}

func TestParseDashboardArgs(t *testing.T) {
	tickers, p, err := parseDashboardArgs([]string{"nvda", "3"}, nil, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"NVDA"}, tickers)
	require.Equal(t, finance.Period{Count: 3, Unit: finance.UnitYear}, p)

	tickers, p, err = parseDashboardArgs(nil, []string{"AAPL"}, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"AAPL"}, tickers)
	require.Equal(t, 5, p.Count)

	_, _, err = parseDashboardArgs([]string{"AAPL", "9"}, nil, 5)
	require.Error(t, err)
}

func TestCommandPatterns(t *testing.T) {
	require.True(t, reRank.MatchString("/rank"))
	require.True(t, reRank.MatchString("/rank@bench_bot AAPL 7d"))
	require.False(t, reRank.MatchString("/ranking"))
	require.True(t, reUniverse.MatchString("/universe BRK.B"))
	require.Equal(t, []string{"/usage 30", "30"}, reUsage.FindStringSubmatch("/usage 30"))
	require.True(t, reHelp.MatchString("/start"))
	require.Equal(t, []string{"AAPL", "7d"}, argFields(reRank.FindStringSubmatch("/rank  AAPL   7d")))
	require.Empty(t, argFields(reRank.FindStringSubmatch("/rank")))
}
