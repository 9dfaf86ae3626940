package telegram

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"telegramBenchBot/internal/finance"
)

var (
	// /rank T1 T2 ... [period] [recent_days]
	reRank = regexp.MustCompile(`^/rank(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /dashboard T1 T2 ... [years]
	reDashboard = regexp.MustCompile(`^/dashboard(?:@[\w_]+)?(?:\s+(.*))?$`)
	// /universe [prefix]
	reUniverse = regexp.MustCompile(`^/universe(?:@[\w_]+)?(?:\s+([A-Za-z0-9\.\-]+))?$`)
	reTables   = regexp.MustCompile(`^/tables(?:@[\w_]+)?$`)
	reExplain  = regexp.MustCompile(`^/explain(?:@[\w_]+)?$`)
	// /usage [days]
	reUsage  = regexp.MustCompile(`^/usage(?:@[\w_]+)?(?:\s+(\d+))?$`)
	reHelp   = regexp.MustCompile(`^/(help|start)(?:@[\w_]+)?$`)
	reTicker = regexp.MustCompile(`^[A-Za-z0-9\.\^_=\-]{1,12}$`)
)

type rankArgs struct {
	Tickers    []string
	Period     finance.Period
	RecentDays int
}

// parseRankArgs reads tickers followed by an optional period and an optional
// number of recent rows. Missing tickers fall back to defTickers.
func parseRankArgs(fields []string, defTickers []string, defPeriod finance.Period, defRecent int) (rankArgs, error) {
	out := rankArgs{Period: defPeriod, RecentDays: defRecent}
	if n := len(fields); n > 0 && isInt(fields[n-1]) {
		v, _ := strconv.Atoi(fields[n-1])
		if v < 1 {
			return out, fmt.Errorf("recent days must be at least 1")
		}
		out.RecentDays = v
		fields = fields[:n-1]
	}
	if n := len(fields); n > 0 {
		if p, err := finance.ParsePeriod(fields[n-1]); err == nil {
			out.Period = p
			fields = fields[:n-1]
		}
	}
	tickers, err := parseTickers(fields, defTickers)
	if err != nil {
		return out, err
	}
	out.Tickers = tickers
	return out, nil
}

// parseDashboardArgs reads tickers followed by an optional number of years in [1,7].
func parseDashboardArgs(fields []string, defTickers []string, defYears int) ([]string, finance.Period, error) {
	years := defYears
	if n := len(fields); n > 0 && isInt(fields[n-1]) {
		years, _ = strconv.Atoi(fields[n-1])
		fields = fields[:n-1]
	}
	p, err := finance.Years(years)
	if err != nil {
		return nil, finance.Period{}, err
	}
	tickers, err := parseTickers(fields, defTickers)
	if err != nil {
		return nil, finance.Period{}, err
	}
	return tickers, p, nil
}

func parseTickers(fields []string, defTickers []string) ([]string, error) {
	for _, f := range fields {
		if !reTicker.MatchString(f) {
			return nil, fmt.Errorf("invalid ticker %q", f)
		}
	}
	tickers := finance.NormalizeSymbols(fields)
	if len(tickers) == 0 {
		tickers = finance.NormalizeSymbols(defTickers)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("at least one ticker is required")
	}
	return tickers, nil
}

func isInt(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// argFields splits the optional argument group of a matched command.
func argFields(g []string) []string {
	if len(g) < 2 {
		return nil
	}
	return strings.Fields(g[1])
}

const helpText = "Commands\n\n" +
	"- /rank T1 T2 ... [period] [recent_days] - Rank tickers by covariance with the benchmark scaled by its variance (period like 7d, 5mo, 1y; default 7d, 1 recent row)\n" +
	"- /dashboard T1 T2 ... [years] - Multi-year dashboard, years 1-7 (default 5), with benchmark OHLC and return tables\n" +
	"- /universe [prefix] - List S&P 500 members, optionally filtered by prefix\n" +
	"- /tables - Raw prices, close prices and full correlation/covariance matrices of your last run\n" +
	"- /explain - Short AI commentary on your last ranking\n" +
	"- /usage [days] - Command usage statistics (default 7 days)\n" +
	"\nWithout tickers the default basket is used. Returns use adjusted close unless configured otherwise."
