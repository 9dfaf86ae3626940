package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var envKeys = []string{"TELEGRAM_BOT_TOKEN", "WEBHOOK_PUBLIC_URL", "OPENAI_API_KEY", "PORT", "DB_PATH", "LOG_LEVEL", "HTTPS_PROXY"}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NO_DOTENV", "1")
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.Equal(t, "9095", cfg.Server.Port)
	require.Equal(t, "SPY", cfg.Market.Benchmark)
	require.Equal(t, "adjclose", cfg.Market.PriceField)
	require.Equal(t, 20*time.Second, cfg.Market.FetchTimeout)
	require.Equal(t, "7d", cfg.Dashboard.RankPeriod)
	require.Equal(t, 1, cfg.Dashboard.RankRecentDays)
	require.Equal(t, 10, cfg.Dashboard.RankTopN)
	require.Equal(t, 5, cfg.Dashboard.Years)
	require.Equal(t, 20, cfg.Dashboard.DashboardTopN)
	require.NotEmpty(t, cfg.Market.DefaultTickers)
	require.ErrorContains(t, cfg.Validate(), "telegram.bot_token")
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BENCH_TOKEN", "from-yaml-env")
	t.Setenv("PORT", "8080")
	path := writeConfig(t, `
telegram:
  bot_token: ${BENCH_TOKEN}
market:
  benchmark: QQQ
  price_field: close
  fetch_timeout: 5s
dashboard:
  years: 3
digests:
  - chat_id: 42
    cron: "0 0 22 * * 1-5"
    tickers: [AAPL, MSFT]
log:
  level: debug
  encoding: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, "from-yaml-env", cfg.Telegram.BotToken)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "QQQ", cfg.Market.Benchmark)
	require.Equal(t, 5*time.Second, cfg.Market.FetchTimeout)
	require.Equal(t, 3, cfg.Dashboard.Years)
	require.Len(t, cfg.Digests, 1)
	d := cfg.Digests[0]
	require.Equal(t, int64(42), d.ChatID)
	require.Equal(t, "QQQ", d.Benchmark)
	require.Equal(t, "7d", d.Period)
	require.Equal(t, 10, d.TopN)
	require.Equal(t, []string{"AAPL", "MSFT"}, d.Tickers)
	require.Equal(t, "json", cfg.Log.Encoding)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "market:\n  fetch_timeout: soon\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "market.fetch_timeout")
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")

	cases := []struct {
		name string
		edit func(*Config)
		want string
	}{
		{"years too high", func(c *Config) { c.Dashboard.Years = 8 }, "dashboard.years"},
		{"bad price field", func(c *Config) { c.Market.PriceField = "vwap" }, "market.price_field"},
		{"digest without cron", func(c *Config) { c.Digests = []Digest{{ChatID: 1}} }, "digests[0].cron"},
		{"digest without chat", func(c *Config) { c.Digests = []Digest{{Cron: "@daily"}} }, "digests[0].chat_id"},
		{"bad encoding", func(c *Config) { c.Log.Encoding = "xml" }, "log.encoding"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			require.NoError(t, cfg.Validate())
			tc.edit(cfg)
			require.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestValidateAcceptsPriceFieldSpellings(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	for _, v := range []string{"adjclose", "adj_close", "Adjusted", "adj close", "close"} {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.Market.PriceField = v
		require.NoError(t, cfg.Validate(), v)
	}
}
