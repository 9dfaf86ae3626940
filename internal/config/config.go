package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"telegramBenchBot/internal/finance"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken         string `yaml:"bot_token"`
		WebhookPublicURL string `yaml:"webhook_public_url"`
		Debug            bool   `yaml:"debug"`
	} `yaml:"telegram"`
	OpenAI struct {
		APIKey    string `yaml:"api_key"`
		Model     string `yaml:"model"`
		MaxTokens int64  `yaml:"max_tokens"`
	} `yaml:"openai"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Market struct {
		BaseURL         string        `yaml:"base_url"`
		UniverseURL     string        `yaml:"universe_url"`
		Benchmark       string        `yaml:"benchmark"`
		PriceField      string        `yaml:"price_field"`
		FetchTimeoutRaw string        `yaml:"fetch_timeout"`
		FetchTimeout    time.Duration `yaml:"-"`
		Proxy           string        `yaml:"proxy"`
		DefaultTickers  []string      `yaml:"default_tickers"`
	} `yaml:"market"`
	Dashboard struct {
		RankPeriod     string `yaml:"rank_period"`
		RankRecentDays int    `yaml:"rank_recent_days"`
		RankTopN       int    `yaml:"rank_top_n"`
		Years          int    `yaml:"years"`
		DashboardTopN  int    `yaml:"dashboard_top_n"`
	} `yaml:"dashboard"`
	Digests []Digest `yaml:"digests"`
	Log     struct {
		Level    string `yaml:"level"`
		Encoding string `yaml:"encoding"`
	} `yaml:"log"`
}

// Digest is a scheduled ranking pushed to one chat.
type Digest struct {
	ChatID    int64    `yaml:"chat_id"`
	Cron      string   `yaml:"cron"`
	Tickers   []string `yaml:"tickers"`
	Period    string   `yaml:"period"`
	Benchmark string   `yaml:"benchmark"`
	TopN      int      `yaml:"top_n"`
}

var dotenvOnce sync.Once

// LoadDotenvOnce loads .env (or $ENV_FILE) into the process environment once.
// Variables already set win.
func LoadDotenvOnce() {
	dotenvOnce.Do(func() {
		if os.Getenv("NO_DOTENV") == "1" {
			return
		}
		if f := os.Getenv("ENV_FILE"); f != "" {
			_ = godotenv.Load(f)
			return
		}
		_ = godotenv.Load()
	})
}

// Load reads config from a YAML file, then applies environment overrides and defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	LoadDotenvOnce()
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("WEBHOOK_PUBLIC_URL"); v != "" {
		c.Telegram.WebhookPublicURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Market.Proxy = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "9095"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "/app/data/usage.db"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 800
	}
	if c.Market.Benchmark == "" {
		c.Market.Benchmark = "SPY"
	}
	if c.Market.PriceField == "" {
		c.Market.PriceField = "adjclose"
	}
	if c.Market.FetchTimeoutRaw == "" {
		c.Market.FetchTimeoutRaw = "20s"
	}
	if len(c.Market.DefaultTickers) == 0 {
		c.Market.DefaultTickers = []string{"AAPL", "MSFT", "AMZN", "GOOGL", "META", "NVDA", "BRK.B", "JPM", "XOM", "JNJ"}
	}
	if c.Dashboard.RankPeriod == "" {
		c.Dashboard.RankPeriod = "7d"
	}
	if c.Dashboard.RankRecentDays == 0 {
		c.Dashboard.RankRecentDays = 1
	}
	if c.Dashboard.RankTopN == 0 {
		c.Dashboard.RankTopN = 10
	}
	if c.Dashboard.Years == 0 {
		c.Dashboard.Years = 5
	}
	if c.Dashboard.DashboardTopN == 0 {
		c.Dashboard.DashboardTopN = 20
	}
	for i := range c.Digests {
		d := &c.Digests[i]
		if d.Period == "" {
			d.Period = c.Dashboard.RankPeriod
		}
		if d.Benchmark == "" {
			d.Benchmark = c.Market.Benchmark
		}
		if d.TopN == 0 {
			d.TopN = c.Dashboard.RankTopN
		}
		if len(d.Tickers) == 0 {
			d.Tickers = c.Market.DefaultTickers
		}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = "plain"
	}
}

func (c *Config) parseDurations() error {
	d, err := time.ParseDuration(strings.TrimSpace(c.Market.FetchTimeoutRaw))
	if err != nil {
		return fmt.Errorf("market.fetch_timeout: invalid duration %q: %w", c.Market.FetchTimeoutRaw, err)
	}
	if d <= 0 {
		return fmt.Errorf("market.fetch_timeout must be positive, got %s", d)
	}
	c.Market.FetchTimeout = d
	return nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if _, err := finance.ParsePriceField(c.Market.PriceField); err != nil {
		return fmt.Errorf("market.price_field: %w", err)
	}
	if c.Dashboard.Years < 1 || c.Dashboard.Years > 7 {
		return fmt.Errorf("dashboard.years must be between 1 and 7, got %d", c.Dashboard.Years)
	}
	if c.Dashboard.RankRecentDays < 1 {
		return fmt.Errorf("dashboard.rank_recent_days must be at least 1")
	}
	switch c.Log.Encoding {
	case "plain", "json":
	default:
		return fmt.Errorf("log.encoding must be plain or json, got %q", c.Log.Encoding)
	}
	for i, d := range c.Digests {
		if d.ChatID == 0 {
			return fmt.Errorf("digests[%d].chat_id is required", i)
		}
		if d.Cron == "" {
			return fmt.Errorf("digests[%d].cron is required", i)
		}
	}
	return nil
}
