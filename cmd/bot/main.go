package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/zeromicro/go-zero/core/logx"

	"telegramBenchBot/internal/config"
	"telegramBenchBot/internal/finance"
	"telegramBenchBot/internal/openai"
	"telegramBenchBot/internal/scheduler"
	"telegramBenchBot/internal/server"
	"telegramBenchBot/internal/storage"
	"telegramBenchBot/internal/telegram"
)

func main() {
	configPath := flag.String("config", "etc/bench.yaml", "path to the YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	logx.Must(err)
	logx.MustSetup(logx.LogConf{ServiceName: "benchbot", Mode: "console", Encoding: cfg.Log.Encoding, Level: cfg.Log.Level})
	logx.DisableStat()
	logx.Must(cfg.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Ensure parent directory for the DB exists
	_ = os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755)
	db, err := storage.OpenSQLite("file:" + cfg.Database.SQLitePath + "?_fk=1")
	logx.Must(err)
	defer db.Close()
	logx.Must(storage.InitSchema(db))
	logx.Infof("db: opened sqlite at %s (usage_events)", cfg.Database.SQLitePath)

	field, err := finance.ParsePriceField(cfg.Market.PriceField)
	logx.Must(err)
	rankPeriod, err := finance.ParsePeriod(cfg.Dashboard.RankPeriod)
	logx.Must(err)

	src := finance.NewYahooSource(finance.WithBaseURL(cfg.Market.BaseURL), finance.WithProxy(cfg.Market.Proxy))
	deps := telegram.Deps{
		Pipeline:  finance.NewPipeline(src, cfg.Market.FetchTimeout),
		Universe:  finance.NewWikipediaUniverse(cfg.Market.UniverseURL, src.Client),
		Store:     storage.NewStore(db),
		Explainer: openai.NewExplainer(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens),
		Settings: telegram.Settings{
			Benchmark:      cfg.Market.Benchmark,
			PriceField:     field,
			DefaultTickers: cfg.Market.DefaultTickers,
			RankPeriod:     rankPeriod,
			RankRecentDays: cfg.Dashboard.RankRecentDays,
			RankTopN:       cfg.Dashboard.RankTopN,
			Years:          cfg.Dashboard.Years,
			DashboardTopN:  cfg.Dashboard.DashboardTopN,
		},
	}

	tg, err := telegram.NewBot(cfg.Telegram.BotToken, cfg.Telegram.Debug, deps)
	logx.Must(err)

	sched := scheduler.NewScheduler(ctx, tg.Handlers())
	logx.Must(sched.Register(cfg.Digests, field))
	sched.Start()
	defer sched.Stop()

	var webhook http.HandlerFunc
	if cfg.Telegram.WebhookPublicURL != "" {
		logx.Must(tg.SetWebhook(cfg.Telegram.WebhookPublicURL))
		webhook = tg.WebhookHandler
	} else {
		go tg.Poll(ctx)
	}

	mux := server.NewHTTPMux(webhook)
	if err := server.ListenAndServe(ctx, ":"+cfg.Server.Port, mux); err != nil {
		logx.Errorf("server error: %v", err)
		os.Exit(1)
	}
	logx.Info("bot: shut down")
}
