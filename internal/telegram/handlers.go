package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"telegramBenchBot/internal/finance"
	"telegramBenchBot/internal/openai"
	"telegramBenchBot/internal/storage"
)

// maxChunk keeps each <pre> message under Telegram's 4096 character limit.
const maxChunk = 3500

// Sender is the part of the bot API the handlers use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Settings are the defaults applied to commands that omit arguments.
type Settings struct {
	Benchmark      string
	PriceField     finance.PriceField
	DefaultTickers []string
	RankPeriod     finance.Period
	RankRecentDays int
	RankTopN       int
	Years          int
	DashboardTopN  int
}

// Deps are the collaborators of the handlers. Store and Explainer may be nil.
type Deps struct {
	Pipeline  *finance.Pipeline
	Universe  finance.UniverseSource
	Store     *storage.Store
	Explainer *openai.Explainer
	Usage     *finance.UsageAnalytics
	Settings  Settings
}

// session is one chat's state. Nothing crosses chats.
type session struct {
	seq  finance.Sequencer
	mu   sync.Mutex
	last *finance.Result
}

func (s *session) lastResult() *finance.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

type Handlers struct {
	api  Sender
	deps Deps

	mu       sync.Mutex
	sessions map[int64]*session
}

func NewHandlers(api Sender, deps Deps) *Handlers {
	if deps.Usage == nil {
		deps.Usage = finance.NewUsageAnalytics()
	}
	deps.Settings.Benchmark = strings.ToUpper(strings.TrimSpace(deps.Settings.Benchmark))
	if deps.Settings.Benchmark == "" {
		deps.Settings.Benchmark = finance.DefaultBenchmark
	}
	return &Handlers{api: api, deps: deps, sessions: map[int64]*session{}}
}

func (h *Handlers) session(chatID int64) *session {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[chatID]
	if !ok {
		s = &session{}
		h.sessions[chatID] = s
	}
	return s
}

func (h *Handlers) HandleMessage(m *tgbotapi.Message) {
	if m == nil || m.Chat == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logx.Errorf("telegram: handler panic chat_id=%d: %v", m.Chat.ID, r)
			h.reply(m.Chat.ID, "⚠️ Something went wrong handling that command.")
		}
	}()
	ctx := context.Background()
	chatID := m.Chat.ID
	txt := strings.TrimSpace(m.Text)
	st := h.deps.Settings

	switch {
	case reRank.MatchString(txt):
		h.recordUsage(m, "ranking", "/rank")
		args, err := parseRankArgs(argFields(reRank.FindStringSubmatch(txt)), st.DefaultTickers, st.RankPeriod, st.RankRecentDays)
		if err != nil {
			h.reply(chatID, "⚠️ "+err.Error()+"\nUsage: /rank AAPL MSFT 7d 1")
			return
		}
		params := finance.Params{
			Tickers:    args.Tickers,
			Benchmark:  st.Benchmark,
			Period:     args.Period,
			RecentDays: args.RecentDays,
			PriceField: st.PriceField,
		}
		h.reply(chatID, fmt.Sprintf("Ranking %d tickers vs %s over %s…", len(params.Tickers), params.Benchmark, params.Period))
		h.run(ctx, chatID, params, func(res *finance.Result) { h.renderRank(chatID, res, st.RankTopN) })

	case reDashboard.MatchString(txt):
		h.recordUsage(m, "dashboard", "/dashboard")
		tickers, period, err := parseDashboardArgs(argFields(reDashboard.FindStringSubmatch(txt)), st.DefaultTickers, st.Years)
		if err != nil {
			h.reply(chatID, "⚠️ "+err.Error()+"\nUsage: /dashboard AAPL MSFT 5")
			return
		}
		params := finance.Params{
			Tickers:    tickers,
			Benchmark:  st.Benchmark,
			Period:     period,
			RecentDays: st.RankRecentDays,
			PriceField: st.PriceField,
		}
		h.reply(chatID, fmt.Sprintf("Building %s dashboard for %d tickers vs %s…", period, len(tickers), params.Benchmark))
		h.run(ctx, chatID, params, func(res *finance.Result) { h.renderDashboard(chatID, res, st.DashboardTopN) })

	case reUniverse.MatchString(txt):
		h.recordUsage(m, "universe", "/universe")
		prefix := ""
		if g := reUniverse.FindStringSubmatch(txt); len(g) == 2 {
			prefix = strings.ToUpper(g[1])
		}
		h.handleUniverse(ctx, chatID, prefix)

	case reTables.MatchString(txt):
		h.recordUsage(m, "ranking", "/tables")
		h.handleTables(chatID)

	case reExplain.MatchString(txt):
		h.recordUsage(m, "ai", "/explain")
		h.handleExplain(ctx, chatID)

	case reUsage.MatchString(txt):
		days := 7
		if g := reUsage.FindStringSubmatch(txt); len(g) == 2 && g[1] != "" {
			days, _ = strconv.Atoi(g[1])
			if days < 1 {
				days = 1
			}
			if days > 90 {
				days = 90
			}
		}
		h.handleUsage(chatID, days)

	case reHelp.MatchString(txt):
		h.reply(chatID, helpText)
	}
}

// run executes one pipeline run for chatID and calls render only if the run is still the
// chat's newest when it finishes. Errors are reported as warnings.
func (h *Handlers) run(ctx context.Context, chatID int64, params finance.Params, render func(*finance.Result)) {
	s := h.session(chatID)
	ticket := s.seq.Begin()
	res, err := h.deps.Pipeline.Run(ctx, params)

	committed := s.seq.Commit(ticket, func() {
		if err == nil {
			s.mu.Lock()
			s.last = res
			s.mu.Unlock()
		}
	})
	if !committed {
		logx.Infof("telegram: dropped stale run chat_id=%d ticket=%d latest=%d", chatID, ticket, s.seq.Latest())
		return
	}
	if err != nil {
		h.reply(chatID, warningFor(err))
		return
	}
	if res.Partial != nil {
		h.reply(chatID, "⚠️ Dropped (no data): "+strings.Join(res.Partial.Symbols(), ", "))
	}
	render(res)
}

// PushDigest runs a scheduled ranking and renders it like /rank.
func (h *Handlers) PushDigest(ctx context.Context, chatID int64, params finance.Params, topN int) {
	if params.PriceField == "" {
		params.PriceField = h.deps.Settings.PriceField
	}
	h.run(ctx, chatID, params, func(res *finance.Result) {
		h.reply(chatID, fmt.Sprintf("🗓 Scheduled ranking vs %s over %s", res.Params.Benchmark, res.Params.Period))
		h.renderRank(chatID, res, topN)
	})
}

// warningFor maps pipeline errors to the message shown to the user.
func warningFor(err error) string {
	var noData *finance.NoDataError
	var noBench *finance.BenchmarkNotFoundError
	var degenerate *finance.DegenerateBenchmarkError
	switch {
	case errors.As(err, &noData):
		return "⚠️ No data returned for " + strings.Join(noData.Symbols, ", ") + ". Check the symbols or try again later."
	case errors.As(err, &noBench):
		return fmt.Sprintf("⚠️ Benchmark %s could not be fetched; nothing was computed.", noBench.Benchmark)
	case errors.As(err, &degenerate):
		return fmt.Sprintf("⚠️ Benchmark %s has no price variation in this window; try a longer period.", degenerate.Benchmark)
	}
	return "⚠️ Run failed: " + err.Error()
}

func (h *Handlers) renderRank(chatID int64, res *finance.Result, topN int) {
	h.sendTable(chatID, finance.RankingTable(res.Ranking, res.Params.Benchmark, topN))
	h.sendTable(chatID, finance.PriceTable("Recent prices", res.Frame, res.Params.PriceField, res.Params.RecentDays))
	ret, pct := finance.SymbolReturnTables(res.Frame, res.Params.RecentDays)
	h.sendTable(chatID, ret)
	h.sendTable(chatID, pct)
	h.sendScatter(chatID, res)
	if img, err := finance.MakeRankingBarChart(res, topN); err == nil {
		h.sendPhoto(chatID, "ranking.png", img, "Scaled covariance • top "+strconv.Itoa(topN))
	} else {
		logx.Errorf("telegram: bar chart chat_id=%d: %v", chatID, err)
	}
}

func (h *Handlers) renderDashboard(chatID int64, res *finance.Result, topN int) {
	bench := res.Params.Benchmark
	h.sendTable(chatID, finance.RankingTable(res.Ranking, bench, topN))
	h.sendTable(chatID, finance.BarTable(res.Frame, bench, res.Params.RecentDays))
	ret, pct := finance.ReturnTables(res.Frame, bench, res.Params.RecentDays)
	h.sendTable(chatID, ret)
	h.sendTable(chatID, pct)
	h.sendScatter(chatID, res)
	if img, err := finance.MakeIndexedPriceChart(res.Frame, res.Params.PriceField, nil); err == nil {
		h.sendPhoto(chatID, "indexed.png", img, "Indexed prices • "+res.Params.Period.String())
	} else {
		logx.Errorf("telegram: indexed chart chat_id=%d: %v", chatID, err)
	}
}

// sendScatter plots the whole ranking; top-N applies to tables and the bar chart only.
func (h *Handlers) sendScatter(chatID int64, res *finance.Result) {
	img, err := finance.MakeScatterChart(res)
	if err != nil {
		h.reply(chatID, "Scatter skipped: "+err.Error())
		return
	}
	h.sendPhoto(chatID, "scatter.png", img, "Correlation vs scaled covariance • "+res.Params.Benchmark)
}

func (h *Handlers) handleTables(chatID int64) {
	res := h.session(chatID).lastResult()
	if res == nil {
		h.reply(chatID, "No run yet. Try /rank or /dashboard first.")
		return
	}
	n := res.Params.RecentDays
	h.sendTable(chatID, finance.PriceTable("Raw prices (adj close)", res.Frame, finance.FieldAdjClose, n))
	h.sendTable(chatID, finance.PriceTable("Close prices", res.Frame, finance.FieldClose, n))
	h.sendTable(chatID, finance.MatrixTable(res.Matrix, true))
	h.sendTable(chatID, finance.MatrixTable(res.Matrix, false))
}

func (h *Handlers) handleUniverse(ctx context.Context, chatID int64, prefix string) {
	if h.deps.Universe == nil {
		h.reply(chatID, "⚠️ No index constituent source configured.")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	syms, err := h.deps.Universe.Symbols(ctx)
	if err != nil {
		logx.Errorf("telegram: universe chat_id=%d: %v", chatID, err)
		h.reply(chatID, "⚠️ Could not load index constituents; the universe is empty for now.")
		return
	}
	var out []string
	for _, s := range syms {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		h.reply(chatID, "No members match "+prefix)
		return
	}
	h.sendChunked(chatID, fmt.Sprintf("%d members", len(out)), strings.Join(out, " "))
}

func (h *Handlers) handleExplain(ctx context.Context, chatID int64) {
	if !h.deps.Explainer.Enabled() {
		h.reply(chatID, "AI commentary is not configured.")
		return
	}
	res := h.session(chatID).lastResult()
	if res == nil {
		h.reply(chatID, "No run yet. Try /rank or /dashboard first.")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	out, err := h.deps.Explainer.Explain(ctx, res, h.deps.Settings.RankTopN)
	if err != nil {
		h.reply(chatID, "Explain failed: "+err.Error())
		return
	}
	h.reply(chatID, out)
}

func (h *Handlers) handleUsage(chatID int64, days int) {
	if h.deps.Store == nil {
		h.reply(chatID, "Usage analytics are not enabled.")
		return
	}
	since := time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	stats, err := h.deps.Store.UsageStats(since)
	if err != nil {
		h.reply(chatID, "Usage failed: "+err.Error())
		return
	}
	h.reply(chatID, h.deps.Usage.FormatUsageStatsText(stats, days))
	if img, err := h.deps.Usage.MakeUsageChart(stats, days); err == nil {
		h.sendPhoto(chatID, "usage.png", img, "Usage by category")
	}
	bucket := int64(24 * 3600)
	if days <= 1 {
		bucket = 3600
	}
	if series, err := h.deps.Store.UsageTimeSeries(since, bucket); err == nil && len(series) > 0 {
		if img, err := h.deps.Usage.MakeUsageTimeSeriesChart(series, days); err == nil {
			h.sendPhoto(chatID, "usage_series.png", img, "Usage over time")
		}
	}
}

func (h *Handlers) recordUsage(m *tgbotapi.Message, category, command string) {
	if h.deps.Store == nil {
		return
	}
	var userID int64
	if m.From != nil {
		userID = m.From.ID
	}
	if err := h.deps.Store.RecordUsage(m.Chat.ID, userID, category, command, time.Now().Unix()); err != nil {
		logx.Errorf("telegram: record usage: %v", err)
	}
}

// sendTable sends t as one or more HTML <pre> messages, split on line boundaries.
func (h *Handlers) sendTable(chatID int64, t finance.Table) {
	if len(t.Rows) == 0 {
		h.reply(chatID, t.Title+": no rows")
		return
	}
	h.sendChunked(chatID, "", t.String())
}

func (h *Handlers) sendChunked(chatID int64, header, body string) {
	for i, chunk := range splitLines(html.EscapeString(body), maxChunk) {
		text := "<pre>" + chunk + "</pre>"
		if i == 0 && header != "" {
			text = "<b>" + html.EscapeString(header) + "</b>\n" + text
		}
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := h.api.Send(msg); err != nil {
			logx.Errorf("telegram: send chat_id=%d: %v", chatID, err)
		}
	}
}

// splitLines cuts already escaped s into pieces of at most limit bytes, breaking at
// newlines, or at spaces for a single overlong line. A hard cut never splits a rune or
// an HTML entity.
func splitLines(s string, limit int) []string {
	var out []string
	for len(s) > limit {
		cut := strings.LastIndexByte(s[:limit], '\n')
		if cut <= 0 {
			cut = strings.LastIndexByte(s[:limit], ' ')
		}
		if cut <= 0 {
			cut = hardCut(s, limit)
		}
		out = append(out, s[:cut])
		s = strings.TrimLeft(s[cut:], "\n ")
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

func hardCut(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if amp := strings.LastIndexByte(s[:cut], '&'); amp > 0 && amp > strings.LastIndexByte(s[:cut], ';') {
		cut = amp
	}
	if cut == 0 {
		return limit
	}
	return cut
}

func (h *Handlers) sendPhoto(chatID int64, name string, img []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: img})
	photo.Caption = caption
	if _, err := h.api.Send(photo); err != nil {
		logx.Errorf("telegram: send photo chat_id=%d: %v", chatID, err)
	}
}

func (h *Handlers) reply(chatID int64, text string) {
	if _, err := h.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logx.Errorf("telegram: reply chat_id=%d: %v", chatID, err)
	}
}

// Sessions returns the chat ids with state, ascending.
func (h *Handlers) Sessions() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]int64, 0, len(h.sessions))
	for id := range h.sessions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
