package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"telegramBenchBot/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// UsageAnalytics renders the bot's command usage.
type UsageAnalytics struct{}

func NewUsageAnalytics() *UsageAnalytics {
	return &UsageAnalytics{}
}

// MakeUsageChart draws the category share of commands as a pie.
func (ua *UsageAnalytics) MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	categories, total := sortedCategories(stats)
	if total == 0 {
		return nil, fmt.Errorf("no usage data available")
	}
	values := make([]float64, 0, len(categories))
	labels := make([]string, 0, len(categories))
	for _, c := range categories {
		n := float64(stats[c].Count)
		values = append(values, n)
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", c, n/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Command usage (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{Data: labels, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// MakeUsageTimeSeriesChart draws one line per category over the bucketed series.
// Buckets a category has no events in count as zero.
func (ua *UsageAnalytics) MakeUsageTimeSeriesChart(series map[string][]storage.TimeSeriesPoint, days int) ([]byte, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("no time series data available")
	}
	seen := map[int64]bool{}
	var stamps []int64
	for _, points := range series {
		for _, p := range points {
			if !seen[p.Timestamp] {
				seen[p.Timestamp] = true
				stamps = append(stamps, p.Timestamp)
			}
		}
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })

	layout := "01/02"
	switch {
	case days <= 1:
		layout = "15:04"
	case days <= 7:
		layout = "Mon 15:04"
	}
	xAxis := make([]string, len(stamps))
	for i, ts := range stamps {
		xAxis[i] = time.Unix(ts, 0).UTC().Format(layout)
	}

	names := make([]string, 0, len(series))
	for c := range series {
		names = append(names, c)
	}
	sort.Strings(names)
	values := make([][]float64, 0, len(names))
	for _, c := range names {
		byTs := make(map[int64]int, len(series[c]))
		for _, p := range series[c] {
			byTs[p.Timestamp] = p.Count
		}
		row := make([]float64, len(stamps))
		for i, ts := range stamps {
			row[i] = float64(byTs[ts])
		}
		values = append(values, row)
	}

	p, err := charts.LineRender(
		values,
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xAxis}),
		charts.TitleTextOptionFunc(fmt.Sprintf("Command usage over time (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageStatsText summarises counts per category with its top five commands.
func (ua *UsageAnalytics) FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	categories, total := sortedCategories(stats)
	if total == 0 {
		return "No usage data available for the specified period."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Usage (%d days)\n\nTotal commands: %d\n\n", days, total)
	for _, c := range categories {
		st := stats[c]
		fmt.Fprintf(&b, "%s (%d, %.1f%%)\n", categoryLabel(c), st.Count, float64(st.Count)/float64(total)*100)

		type cmdCount struct {
			cmd   string
			count int
		}
		cmds := make([]cmdCount, 0, len(st.Commands))
		for cmd, n := range st.Commands {
			cmds = append(cmds, cmdCount{cmd, n})
		}
		sort.Slice(cmds, func(i, j int) bool {
			if cmds[i].count != cmds[j].count {
				return cmds[i].count > cmds[j].count
			}
			return cmds[i].cmd < cmds[j].cmd
		})
		for i, cc := range cmds {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", cc.cmd, cc.count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedCategories(stats map[string]*storage.UsageStats) ([]string, int) {
	out := make([]string, 0, len(stats))
	total := 0
	for c, st := range stats {
		if st == nil {
			continue
		}
		out = append(out, c)
		total += st.Count
	}
	sort.Strings(out)
	return out, total
}

func categoryLabel(category string) string {
	switch category {
	case "ranking":
		return "📈 Rankings"
	case "dashboard":
		return "🗂 Dashboards"
	case "universe":
		return "📋 Universe"
	case "ai":
		return "🤖 AI commentary"
	default:
		return category
	}
}
