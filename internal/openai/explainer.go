package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oa "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"telegramBenchBot/internal/finance"
)

const defaultModel = "gpt-4"

// ErrDisabled is returned when no API key was configured.
var ErrDisabled = errors.New("openai: explainer disabled (no api key)")

// Explainer turns a ranking into a short narrative.
type Explainer struct {
	cli       oa.Client
	model     oa.ChatModel
	maxTokens int64
	enabled   bool
}

func NewExplainer(apiKey, model string, maxTokens int64) *Explainer {
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = 800
	}
	return &Explainer{
		cli:       oa.NewClient(option.WithAPIKey(apiKey)),
		model:     oa.ChatModel(model),
		maxTokens: maxTokens,
		enabled:   apiKey != "",
	}
}

// Enabled reports whether an API key is configured.
func (e *Explainer) Enabled() bool { return e != nil && e.enabled }

const systemPrompt = `You are an equity analyst. You receive a table of stocks ranked by their covariance with a benchmark, scaled by the benchmark's own variance, together with each stock's correlation with the benchmark.

Explain in plain language:
- which names move most with the benchmark and how strongly
- which names look defensive or uncorrelated
- anything unusual, such as a high scaled covariance at low correlation

Keep it under 200 words. Do not give trading advice. No markdown tables.`

// Explain asks the model to comment on the top rows of res.
func (e *Explainer) Explain(ctx context.Context, res *finance.Result, topN int) (string, error) {
	if !e.Enabled() {
		return "", ErrDisabled
	}
	resp, err := e.cli.Chat.Completions.New(ctx, oa.ChatCompletionNewParams{
		Model: e.model,
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.SystemMessage(systemPrompt),
			oa.UserMessage(BuildPrompt(res, topN)),
		},
		MaxTokens: oa.Int(e.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// BuildPrompt lays out the run parameters and ranked rows as plain text.
func BuildPrompt(res *finance.Result, topN int) string {
	var b strings.Builder
	p := res.Params
	fmt.Fprintf(&b, "Benchmark: %s\nPeriod: %s (%s to %s)\nPrice field: %s\n",
		p.Benchmark, p.Period, res.Window.Start.Format("2006-01-02"), res.Window.End.Format("2006-01-02"), p.PriceField)
	if res.Partial != nil {
		fmt.Fprintf(&b, "Dropped (no data): %s\n", strings.Join(res.Partial.Symbols(), ", "))
	}
	b.WriteString("\nRank | Symbol | Correlation | Scaled covariance\n")
	for i, r := range finance.Top(res.Ranking, topN) {
		fmt.Fprintf(&b, "%d | %s | %.3f | %.3f\n", i+1, r.Symbol, r.Correlation, r.ScaledCovariance)
	}
	return b.String()
}
