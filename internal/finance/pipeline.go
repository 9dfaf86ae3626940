package finance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultBenchmark is the index tracker used when Params.Benchmark is empty.
const DefaultBenchmark = "SPY"

// DefaultFetchTimeout bounds one pipeline's data fetch.
const DefaultFetchTimeout = 20 * time.Second

// Params are the explicit inputs of one pipeline run.
type Params struct {
	Tickers    []string
	Benchmark  string
	Period     Period
	RecentDays int // rows to display, not rows to fetch
	PriceField PriceField
}

// WithDefaults fills the benchmark, display rows and price field when unset.
func (p Params) WithDefaults() Params {
	p.Benchmark = strings.ToUpper(strings.TrimSpace(p.Benchmark))
	if p.Benchmark == "" {
		p.Benchmark = DefaultBenchmark
	}
	if p.RecentDays == 0 {
		p.RecentDays = 1
	}
	if p.PriceField == "" {
		p.PriceField = FieldAdjClose
	}
	p.Tickers = NormalizeSymbols(p.Tickers)
	return p
}

// Validate checks the constraints a run depends on.
func (p Params) Validate() error {
	if len(NormalizeSymbols(p.Tickers)) == 0 {
		return errors.New("at least one ticker is required")
	}
	if p.Benchmark == "" {
		return errors.New("benchmark is required")
	}
	if !p.Period.Valid() {
		return fmt.Errorf("invalid period %q", p.Period.String())
	}
	if p.RecentDays < 1 {
		return fmt.Errorf("recent days must be at least 1, got %d", p.RecentDays)
	}
	if p.PriceField != FieldAdjClose && p.PriceField != FieldClose {
		return fmt.Errorf("unknown price field %q", p.PriceField)
	}
	return nil
}

// Universe is the tickers plus the benchmark, normalised.
func (p Params) Universe() []string {
	return NormalizeSymbols(append(append([]string(nil), p.Tickers...), p.Benchmark))
}

// Result is everything one run produced. Partial is nil when every symbol was fetched.
type Result struct {
	RunID   uuid.UUID
	Params  Params
	Window  Window
	Frame   *PriceFrame
	Returns *ReturnSet
	Matrix  *Matrix
	Ranking []RankedMetric
	Partial *PartialSymbolFailure
}

// Pipeline runs fetch, returns, matrix and ranking for one set of Params.
type Pipeline struct {
	Source  Source
	Timeout time.Duration
	Now     func() time.Time
}

// NewPipeline builds a pipeline over src with the default timeout.
func NewPipeline(src Source, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Pipeline{Source: src, Timeout: timeout, Now: time.Now}
}

// Run executes the pipeline. Errors are one of *NoDataError, *BenchmarkNotFoundError,
// *DegenerateBenchmarkError, or a parameter validation error.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	params = params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	res := &Result{
		RunID:  uuid.New(),
		Params: params,
		Window: WindowFor(params.Period, now()),
	}
	log := logx.WithContext(ctx)
	universe := params.Universe()
	log.Infof("pipeline: run=%s source=%s symbols=%d benchmark=%s period=%s", res.RunID, p.Source.Name(), len(universe), params.Benchmark, params.Period)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	frame, partial, err := FetchFrame(fctx, p.Source, universe, res.Window, params.PriceField)
	if err != nil {
		log.Errorf("pipeline: run=%s fetch failed: %v", res.RunID, err)
		return nil, err
	}
	if partial != nil {
		log.Infof("pipeline: run=%s dropped=%v", res.RunID, partial.Symbols())
	}
	if !frame.Has(params.Benchmark) {
		return nil, &BenchmarkNotFoundError{Benchmark: params.Benchmark}
	}
	res.Frame = frame
	res.Partial = partial

	res.Returns = Returns(frame, params.PriceField)
	res.Matrix = ComputeMatrix(res.Returns)
	ranking, err := Rank(res.Matrix, params.Benchmark)
	if err != nil {
		log.Errorf("pipeline: run=%s rank failed: %v", res.RunID, err)
		return nil, err
	}
	res.Ranking = ranking
	log.Infof("pipeline: run=%s dates=%d ranked=%d", res.RunID, frame.Len(), len(ranking))
	return res, nil
}
