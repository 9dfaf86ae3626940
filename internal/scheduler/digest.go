package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/zeromicro/go-zero/core/logx"

	"telegramBenchBot/internal/config"
	"telegramBenchBot/internal/finance"
)

// Pusher renders one ranking into a chat.
type Pusher interface {
	PushDigest(ctx context.Context, chatID int64, params finance.Params, topN int)
}

type job struct {
	chatID int64
	params finance.Params
	topN   int
}

// Scheduler pushes configured ranking digests on their cron schedules.
type Scheduler struct {
	Cron   *cron.Cron
	Pusher Pusher
	Ctx    context.Context
	jobs   []job
}

// NewScheduler creates a scheduler whose cron specs carry a seconds field.
func NewScheduler(ctx context.Context, p Pusher) *Scheduler {
	return &Scheduler{Cron: cron.New(cron.WithSeconds()), Pusher: p, Ctx: ctx}
}

// Register adds one job per digest. It fails on the first bad period or cron spec.
func (s *Scheduler) Register(digests []config.Digest, field finance.PriceField) error {
	for i, d := range digests {
		period, err := finance.ParsePeriod(d.Period)
		if err != nil {
			return fmt.Errorf("digest %d: %w", i, err)
		}
		j := job{
			chatID: d.ChatID,
			params: finance.Params{
				Tickers:    d.Tickers,
				Benchmark:  d.Benchmark,
				Period:     period,
				RecentDays: 1,
				PriceField: field,
			},
			topN: d.TopN,
		}
		if _, err := s.Cron.AddFunc(d.Cron, func() { s.run(j) }); err != nil {
			return fmt.Errorf("register digest %d: %w", i, err)
		}
		s.jobs = append(s.jobs, j)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logx.Infof("scheduler: started jobs=%d", len(s.jobs))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logx.Info("scheduler: stopped")
}

// RunNow executes every registered digest immediately.
func (s *Scheduler) RunNow() {
	for _, j := range s.jobs {
		s.run(j)
	}
}

func (s *Scheduler) run(j job) {
	logx.Infof("scheduler: digest chat_id=%d period=%s tickers=%d", j.chatID, j.params.Period, len(j.params.Tickers))
	s.Pusher.PushDigest(s.Ctx, j.chatID, j.params, j.topN)
}
