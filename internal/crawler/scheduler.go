package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs one crawl job per source on a fixed interval. A cycle that
// overruns the interval delays the next one rather than overlapping it.
type Scheduler struct {
	scheduler gocron.Scheduler
	crawler   *Crawler
	logger    *slog.Logger
}

func NewScheduler(c *Crawler) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("creating crawl scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: s,
		crawler:   c,
		logger:    slog.Default().With("component", "crawl-scheduler"),
	}, nil
}

// Add schedules source every interval, starting immediately. Jobs run
// against ctx, so cancelling it aborts in-flight cycles.
func (s *Scheduler) Add(ctx context.Context, source string, interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := s.crawler.RunOnce(ctx, source); err != nil {
				s.logger.Warn("crawl cycle failed", "source", source, "error", err)
			}
		}),
		gocron.WithName("crawl:"+source),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("scheduling %s: %w", source, err)
	}
	s.logger.Info("crawl job added", "source", source, "interval", interval)
	return nil
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running cycles.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
