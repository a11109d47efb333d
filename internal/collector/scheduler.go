package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arassiq/SafeSenior/internal/logger"
)

// runTimeout bounds a single scheduled collection run.
const runTimeout = 5 * time.Minute

// Scheduler runs collection on a cron cadence, with an immediate run at
// startup so a fresh deployment has knowledge before the first tick.
type Scheduler struct {
	cron      *cron.Cron
	collector *Collector
	schedule  string
	logger    logger.Logger
}

// NewScheduler creates a scheduler for the given cron expression
// (standard 5-field format).
func NewScheduler(schedule string, collector *Collector, log logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	s := &Scheduler{
		cron:      c,
		collector: collector,
		schedule:  schedule,
		logger:    log,
	}
	if _, err := c.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("parse collection schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins scheduled collection and fires the startup run.
func (s *Scheduler) Start() {
	s.cron.Start()
	go s.runOnce()
	s.logger.Info("Collection scheduler started", logger.String("schedule", s.schedule))
}

// Stop halts scheduling and waits for an in-flight cron run to finish.
func (s *Scheduler) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("Collection scheduler stopped")
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if _, err := s.collector.Run(ctx); err != nil {
		s.logger.Error("Scheduled collection failed", logger.Error(err))
	}
}
