// Package scheduler runs the periodic sweeps in-process. Each tick is an
// independent, stateless invocation of the settlement engine; overlapping
// runs (a slow tick, an operator-triggered sweep) are expected and safe
// because the engine's idempotency lives in the stored records.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stakepact/stakepact/internal/service"
)

type Scheduler struct {
	settlement            *service.SettlementService
	confirmationsInterval time.Duration
	deadlinesInterval     time.Duration
	wg                    sync.WaitGroup
}

func New(settlement *service.SettlementService, confirmationsInterval, deadlinesInterval time.Duration) *Scheduler {
	return &Scheduler{
		settlement:            settlement,
		confirmationsInterval: confirmationsInterval,
		deadlinesInterval:     deadlinesInterval,
	}
}

// Start launches both sweep loops. They stop when ctx is cancelled; Wait
// blocks until any in-flight sweep has run to completion over its
// candidate snapshot.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(2)

	go s.loop(ctx, "confirmations", s.confirmationsInterval, func() {
		_, err := s.settlement.SweepConfirmations(context.Background())
		if err != nil {
			slog.Error("scheduled confirmation sweep failed", "error", err)
		}
	})

	go s.loop(ctx, "deadlines", s.deadlinesInterval, func() {
		_, err := s.settlement.SweepDeadlines(context.Background(), time.Now())
		if err != nil {
			slog.Error("scheduled deadline sweep failed", "error", err)
		}
	})

	slog.Info("sweep scheduler started",
		"confirmations_interval", s.confirmationsInterval,
		"deadlines_interval", s.deadlinesInterval)
}

func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// loop runs fn every interval. Sweeps carry their own timeouts per external
// call, so a started sweep finishes even during shutdown; cancellation only
// stops scheduling the next one.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func()) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweep loop stopped", "sweep", name)
			return
		case <-ticker.C:
			fn()
		}
	}
}
