package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lthibault/jitterbug/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Dispatcher runs one pass over the due scheduled jobs.
type Dispatcher interface {
	Dispatch(ctx context.Context) (int, error)
}

type ReconcileFunc func(ctx context.Context) error

// Scheduler triggers the dispatcher on a jittered interval and the task reconciliation on a cron spec.
// Several instances may run at once: scheduled job claiming is guarded by row locks.
type Scheduler struct {
	dispatcher Dispatcher
	interval   time.Duration
	jitter     time.Duration

	reconcile         ReconcileFunc
	reconcileSchedule string
	cron              *cron.Cron

	wg sync.WaitGroup
}

type Option func(s *Scheduler)

func WithJitter(stdev time.Duration) Option {
	return func(s *Scheduler) {
		s.jitter = stdev
	}
}

// WithReconcile schedules fn with the given cron spec. An empty spec disables it.
func WithReconcile(spec string, fn ReconcileFunc) Option {
	return func(s *Scheduler) {
		s.reconcileSchedule = spec
		s.reconcile = fn
	}
}

func New(dispatcher Dispatcher, interval time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher: dispatcher,
		interval:   interval,
		jitter:     10 * time.Second,
		cron:       cron.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start launches the dispatch loop and the cron scheduler. Both stop when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	logger := zap.S().Named("scheduler")

	if s.reconcileSchedule != "" && s.reconcile != nil {
		_, err := s.cron.AddFunc(s.reconcileSchedule, func() {
			if err := s.reconcile(ctx); err != nil {
				logger.Errorw("task reconciliation failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", s.reconcileSchedule, err)
		}
		s.cron.Start()
		logger.Infow("task reconciliation scheduled", "schedule", s.reconcileSchedule)
	}

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: s.jitter, Mean: 0})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		logger.Infow("scheduled job dispatcher started", "interval", s.interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if _, err := s.dispatcher.Dispatch(ctx); err != nil {
				logger.Errorw("scheduled job dispatch failed", "error", err)
			}
		}
	}()

	return nil
}

// Stop waits for the dispatch loop to exit and for running cron jobs to finish.
// The context given to Start must be cancelled first.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	zap.S().Named("scheduler").Info("scheduler stopped")
}
