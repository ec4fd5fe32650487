package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	apiserver "github.com/wri/terramatch-workflow/internal/api_server"
	"github.com/wri/terramatch-workflow/internal/config"
	"github.com/wri/terramatch-workflow/internal/jobs"
	"github.com/wri/terramatch-workflow/internal/scheduler"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduled job dispatcher, the job workers and the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, undo := setup()
		defer undo()

		zap.S().Info("Starting workflow service")
		defer zap.S().Info("Workflow service stopped")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)

		queue, stopQueue, err := startWorkQueue(gctx, g, cfg, s)
		if err != nil {
			return err
		}
		defer stopQueue()

		tasks := service.NewTaskStatusService(s)
		sched := scheduler.New(
			service.NewScheduledJobDispatcher(s, queue),
			cfg.Service.Scheduler.Interval,
			scheduler.WithJitter(cfg.Service.Scheduler.Jitter),
			scheduler.WithReconcile(cfg.Service.Scheduler.ReconcileSchedule, reconcileTasks(tasks)),
		)
		if err := sched.Start(gctx); err != nil {
			cancel()
			return err
		}
		defer sched.Stop()

		listener, err := newListener(cfg.Service.Address)
		if err != nil {
			cancel()
			return fmt.Errorf("creating listener: %w", err)
		}
		server := apiserver.New(cfg, listener, service.NewBulkApprovalService(s))
		g.Go(func() error {
			return server.Run(gctx)
		})

		metricsListener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			cancel()
			return fmt.Errorf("creating metrics listener: %w", err)
		}
		metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, metricsListener)
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})

		if err := g.Wait(); err != nil {
			zap.S().Errorw("workflow service failed", "error", err)
			return err
		}
		return nil
	},
}

// startWorkQueue wires the work queue and its scheduled-job workers. Postgres deployments
// use river; sqlite ones an in-process queue.
func startWorkQueue(ctx context.Context, g *errgroup.Group, cfg *config.Config, s store.Store) (service.WorkQueue, func(), error) {
	generator := service.NewReportGenerationService(s)

	if !isPostgres(cfg) {
		queue := jobs.NewLocalQueue()
		processor := service.NewScheduledJobProcessor(s, queue, generator)
		g.Go(func() error {
			queue.Run(ctx, processor, localQueueInterval)
			return nil
		})
		zap.S().Info("in-process job queue started")
		return queue, func() {}, nil
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	inserter, err := jobs.NewInsertOnlyClient(pool)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to create river client: %w", err)
	}

	processor := service.NewScheduledJobProcessor(s, inserter, generator)
	client, err := jobs.NewClient(pool, processor, cfg.Service.Queue.ScheduledJobsWorkers)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to create river client: %w", err)
	}
	if err := client.Start(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to start river: %w", err)
	}
	zap.S().Info("River job queue initialized")

	stop := func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), riverStopTimeout)
		defer cancel()
		if err := client.Stop(stopCtx); err != nil {
			zap.S().Warnw("failed to stop river client", "error", err)
		}
		pool.Close()
	}
	return inserter, stop, nil
}
