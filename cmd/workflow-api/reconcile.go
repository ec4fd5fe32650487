package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/wri/terramatch-workflow/internal/scheduler"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"go.uber.org/zap"
)

var reconcileTasksCmd = &cobra.Command{
	Use:   "reconcile-tasks",
	Short: "Recompute the status of due tasks whose reports have all been submitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, undo := setup()
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		return reconcileTasks(service.NewTaskStatusService(s))(cmd.Context())
	},
}

func reconcileTasks(tasks *service.TaskStatusService) scheduler.ReconcileFunc {
	return func(ctx context.Context) error {
		updated, err := tasks.ReconcileDueTasks(ctx)
		if err != nil {
			return err
		}
		zap.S().Named("reconcile").Infow("due tasks reconciled", "updated", updated)
		return nil
	}
}
