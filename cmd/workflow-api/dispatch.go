package main

import (
	"github.com/spf13/cobra"
	"github.com/wri/terramatch-workflow/internal/service"
	"github.com/wri/terramatch-workflow/internal/store"
	"go.uber.org/zap"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run a single scheduled job dispatch pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, undo := setup()
		defer undo()

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		ctx := cmd.Context()
		queue, err := newCommandQueue(ctx, cfg)
		if err != nil {
			return err
		}
		defer queue.Close(ctx, s)

		count, err := service.NewScheduledJobDispatcher(s, queue).Dispatch(ctx)
		if err != nil {
			return err
		}
		zap.S().Infow("dispatch pass completed", "dispatched", count)
		return nil
	},
}
