package main

import (
	"github.com/spf13/cobra"
	"github.com/wri/terramatch-workflow/internal/store"
	"github.com/wri/terramatch-workflow/pkg/migrations"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, undo := setup()
		defer undo()

		zap.S().Info("Migrating data store")
		defer zap.S().Info("Db migrated")

		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if !isPostgres(cfg) {
			return store.AutoMigrate(db)
		}

		pool, err := newPgxPool(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrations.MigrateStore(db, cfg.Service.MigrationFolder, pool); err != nil {
			zap.S().Errorw("running migrations", "error", err)
			return err
		}
		return nil
	},
}
