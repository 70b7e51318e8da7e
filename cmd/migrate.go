package cmd

import (
	"github.com/JavierABADdelMolino/TASKLY-sub000/database"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Open(cfg.DB.Driver, cfg.DB.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}
		logger.Info("database is up to date", zap.String("driver", cfg.DB.Driver))
		return nil
	},
}
