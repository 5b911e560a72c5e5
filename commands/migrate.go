package commands

import (
	"github.com/spf13/cobra"

	"tourbook/config"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbCfg := cfg.Database
			dbCfg.AutoMigrate = false

			db, err := config.SetupMySQLConnection(dbCfg)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := config.Migrate(db); err != nil {
				return err
			}
			log.Info("schema migrated", "database", dbCfg.Database)
			return nil
		},
	}
}
