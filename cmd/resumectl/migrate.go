package main

import (
	"github.com/spf13/cobra"

	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/storage/db"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := migrateDatabaseURL
		if url == "" {
			url = config.Load().DatabaseURL
		}
		return db.Migrate(cmd.Context(), url)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "db-url", "", "Database URL (overrides DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)
}
