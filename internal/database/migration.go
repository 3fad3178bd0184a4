package database

import (
	"fmt"
	"path/filepath"

	"assettracker/internal/database/migration"

	"go.uber.org/zap"
)

// RunMigrations applies the embedded migrations, or the ones in
// migrationsDir when it is set.
func RunMigrations(dbURL, migrationsDir string, logger *zap.Logger) error {
	if dbURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	if migrationsDir == "" {
		return migration.MigrateEmbedded(dbURL, true, logger)
	}

	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	return migration.Migrate(dbURL, "file://"+absPath, true, logger)
}
