package migration

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	_ "github.com/golang-migrate/migrate/v4/database/postgres" // register postgres DB and SQL
	_ "github.com/golang-migrate/migrate/v4/source/file"       // register file source
)

//go:embed sql/*.sql
var embedded embed.FS

// Migrate applies the migrations found at migrationsPath (a source URL such
// as file:///srv/migrations).
func Migrate(dbURL string, migrationsPath string, verbose bool, log *zap.Logger) error {
	log.Info("Running database migration", zap.String("source", migrationsPath))

	dbMigrate, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return err
	}
	return up(dbMigrate, verbose, log)
}

// MigrateEmbedded applies the migrations compiled into the binary.
func MigrateEmbedded(dbURL string, verbose bool, log *zap.Logger) error {
	log.Info("Running embedded database migration")

	source, err := iofs.New(embedded, "sql")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	dbMigrate, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return err
	}
	return up(dbMigrate, verbose, log)
}

func up(dbMigrate *migrate.Migrate, verbose bool, log *zap.Logger) error {
	dbMigrate.Log = NewLogger(log, verbose)
	defer dbMigrate.Close()

	err := dbMigrate.Up()
	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("Database migration: no change needed")
		} else {
			log.Error("Database migration failed", zap.Error(err))
			return err
		}
	}

	return nil
}

type Logger struct {
	logger  *zap.Logger
	verbose bool
}

func (l *Logger) Printf(format string, v ...any) {
	l.logger.Sugar().Infof("DB Migration: "+format, v...)
}

func (l *Logger) Verbose() bool {
	return l.verbose
}

func NewLogger(logger *zap.Logger, verbose bool) *Logger {
	return &Logger{
		logger:  logger,
		verbose: verbose,
	}
}
