package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ConnectToSQLite opens the SQLite database at dbPath through gorm.
// dbPath may be a plain file path or a "file:" URI (used for in-memory databases).
func ConnectToSQLite(dbPath string, logger zerolog.Logger) (*gorm.DB, error) {
	if !strings.HasPrefix(dbPath, "file:") && dbPath != ":memory:" {
		// Ensure the directory exists
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for SQLite: %w", err)
		}
	}

	gdb, err := gorm.Open(sqlite.Open(withPragmas(dbPath)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("Connected to SQLite database")
	return gdb, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func newMigrationProvider(gdb *gorm.DB) (*goose.Provider, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQLite handle: %w", err)
	}
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return goose.NewProvider(goose.DialectSQLite3, sqlDB, migrations)
}

// InitializeSchema applies all pending migrations. With drop set, every
// applied migration is rolled back first so the schema is recreated empty.
func InitializeSchema(ctx context.Context, gdb *gorm.DB, drop bool) error {
	provider, err := newMigrationProvider(gdb)
	if err != nil {
		return fmt.Errorf("failed to prepare migrations: %w", err)
	}

	if drop {
		if _, err := provider.DownTo(ctx, 0); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// SchemaVersion returns the latest applied migration version
func SchemaVersion(ctx context.Context, gdb *gorm.DB) (int64, error) {
	provider, err := newMigrationProvider(gdb)
	if err != nil {
		return 0, err
	}
	return provider.GetDBVersion(ctx)
}
