package testutils

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"watchlist/db"
	"watchlist/internal/config"
)

// SetupTestDatabase opens a private in-memory SQLite database with the schema
// applied. The database lives until the test finishes.
func SetupTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	// Shared cache lets every pooled connection see the same in-memory database
	name := strings.ReplaceAll(uuid.NewString(), "-", "")
	gdb, err := db.ConnectToSQLite("file:"+name+"?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.InitializeSchema(context.Background(), gdb, false))
	return gdb
}

func SetupTestRepositoryFactory(t *testing.T) *db.RepositoryFactory {
	t.Helper()
	factory := db.NewRepositoryFactory(SetupTestDatabase(t))
	t.Cleanup(factory.Writes.Stop)
	return factory
}

func GetTestConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		SQLitePath:     ":memory:",
		DatabaseName:   "watchlist_test",
		SecretKey:      []byte("test_secret_key_for_testing_only"),
		JwtKey:         []byte("test_jwt_secret_key_for_testing_only"),
		JwtTTL:         1,
		LoginRateLimit: 100,
		LoginRateBurst: 100,
		LogLevel:       "disabled",
		LogFormat:      "json",
	}
}
