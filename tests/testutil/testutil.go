// Package testutil holds helpers shared by the integration and acceptance suites.
package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/kendall-kelly/fieldservice-api/config"
	"github.com/kendall-kelly/fieldservice-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q.", env)
	}
}

// Config returns a configuration that never reaches external services
func Config(uploadDir string) *config.Config {
	return &config.Config{
		DatabaseURL:    "sqlite://:memory:",
		Port:           "8080",
		GoEnv:          "test",
		LogLevel:       "warn",
		Auth0Domain:    "test.auth0.com",
		Auth0Audience:  "https://api.test.com",
		StorageBackend: config.StorageLocal,
		UploadDir:      uploadDir,
	}
}

// OpenDB creates a migrated in-memory sqlite database and installs it as
// the global connection. The database is closed when the test ends.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	config.SetDB(db)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// CreateUser inserts a user whose Auth0 subject is "auth0|<name>"
func CreateUser(t *testing.T, db *gorm.DB, name, role string) models.User {
	t.Helper()

	user := models.User{
		Auth0ID: "auth0|" + name,
		Name:    name,
		Email:   strings.ToLower(name) + "@example.com",
		Role:    role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}
