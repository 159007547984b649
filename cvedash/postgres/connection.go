// File: connection.go
package postgres

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cvedash/go-api/cvedash/postgres/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	db     *gorm.DB
	dbErr  error
	dbOnce sync.Once
)

// connect opens the database from the DATABASE_URL environment variable and
// runs migrations. Credentials are never embedded in source; a missing
// DATABASE_URL is a startup error.
func connect() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dbErr = fmt.Errorf("DATABASE_URL environment variable not set")
		return
	}

	db, dbErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Logger: logger.Default.LogMode(logger.Info),
	})
	if dbErr != nil {
		dbErr = fmt.Errorf("failed to connect to database: %w", dbErr)
		slog.Error("Database connection failed", "error", dbErr)
		return
	}

	dbErr = db.AutoMigrate(
		&models.CVE{},
	)
	if dbErr != nil {
		dbErr = fmt.Errorf("failed to migrate database schema: %w", dbErr)
		slog.Error("Database migration failed", "error", dbErr)
		db = nil
	}
}

// GetDB returns the shared gorm handle, connecting on first use. gorm manages
// a connection pool underneath, so each request checks a connection out and
// returns it on every exit path; no cursor is shared between requests.
func GetDB() *gorm.DB {
	dbOnce.Do(connect)
	return db
}

// IsConnected reports whether the database connection was established.
func IsConnected() bool {
	dbOnce.Do(connect)
	return db != nil
}

// GetConnectionError returns the error from the connection attempt, if any.
func GetConnectionError() error {
	dbOnce.Do(connect)
	return dbErr
}
