// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"safecheck/internal/database"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with the same defaults as the config package.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "safecheck")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "safecheck_admin")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Connect(testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanAudit removes audit entries written by a test actor. Call in t.Cleanup().
func cleanAudit(t *testing.T, db *sql.DB, actorIDs ...string) {
	t.Helper()
	for _, id := range actorIDs {
		db.Exec("DELETE FROM audit_log WHERE actor_id = $1", id)
	}
}

// cleanTOTP removes test enrollments. Call in t.Cleanup().
func cleanTOTP(t *testing.T, db *sql.DB, userIDs ...string) {
	t.Helper()
	for _, id := range userIDs {
		db.Exec("DELETE FROM admin_totp WHERE user_id = $1", id)
	}
}
