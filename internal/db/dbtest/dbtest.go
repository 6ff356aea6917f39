// Package dbtest opens the Postgres instance used by repository tests.
package dbtest

import (
	"context"
	"os"
	"time"

	"github.com/vasiliy-maslov/marketplace-ops/internal/config"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

// Open connects to the database named by the TEST_DB_* variables and applies
// migrations into schema. It returns nil, nil when TEST_DB_HOST is unset so
// callers can skip. Each package passes its own schema because packages
// run their tests in parallel.
func Open(schema string) (*db.Postgres, error) {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := db.New(ctx, config.PostgresConfig{
		Host:            host,
		Port:            envOr("TEST_DB_PORT", "5432"),
		User:            envOr("TEST_DB_USER", "postgres"),
		Password:        os.Getenv("TEST_DB_PASSWORD"),
		DBName:          envOr("TEST_DB_NAME", "ops"),
		SSLMode:         "disable",
		Schema:          schema,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	})
	if err != nil {
		return nil, err
	}
	if err := conn.Migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
