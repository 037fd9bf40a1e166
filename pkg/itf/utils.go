package itf

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/iota-uz/presence/pkg/configuration"
)

// PostgreSQL database name maximum length.
const maxDBNameLength = 63

// CreateDB drops and recreates a throwaway database named after the test.
func CreateDB(tb testing.TB, name string) string {
	tb.Helper()

	conf := configuration.Use()
	dbName := sanitizeDBName(name)

	admin, err := sqlx.Connect("postgres", conf.Database.ConnectionString())
	if err != nil {
		tb.Skipf("test database unavailable: %v", err)
	}
	defer func() { _ = admin.Close() }()

	admin.MustExec(fmt.Sprintf(`DROP DATABASE IF EXISTS %q`, dbName))
	admin.MustExec(fmt.Sprintf(`CREATE DATABASE %q`, dbName))
	return dbName
}

// DropDB removes a database created by CreateDB.
func DropDB(tb testing.TB, dbName string) {
	tb.Helper()

	conf := configuration.Use()
	admin, err := sqlx.Connect("postgres", conf.Database.ConnectionString())
	if err != nil {
		return
	}
	defer func() { _ = admin.Close() }()
	_, _ = admin.Exec(fmt.Sprintf(`DROP DATABASE IF EXISTS %q WITH (FORCE)`, dbName))
}

// Migrate applies the goose migrations to the given test database.
func Migrate(tb testing.TB, dbName string) {
	tb.Helper()

	conf := configuration.Use()
	db, err := sqlx.Connect("postgres", conf.Database.ConnectionStringFor(dbName))
	if err != nil {
		tb.Fatalf("failed to connect for migrations: %v", err)
	}
	defer func() { _ = db.Close() }()

	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("postgres"); err != nil {
		tb.Fatalf("failed to set goose dialect: %v", err)
	}
	if err := goose.Up(db.DB, conf.MigrationsDir); err != nil {
		tb.Fatalf("failed to migrate test database: %v", err)
	}
}

// NewPool opens a pgx pool sized for tests.
func NewPool(tb testing.TB, dbName string) *pgxpool.Pool {
	tb.Helper()

	conf := configuration.Use()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(conf.Database.ConnectionStringFor(dbName))
	if err != nil {
		tb.Fatalf("failed to parse pool config: %v", err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		tb.Fatalf("failed to create test pool: %v", err)
	}
	return pool
}

func sanitizeDBName(name string) string {
	sanitized := strings.ToLower(name)
	for _, r := range []string{"/", " ", "-", ".", "(", ")", "[", "]", "#"} {
		sanitized = strings.ReplaceAll(sanitized, r, "_")
	}
	for strings.Contains(sanitized, "__") {
		sanitized = strings.ReplaceAll(sanitized, "__", "_")
	}
	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		sanitized = "test_db"
	}
	if len(sanitized) <= maxDBNameLength {
		return sanitized
	}

	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(name)))[:8]
	return sanitized[:maxDBNameLength-len(hash)-1] + "_" + hash
}
