package itf

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/presence/pkg/composables"
)

// TestContext is a fluent builder for integration-test environments: a
// throwaway migrated database, a pool, one open transaction rolled back on
// cleanup, and a tenant-scoped context.
type TestContext struct {
	tenantID uuid.UUID
	dbName   string
}

func NewTestContext() *TestContext {
	return &TestContext{tenantID: uuid.New()}
}

func (tc *TestContext) WithTenant(id uuid.UUID) *TestContext {
	tc.tenantID = id
	return tc
}

func (tc *TestContext) WithDBName(name string) *TestContext {
	tc.dbName = name
	return tc
}

type TestEnvironment struct {
	Ctx      context.Context
	Pool     *pgxpool.Pool
	Tx       pgx.Tx
	TenantID uuid.UUID
}

func (tc *TestContext) Build(tb testing.TB) *TestEnvironment {
	tb.Helper()

	name := tc.dbName
	if name == "" {
		name = tb.Name()
	}
	dbName := CreateDB(tb, name)
	tb.Cleanup(func() { DropDB(tb, dbName) })

	Migrate(tb, dbName)

	pool := NewPool(tb, dbName)
	tb.Cleanup(pool.Close)

	ctx := composables.WithPool(context.Background(), pool)
	ctx = composables.WithTenantID(ctx, tc.tenantID)

	tx, err := pool.Begin(ctx)
	if err != nil {
		tb.Fatalf("failed to begin test transaction: %v", err)
	}
	tb.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return &TestEnvironment{
		Ctx:      composables.WithTx(ctx, tx),
		Pool:     pool,
		Tx:       tx,
		TenantID: tc.tenantID,
	}
}
