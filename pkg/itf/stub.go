package itf

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/presence/pkg/composables"
)

// StubTx satisfies pgx.Tx without touching a database. Service unit tests
// seed it into the context so transaction scoping becomes a no-op and the
// mocked repositories absorb all calls.
type StubTx struct{}

var _ pgx.Tx = StubTx{}

func (StubTx) Begin(ctx context.Context) (pgx.Tx, error) { return StubTx{}, nil }
func (StubTx) Commit(ctx context.Context) error          { return nil }
func (StubTx) Rollback(ctx context.Context) error        { return nil }

func (StubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (StubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (StubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }

func (StubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (StubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (StubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (StubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return errRow{} }

func (StubTx) Conn() *pgx.Conn { return nil }

type errRow struct{}

func (errRow) Scan(dest ...any) error { return pgx.ErrNoRows }

// WithStubTx returns a context whose transaction slot is pre-filled, so
// composables.InTenantTx runs its body directly.
func WithStubTx(ctx context.Context) context.Context {
	return composables.WithTx(ctx, StubTx{})
}
