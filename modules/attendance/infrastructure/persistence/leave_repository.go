package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/leave"
	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/pkg/composables"
)

type LeaveRepository struct{}

func NewLeaveRepository() leave.Repository {
	return &LeaveRepository{}
}

func (r *LeaveRepository) FindCovering(ctx context.Context, entryKey string, day time.Time) (leave.Request, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return leave.Request{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return leave.Request{}, err
	}

	var (
		id       int64
		tenantID uuid.UUID
		key      string
		from     time.Time
		to       time.Time
		reason   string
		fraction float64
	)
	err = tx.QueryRow(ctx, `
	SELECT id, tenant_id, entry_key, from_day, to_day, reason, fraction
	FROM leave_requests
	WHERE tenant_id=$1 AND entry_key=$2 AND from_day <= $3 AND to_day >= $3
	ORDER BY from_day DESC
	LIMIT 1
	`, pgTenantID, entryKey, record.Day(day)).Scan(&id, &tenantID, &key, &from, &to, &reason, &fraction)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.Request{}, leave.ErrNotFound
		}
		return leave.Request{}, gerrors.Wrap(err, "failed to find covering leave request")
	}

	return leave.Hydrate(id, tenantID, key, from, to, reason, fraction), nil
}

func (r *LeaveRepository) Create(ctx context.Context, req leave.Request) (leave.Request, error) {
	tenantID, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return leave.Request{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return leave.Request{}, err
	}

	var id int64
	err = tx.QueryRow(ctx, `
	INSERT INTO leave_requests (tenant_id, entry_key, from_day, to_day, reason, fraction)
	VALUES ($1,$2,$3,$4,$5,$6)
	RETURNING id
	`, pgTenantID, req.EntryKey(), req.From(), req.To(), req.Reason(), req.Fraction()).Scan(&id)
	if err != nil {
		return leave.Request{}, gerrors.Wrap(err, "failed to create leave request")
	}

	return leave.Hydrate(id, tenantID, req.EntryKey(), req.From(), req.To(), req.Reason(), req.Fraction()), nil
}

func (r *LeaveRepository) Delete(ctx context.Context, id int64) error {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
	DELETE FROM leave_requests WHERE tenant_id=$1 AND id=$2
	`, pgTenantID, id)
	if err != nil {
		return gerrors.Wrap(err, "failed to delete leave request")
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrNotFound
	}
	return nil
}
