package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/presence/modules/reconcile/domain/run"
	"github.com/iota-uz/presence/pkg/composables"
)

type RunRepository struct{}

func NewRunRepository() run.Repository {
	return &RunRepository{}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func (r *RunRepository) Create(ctx context.Context, rn run.Run) (run.Run, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return run.Run{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return run.Run{}, err
	}

	summary, err := json.Marshal(rn.Summary())
	if err != nil {
		return run.Run{}, gerrors.Wrap(err, "failed to marshal run summary")
	}

	var id int64
	err = tx.QueryRow(ctx, `
	INSERT INTO sync_runs (tenant_id, started_at, status, summary)
	VALUES ($1,$2,$3,$4::jsonb)
	RETURNING id
	`, pgUUID(tenantID), rn.StartedAt(), string(rn.Status()), summary).Scan(&id)
	if err != nil {
		return run.Run{}, gerrors.Wrap(err, "failed to create sync run")
	}

	return run.Hydrate(id, tenantID, rn.StartedAt(), rn.FinishedAt(), rn.Status(), rn.Summary()), nil
}

func (r *RunRepository) Update(ctx context.Context, rn run.Run) error {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	summary, err := json.Marshal(rn.Summary())
	if err != nil {
		return gerrors.Wrap(err, "failed to marshal run summary")
	}

	var finishedAt pgtype.Timestamptz
	if !rn.FinishedAt().IsZero() {
		finishedAt = pgtype.Timestamptz{Time: rn.FinishedAt(), Valid: true}
	}

	tag, err := tx.Exec(ctx, `
	UPDATE sync_runs SET finished_at=$3, status=$4, summary=$5::jsonb
	WHERE tenant_id=$1 AND id=$2
	`, pgUUID(tenantID), rn.ID(), finishedAt, string(rn.Status()), summary)
	if err != nil {
		return gerrors.Wrap(err, "failed to update sync run")
	}
	if tag.RowsAffected() == 0 {
		return run.ErrNotFound
	}
	return nil
}

func (r *RunRepository) Latest(ctx context.Context) (run.Run, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return run.Run{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return run.Run{}, err
	}

	var (
		id         int64
		startedAt  time.Time
		finishedAt pgtype.Timestamptz
		status     string
		summary    []byte
	)
	err = tx.QueryRow(ctx, `
	SELECT id, started_at, finished_at, status, summary
	FROM sync_runs
	WHERE tenant_id=$1
	ORDER BY started_at DESC
	LIMIT 1
	`, pgUUID(tenantID)).Scan(&id, &startedAt, &finishedAt, &status, &summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return run.Run{}, run.ErrNotFound
		}
		return run.Run{}, gerrors.Wrap(err, "failed to get latest sync run")
	}

	var s run.Summary
	if len(summary) > 0 {
		if err := json.Unmarshal(summary, &s); err != nil {
			return run.Run{}, gerrors.Wrap(err, "failed to unmarshal run summary")
		}
	}

	var finished time.Time
	if finishedAt.Valid {
		finished = finishedAt.Time.UTC()
	}
	return run.Hydrate(id, tenantID, startedAt.UTC(), finished, run.Status(status), s), nil
}
