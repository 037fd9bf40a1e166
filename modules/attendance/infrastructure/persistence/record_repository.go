package persistence

import (
	"context"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/pkg/composables"
)

const recordColumns = `
	tenant_id,
	entry_key,
	day,
	scheduled_start,
	actual_start,
	status,
	minutes_late,
	non_productive,
	not_categorized,
	productive,
	total,
	corrected_total,
	notes,
	leave_reason,
	half_day,
	manual_edit,
	created_at,
	updated_at`

type RecordRepository struct{}

func NewRecordRepository() record.Repository {
	return &RecordRepository{}
}

func (r *RecordRepository) GetByEntryAndDay(ctx context.Context, entryKey string, day time.Time) (record.Record, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return record.Record{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return record.Record{}, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+recordColumns+`
	FROM attendance_records
	WHERE tenant_id=$1 AND entry_key=$2 AND day=$3
	`, pgTenantID, entryKey, record.Day(day))

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record.Record{}, record.ErrNotFound
		}
		return record.Record{}, gerrors.Wrap(err, "failed to get attendance record")
	}
	return rec, nil
}

func (r *RecordRepository) ListByDay(ctx context.Context, day time.Time) ([]record.Record, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT `+recordColumns+`
	FROM attendance_records
	WHERE tenant_id=$1 AND day=$2
	ORDER BY entry_key
	`, pgTenantID, record.Day(day))
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query attendance records")
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *RecordRepository) ListByEntry(ctx context.Context, entryKey string, from, to time.Time) ([]record.Record, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT `+recordColumns+`
	FROM attendance_records
	WHERE tenant_id=$1 AND entry_key=$2 AND day BETWEEN $3 AND $4
	ORDER BY day
	`, pgTenantID, entryKey, record.Day(from), record.Day(to))
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query attendance records")
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *RecordRepository) Upsert(ctx context.Context, rec record.Record) (record.Record, error) {
	tenantID, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return record.Record{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return record.Record{}, err
	}

	now := time.Now().UTC()
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
	INSERT INTO attendance_records (`+recordColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	ON CONFLICT (tenant_id, entry_key, day) DO UPDATE SET
		scheduled_start=EXCLUDED.scheduled_start,
		actual_start=EXCLUDED.actual_start,
		status=EXCLUDED.status,
		minutes_late=EXCLUDED.minutes_late,
		non_productive=EXCLUDED.non_productive,
		not_categorized=EXCLUDED.not_categorized,
		productive=EXCLUDED.productive,
		total=EXCLUDED.total,
		corrected_total=EXCLUDED.corrected_total,
		notes=EXCLUDED.notes,
		leave_reason=EXCLUDED.leave_reason,
		half_day=EXCLUDED.half_day,
		manual_edit=EXCLUDED.manual_edit,
		updated_at=EXCLUDED.updated_at
	RETURNING created_at
	`,
		pgTenantID,
		rec.EntryKey(),
		rec.DayOf(),
		pgNullableTime(rec.ScheduledStart()),
		pgNullableTime(rec.ActualStart()),
		string(rec.Status()),
		rec.MinutesLate(),
		rec.NonProductive(),
		rec.NotCategorized(),
		rec.Productive(),
		rec.Total(),
		rec.CorrectedTotal(),
		rec.Notes(),
		rec.LeaveReason(),
		rec.HalfDay(),
		rec.ManuallyEdited(),
		now,
		now,
	).Scan(&createdAt)
	if err != nil {
		return record.Record{}, gerrors.Wrap(err, "failed to upsert attendance record")
	}

	return record.Hydrate(
		tenantID,
		rec.EntryKey(),
		rec.DayOf(),
		rec.ScheduledStart(),
		rec.ActualStart(),
		rec.Status(),
		rec.MinutesLate(),
		rec.NonProductive(),
		rec.NotCategorized(),
		rec.Productive(),
		rec.Total(),
		rec.CorrectedTotal(),
		rec.Notes(),
		rec.LeaveReason(),
		rec.HalfDay(),
		rec.ManuallyEdited(),
		createdAt,
		now,
	), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (record.Record, error) {
	var (
		tenantID       uuid.UUID
		entryKey       string
		day            time.Time
		scheduledStart pgtype.Timestamptz
		actualStart    pgtype.Timestamptz
		status         string
		minutesLate    int
		nonProductive  int
		notCategorized int
		productive     int
		total          int
		correctedTotal int
		notes          string
		leaveReason    string
		halfDay        float64
		manualEdit     bool
		createdAt      time.Time
		updatedAt      time.Time
	)
	err := row.Scan(
		&tenantID,
		&entryKey,
		&day,
		&scheduledStart,
		&actualStart,
		&status,
		&minutesLate,
		&nonProductive,
		&notCategorized,
		&productive,
		&total,
		&correctedTotal,
		&notes,
		&leaveReason,
		&halfDay,
		&manualEdit,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return record.Record{}, err
	}

	return record.Hydrate(
		tenantID,
		entryKey,
		day,
		fromNullableTime(scheduledStart),
		fromNullableTime(actualStart),
		record.Status(status),
		minutesLate,
		nonProductive,
		notCategorized,
		productive,
		total,
		correctedTotal,
		notes,
		leaveReason,
		halfDay,
		manualEdit,
		createdAt,
		updatedAt,
	), nil
}

func scanRecords(rows pgx.Rows) ([]record.Record, error) {
	var out []record.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "failed to read attendance records")
	}
	return out, nil
}
