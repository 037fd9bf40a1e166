package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/composables"
)

const entryColumns = `
	tenant_id,
	key,
	name,
	email,
	tracker_id,
	hr_id,
	division,
	direction,
	unit,
	team,
	location,
	plan_start,
	control_managers,
	contact,
	manager_contact,
	archived,
	ignored,
	overrides,
	created_at,
	updated_at`

type RosterRepository struct{}

func NewRosterRepository() entry.Repository {
	return &RosterRepository{}
}

func (r *RosterRepository) Count(ctx context.Context) (int64, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return 0, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	err = tx.QueryRow(ctx, `
	SELECT COUNT(*) FROM roster_entries WHERE tenant_id=$1
	`, pgTenantID).Scan(&count)
	if err != nil {
		return 0, gerrors.Wrap(err, "failed to count roster entries")
	}
	return count, nil
}

func (r *RosterRepository) GetAll(ctx context.Context) ([]entry.Entry, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
	SELECT `+entryColumns+`
	FROM roster_entries
	WHERE tenant_id=$1
	ORDER BY key
	`, pgTenantID)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query roster entries")
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *RosterRepository) GetPaginated(ctx context.Context, params *entry.FindParams) ([]entry.Entry, error) {
	if params == nil {
		params = &entry.FindParams{}
	}
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := tx.Query(ctx, `
	SELECT `+entryColumns+`
	FROM roster_entries
	WHERE tenant_id=$1
	  AND ($2 = '' OR team = $2)
	  AND ($3 OR NOT archived)
	  AND ($4 OR NOT ignored)
	ORDER BY key
	OFFSET $5 LIMIT $6
	`, pgTenantID, params.Team, params.IncludeArchived, params.IncludeIgnored, offset, limit)
	if err != nil {
		return nil, gerrors.Wrap(err, "failed to query roster entries")
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (r *RosterRepository) GetByKey(ctx context.Context, key string) (entry.Entry, error) {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return entry.Entry{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entry.Entry{}, err
	}

	row := tx.QueryRow(ctx, `
	SELECT `+entryColumns+`
	FROM roster_entries
	WHERE tenant_id=$1 AND key=$2
	`, pgTenantID, key)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entry.Entry{}, entry.ErrNotFound
		}
		return entry.Entry{}, gerrors.Wrap(err, "failed to get roster entry")
	}
	return e, nil
}

func (r *RosterRepository) Create(ctx context.Context, e entry.Entry) (entry.Entry, error) {
	tenantID, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return entry.Entry{}, err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return entry.Entry{}, err
	}

	overrides, err := json.Marshal(e.Overrides())
	if err != nil {
		return entry.Entry{}, gerrors.Wrap(err, "failed to marshal overrides")
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
	INSERT INTO roster_entries (`+entryColumns+`)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18::jsonb,$19,$20)
	`,
		pgTenantID,
		e.Key(),
		e.Name(),
		e.Email(),
		e.TrackerID(),
		e.HRID(),
		e.Division(),
		e.Direction(),
		e.Unit(),
		e.Team(),
		e.Location(),
		e.PlanStartRaw(),
		e.ControlManagers(),
		e.Contact(),
		e.ManagerContact(),
		e.Archived(),
		e.Ignored(),
		overrides,
		now,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return entry.Entry{}, entry.ErrKeyTaken
		}
		return entry.Entry{}, gerrors.Wrap(err, "failed to create roster entry")
	}

	return rehydrate(e, tenantID, now, now), nil
}

func (r *RosterRepository) Update(ctx context.Context, e entry.Entry) error {
	_, pgTenantID, err := tenantIDs(ctx)
	if err != nil {
		return err
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	overrides, err := json.Marshal(e.Overrides())
	if err != nil {
		return gerrors.Wrap(err, "failed to marshal overrides")
	}

	tag, err := tx.Exec(ctx, `
	UPDATE roster_entries SET
		name=$3,
		email=$4,
		tracker_id=$5,
		hr_id=$6,
		division=$7,
		direction=$8,
		unit=$9,
		team=$10,
		location=$11,
		plan_start=$12,
		control_managers=$13,
		contact=$14,
		manager_contact=$15,
		archived=$16,
		ignored=$17,
		overrides=$18::jsonb,
		updated_at=$19
	WHERE tenant_id=$1 AND key=$2
	`,
		pgTenantID,
		e.Key(),
		e.Name(),
		e.Email(),
		e.TrackerID(),
		e.HRID(),
		e.Division(),
		e.Direction(),
		e.Unit(),
		e.Team(),
		e.Location(),
		e.PlanStartRaw(),
		e.ControlManagers(),
		e.Contact(),
		e.ManagerContact(),
		e.Archived(),
		e.Ignored(),
		overrides,
		time.Now().UTC(),
	)
	if err != nil {
		return gerrors.Wrap(err, "failed to update roster entry")
	}
	if tag.RowsAffected() == 0 {
		return entry.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (entry.Entry, error) {
	var (
		tenantID        uuid.UUID
		key             string
		name            string
		email           string
		trackerID       int64
		hrID            int64
		division        string
		direction       string
		unit            string
		team            string
		location        string
		planStart       string
		controlManagers []int64
		contact         string
		managerContact  string
		archived        bool
		ignored         bool
		overridesJSON   []byte
		createdAt       time.Time
		updatedAt       time.Time
	)
	err := row.Scan(
		&tenantID,
		&key,
		&name,
		&email,
		&trackerID,
		&hrID,
		&division,
		&direction,
		&unit,
		&team,
		&location,
		&planStart,
		&controlManagers,
		&contact,
		&managerContact,
		&archived,
		&ignored,
		&overridesJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return entry.Entry{}, err
	}

	var overrides entry.Overrides
	if len(overridesJSON) > 0 {
		if err := json.Unmarshal(overridesJSON, &overrides); err != nil {
			return entry.Entry{}, gerrors.Wrap(err, "failed to unmarshal overrides")
		}
	}

	return entry.Hydrate(
		tenantID,
		key,
		name,
		email,
		trackerID,
		hrID,
		division,
		direction,
		unit,
		team,
		location,
		planStart,
		controlManagers,
		contact,
		managerContact,
		archived,
		ignored,
		overrides,
		createdAt,
		updatedAt,
	), nil
}

func scanEntries(rows pgx.Rows) ([]entry.Entry, error) {
	var out []entry.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, gerrors.Wrap(err, "failed to read roster entries")
	}
	return out, nil
}

func rehydrate(e entry.Entry, tenantID uuid.UUID, createdAt, updatedAt time.Time) entry.Entry {
	return entry.Hydrate(
		tenantID,
		e.Key(),
		e.Name(),
		e.Email(),
		e.TrackerID(),
		e.HRID(),
		e.Division(),
		e.Direction(),
		e.Unit(),
		e.Team(),
		e.Location(),
		e.PlanStartRaw(),
		e.ControlManagers(),
		e.Contact(),
		e.ManagerContact(),
		e.Archived(),
		e.Ignored(),
		e.Overrides(),
		createdAt,
		updatedAt,
	)
}
