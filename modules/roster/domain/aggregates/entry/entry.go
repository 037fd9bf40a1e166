package entry

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/presence/modules/roster/domain/value_objects/schedule"
)

// Entry is the canonical record for one employee, merged from the HR system
// and the time tracker. Keyed by email when known, otherwise by name.
type Entry struct {
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
	overrides       Overrides
	createdAt       time.Time
	updatedAt       time.Time
}

// DeriveKey picks the stable internal key for a person: email preferred,
// else the display name.
func DeriveKey(name, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		return email
	}
	return strings.TrimSpace(name)
}

func New(tenantID uuid.UUID, name, email string) Entry {
	return Entry{
		tenantID: tenantID,
		key:      DeriveKey(name, email),
		name:     strings.TrimSpace(name),
		email:    strings.ToLower(strings.TrimSpace(email)),
	}
}

func Hydrate(
	tenantID uuid.UUID,
	key string,
	name string,
	email string,
	trackerID int64,
	hrID int64,
	division string,
	direction string,
	unit string,
	team string,
	location string,
	planStart string,
	controlManagers []int64,
	contact string,
	managerContact string,
	archived bool,
	ignored bool,
	overrides Overrides,
	createdAt time.Time,
	updatedAt time.Time,
) Entry {
	return Entry{
		tenantID:        tenantID,
		key:             strings.TrimSpace(key),
		name:            strings.TrimSpace(name),
		email:           strings.ToLower(strings.TrimSpace(email)),
		trackerID:       trackerID,
		hrID:            hrID,
		division:        division,
		direction:       direction,
		unit:            unit,
		team:            team,
		location:        location,
		planStart:       planStart,
		controlManagers: controlManagers,
		contact:         contact,
		managerContact:  managerContact,
		archived:        archived,
		ignored:         ignored,
		overrides:       overrides,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

func (e Entry) TenantID() uuid.UUID          { return e.tenantID }
func (e Entry) Key() string                  { return e.key }
func (e Entry) Name() string                 { return e.name }
func (e Entry) Email() string                { return e.email }
func (e Entry) TrackerID() int64             { return e.trackerID }
func (e Entry) HRID() int64                  { return e.hrID }
func (e Entry) Division() string             { return e.division }
func (e Entry) Direction() string            { return e.direction }
func (e Entry) Unit() string                 { return e.unit }
func (e Entry) Team() string                 { return e.team }
func (e Entry) Location() string             { return e.location }
func (e Entry) PlanStartRaw() string         { return e.planStart }
func (e Entry) PlanStart() schedule.Schedule { return schedule.Parse(e.planStart) }
func (e Entry) Contact() string              { return e.contact }
func (e Entry) ManagerContact() string       { return e.managerContact }
func (e Entry) Archived() bool               { return e.archived }
func (e Entry) Ignored() bool                { return e.ignored }
func (e Entry) Overrides() Overrides         { return e.overrides }
func (e Entry) CreatedAt() time.Time         { return e.createdAt }
func (e Entry) UpdatedAt() time.Time         { return e.updatedAt }
func (e Entry) IsZero() bool                 { return e.key == "" && e.tenantID == uuid.Nil }

func (e Entry) ControlManagers() []int64 {
	out := make([]int64, len(e.controlManagers))
	copy(out, e.controlManagers)
	return out
}

func (e Entry) HasControlManager(id int64) bool {
	for _, m := range e.controlManagers {
		if m == id {
			return true
		}
	}
	return false
}

func (e Entry) WithArchived(v bool) Entry {
	e.archived = v
	return e
}

func (e Entry) WithIgnored(v bool) Entry {
	e.ignored = v
	return e
}

// WithOverrides replaces the override set. Used by admin edits and the
// explicit reset action; the merge engine never calls this.
func (e Entry) WithOverrides(o Overrides) Entry {
	e.overrides = o
	return e
}
