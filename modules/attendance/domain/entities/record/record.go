package record

import (
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
)

var ErrNegativeCorrectedTotal = gerrors.New("corrected total must not be negative")

// Record is the attendance outcome for one roster entry on one calendar day.
// Exactly one record exists per (entry, day); the manual-edit flag protects
// admin corrections from being recomputed by sync.
type Record struct {
	tenantID       uuid.UUID
	entryKey       string
	day            time.Time
	scheduledStart time.Time
	actualStart    time.Time
	status         Status
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
}

func Hydrate(
	tenantID uuid.UUID,
	entryKey string,
	day time.Time,
	scheduledStart time.Time,
	actualStart time.Time,
	status Status,
	minutesLate int,
	nonProductive int,
	notCategorized int,
	productive int,
	total int,
	correctedTotal int,
	notes string,
	leaveReason string,
	halfDay float64,
	manualEdit bool,
	createdAt time.Time,
	updatedAt time.Time,
) Record {
	return Record{
		tenantID:       tenantID,
		entryKey:       entryKey,
		day:            Day(day),
		scheduledStart: scheduledStart,
		actualStart:    actualStart,
		status:         status,
		minutesLate:    minutesLate,
		nonProductive:  nonProductive,
		notCategorized: notCategorized,
		productive:     productive,
		total:          total,
		correctedTotal: correctedTotal,
		notes:          notes,
		leaveReason:    leaveReason,
		halfDay:        halfDay,
		manualEdit:     manualEdit,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (r Record) TenantID() uuid.UUID       { return r.tenantID }
func (r Record) EntryKey() string          { return r.entryKey }
func (r Record) DayOf() time.Time          { return r.day }
func (r Record) ScheduledStart() time.Time { return r.scheduledStart }
func (r Record) ActualStart() time.Time    { return r.actualStart }
func (r Record) Status() Status            { return r.status }
func (r Record) MinutesLate() int          { return r.minutesLate }
func (r Record) NonProductive() int        { return r.nonProductive }
func (r Record) NotCategorized() int       { return r.notCategorized }
func (r Record) Productive() int           { return r.productive }
func (r Record) Total() int                { return r.total }
func (r Record) CorrectedTotal() int       { return r.correctedTotal }
func (r Record) Notes() string             { return r.notes }
func (r Record) LeaveReason() string       { return r.leaveReason }
func (r Record) HalfDay() float64          { return r.halfDay }
func (r Record) ManuallyEdited() bool      { return r.manualEdit }
func (r Record) CreatedAt() time.Time      { return r.createdAt }
func (r Record) UpdatedAt() time.Time      { return r.updatedAt }
func (r Record) IsZero() bool              { return r.entryKey == "" && r.day.IsZero() }

// SetCorrectedTotal is the admin correction path: it validates the value and
// marks the record as manually edited.
func (r Record) SetCorrectedTotal(minutes int) (Record, error) {
	if minutes < 0 {
		return r, ErrNegativeCorrectedTotal
	}
	r.correctedTotal = minutes
	r.manualEdit = true
	return r, nil
}

// SetNotes attaches free-text notes and marks the record manually edited.
func (r Record) SetNotes(notes string) Record {
	r.notes = notes
	r.manualEdit = true
	return r
}

// ResetManualEdits is the explicit ManualEdit -> Clean transition: the flag
// clears and the corrected total falls back to the computed one, so the
// record never keeps a stale manual value.
func (r Record) ResetManualEdits() Record {
	r.manualEdit = false
	r.correctedTotal = r.total
	return r
}
