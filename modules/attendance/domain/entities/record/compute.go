package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/presence/modules/roster/domain/value_objects/schedule"
)

// RawDay is one day of tracker output for one user, in seconds.
type RawDay struct {
	HasData           bool
	ProductiveSec     int64
	NonProductiveSec  int64
	NotCategorizedSec int64
	ActualStart       time.Time
}

// LeaveSpan is an approved leave covering the day being computed.
type LeaveSpan struct {
	Reason   string
	Fraction float64
}

// ComputeDay derives the attendance record for one (entry, day) from raw
// tracker seconds. When an existing record carries the manual-edit flag its
// corrected total and notes are preserved verbatim and the flag survives;
// everything else is refreshed from upstream. The flag itself is never set
// or cleared here.
func ComputeDay(
	tenantID uuid.UUID,
	entryKey string,
	day time.Time,
	sched schedule.Schedule,
	raw RawDay,
	leave *LeaveSpan,
	grace time.Duration,
	existing *Record,
) Record {
	day = Day(day)

	r := Record{
		tenantID: tenantID,
		entryKey: entryKey,
		day:      day,
	}
	if existing != nil {
		r.createdAt = existing.createdAt
	}

	if !sched.IsContinuous() {
		r.scheduledStart = sched.StartOn(day)
	}

	if raw.HasData {
		r.nonProductive = int(raw.NonProductiveSec / 60)
		r.notCategorized = int(raw.NotCategorizedSec / 60)
		r.productive = int(raw.ProductiveSec / 60)
		r.total = r.nonProductive + r.notCategorized + r.productive
		r.actualStart = raw.ActualStart

		r.status = StatusPresent
		if !sched.IsContinuous() && !raw.ActualStart.IsZero() {
			late := raw.ActualStart.Sub(r.scheduledStart)
			if late > 0 {
				r.minutesLate = int(late / time.Minute)
			}
			if late > grace {
				r.status = StatusLate
			}
		}
	} else if leave != nil {
		r.status = StatusLeave
		r.leaveReason = leave.Reason
		if leave.Fraction > 0 && leave.Fraction < 1 {
			r.halfDay = leave.Fraction
		}
	} else {
		r.status = StatusAbsent
	}

	r.correctedTotal = r.total
	if existing != nil && existing.manualEdit {
		r.correctedTotal = existing.correctedTotal
		r.notes = existing.notes
		r.manualEdit = true
	}

	return r
}
