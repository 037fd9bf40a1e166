package services

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/leave"
	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/composables"
	"github.com/iota-uz/presence/pkg/configuration"
)

type AttendanceService struct {
	records record.Repository
	leaves  leave.Repository
	opts    configuration.SyncOptions
}

func NewAttendanceService(records record.Repository, leaves leave.Repository, opts configuration.SyncOptions) *AttendanceService {
	return &AttendanceService{
		records: records,
		leaves:  leaves,
		opts:    opts,
	}
}

func (s *AttendanceService) GetByEntryAndDay(ctx context.Context, entryKey string, day time.Time) (record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (record.Record, error) {
		return s.records.GetByEntryAndDay(txCtx, entryKey, day)
	})
}

func (s *AttendanceService) ListByDay(ctx context.Context, day time.Time) ([]record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]record.Record, error) {
		return s.records.ListByDay(txCtx, day)
	})
}

func (s *AttendanceService) ListByEntry(ctx context.Context, entryKey string, from, to time.Time) ([]record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]record.Record, error) {
		return s.records.ListByEntry(txCtx, entryKey, from, to)
	})
}

// ComputeFor recomputes and stores one (entry, day) record from raw tracker
// data, resolving any covering leave request and preserving manual edits.
func (s *AttendanceService) ComputeFor(ctx context.Context, e entry.Entry, day time.Time, raw record.RawDay) (record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (record.Record, error) {
		return s.computeFor(txCtx, e, day, raw)
	})
}

// SyncDay recomputes records for every given entry on one day. Entries
// absent from raws still get a record (absent or leave). Archived and
// ignored entries are skipped. Returns how many records were written.
func (s *AttendanceService) SyncDay(ctx context.Context, day time.Time, entries []entry.Entry, raws map[string]record.RawDay) (int, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (int, error) {
		written := 0
		for _, e := range entries {
			if e.Archived() || e.Ignored() {
				continue
			}
			if _, err := s.computeFor(txCtx, e, day, raws[e.Key()]); err != nil {
				return written, errors.Wrapf(err, "sync day: entry %q", e.Key())
			}
			written++
		}
		return written, nil
	})
}

func (s *AttendanceService) computeFor(ctx context.Context, e entry.Entry, day time.Time, raw record.RawDay) (record.Record, error) {
	var existing *record.Record
	current, err := s.records.GetByEntryAndDay(ctx, e.Key(), day)
	switch {
	case err == nil:
		existing = &current
	case errors.Is(err, record.ErrNotFound):
	default:
		return record.Record{}, err
	}

	var span *record.LeaveSpan
	req, err := s.leaves.FindCovering(ctx, e.Key(), day)
	switch {
	case err == nil:
		span = req.Span()
	case errors.Is(err, leave.ErrNotFound):
	default:
		return record.Record{}, err
	}

	rec := record.ComputeDay(e.TenantID(), e.Key(), day, e.PlanStart(), raw, span, s.opts.LateGrace, existing)
	return s.records.Upsert(ctx, rec)
}

// SetCorrectedTotal stores an operator's corrected minute total and marks
// the record manually edited, shielding the correction from future syncs.
func (s *AttendanceService) SetCorrectedTotal(ctx context.Context, entryKey string, day time.Time, minutes int) (record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (record.Record, error) {
		rec, err := s.records.GetByEntryAndDay(txCtx, entryKey, day)
		if err != nil {
			return record.Record{}, err
		}
		edited, err := rec.SetCorrectedTotal(minutes)
		if err != nil {
			return record.Record{}, err
		}
		return s.records.Upsert(txCtx, edited)
	})
}

func (s *AttendanceService) SetNotes(ctx context.Context, entryKey string, day time.Time, notes string) (record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (record.Record, error) {
		rec, err := s.records.GetByEntryAndDay(txCtx, entryKey, day)
		if err != nil {
			return record.Record{}, err
		}
		return s.records.Upsert(txCtx, rec.SetNotes(notes))
	})
}

// ResetManualEdits clears the manual-edit flag and restores the computed
// total, so the stored record drops the manual value immediately rather
// than waiting for the next sync.
func (s *AttendanceService) ResetManualEdits(ctx context.Context, entryKey string, day time.Time) (record.Record, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (record.Record, error) {
		rec, err := s.records.GetByEntryAndDay(txCtx, entryKey, day)
		if err != nil {
			return record.Record{}, err
		}
		return s.records.Upsert(txCtx, rec.ResetManualEdits())
	})
}

// RequestLeave registers a leave request covering [from, to].
func (s *AttendanceService) RequestLeave(ctx context.Context, e entry.Entry, from, to time.Time, reason string, fraction float64) (leave.Request, error) {
	if to.Before(from) {
		return leave.Request{}, errors.New("leave range end precedes start")
	}
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (leave.Request, error) {
		return s.leaves.Create(txCtx, leave.New(e.TenantID(), e.Key(), from, to, reason, fraction))
	})
}

func (s *AttendanceService) CancelLeave(ctx context.Context, id int64) error {
	return composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.leaves.Delete(txCtx, id)
	})
}
