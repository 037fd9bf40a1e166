package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	attendance "github.com/iota-uz/presence/modules/attendance/services"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/modules/reconcile/domain/hierarchy"
	"github.com/iota-uz/presence/modules/reconcile/domain/identity"
	"github.com/iota-uz/presence/modules/reconcile/domain/run"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/composables"
	"github.com/iota-uz/presence/pkg/eventbus"
	"github.com/iota-uz/presence/pkg/serrors"
)

// ErrAlreadyRunning is returned when a reconciliation run is requested
// while another one holds the sync lock.
var ErrAlreadyRunning = serrors.NewError("SYNC_ALREADY_RUNNING", "a reconciliation run is already in progress", "")

// Lock serializes reconciliation runs across processes.
type Lock interface {
	TryAcquire(ctx context.Context) (release func(), ok bool, err error)
}

type SyncServiceOptions struct {
	Roster     entry.Repository
	Runs       run.Repository
	Attendance *attendance.AttendanceService
	Tracker    TrackerClient
	HR         HRClient
	Normalizer *hierarchy.Normalizer
	Lock       Lock
	Clock      Clock
	Publisher  eventbus.EventBus
	Logger     *logrus.Logger
}

type SyncService struct {
	roster     entry.Repository
	runs       run.Repository
	attendance *attendance.AttendanceService
	tracker    TrackerClient
	hr         HRClient
	normalizer *hierarchy.Normalizer
	lock       Lock
	clock      Clock
	publisher  eventbus.EventBus
	log        *logrus.Logger

	running atomic.Bool
}

func NewSyncService(opts SyncServiceOptions) *SyncService {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &SyncService{
		roster:     opts.Roster,
		runs:       opts.Runs,
		attendance: opts.Attendance,
		tracker:    opts.Tracker,
		hr:         opts.HR,
		normalizer: opts.Normalizer,
		lock:       opts.Lock,
		clock:      clock,
		publisher:  opts.Publisher,
		log:        opts.Logger,
	}
}

func (s *SyncService) LatestRun(ctx context.Context) (run.Run, error) {
	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (run.Run, error) {
		return s.runs.Latest(txCtx)
	})
}

// RunFull executes one full reconciliation pass: fetch both upstream
// snapshots, merge every resolvable row into the roster, create entries
// first seen in HR, archive entries gone from both upstreams, then rebuild
// today's attendance records. Either upstream may fail; the run keeps the
// partial progress and reports the failure in the summary.
func (s *SyncService) RunFull(ctx context.Context) (run.Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		return run.Summary{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	release, ok, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return run.Summary{}, err
	}
	if !ok {
		return run.Summary{}, ErrAlreadyRunning
	}
	defer release()

	m := getMetrics()
	m.runActive.Set(1)
	defer m.runActive.Set(0)

	started := s.clock.Now()
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return run.Summary{}, err
	}

	rn, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (run.Run, error) {
		return s.runs.Create(txCtx, run.New(tenantID, started))
	})
	if err != nil {
		return run.Summary{}, err
	}

	rc := newRunContext(s.tracker, s.hr)
	summary, syncErr := s.reconcile(ctx, rc)

	finished := rn.Finish(s.clock.Now(), summary)
	if err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
		return s.runs.Update(txCtx, finished)
	}); err != nil {
		return summary, err
	}

	m.runsTotal.WithLabelValues(string(finished.Status())).Inc()
	m.mergedTotal.Add(float64(summary.Merged))
	m.skippedTotal.Add(float64(summary.Skipped))
	m.createdTotal.Add(float64(summary.Created))
	m.archivedTotal.Add(float64(summary.Archived))
	m.droppedTotal.Add(float64(summary.Dropped))
	m.erroredTotal.Add(float64(summary.Errored))
	m.runDuration.Observe(s.clock.Now().Sub(started).Seconds())

	return summary, syncErr
}

func (s *SyncService) reconcile(ctx context.Context, rc *runContext) (run.Summary, error) {
	var summary run.Summary

	trackerUsers, trackerErr := rc.trackerSnapshot(ctx)
	if trackerErr != nil {
		summary.TrackerError = trackerErr.Error()
		s.log.WithError(trackerErr).Warn("sync: tracker snapshot unavailable")
	}
	hrEmployees, hrErr := rc.hrSnapshot(ctx)
	if hrErr != nil {
		summary.HRError = hrErr.Error()
		s.log.WithError(hrErr).Warn("sync: HR snapshot unavailable")
	}

	roster, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]entry.Entry, error) {
		return s.roster.GetAll(txCtx)
	})
	if err != nil {
		return summary, err
	}
	seen := make(map[string]struct{})

	// Each record gets its own transaction: one bad row must not roll back
	// the progress of the whole run.

	// HR first: it is the authority on identity and hierarchy, and new
	// people enter the roster from here.
	directory := hrDirectory(hrEmployees)
	for _, emp := range hrEmployees {
		raw := hrRaw(emp)
		if !raw.Valid() {
			summary.Dropped++
			s.log.WithField("source", raw.Source).Warn("sync: dropped upstream row without identity")
			continue
		}
		patch := hrPatch(emp, directory, s.normalizer)
		if e, ok := identity.Resolve(raw, roster); ok {
			// present upstream regardless of merge outcome, so never a
			// candidate for archiving
			seen[e.Key()] = struct{}{}
			merged, skipped, err := s.mergeEntry(ctx, e.Key(), patch)
			if err != nil {
				summary.Errored++
				s.log.WithError(err).WithField("key", e.Key()).Error("sync: failed to merge HR row")
				continue
			}
			summary.Merged += merged
			summary.Skipped += skipped
			continue
		}

		if entry.DeriveKey(raw.DisplayName, raw.Email) == "" {
			summary.Dropped++
			s.log.WithField("source", raw.Source).Warn("sync: dropped upstream row with no usable key")
			continue
		}
		created, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
			return s.createFromUpstream(txCtx, raw, patch)
		})
		if err != nil {
			summary.Errored++
			s.log.WithError(err).WithField("name", raw.DisplayName).Error("sync: failed to create entry from HR row")
			continue
		}
		roster = append(roster, created)
		seen[created.Key()] = struct{}{}
		summary.Created++
	}

	for _, u := range trackerUsers {
		raw := trackerRaw(u)
		if !raw.Valid() {
			summary.Dropped++
			s.log.WithField("source", raw.Source).Warn("sync: dropped upstream row without identity")
			continue
		}
		e, ok := identity.Resolve(raw, roster)
		if !ok {
			// left for the diff report; the tracker alone cannot vouch
			// for a new roster entry
			continue
		}
		seen[e.Key()] = struct{}{}
		merged, skipped, err := s.mergeEntry(ctx, e.Key(), trackerPatch(u))
		if err != nil {
			summary.Errored++
			s.log.WithError(err).WithField("key", e.Key()).Error("sync: failed to merge tracker row")
			continue
		}
		summary.Merged += merged
		summary.Skipped += skipped
	}

	// Archiving needs proof of absence from both sources.
	if trackerErr == nil && hrErr == nil {
		for _, e := range roster {
			if e.Archived() || e.Ignored() {
				continue
			}
			if _, ok := seen[e.Key()]; ok {
				continue
			}
			archived := e.WithArchived(true)
			err := composables.InTenantTx(ctx, func(txCtx context.Context) error {
				return s.roster.Update(txCtx, archived)
			})
			if err != nil {
				summary.Errored++
				s.log.WithError(err).WithField("key", e.Key()).Error("sync: failed to archive entry")
				continue
			}
			s.publisher.Publish(entry.ArchivedEvent{Result: archived})
			summary.Archived++
		}
	}

	if trackerErr == nil {
		if err := s.syncDay(ctx, rc, record.Day(s.clock.Now())); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// RunDay rebuilds one day's attendance records from the tracker's per-day
// activity, without touching roster identity data.
func (s *SyncService) RunDay(ctx context.Context, day time.Time) error {
	return s.syncDay(ctx, newRunContext(s.tracker, s.hr), record.Day(day))
}

func (s *SyncService) syncDay(ctx context.Context, rc *runContext, day time.Time) error {
	summaries, err := rc.daySnapshot(ctx, day)
	if err != nil {
		s.log.WithError(err).Warn("sync: tracker day activity unavailable")
		return nil
	}

	roster, err := composables.InTenantTxResult(ctx, func(txCtx context.Context) ([]entry.Entry, error) {
		return s.roster.GetAll(txCtx)
	})
	if err != nil {
		return err
	}

	byTrackerID := make(map[int64]string, len(roster))
	for _, e := range roster {
		if e.TrackerID() != 0 {
			byTrackerID[e.TrackerID()] = e.Key()
		}
	}

	raws := make(map[string]record.RawDay, len(summaries))
	for _, sum := range summaries {
		key, ok := byTrackerID[sum.UserID]
		if !ok {
			continue
		}
		raw := record.RawDay{
			HasData:           true,
			ProductiveSec:     sum.ProductiveSec,
			NonProductiveSec:  sum.NonProductiveSec,
			NotCategorizedSec: sum.NotCategorizedSec,
		}
		if sum.FirstActivity != nil {
			raw.ActualStart = *sum.FirstActivity
		}
		raws[key] = raw
	}

	_, err = s.attendance.SyncDay(ctx, day, roster, raws)
	return errors.Wrap(err, "sync: failed to rebuild today's attendance")
}

// SyncEntry routes a single roster entry through the same merge path as a
// full run, without touching the rest of the roster.
func (s *SyncService) SyncEntry(ctx context.Context, key string) (entry.Entry, error) {
	rc := newRunContext(s.tracker, s.hr)

	trackerUsers, trackerErr := rc.trackerSnapshot(ctx)
	hrEmployees, hrErr := rc.hrSnapshot(ctx)
	if trackerErr != nil && hrErr != nil {
		return entry.Entry{}, errors.Wrap(trackerErr, "sync entry: both upstreams unavailable")
	}

	return composables.InTenantTxResult(ctx, func(txCtx context.Context) (entry.Entry, error) {
		e, err := s.roster.GetByKey(txCtx, key)
		if err != nil {
			return entry.Entry{}, err
		}
		roster := []entry.Entry{e}
		directory := hrDirectory(hrEmployees)

		for _, emp := range hrEmployees {
			raw := hrRaw(emp)
			if !raw.Valid() {
				continue
			}
			if _, ok := identity.Resolve(raw, roster); !ok {
				continue
			}
			if _, _, err := s.mergeOne(txCtx, key, hrPatch(emp, directory, s.normalizer)); err != nil {
				return entry.Entry{}, err
			}
		}
		for _, u := range trackerUsers {
			raw := trackerRaw(u)
			if !raw.Valid() {
				continue
			}
			if _, ok := identity.Resolve(raw, roster); !ok {
				continue
			}
			if _, _, err := s.mergeOne(txCtx, key, trackerPatch(u)); err != nil {
				return entry.Entry{}, err
			}
		}
		return s.roster.GetByKey(txCtx, key)
	})
}

// mergeEntry wraps mergeOne in its own tenant transaction.
func (s *SyncService) mergeEntry(ctx context.Context, key string, patch entry.Patch) (merged, skipped int, err error) {
	err = composables.InTenantTx(ctx, func(txCtx context.Context) error {
		var txErr error
		merged, skipped, txErr = s.mergeOne(txCtx, key, patch)
		return txErr
	})
	return merged, skipped, err
}

// mergeOne re-reads the entry inside the transaction, applies the patch
// honoring overrides, and persists the result when anything changed.
// Returns 1 if the entry changed, plus the count of writes the override
// set silently withheld.
func (s *SyncService) mergeOne(ctx context.Context, key string, patch entry.Patch) (merged, skipped int, err error) {
	e, err := s.roster.GetByKey(ctx, key)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "merge: entry %q", key)
	}

	result, changed := entry.Merge(e, patch)
	_, forced := entry.Merge(e, patch, entry.IgnoreOverrides())
	skipped = len(forced) - len(changed)

	if len(changed) == 0 {
		return 0, skipped, nil
	}
	if err := s.roster.Update(ctx, result); err != nil {
		return 0, skipped, errors.Wrapf(err, "merge: entry %q", key)
	}
	s.publisher.Publish(entry.MergedEvent{Result: result, Changed: changed})
	return 1, skipped, nil
}

// createFromUpstream admits a first-seen person to the roster.
func (s *SyncService) createFromUpstream(ctx context.Context, raw identity.RawRecord, patch entry.Patch) (entry.Entry, error) {
	tenantID, err := composables.UseTenantID(ctx)
	if err != nil {
		return entry.Entry{}, err
	}
	fresh, _ := entry.Merge(entry.New(tenantID, raw.DisplayName, raw.Email), patch)

	created, err := s.roster.Create(ctx, fresh)
	if err != nil {
		if errors.Is(err, entry.ErrKeyTaken) {
			// identical key already present (ambiguous resolve); merge into
			// it instead of duplicating
			if _, _, mErr := s.mergeOne(ctx, fresh.Key(), patch); mErr != nil {
				return entry.Entry{}, mErr
			}
			return s.roster.GetByKey(ctx, fresh.Key())
		}
		return entry.Entry{}, errors.Wrap(err, "failed to create roster entry from upstream")
	}
	s.publisher.Publish(entry.CreatedEvent{Result: created})
	return created, nil
}
