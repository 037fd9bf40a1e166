package services

import (
	"context"
	"sync"
	"time"

	"github.com/iota-uz/presence/modules/reconcile/infrastructure/hrsys"
	"github.com/iota-uz/presence/modules/reconcile/infrastructure/tracker"
)

// Clock supplies the current time. Sync logic never calls time.Now
// directly, so tests can pin the day being reconciled.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// TrackerClient is the slice of the time-tracker API sync needs.
type TrackerClient interface {
	FetchUsers(ctx context.Context) ([]tracker.User, error)
	FetchDay(ctx context.Context, day time.Time) ([]tracker.DaySummary, error)
}

// HRClient is the slice of the HR system API sync needs.
type HRClient interface {
	FetchEmployees(ctx context.Context) ([]hrsys.Employee, error)
}

// runContext caches upstream snapshots for the lifetime of one run. Each
// source is fetched at most once no matter how many phases consult it; the
// cache dies with the run.
type runContext struct {
	tracker TrackerClient
	hr      HRClient

	trackerOnce  sync.Once
	trackerUsers []tracker.User
	trackerErr   error

	hrOnce      sync.Once
	hrEmployees []hrsys.Employee
	hrErr       error

	dayOnce      sync.Once
	daySummaries []tracker.DaySummary
	dayErr       error
}

func newRunContext(trackerClient TrackerClient, hrClient HRClient) *runContext {
	return &runContext{
		tracker: trackerClient,
		hr:      hrClient,
	}
}

func (rc *runContext) trackerSnapshot(ctx context.Context) ([]tracker.User, error) {
	rc.trackerOnce.Do(func() {
		rc.trackerUsers, rc.trackerErr = rc.tracker.FetchUsers(ctx)
	})
	return rc.trackerUsers, rc.trackerErr
}

func (rc *runContext) hrSnapshot(ctx context.Context) ([]hrsys.Employee, error) {
	rc.hrOnce.Do(func() {
		rc.hrEmployees, rc.hrErr = rc.hr.FetchEmployees(ctx)
	})
	return rc.hrEmployees, rc.hrErr
}

func (rc *runContext) daySnapshot(ctx context.Context, day time.Time) ([]tracker.DaySummary, error) {
	rc.dayOnce.Do(func() {
		rc.daySummaries, rc.dayErr = rc.tracker.FetchDay(ctx, day)
	})
	return rc.daySummaries, rc.dayErr
}
