package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	attendancepersistence "github.com/iota-uz/presence/modules/attendance/infrastructure/persistence"
	attendanceservices "github.com/iota-uz/presence/modules/attendance/services"
	"github.com/iota-uz/presence/modules/reconcile/domain/hierarchy"
	"github.com/iota-uz/presence/modules/reconcile/infrastructure/hrsys"
	reconcilepersistence "github.com/iota-uz/presence/modules/reconcile/infrastructure/persistence"
	"github.com/iota-uz/presence/modules/reconcile/infrastructure/tracker"
	reconcileservices "github.com/iota-uz/presence/modules/reconcile/services"
	rosterpersistence "github.com/iota-uz/presence/modules/roster/infrastructure/persistence"
	rosterservices "github.com/iota-uz/presence/modules/roster/services"
	"github.com/iota-uz/presence/pkg/composables"
	"github.com/iota-uz/presence/pkg/configuration"
	"github.com/iota-uz/presence/pkg/eventbus"
)

// app wires repositories, upstream clients and services for one CLI
// invocation.
type app struct {
	conf     *configuration.Configuration
	pool     *pgxpool.Pool
	log      *logrus.Logger
	ctx      context.Context
	tenantID uuid.UUID

	roster     *rosterservices.RosterService
	attendance *attendanceservices.AttendanceService
	sync       *reconcileservices.SyncService
	diff       *reconcileservices.DiffService
}

func newApp(ctx context.Context) (*app, error) {
	conf := configuration.Use()
	log := conf.Logger()

	tenantID, err := uuid.Parse(conf.TenantID)
	if err != nil {
		return nil, errors.Wrap(err, "invalid TENANT_ID")
	}

	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database pool")
	}

	normalizer, err := hierarchy.NewNormalizer()
	if err != nil {
		pool.Close()
		return nil, err
	}

	publisher := eventbus.NewEventPublisher(log)

	rosterRepo := rosterpersistence.NewRosterRepository()
	recordRepo := attendancepersistence.NewRecordRepository()
	leaveRepo := attendancepersistence.NewLeaveRepository()
	runRepo := reconcilepersistence.NewRunRepository()

	trackerClient := tracker.NewClient(conf.Tracker)
	hrClient := hrsys.NewClient(conf.HRSystem)

	rosterSvc := rosterservices.NewRosterService(rosterRepo, publisher)
	attendanceSvc := attendanceservices.NewAttendanceService(recordRepo, leaveRepo, conf.Sync)

	syncSvc := reconcileservices.NewSyncService(reconcileservices.SyncServiceOptions{
		Roster:     rosterRepo,
		Runs:       runRepo,
		Attendance: attendanceSvc,
		Tracker:    trackerClient,
		HR:         hrClient,
		Normalizer: normalizer,
		Lock:       reconcilepersistence.NewSyncLock(pool),
		Publisher:  publisher,
		Logger:     log,
	})
	diffSvc := reconcileservices.NewDiffService(rosterSvc, rosterRepo, trackerClient, hrClient, normalizer, nil)

	appCtx := composables.WithPool(ctx, pool)
	appCtx = composables.WithTenantID(appCtx, tenantID)

	return &app{
		conf:       conf,
		pool:       pool,
		log:        log,
		ctx:        appCtx,
		tenantID:   tenantID,
		roster:     rosterSvc,
		attendance: attendanceSvc,
		sync:       syncSvc,
		diff:       diffSvc,
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
}
