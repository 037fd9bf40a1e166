package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/leave"
	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/modules/roster/domain/aggregates/entry"
	"github.com/iota-uz/presence/pkg/configuration"
	"github.com/iota-uz/presence/pkg/itf"
)

var (
	testTenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testDay    = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

type recordKey struct {
	entryKey string
	day      time.Time
}

type mockRecordRepo struct {
	records map[recordKey]record.Record
	upserts int
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{records: map[recordKey]record.Record{}}
}

func (m *mockRecordRepo) GetByEntryAndDay(ctx context.Context, entryKey string, day time.Time) (record.Record, error) {
	r, ok := m.records[recordKey{entryKey, record.Day(day)}]
	if !ok {
		return record.Record{}, record.ErrNotFound
	}
	return r, nil
}

func (m *mockRecordRepo) ListByDay(ctx context.Context, day time.Time) ([]record.Record, error) {
	var out []record.Record
	for k, r := range m.records {
		if k.day.Equal(record.Day(day)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) ListByEntry(ctx context.Context, entryKey string, from, to time.Time) ([]record.Record, error) {
	var out []record.Record
	for k, r := range m.records {
		if k.entryKey == entryKey && !k.day.Before(record.Day(from)) && !k.day.After(record.Day(to)) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRecordRepo) Upsert(ctx context.Context, r record.Record) (record.Record, error) {
	m.records[recordKey{r.EntryKey(), r.DayOf()}] = r
	m.upserts++
	return r, nil
}

type mockLeaveRepo struct {
	requests []leave.Request
}

func (m *mockLeaveRepo) FindCovering(ctx context.Context, entryKey string, day time.Time) (leave.Request, error) {
	for _, r := range m.requests {
		if r.EntryKey() == entryKey && r.Covers(day) {
			return r, nil
		}
	}
	return leave.Request{}, leave.ErrNotFound
}

func (m *mockLeaveRepo) Create(ctx context.Context, r leave.Request) (leave.Request, error) {
	m.requests = append(m.requests, r)
	return r, nil
}

func (m *mockLeaveRepo) Delete(ctx context.Context, id int64) error {
	for i, r := range m.requests {
		if r.ID() == id {
			m.requests = append(m.requests[:i], m.requests[i+1:]...)
			return nil
		}
	}
	return leave.ErrNotFound
}

func testOpts() configuration.SyncOptions {
	return configuration.SyncOptions{LateGrace: 10 * time.Minute, WorkingDay: 8 * time.Hour}
}

func testCtx() context.Context {
	return itf.WithStubTx(context.Background())
}

func scheduledEntry(name, email string) entry.Entry {
	e := entry.New(testTenant, name, email)
	e, _ = entry.Merge(e, entry.Patch{PlanStart: entry.Ptr("09:00")})
	return e
}

func TestAttendanceService_ComputeForLateArrival(t *testing.T) {
	records := newMockRecordRepo()
	svc := NewAttendanceService(records, &mockLeaveRepo{}, testOpts())
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")

	raw := record.RawDay{
		HasData:       true,
		ProductiveSec: 28800,
		ActualStart:   time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC),
	}
	rec, err := svc.ComputeFor(testCtx(), e, testDay, raw)
	require.NoError(t, err)
	require.Equal(t, record.StatusLate, rec.Status())
	require.Equal(t, 15, rec.MinutesLate())
	require.Equal(t, 1, records.upserts)
}

func TestAttendanceService_ComputeForResolvesLeave(t *testing.T) {
	records := newMockRecordRepo()
	leaves := &mockLeaveRepo{}
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")
	leaves.requests = append(leaves.requests, leave.New(testTenant, e.Key(), testDay, testDay, "vacation", 1))
	svc := NewAttendanceService(records, leaves, testOpts())

	rec, err := svc.ComputeFor(testCtx(), e, testDay, record.RawDay{})
	require.NoError(t, err)
	require.Equal(t, record.StatusLeave, rec.Status())
	require.Equal(t, "vacation", rec.LeaveReason())
}

func TestAttendanceService_SyncDaySkipsArchivedAndIgnored(t *testing.T) {
	records := newMockRecordRepo()
	svc := NewAttendanceService(records, &mockLeaveRepo{}, testOpts())

	active := scheduledEntry("Ivan Petrenko", "ivan@corp.example")
	archived := scheduledEntry("Olha Sydorenko", "olha@corp.example").WithArchived(true)
	ignoredEntry := scheduledEntry("Taras Bondar", "taras@corp.example").WithIgnored(true)

	written, err := svc.SyncDay(testCtx(), testDay, []entry.Entry{active, archived, ignoredEntry}, map[string]record.RawDay{})
	require.NoError(t, err)
	require.Equal(t, 1, written)

	rec, err := records.GetByEntryAndDay(testCtx(), active.Key(), testDay)
	require.NoError(t, err)
	require.Equal(t, record.StatusAbsent, rec.Status())

	_, err = records.GetByEntryAndDay(testCtx(), archived.Key(), testDay)
	require.ErrorIs(t, err, record.ErrNotFound)
}

func TestAttendanceService_ManualEditSurvivesResync(t *testing.T) {
	records := newMockRecordRepo()
	svc := NewAttendanceService(records, &mockLeaveRepo{}, testOpts())
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")

	raw := record.RawDay{
		HasData:       true,
		ProductiveSec: 28800,
		ActualStart:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	_, err := svc.ComputeFor(testCtx(), e, testDay, raw)
	require.NoError(t, err)

	edited, err := svc.SetCorrectedTotal(testCtx(), e.Key(), testDay, 420)
	require.NoError(t, err)
	require.True(t, edited.ManuallyEdited())
	require.Equal(t, 420, edited.CorrectedTotal())

	raw.ProductiveSec = 30000
	resynced, err := svc.ComputeFor(testCtx(), e, testDay, raw)
	require.NoError(t, err)
	require.Equal(t, 420, resynced.CorrectedTotal(), "corrected total must survive resync verbatim")
	require.True(t, resynced.ManuallyEdited())
	require.Equal(t, 500, resynced.Total(), "computed total still refreshes")
}

func TestAttendanceService_ResetManualEditsAllowsRecompute(t *testing.T) {
	records := newMockRecordRepo()
	svc := NewAttendanceService(records, &mockLeaveRepo{}, testOpts())
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")

	raw := record.RawDay{HasData: true, ProductiveSec: 28800, ActualStart: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	_, err := svc.ComputeFor(testCtx(), e, testDay, raw)
	require.NoError(t, err)
	_, err = svc.SetCorrectedTotal(testCtx(), e.Key(), testDay, 420)
	require.NoError(t, err)

	reset, err := svc.ResetManualEdits(testCtx(), e.Key(), testDay)
	require.NoError(t, err)
	require.False(t, reset.ManuallyEdited())
	require.Equal(t, 480, reset.CorrectedTotal(), "reset must drop the manual value without waiting for a resync")

	stored, err := records.GetByEntryAndDay(testCtx(), e.Key(), testDay)
	require.NoError(t, err)
	require.Equal(t, 480, stored.CorrectedTotal())

	resynced, err := svc.ComputeFor(testCtx(), e, testDay, raw)
	require.NoError(t, err)
	require.False(t, resynced.ManuallyEdited())
	require.Equal(t, 480, resynced.CorrectedTotal())
}

func TestAttendanceService_SetCorrectedTotalRejectsNegative(t *testing.T) {
	records := newMockRecordRepo()
	svc := NewAttendanceService(records, &mockLeaveRepo{}, testOpts())
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")

	_, err := svc.ComputeFor(testCtx(), e, testDay, record.RawDay{})
	require.NoError(t, err)

	_, err = svc.SetCorrectedTotal(testCtx(), e.Key(), testDay, -5)
	require.ErrorIs(t, err, record.ErrNegativeCorrectedTotal)
}

func TestAttendanceService_RequestLeaveValidatesRange(t *testing.T) {
	svc := NewAttendanceService(newMockRecordRepo(), &mockLeaveRepo{}, testOpts())
	e := scheduledEntry("Ivan Petrenko", "ivan@corp.example")

	_, err := svc.RequestLeave(testCtx(), e, testDay, testDay.AddDate(0, 0, -1), "vacation", 1)
	require.Error(t, err)
}
