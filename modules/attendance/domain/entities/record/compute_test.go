package record_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
	"github.com/iota-uz/presence/modules/roster/domain/value_objects/schedule"
)

var (
	testTenant = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testDay    = time.Date(2024, 3, 18, 0, 0, 0, 0, time.UTC)
	grace      = 10 * time.Minute
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 18, hour, minute, 0, 0, time.UTC)
}

func TestComputeDay_LateWithBuckets(t *testing.T) {
	raw := record.RawDay{
		HasData:           true,
		ProductiveSec:     28800,
		NonProductiveSec:  3600,
		NotCategorizedSec: 1800,
		ActualStart:       at(9, 15),
	}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, nil, grace, nil)

	require.Equal(t, record.StatusLate, r.Status())
	require.Equal(t, 15, r.MinutesLate())
	require.Equal(t, 480, r.Productive())
	require.Equal(t, 60, r.NonProductive())
	require.Equal(t, 30, r.NotCategorized())
	require.Equal(t, 570, r.Total())
	require.Equal(t, 570, r.CorrectedTotal())
	require.False(t, r.ManuallyEdited())
}

func TestComputeDay_WithinGraceIsPresent(t *testing.T) {
	raw := record.RawDay{HasData: true, ProductiveSec: 3600, ActualStart: at(9, 8)}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, nil, grace, nil)

	require.Equal(t, record.StatusPresent, r.Status())
	require.Equal(t, 8, r.MinutesLate(), "lateness is still reported inside the grace window")
}

func TestComputeDay_ContinuousScheduleNeverLate(t *testing.T) {
	raw := record.RawDay{HasData: true, ProductiveSec: 3600, ActualStart: at(14, 0)}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.NewContinuous(), raw, nil, grace, nil)

	require.Equal(t, record.StatusPresent, r.Status())
	require.Zero(t, r.MinutesLate())
	require.True(t, r.ScheduledStart().IsZero())
}

func TestComputeDay_NoDataIsAbsent(t *testing.T) {
	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), record.RawDay{}, nil, grace, nil)

	require.Equal(t, record.StatusAbsent, r.Status())
	require.Zero(t, r.Total())
}

func TestComputeDay_LeaveCoversAbsence(t *testing.T) {
	leave := &record.LeaveSpan{Reason: "vacation", Fraction: 1}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), record.RawDay{}, leave, grace, nil)

	require.Equal(t, record.StatusLeave, r.Status())
	require.Equal(t, "vacation", r.LeaveReason())
	require.Zero(t, r.HalfDay())
}

func TestComputeDay_HalfDayLeave(t *testing.T) {
	leave := &record.LeaveSpan{Reason: "sick", Fraction: 0.5}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), record.RawDay{}, leave, grace, nil)

	require.Equal(t, record.StatusLeave, r.Status())
	require.InDelta(t, 0.5, r.HalfDay(), 1e-9)
}

func TestComputeDay_TrackerDataWinsOverLeave(t *testing.T) {
	leave := &record.LeaveSpan{Reason: "vacation", Fraction: 1}
	raw := record.RawDay{HasData: true, ProductiveSec: 1800, ActualStart: at(9, 0)}

	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, leave, grace, nil)

	require.Equal(t, record.StatusPresent, r.Status())
	require.Empty(t, r.LeaveReason())
}

func TestComputeDay_PreservesManualCorrectedTotal(t *testing.T) {
	raw := record.RawDay{HasData: true, ProductiveSec: 28800, ActualStart: at(9, 0)}
	existing := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, nil, grace, nil)
	existing, err := existing.SetCorrectedTotal(420)
	require.NoError(t, err)
	require.True(t, existing.ManuallyEdited())

	refreshed := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), record.RawDay{
		HasData:       true,
		ProductiveSec: 30000,
		ActualStart:   at(9, 20),
	}, nil, grace, &existing)

	require.Equal(t, 420, refreshed.CorrectedTotal(), "manual correction preserved verbatim")
	require.Equal(t, 500, refreshed.Total(), "raw buckets still refreshed")
	require.Equal(t, record.StatusLate, refreshed.Status())
	require.True(t, refreshed.ManuallyEdited(), "flag survives recomputation")
}

func TestComputeDay_AfterResetRecomputesCorrectedTotal(t *testing.T) {
	raw := record.RawDay{HasData: true, ProductiveSec: 28800, ActualStart: at(9, 0)}
	existing := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, nil, grace, nil)
	existing, err := existing.SetCorrectedTotal(420)
	require.NoError(t, err)

	clean := existing.ResetManualEdits()
	require.False(t, clean.ManuallyEdited())
	require.Equal(t, clean.Total(), clean.CorrectedTotal(), "reset restores the computed total in place")

	refreshed := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), raw, nil, grace, &clean)

	require.False(t, refreshed.ManuallyEdited())
	require.Equal(t, refreshed.Total(), refreshed.CorrectedTotal())
}

func TestSetCorrectedTotal_RejectsNegative(t *testing.T) {
	r := record.ComputeDay(testTenant, "ivan@co.com", testDay, schedule.Parse("09:00"), record.RawDay{}, nil, grace, nil)
	_, err := r.SetCorrectedTotal(-1)
	require.ErrorIs(t, err, record.ErrNegativeCorrectedTotal)
}
