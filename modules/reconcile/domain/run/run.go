package run

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

var ErrNotFound = gerrors.New("sync run not found")

// Summary counts what a single reconciliation run did. Skipped counts
// merge writes withheld because of operator overrides; Dropped counts
// upstream rows with no usable identity.
type Summary struct {
	Merged       int    `json:"merged"`
	Skipped      int    `json:"skipped"`
	Created      int    `json:"created"`
	Archived     int    `json:"archived"`
	Dropped      int    `json:"dropped"`
	Errored      int    `json:"errored"`
	TrackerError string `json:"tracker_error,omitempty"`
	HRError      string `json:"hr_error,omitempty"`
}

func (s Summary) Status() Status {
	switch {
	case s.TrackerError != "" && s.HRError != "":
		return StatusFailed
	case s.TrackerError != "" || s.HRError != "":
		return StatusPartial
	default:
		return StatusSucceeded
	}
}

// Run is one recorded reconciliation pass.
type Run struct {
	id         int64
	tenantID   uuid.UUID
	startedAt  time.Time
	finishedAt time.Time
	status     Status
	summary    Summary
}

func New(tenantID uuid.UUID, startedAt time.Time) Run {
	return Run{
		tenantID:  tenantID,
		startedAt: startedAt.UTC(),
		status:    StatusRunning,
	}
}

func Hydrate(id int64, tenantID uuid.UUID, startedAt, finishedAt time.Time, status Status, summary Summary) Run {
	return Run{
		id:         id,
		tenantID:   tenantID,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		status:     status,
		summary:    summary,
	}
}

func (r Run) ID() int64             { return r.id }
func (r Run) TenantID() uuid.UUID   { return r.tenantID }
func (r Run) StartedAt() time.Time  { return r.startedAt }
func (r Run) FinishedAt() time.Time { return r.finishedAt }
func (r Run) Status() Status        { return r.status }
func (r Run) Summary() Summary      { return r.summary }

// Finish closes the run with its final tally.
func (r Run) Finish(at time.Time, summary Summary) Run {
	out := r
	out.finishedAt = at.UTC()
	out.status = summary.Status()
	out.summary = summary
	return out
}

type Repository interface {
	Create(ctx context.Context, r Run) (Run, error)
	Update(ctx context.Context, r Run) error
	Latest(ctx context.Context) (Run, error)
}
