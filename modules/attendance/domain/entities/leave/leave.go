package leave

import (
	"context"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/iota-uz/presence/modules/attendance/domain/entities/record"
)

var ErrNotFound = gerrors.New("leave request not found")

// Request is an approved absence for a roster entry over a date range.
// Fraction below 1.0 marks a partial day (0.5 = half day).
type Request struct {
	id       int64
	tenantID uuid.UUID
	entryKey string
	from     time.Time
	to       time.Time
	reason   string
	fraction float64
}

func New(tenantID uuid.UUID, entryKey string, from, to time.Time, reason string, fraction float64) Request {
	if fraction <= 0 || fraction > 1 {
		fraction = 1
	}
	return Request{
		tenantID: tenantID,
		entryKey: strings.TrimSpace(entryKey),
		from:     record.Day(from),
		to:       record.Day(to),
		reason:   strings.TrimSpace(reason),
		fraction: fraction,
	}
}

func Hydrate(id int64, tenantID uuid.UUID, entryKey string, from, to time.Time, reason string, fraction float64) Request {
	r := New(tenantID, entryKey, from, to, reason, fraction)
	r.id = id
	return r
}

func (r Request) ID() int64          { return r.id }
func (r Request) TenantID() uuid.UUID { return r.tenantID }
func (r Request) EntryKey() string   { return r.entryKey }
func (r Request) From() time.Time    { return r.from }
func (r Request) To() time.Time      { return r.to }
func (r Request) Reason() string     { return r.reason }
func (r Request) Fraction() float64  { return r.fraction }

func (r Request) Covers(day time.Time) bool {
	d := record.Day(day)
	return !d.Before(r.from) && !d.After(r.to)
}

// Span converts the request into the calculator's input form.
func (r Request) Span() *record.LeaveSpan {
	return &record.LeaveSpan{Reason: r.reason, Fraction: r.fraction}
}

type Repository interface {
	// FindCovering returns the leave request covering (entryKey, day), or
	// ErrNotFound.
	FindCovering(ctx context.Context, entryKey string, day time.Time) (Request, error)
	Create(ctx context.Context, r Request) (Request, error)
	Delete(ctx context.Context, id int64) error
}
