package record

import (
	"context"
	"time"

	gerrors "github.com/go-faster/errors"
)

var ErrNotFound = gerrors.New("attendance record not found")

type Repository interface {
	GetByEntryAndDay(ctx context.Context, entryKey string, day time.Time) (Record, error)
	ListByDay(ctx context.Context, day time.Time) ([]Record, error)
	ListByEntry(ctx context.Context, entryKey string, from, to time.Time) ([]Record, error)
	// Upsert inserts or replaces the single record for (entry, day).
	Upsert(ctx context.Context, r Record) (Record, error)
}
