package entry

import (
	"context"

	gerrors "github.com/go-faster/errors"
)

var (
	ErrNotFound = gerrors.New("roster entry not found")
	ErrKeyTaken = gerrors.New("roster entry key already taken")
)

type FindParams struct {
	Limit           int
	Offset          int
	Team            string
	IncludeArchived bool
	IncludeIgnored  bool
}

type Repository interface {
	Count(ctx context.Context) (int64, error)
	GetAll(ctx context.Context) ([]Entry, error)
	GetPaginated(ctx context.Context, params *FindParams) ([]Entry, error)
	GetByKey(ctx context.Context, key string) (Entry, error)
	Create(ctx context.Context, e Entry) (Entry, error)
	Update(ctx context.Context, e Entry) error
}
