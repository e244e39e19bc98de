package audit

import (
	"context"
	"time"

	pkgerrors "workpulse/pkg/errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "audit log not found")

// Store persists audit entries. Append-only: no implementation exposes
// update or delete.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context, f Filter) ([]Entry, int64, error)
	Get(ctx context.Context, id string) (*Entry, error)
	Stats(ctx context.Context, userID string, dayStart time.Time) (*Stats, error)
}
