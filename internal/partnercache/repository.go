package partnercache

import (
	"context"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// Repository is the persistence boundary the cache writes through to and
// reads through from on a miss. sqlrepo implements it against Postgres;
// memrepo backs tests.
type Repository interface {
	// FindActive returns every enabled partner, in repository-defined order.
	FindActive(ctx context.Context) ([]partner.Record, error)

	// FindByIDAndEnabled returns the partner with id if it exists and is
	// enabled. found is false for both "missing" and "disabled" — the cache
	// never distinguishes the two on the read path.
	FindByIDAndEnabled(ctx context.Context, id string) (rec partner.Record, found bool, err error)

	// Save inserts or updates a partner record and returns the stored form
	// (with CreatedAt/UpdatedAt populated by the store).
	Save(ctx context.Context, rec partner.Record) (partner.Record, error)

	// SetEnabled flips a partner's enabled flag without touching its other
	// fields.
	SetEnabled(ctx context.Context, id string, enabled bool) error
}
