package index

import (
	"context"

	"github.com/kailas-cloud/docdex/internal/domain"
)

// Repository is the durable storage contract for index snapshots.
// Save must be atomic: a reloaded snapshot is either the pre- or post-save
// state, never a partial write.
type Repository interface {
	Save(ctx context.Context, snap domain.IndexSnapshot) error
	// Load returns domain.ErrIndexNotFound for names that were never saved.
	Load(ctx context.Context, name string) (domain.IndexSnapshot, error)
	List(ctx context.Context) ([]string, error)
}
