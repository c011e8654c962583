package medication

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListByOwner returns the owner's medications ordered by first dose time.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Medication, int, error)
	// DistinctOwners returns every account id that owns at least one
	// medication. The stock alert evaluator walks these on each tick.
	DistinctOwners(ctx context.Context) ([]uuid.UUID, error)
}
