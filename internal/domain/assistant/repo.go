package assistant

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, l *Link) error
	GetByID(ctx context.Context, id uuid.UUID) (*Link, error)
	// GetByEmail returns the active link for an assistant email, if any.
	GetByEmail(ctx context.Context, email string) (*Link, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Link, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
