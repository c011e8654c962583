package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dosetrack/dosetrack/internal/platform/auth"
)

var (
	// ErrLinkNotFound is returned for operations against an unknown link id
	// or an email with no active link.
	ErrLinkNotFound = errors.New("assistant link not found")

	// ErrDuplicateLink is returned when the assistant is already linked to
	// the patient.
	ErrDuplicateLink = errors.New("assistant already linked")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add links an assistant to a patient. One active link per assistant email
// per patient.
func (s *Service) Add(ctx context.Context, patientID uuid.UUID, email, name string) (*Link, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid assistant email %q", email)
	}
	if name == "" {
		return nil, fmt.Errorf("assistant name is required")
	}

	existing, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, l := range existing {
		if l.AssistantEmail == email && l.Active {
			return nil, ErrDuplicateLink
		}
	}

	l := &Link{
		PatientID:      patientID,
		AssistantEmail: email,
		AssistantName:  name,
		Active:         true,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Link, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Remove deletes a link after checking it belongs to the calling patient.
func (s *Service) Remove(ctx context.Context, patientID, linkID uuid.UUID) error {
	l, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if l.PatientID != patientID {
		return ErrLinkNotFound
	}
	return s.repo.Delete(ctx, linkID)
}

// ResolveRole derives the role for an account email. An email with an active
// link is an assistant of the linked patient; any other account is a
// patient. The identity provider calls this at token issue time.
func (s *Service) ResolveRole(ctx context.Context, email string) (role string, patientID uuid.UUID, err error) {
	l, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrLinkNotFound) {
		return auth.RolePatient, uuid.Nil, nil
	}
	if err != nil {
		return "", uuid.Nil, err
	}
	return auth.RoleAssistant, l.PatientID, nil
}
