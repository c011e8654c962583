package medication

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CalendarSyncer mirrors dose slots into an external calendar. Implementations
// are best-effort: the service logs failures and carries on.
type CalendarSyncer interface {
	CreateDoseEvents(ctx context.Context, m *Medication) ([]string, error)
	DeleteEvents(ctx context.Context, ownerID uuid.UUID, eventIDs []string)
}

// ListPublisher pushes the owner's refreshed medication list to realtime
// subscribers after a mutation.
type ListPublisher interface {
	PublishMedications(ownerID uuid.UUID, meds []*Medication)
}

type Service struct {
	repo     Repository
	calendar CalendarSyncer
	pub      ListPublisher
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  zerolog.Nop(),
		now:  time.Now,
	}
}

// SetCalendarSyncer attaches an optional calendar syncer.
func (s *Service) SetCalendarSyncer(cs CalendarSyncer) { s.calendar = cs }

// SetPublisher attaches an optional realtime list publisher.
func (s *Service) SetPublisher(p ListPublisher) { s.pub = p }

// SetLogger replaces the service logger (a no-op logger by default).
func (s *Service) SetLogger(l zerolog.Logger) { s.log = l }

func (s *Service) validate(m *Medication) error {
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if m.DosesPerDay < 0 {
		return fmt.Errorf("%w: doses_per_day must be >= 0", ErrInvalidInput)
	}
	if m.DosesPerDay > 0 {
		if _, err := parseClock(m.FirstDoseTime); err != nil {
			return fmt.Errorf("%w: first_dose_time is required for scheduled medications", ErrInvalidInput)
		}
	}
	if m.InitialStock < 0 || m.CurrentStock < 0 {
		return fmt.Errorf("%w: stock must be >= 0", ErrInvalidInput)
	}
	if m.CurrentStock > 0 && m.ExpiryDate == "" {
		return fmt.Errorf("%w: expiry_date is required while stock is on hand", ErrMissingExpiry)
	}
	return nil
}

// Create registers a medication. Current stock always starts equal to the
// initial stock, and calendar events are created best-effort.
func (s *Service) Create(ctx context.Context, m *Medication) error {
	m.CurrentStock = m.InitialStock
	if err := s.validate(m); err != nil {
		return err
	}
	m.Active = true
	if m.DoseLog == nil {
		m.DoseLog = []DoseEntry{}
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}
	s.syncCalendar(ctx, m)
	s.publish(ctx, m.OwnerID)
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*Medication, int, error) {
	return s.repo.ListByOwner(ctx, ownerID, limit, offset)
}

// Update applies field edits. When the schedule changed (first dose time or
// doses per day) the existing calendar events are dropped and recreated.
// Raising the initial stock without an explicit current stock resets the
// current stock to the new initial value, matching a fresh package.
func (s *Service) Update(ctx context.Context, m *Medication) error {
	existing, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if m.InitialStock != existing.InitialStock && m.CurrentStock == existing.CurrentStock {
		m.CurrentStock = m.InitialStock
	}
	if err := s.validate(m); err != nil {
		return err
	}

	// Dose log is append-only; edits never touch it.
	m.OwnerID = existing.OwnerID
	m.DoseLog = existing.DoseLog
	m.CalendarEventIDs = existing.CalendarEventIDs
	m.CreatedAt = existing.CreatedAt

	scheduleChanged := m.FirstDoseTime != existing.FirstDoseTime || m.DosesPerDay != existing.DosesPerDay
	if scheduleChanged && s.calendar != nil && len(existing.CalendarEventIDs) > 0 {
		s.calendar.DeleteEvents(ctx, existing.OwnerID, existing.CalendarEventIDs)
		m.CalendarEventIDs = nil
		s.syncCalendar(ctx, m)
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, m.OwnerID)
	return nil
}

// Suspend marks a medication inactive without touching its history.
func (s *Service) Suspend(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Active = false
	if err := s.repo.Update(ctx, m); err != nil {
		return err
	}
	s.publish(ctx, m.OwnerID)
	return nil
}

// Delete removes a medication and releases its calendar events.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.calendar != nil && len(m.CalendarEventIDs) > 0 {
		s.calendar.DeleteEvents(ctx, m.OwnerID, m.CalendarEventIDs)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, m.OwnerID)
	return nil
}

// ConfirmDose records the slot at slotTime as taken today and decrements the
// stock by one, never below zero. It does not guard against confirming the
// same slot twice; the persistence update is the only serialization point.
func (s *Service) ConfirmDose(ctx context.Context, id uuid.UUID, slotTime string) (*DoseEntry, error) {
	if _, err := parseClock(slotTime); err != nil {
		return nil, err
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CurrentStock <= 0 {
		return nil, ErrOutOfStock
	}

	now := s.now()
	entry := DoseEntry{
		Date:      now.Format(DateLayout),
		Hour:      slotTime,
		Taken:     true,
		Timestamp: now,
	}
	m.DoseLog = append(m.DoseLog, entry)
	m.CurrentStock--

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m.OwnerID)
	return &entry, nil
}

// ConsumeOccasionalUnit decrements the stock of an as-needed medication and
// records the intake with the current wall-clock time.
func (s *Service) ConsumeOccasionalUnit(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !m.IsOccasional() {
		return nil, fmt.Errorf("%w: medication is on a fixed schedule", ErrInvalidInput)
	}
	if m.CurrentStock <= 0 {
		return nil, ErrOutOfStock
	}

	now := s.now()
	m.DoseLog = append(m.DoseLog, DoseEntry{
		Date:      now.Format(DateLayout),
		Hour:      now.Format(ClockLayout),
		Taken:     true,
		Kind:      KindOccasional,
		Timestamp: now,
	})
	m.CurrentStock--

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m.OwnerID)
	return m, nil
}

// Replenish adds quantity units to both current and initial stock. A new
// expiry date is mandatory: restocking always means a new package.
func (s *Service) Replenish(ctx context.Context, id uuid.UUID, quantity int, expiryDate string) (*Medication, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	}
	if expiryDate == "" {
		return nil, ErrMissingExpiry
	}
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m.CurrentStock += quantity
	m.InitialStock += quantity
	m.ExpiryDate = expiryDate

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}
	s.publish(ctx, m.OwnerID)
	return m, nil
}

func (s *Service) syncCalendar(ctx context.Context, m *Medication) {
	if s.calendar == nil || m.DosesPerDay < 1 {
		return
	}
	ids, err := s.calendar.CreateDoseEvents(ctx, m)
	if err != nil {
		s.log.Warn().Err(err).Str("medication_id", m.ID.String()).Msg("calendar sync failed")
		return
	}
	if len(ids) == 0 {
		return
	}
	m.CalendarEventIDs = ids
	if err := s.repo.Update(ctx, m); err != nil {
		s.log.Warn().Err(err).Str("medication_id", m.ID.String()).Msg("storing calendar event ids failed")
	}
}

func (s *Service) publish(ctx context.Context, ownerID uuid.UUID) {
	if s.pub == nil {
		return
	}
	meds, _, err := s.repo.ListByOwner(ctx, ownerID, 1000, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("listing medications for publish failed")
		return
	}
	s.pub.PublishMedications(ownerID, meds)
}
