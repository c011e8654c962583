package stockalert

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

// Notifier receives newly fired alerts. Delivery failures are the notifier's
// problem; evaluation never depends on them.
type Notifier interface {
	NotifyAlert(ctx context.Context, ownerID uuid.UUID, alert Alert)
}

// Evaluator runs periodic alerting ticks over every owner's medication
// snapshot, holding one de-duplication State per owner. The state lives in
// process memory only: after a restart, recent alerts may fire again.
type Evaluator struct {
	repo          medication.Repository
	notifier      Notifier
	thresholdDays int
	log           zerolog.Logger

	mu     sync.Mutex
	states map[uuid.UUID]*State
}

func NewEvaluator(repo medication.Repository, thresholdDays int) *Evaluator {
	if thresholdDays <= 0 {
		thresholdDays = DefaultThresholdDays
	}
	return &Evaluator{
		repo:          repo,
		thresholdDays: thresholdDays,
		log:           zerolog.Nop(),
		states:        make(map[uuid.UUID]*State),
	}
}

// SetNotifier attaches an optional alert notifier.
func (e *Evaluator) SetNotifier(n Notifier) { e.notifier = n }

// SetLogger replaces the evaluator logger.
func (e *Evaluator) SetLogger(l zerolog.Logger) { e.log = l }

func (e *Evaluator) stateFor(ownerID uuid.UUID) *State {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[ownerID]
	if !ok {
		st = NewState()
		e.states[ownerID] = st
	}
	return st
}

// EvaluateOwner runs one tick for a single owner and returns what fired.
func (e *Evaluator) EvaluateOwner(ctx context.Context, ownerID uuid.UUID) ([]Alert, error) {
	meds, _, err := e.repo.ListByOwner(ctx, ownerID, 1000, 0)
	if err != nil {
		return nil, err
	}
	st := e.stateFor(ownerID)
	st.Prune(meds)
	fired := Evaluate(st, meds, e.thresholdDays)

	if e.notifier != nil {
		for _, a := range fired {
			e.notifier.NotifyAlert(ctx, ownerID, a)
		}
	}
	return fired, nil
}

// RunOnce walks every owner with at least one medication. Wired to a cron
// schedule by the server.
func (e *Evaluator) RunOnce(ctx context.Context) {
	owners, err := e.repo.DistinctOwners(ctx)
	if err != nil {
		e.log.Error().Err(err).Msg("listing owners for stock alert tick failed")
		return
	}
	for _, ownerID := range owners {
		fired, err := e.EvaluateOwner(ctx, ownerID)
		if err != nil {
			e.log.Warn().Err(err).Str("owner_id", ownerID.String()).Msg("stock alert evaluation failed")
			continue
		}
		for _, a := range fired {
			e.log.Info().
				Str("owner_id", ownerID.String()).
				Str("medication", a.Name).
				Str("level", string(a.Level)).
				Int("days_remaining", a.DaysRemaining).
				Msg("stock alert fired")
		}
	}
}
