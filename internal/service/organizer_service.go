package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/prohmpiriya/ringside/internal/inventory"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/internal/schedule"
	"github.com/prohmpiriya/ringside/pkg/logger"
	"github.com/prohmpiriya/ringside/pkg/retry"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// OrganizerService drives the event creation wizard of one organizer.
// Every call loads the stored draft, applies one change and saves it.
type OrganizerService interface {
	// StartDraft returns the organizer's open draft, creating one if none exists
	StartDraft(ctx context.Context, organizerID string) (draft.Draft, error)
	GetDraft(ctx context.Context, organizerID string) (draft.Draft, error)
	DiscardDraft(ctx context.Context, organizerID string) error

	Advance(ctx context.Context, organizerID string, in draft.StepInput) (draft.Draft, error)
	Back(ctx context.Context, organizerID string) (draft.Draft, error)
	// Finalize submits the event and removes the draft
	Finalize(ctx context.Context, organizerID string) (string, error)

	AddZone(ctx context.Context, organizerID string, in draft.ZoneInput) (*domain.SeatZone, error)
	EditZone(ctx context.Context, organizerID, zoneID string, upd inventory.ZoneUpdate) (*domain.SeatZone, error)
	RemoveZone(ctx context.Context, organizerID, zoneID string) error

	AddMatch(ctx context.Context, organizerID string, in draft.MatchEntry) (*domain.Match, error)
	EditMatch(ctx context.Context, organizerID, matchID string, in schedule.MatchInput) (*domain.Match, error)
	RemoveMatch(ctx context.Context, organizerID, matchID string) error
}

// OrganizerServiceConfig contains configuration for the organizer service
type OrganizerServiceConfig struct {
	Retry *retry.Config
	// NewID generates zone and match IDs
	NewID func() string
}

type organizerService struct {
	drafts  repository.DraftStore
	events  repository.EventRepository
	retrier *retry.Retrier
	newID   func() string
	log     *logger.Logger
}

// NewOrganizerService creates a new organizer service
func NewOrganizerService(drafts repository.DraftStore, events repository.EventRepository, cfg *OrganizerServiceConfig) OrganizerService {
	if cfg == nil {
		cfg = &OrganizerServiceConfig{}
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &organizerService{
		drafts:  drafts,
		events:  events,
		retrier: newRetrier(cfg.Retry),
		newID:   newID,
		log:     logger.Get(),
	}
}

func (s *organizerService) StartDraft(ctx context.Context, organizerID string) (draft.Draft, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.organizer.start_draft")
	defer span.End()
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	if organizerID == "" {
		return draft.Draft{}, domain.NewValidationError("organizer_id", "organizer is required")
	}

	existing, err := s.drafts.LoadDraft(ctx, organizerID)
	if err == nil && existing.State != draft.StateSubmitted {
		return existing, nil
	}
	if err != nil && !errors.Is(err, domain.ErrDraftNotFound) {
		telemetry.SetSpanError(ctx, err)
		return draft.Draft{}, err
	}

	d := draft.New(organizerID, draft.WithIDGenerator(s.newID)).Snapshot()
	if err := s.drafts.SaveDraft(ctx, organizerID, d); err != nil {
		telemetry.SetSpanError(ctx, err)
		return draft.Draft{}, err
	}
	s.log.Info("draft started", "organizer_id", organizerID)
	return d, nil
}

func (s *organizerService) GetDraft(ctx context.Context, organizerID string) (draft.Draft, error) {
	return s.drafts.LoadDraft(ctx, organizerID)
}

func (s *organizerService) DiscardDraft(ctx context.Context, organizerID string) error {
	if _, err := s.drafts.LoadDraft(ctx, organizerID); err != nil {
		return err
	}
	if err := s.drafts.DeleteDraft(ctx, organizerID); err != nil {
		return err
	}
	s.log.Info("draft discarded", "organizer_id", organizerID)
	return nil
}

func (s *organizerService) Advance(ctx context.Context, organizerID string, in draft.StepInput) (draft.Draft, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.organizer.advance")
	defer span.End()

	var from draft.State
	d, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		from = a.State()
		return a.Advance(in)
	})
	if err != nil {
		return draft.Draft{}, err
	}
	span.SetAttributes(attribute.String("from", from.String()), attribute.String("to", d.State.String()))
	s.log.Info("draft advanced", "organizer_id", organizerID, "from", from.String(), "to", d.State.String())
	return d, nil
}

func (s *organizerService) Back(ctx context.Context, organizerID string) (draft.Draft, error) {
	return s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		return a.Back()
	})
}

func (s *organizerService) Finalize(ctx context.Context, organizerID string) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.organizer.finalize")
	defer span.End()
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	a, err := s.load(ctx, organizerID)
	if err != nil {
		return "", err
	}

	// The ID must be stored before the first submission so a retry after a
	// lost reply resubmits the same event.
	if a.Event().ID == "" && a.State() == draft.StateMatchSchedule {
		a.AssignEventID()
		if err := s.drafts.SaveDraft(ctx, organizerID, a.Snapshot()); err != nil {
			telemetry.SetSpanError(ctx, err)
			return "", err
		}
	}

	id, err := a.Finalize(ctx, &retryingSubmitter{events: s.events, retrier: s.retrier, log: s.log})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", err
	}
	span.SetAttributes(attribute.String("event_id", id))

	if err := s.drafts.DeleteDraft(ctx, organizerID); err != nil {
		// The event is stored; a leftover draft can be discarded later.
		s.log.Warn("failed to delete submitted draft", "organizer_id", organizerID, "event_id", id, "error", err)
		if saveErr := s.drafts.SaveDraft(ctx, organizerID, a.Snapshot()); saveErr != nil {
			s.log.Error("failed to mark draft submitted", "organizer_id", organizerID, "error", saveErr)
		}
	}

	s.log.Info("event submitted", "organizer_id", organizerID, "event_id", id, "mode", a.Mode().String())
	return id, nil
}

func (s *organizerService) AddZone(ctx context.Context, organizerID string, in draft.ZoneInput) (*domain.SeatZone, error) {
	var zone *domain.SeatZone
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		var err error
		zone, err = a.Inventory().AddZone(in.ZoneName, in.NumberOfSeat, in.Price)
		return err
	})
	return zone, err
}

func (s *organizerService) EditZone(ctx context.Context, organizerID, zoneID string, upd inventory.ZoneUpdate) (*domain.SeatZone, error) {
	var zone *domain.SeatZone
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		var err error
		zone, err = a.Inventory().EditZone(zoneID, upd)
		return err
	})
	return zone, err
}

func (s *organizerService) RemoveZone(ctx context.Context, organizerID, zoneID string) error {
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		return a.Inventory().RemoveZone(zoneID)
	})
	return err
}

func (s *organizerService) AddMatch(ctx context.Context, organizerID string, in draft.MatchEntry) (*domain.Match, error) {
	var match *domain.Match
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		var err error
		match, err = a.Scheduler().AddMatch(in.WeightClass, in.MatchInput)
		return err
	})
	return match, err
}

func (s *organizerService) EditMatch(ctx context.Context, organizerID, matchID string, in schedule.MatchInput) (*domain.Match, error) {
	var match *domain.Match
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		var err error
		match, err = a.Scheduler().EditMatch(matchID, in)
		return err
	})
	return match, err
}

func (s *organizerService) RemoveMatch(ctx context.Context, organizerID, matchID string) error {
	_, err := s.mutate(ctx, organizerID, func(a *draft.Accumulator) error {
		return a.Scheduler().RemoveMatch(matchID)
	})
	return err
}

func (s *organizerService) load(ctx context.Context, organizerID string) (*draft.Accumulator, error) {
	d, err := s.drafts.LoadDraft(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	a, err := draft.Restore(d, draft.WithIDGenerator(s.newID))
	if err != nil {
		return nil, fmt.Errorf("stored draft is corrupt: %w", err)
	}
	return a, nil
}

// mutate applies fn to the stored draft and saves it only when fn succeeds
func (s *organizerService) mutate(ctx context.Context, organizerID string, fn func(a *draft.Accumulator) error) (draft.Draft, error) {
	a, err := s.load(ctx, organizerID)
	if err != nil {
		return draft.Draft{}, err
	}
	if err := fn(a); err != nil {
		return draft.Draft{}, err
	}
	d := a.Snapshot()
	if err := s.drafts.SaveDraft(ctx, organizerID, d); err != nil {
		return draft.Draft{}, err
	}
	return d, nil
}

// retryingSubmitter retries transient SubmitEvent failures. Every attempt
// carries the event ID saved in the draft, and the repository ignores a
// resubmitted ID.
type retryingSubmitter struct {
	events  repository.EventRepository
	retrier *retry.Retrier
	log     *logger.Logger
}

func (r *retryingSubmitter) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	var id string
	result := r.retrier.DoWithCallback(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.events.SubmitEvent(ctx, event)
		return err
	}, func(attempt int, err error, _ time.Duration) {
		r.log.Warn("retrying event submission", "event_id", event.ID, "attempt", attempt, "error", err)
	})
	if result.Err != nil {
		return "", result.Err
	}
	return id, nil
}
