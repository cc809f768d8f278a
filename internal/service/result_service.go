package service

import (
	"context"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/repository"
	"github.com/prohmpiriya/ringside/pkg/logger"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ResultService records match winners after an event has been submitted
type ResultService interface {
	RecordResult(ctx context.Context, organizerID, eventID, matchID, winnerID string) error
}

type resultService struct {
	events repository.EventRepository
	log    *logger.Logger
}

// NewResultService creates a new result service
func NewResultService(events repository.EventRepository) ResultService {
	return &resultService{events: events, log: logger.Get()}
}

// RecordResult checks that organizerID owns the event before writing
func (s *resultService) RecordResult(ctx context.Context, organizerID, eventID, matchID, winnerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.result.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("match_id", matchID),
	)

	if winnerID == "" {
		return domain.NewValidationError("winner_id", "winner is required")
	}

	event, err := s.events.FetchEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OrganizerID != organizerID {
		return domain.ErrNotEventOwner
	}

	if err := s.events.UpdateMatchResult(ctx, eventID, matchID, winnerID); err != nil {
		telemetry.SetSpanError(ctx, err)
		return err
	}

	s.log.Info("match result recorded", "event_id", eventID, "match_id", matchID, "winner_id", winnerID)
	return nil
}
