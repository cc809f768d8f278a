package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/schedule"
	"github.com/prohmpiriya/ringside/pkg/database"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// PostgresEventRepository implements EventRepository using PostgreSQL
type PostgresEventRepository struct {
	db database.DBTX
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db database.DBTX) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// SubmitEvent inserts the event. An empty ID is assigned a new UUID.
// Resubmitting the same ID is a no-op so callers may retry.
func (r *PostgresEventRepository) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.submit")
	defer span.End()

	e := event.Clone()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	span.SetAttributes(attribute.String("event_id", e.ID), attribute.String("organizer_id", e.OrganizerID))

	posters, weightClasses, seatZones, err := marshalEventDocs(e)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", err
	}

	query := `
		INSERT INTO events (
			id, organizer_id, location_id, name, level,
			start_date, end_date, description, posters, status,
			mode, weight_classes, seat_zones, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15
		)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query,
		e.ID,
		e.OrganizerID,
		e.LocationID,
		e.Name,
		e.Level,
		string(e.StartDate),
		string(e.EndDate),
		e.Description,
		posters,
		string(e.Status),
		string(e.Mode),
		weightClasses,
		seatZones,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to submit event: %w", err)
	}

	event.ID = e.ID
	event.CreatedAt = e.CreatedAt
	event.UpdatedAt = e.UpdatedAt
	return e.ID, nil
}

// FetchEvent loads an event by ID
func (r *PostgresEventRepository) FetchEvent(ctx context.Context, id string) (*domain.Event, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("event_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}

	query := `
		SELECT
			id, organizer_id, location_id, name, level,
			start_date::text, end_date::text, description, posters, status,
			mode, weight_classes, seat_zones, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	event, err := scanEvent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
		}
		telemetry.SetSpanError(ctx, err)
		return nil, fmt.Errorf("failed to fetch event: %w", err)
	}
	return event, nil
}

// UpdateMatchResult locks the event row, validates the winner against the
// stored match and writes the weight classes back.
func (r *PostgresEventRepository) UpdateMatchResult(ctx context.Context, eventID, matchID, winnerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.event.update_match_result")
	defer span.End()
	span.SetAttributes(
		attribute.String("event_id", eventID),
		attribute.String("match_id", matchID),
	)

	if _, err := uuid.Parse(eventID); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status        string
		weightClasses []byte
	)
	err = tx.QueryRow(ctx, `SELECT status, weight_classes FROM events WHERE id = $1 FOR UPDATE`, eventID).
		Scan(&status, &weightClasses)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
		}
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to lock event: %w", err)
	}

	event := &domain.Event{ID: eventID, Status: domain.EventStatus(status)}
	if err := json.Unmarshal(weightClasses, &event.WeightClasses); err != nil {
		return fmt.Errorf("failed to decode weight classes: %w", err)
	}
	if err := schedule.RecordResult(event, matchID, winnerID); err != nil {
		return err
	}

	updated, err := json.Marshal(event.WeightClasses)
	if err != nil {
		return fmt.Errorf("failed to encode weight classes: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE events SET weight_classes = $2, updated_at = $3 WHERE id = $1`,
		eventID, updated, time.Now().UTC(),
	); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to update match result: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to commit match result: %w", err)
	}
	return nil
}

func marshalEventDocs(e *domain.Event) (posters, weightClasses, seatZones []byte, err error) {
	if e.Posters == nil {
		e.Posters = []string{}
	}
	if posters, err = json.Marshal(e.Posters); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode posters: %w", err)
	}
	if weightClasses, err = json.Marshal(e.WeightClasses); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode weight classes: %w", err)
	}
	if seatZones, err = json.Marshal(e.SeatZones); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode seat zones: %w", err)
	}
	return posters, weightClasses, seatZones, nil
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		startDate, endDate            string
		status, mode                  string
		posters, weightClasses, zones []byte
	)
	err := row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.LocationID,
		&e.Name,
		&e.Level,
		&startDate,
		&endDate,
		&e.Description,
		&posters,
		&status,
		&mode,
		&weightClasses,
		&zones,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.StartDate = domain.Date(startDate)
	e.EndDate = domain.Date(endDate)
	e.Status = domain.EventStatus(status)
	e.Mode = domain.EventMode(mode)
	if err := json.Unmarshal(posters, &e.Posters); err != nil {
		return nil, fmt.Errorf("failed to decode posters: %w", err)
	}
	if err := json.Unmarshal(weightClasses, &e.WeightClasses); err != nil {
		return nil, fmt.Errorf("failed to decode weight classes: %w", err)
	}
	if err := json.Unmarshal(zones, &e.SeatZones); err != nil {
		return nil, fmt.Errorf("failed to decode seat zones: %w", err)
	}
	return e, nil
}
