package repository

import (
	"context"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
)

// EventRepository persists submitted events
type EventRepository interface {
	// SubmitEvent stores a finalized event and returns its ID
	SubmitEvent(ctx context.Context, event *domain.Event) (string, error)
	// FetchEvent loads an event by ID
	FetchEvent(ctx context.Context, id string) (*domain.Event, error)
	// UpdateMatchResult records the winner of a match of a submitted event
	UpdateMatchResult(ctx context.Context, eventID, matchID, winnerID string) error
}

// OrderRepository persists ticket orders
type OrderRepository interface {
	// SubmitOrder stores an order with its items and returns its ID
	SubmitOrder(ctx context.Context, order *domain.Order) (string, error)
	// GetOrder loads an order by ID
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// CancelOrder marks a stored order cancelled
	CancelOrder(ctx context.Context, id string) error
}

// DraftStore keeps one unfinished event draft per organizer
type DraftStore interface {
	SaveDraft(ctx context.Context, organizerID string, d draft.Draft) error
	// LoadDraft returns domain.ErrDraftNotFound when nothing is stored
	LoadDraft(ctx context.Context, organizerID string) (draft.Draft, error)
	DeleteDraft(ctx context.Context, organizerID string) error
}
