package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	"github.com/prohmpiriya/ringside/internal/schedule"
)

// MemoryEventRepository implements EventRepository in process memory
type MemoryEventRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.Event
}

// NewMemoryEventRepository creates an empty MemoryEventRepository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{events: make(map[string]*domain.Event)}
}

// SubmitEvent implements EventRepository. An already stored ID is kept
// as it is.
func (r *MemoryEventRepository) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.events[event.ID]; ok && event.ID != "" {
		event.CreatedAt = existing.CreatedAt
		event.UpdatedAt = existing.UpdatedAt
		return existing.ID, nil
	}

	e := event.Clone()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	r.events[e.ID] = e

	event.ID = e.ID
	event.CreatedAt = e.CreatedAt
	event.UpdatedAt = e.UpdatedAt
	return e.ID, nil
}

// FetchEvent implements EventRepository
func (r *MemoryEventRepository) FetchEvent(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	return e.Clone(), nil
}

// UpdateMatchResult implements EventRepository
func (r *MemoryEventRepository) UpdateMatchResult(ctx context.Context, eventID, matchID, winnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.events[eventID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, eventID)
	}
	if err := schedule.RecordResult(e, matchID, winnerID); err != nil {
		return err
	}
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// MemoryOrderRepository implements OrderRepository in process memory
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewMemoryOrderRepository creates an empty MemoryOrderRepository
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]domain.Order)}
}

// SubmitOrder implements OrderRepository
func (r *MemoryOrderRepository) SubmitOrder(ctx context.Context, order *domain.Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	stored := *order
	stored.Items = append([]domain.OrderItem(nil), order.Items...)
	r.orders[order.ID] = stored
	return order.ID, nil
}

// GetOrder implements OrderRepository
func (r *MemoryOrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	o.Items = append([]domain.OrderItem(nil), o.Items...)
	return &o, nil
}

// CancelOrder implements OrderRepository
func (r *MemoryOrderRepository) CancelOrder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	o.Status = domain.OrderStatusCancelled
	r.orders[id] = o
	return nil
}

// MemoryDraftStore implements DraftStore in process memory
type MemoryDraftStore struct {
	mu     sync.RWMutex
	drafts map[string]draft.Draft
}

// NewMemoryDraftStore creates an empty MemoryDraftStore
func NewMemoryDraftStore() *MemoryDraftStore {
	return &MemoryDraftStore{drafts: make(map[string]draft.Draft)}
}

// SaveDraft implements DraftStore
func (s *MemoryDraftStore) SaveDraft(ctx context.Context, organizerID string, d draft.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.Event = *d.Event.Clone()
	s.drafts[organizerID] = d
	return nil
}

// LoadDraft implements DraftStore
func (s *MemoryDraftStore) LoadDraft(ctx context.Context, organizerID string) (draft.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drafts[organizerID]
	if !ok {
		return draft.Draft{}, domain.ErrDraftNotFound
	}
	d.Event = *d.Event.Clone()
	return d, nil
}

// DeleteDraft implements DraftStore
func (s *MemoryDraftStore) DeleteDraft(ctx context.Context, organizerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.drafts, organizerID)
	return nil
}
