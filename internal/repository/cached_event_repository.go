package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/logger"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
)

const eventCacheKeyPrefix = "ringside:event:"

// DefaultEventCacheTTL is used when no TTL is configured
const DefaultEventCacheTTL = 5 * time.Minute

// CachedEventRepository is a read-through Redis cache in front of an
// EventRepository. Cache failures fall back to the wrapped repository.
type CachedEventRepository struct {
	next   EventRepository
	client *pkgredis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewCachedEventRepository wraps next with a Redis cache
func NewCachedEventRepository(next EventRepository, client *pkgredis.Client, ttl time.Duration) *CachedEventRepository {
	if ttl <= 0 {
		ttl = DefaultEventCacheTTL
	}
	return &CachedEventRepository{next: next, client: client, ttl: ttl, log: logger.Get()}
}

func eventCacheKey(id string) string {
	return eventCacheKeyPrefix + id
}

// SubmitEvent implements EventRepository
func (r *CachedEventRepository) SubmitEvent(ctx context.Context, event *domain.Event) (string, error) {
	return r.next.SubmitEvent(ctx, event)
}

// FetchEvent implements EventRepository
func (r *CachedEventRepository) FetchEvent(ctx context.Context, id string) (*domain.Event, error) {
	key := eventCacheKey(id)

	blob, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var event domain.Event
		if jsonErr := json.Unmarshal(blob, &event); jsonErr == nil {
			return &event, nil
		}
		r.log.Warn("discarding undecodable cached event", "event_id", id)
	case !pkgredis.IsNil(err):
		r.log.Warn("event cache read failed", "event_id", id, "error", err)
	}

	event, err := r.next.FetchEvent(ctx, id)
	if err != nil {
		return nil, err
	}

	if blob, err := json.Marshal(event); err == nil {
		if err := r.client.Set(ctx, key, blob, r.ttl).Err(); err != nil {
			r.log.Warn("event cache write failed", "event_id", id, "error", err)
		}
	}
	return event, nil
}

// UpdateMatchResult implements EventRepository and evicts the cached event
func (r *CachedEventRepository) UpdateMatchResult(ctx context.Context, eventID, matchID, winnerID string) error {
	if err := r.next.UpdateMatchResult(ctx, eventID, matchID, winnerID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, eventCacheKey(eventID)).Err(); err != nil {
		r.log.Warn("event cache eviction failed", "event_id", eventID, "error", err)
	}
	return nil
}
