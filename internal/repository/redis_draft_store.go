package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/internal/draft"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

const draftKeyPrefix = "ringside:draft:"

// DefaultDraftTTL bounds how long an untouched draft is kept
const DefaultDraftTTL = 7 * 24 * time.Hour

// RedisDraftStore implements DraftStore as JSON blobs with a TTL that is
// refreshed on every save.
type RedisDraftStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

// NewRedisDraftStore creates a RedisDraftStore. A non-positive ttl uses
// DefaultDraftTTL.
func NewRedisDraftStore(client *pkgredis.Client, ttl time.Duration) *RedisDraftStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &RedisDraftStore{client: client, ttl: ttl}
}

func draftKey(organizerID string) string {
	return draftKeyPrefix + organizerID
}

// SaveDraft implements DraftStore
func (s *RedisDraftStore) SaveDraft(ctx context.Context, organizerID string, d draft.Draft) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.draft.save")
	defer span.End()
	span.SetAttributes(attribute.String("organizer_id", organizerID), attribute.String("state", d.State.String()))

	blob, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(organizerID), blob, s.ttl).Err(); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to save draft: %w", err)
	}
	return nil
}

// LoadDraft implements DraftStore
func (s *RedisDraftStore) LoadDraft(ctx context.Context, organizerID string) (draft.Draft, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.draft.load")
	defer span.End()
	span.SetAttributes(attribute.String("organizer_id", organizerID))

	blob, err := s.client.Get(ctx, draftKey(organizerID)).Bytes()
	if err != nil {
		if pkgredis.IsNil(err) {
			return draft.Draft{}, domain.ErrDraftNotFound
		}
		telemetry.SetSpanError(ctx, err)
		return draft.Draft{}, fmt.Errorf("failed to load draft: %w", err)
	}

	var d draft.Draft
	if err := json.Unmarshal(blob, &d); err != nil {
		return draft.Draft{}, fmt.Errorf("failed to decode draft: %w", err)
	}
	return d, nil
}

// DeleteDraft implements DraftStore
func (s *RedisDraftStore) DeleteDraft(ctx context.Context, organizerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.redis.draft.delete")
	defer span.End()

	if err := s.client.Del(ctx, draftKey(organizerID)).Err(); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to delete draft: %w", err)
	}
	return nil
}
