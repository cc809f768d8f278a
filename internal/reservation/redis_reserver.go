package reservation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prohmpiriya/ringside/internal/domain"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed scripts/reserve_seats.lua
var reserveSeatsScript string

//go:embed scripts/release_seats.lua
var releaseSeatsScript string

//go:embed scripts/confirm_hold.lua
var confirmHoldScript string

const (
	scriptReserveSeats = "ringside_reserve_seats"
	scriptReleaseSeats = "ringside_release_seats"
	scriptConfirmHold  = "ringside_confirm_hold"
)

const (
	zoneKeyPrefix = "ringside:zone:"
	zoneKeySuffix = ":available"
	holdKeyPrefix = "ringside:hold:"
	expiryKey     = "ringside:holds:expiry"
)

// holdKeyGrace keeps a held hash alive past its expiry so the release
// worker can still return its seats.
const holdKeyGrace = time.Hour

// RedisReserver implements Reserver with atomic Lua scripts. Zone counters
// are plain integers, holds are hashes, and held IDs are indexed in a
// sorted set by expiry time.
type RedisReserver struct {
	client *pkgredis.Client
	now    func() time.Time
	newID  func() string
}

// NewRedisReserver creates a Redis-backed reserver
func NewRedisReserver(client *pkgredis.Client) *RedisReserver {
	return &RedisReserver{client: client, now: time.Now, newID: uuid.NewString}
}

// LoadScripts preloads all Lua scripts into Redis
func (r *RedisReserver) LoadScripts(ctx context.Context) error {
	scripts := map[string]string{
		scriptReserveSeats: reserveSeatsScript,
		scriptReleaseSeats: releaseSeatsScript,
		scriptConfirmHold:  confirmHoldScript,
	}
	for name, source := range scripts {
		if _, err := r.client.LoadScript(ctx, name, source); err != nil {
			return err
		}
	}
	return nil
}

func zoneKey(zoneID string) string {
	return zoneKeyPrefix + zoneID + zoneKeySuffix
}

func holdKey(holdID string) string {
	return holdKeyPrefix + holdID
}

// Reserve implements Reserver
func (r *RedisReserver) Reserve(ctx context.Context, params ReserveParams) (*Hold, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.reserve")
	defer span.End()

	if err := validateParams(params); err != nil {
		return nil, err
	}

	ttl := holdTTL(params)
	hold := &Hold{
		ID:        r.newID(),
		EventID:   params.EventID,
		BuyerID:   params.BuyerID,
		Date:      params.Date,
		Items:     copySelection(params.Items),
		Status:    HoldStatusHeld,
		ExpiresAt: r.now().Add(ttl),
	}
	span.SetAttributes(
		attribute.String("hold_id", hold.ID),
		attribute.String("event_id", hold.EventID),
		attribute.Int("quantity", hold.Items.Total()),
	)

	zones := sortedZones(hold.Items)
	keys := []string{holdKey(hold.ID), expiryKey}
	args := []interface{}{
		hold.ID,
		hold.ExpiresAt.UnixMilli(),
		int64((ttl + holdKeyGrace).Seconds()),
		hold.EventID,
		hold.BuyerID,
		string(hold.Date),
		len(zones),
	}
	for _, zoneID := range zones {
		keys = append(keys, zoneKey(zoneID))
		args = append(args, zoneID, hold.Items[zoneID])
	}

	values, err := r.eval(ctx, scriptReserveSeats, reserveSeatsScript, keys, args...)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	if err := scriptError(values); err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}
	return hold, nil
}

// Confirm implements Reserver
func (r *RedisReserver) Confirm(ctx context.Context, holdID string) error {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.confirm")
	defer span.End()
	span.SetAttributes(attribute.String("hold_id", holdID))

	values, err := r.eval(ctx, scriptConfirmHold, confirmHoldScript,
		[]string{holdKey(holdID), expiryKey},
		holdID, r.now().UnixMilli(), int64(confirmedRetention.Seconds()))
	if err == nil {
		err = scriptError(values)
	}
	if err != nil {
		telemetry.SetSpanError(ctx, err)
	}
	return err
}

// Release implements Reserver
func (r *RedisReserver) Release(ctx context.Context, holdID string) error {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.release")
	defer span.End()
	span.SetAttributes(attribute.String("hold_id", holdID))

	_, err := r.release(ctx, holdID)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
	}
	return err
}

func (r *RedisReserver) release(ctx context.Context, holdID string) (int, error) {
	values, err := r.eval(ctx, scriptReleaseSeats, releaseSeatsScript,
		[]string{holdKey(holdID), expiryKey},
		holdID, zoneKeyPrefix, zoneKeySuffix)
	if err != nil {
		return 0, err
	}
	if err := scriptError(values); err != nil {
		return 0, err
	}
	released, _ := strconv.Atoi(fmt.Sprint(values[2]))
	return released, nil
}

// ReleaseExpired implements Reserver
func (r *RedisReserver) ReleaseExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.release_expired")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}
	ids, err := r.client.Client().ZRangeByScore(ctx, expiryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return 0, fmt.Errorf("failed to scan expired holds: %w", err)
	}

	released := 0
	for _, id := range ids {
		if _, err := r.release(ctx, id); err != nil {
			if domainErr(err) {
				continue
			}
			telemetry.SetSpanError(ctx, err)
			return released, err
		}
		released++
	}
	span.SetAttributes(attribute.Int("released", released))
	return released, nil
}

// Availability implements Reserver
func (r *RedisReserver) Availability(ctx context.Context, zoneID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.availability")
	defer span.End()
	span.SetAttributes(attribute.String("zone_id", zoneID))

	left, err := r.client.Get(ctx, zoneKey(zoneID)).Int()
	if err != nil {
		if pkgredis.IsNil(err) {
			return 0, fmt.Errorf("%w: %s", domain.ErrZoneNotFound, zoneID)
		}
		telemetry.SetSpanError(ctx, err)
		return 0, fmt.Errorf("failed to get zone availability: %w", err)
	}
	return left, nil
}

// SeedZone implements Reserver. Existing counters are kept so a restart
// does not reset seats that were already sold.
func (r *RedisReserver) SeedZone(ctx context.Context, zoneID string, seats int) error {
	ctx, span := telemetry.StartSpan(ctx, "reservation.redis.seed_zone")
	defer span.End()
	span.SetAttributes(attribute.String("zone_id", zoneID), attribute.Int("seats", seats))

	if err := r.client.SetNX(ctx, zoneKey(zoneID), seats, 0).Err(); err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to seed zone %s: %w", zoneID, err)
	}
	return nil
}

func (r *RedisReserver) eval(ctx context.Context, name, source string, keys []string, args ...interface{}) ([]interface{}, error) {
	values, err := r.client.EvalWithFallback(ctx, name, source, keys, args...).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s script: %w", name, err)
	}
	if len(values) < 3 {
		return nil, fmt.Errorf("unexpected %s script result length: %d", name, len(values))
	}
	return values, nil
}

// scriptError maps a {0, code, detail} script reply to a domain error
func scriptError(values []interface{}) error {
	if ok, _ := values[0].(int64); ok == 1 {
		return nil
	}
	code, _ := values[1].(string)
	detail, _ := values[2].(string)
	switch code {
	case "ZONE_NOT_FOUND":
		return fmt.Errorf("%w: %s", domain.ErrZoneNotFound, detail)
	case "INSUFFICIENT_SEATS":
		return fmt.Errorf("%w: zone %s", domain.ErrInsufficientSeats, detail)
	case "HOLD_NOT_FOUND":
		return fmt.Errorf("%w: %s", domain.ErrHoldNotFound, detail)
	case "HOLD_EXPIRED":
		return fmt.Errorf("%w: %s expired", domain.ErrHoldNotFound, detail)
	case "HOLD_CONFIRMED":
		return fmt.Errorf("%w: hold %s is already confirmed", domain.ErrInvalidTransition, detail)
	}
	return fmt.Errorf("reservation script failed: %s %s", code, detail)
}

func domainErr(err error) bool {
	return errors.Is(err, domain.ErrHoldNotFound) || errors.Is(err, domain.ErrInvalidTransition)
}
