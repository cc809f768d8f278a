package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	pkgredis "github.com/prohmpiriya/ringside/pkg/redis"
	"github.com/prohmpiriya/ringside/pkg/response"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency key
	IdempotencyKeyHeader = "X-Idempotency-Key"
	// DefaultIdempotencyTTL keeps completed responses for client retries
	DefaultIdempotencyTTL = 24 * time.Hour
	// DefaultProcessingTTL bounds how long an in-flight claim blocks duplicates
	DefaultProcessingTTL = 60 * time.Second
	// IdempotencyKeyPrefix namespaces idempotency records in Redis
	IdempotencyKeyPrefix = "idempotency:"
)

// IdempotencyStatus represents the status of an idempotency record
type IdempotencyStatus string

const (
	StatusProcessing IdempotencyStatus = "processing"
	StatusCompleted  IdempotencyStatus = "completed"
)

// IdempotencyRecord stores the state of an idempotent request
type IdempotencyRecord struct {
	Key          string            `json:"key"`
	Status       IdempotencyStatus `json:"status"`
	RequestHash  string            `json:"request_hash"`
	ResponseCode int               `json:"response_code"`
	ResponseBody string            `json:"response_body"`
	CreatedAt    time.Time         `json:"created_at"`
}

// IdempotencyStore persists idempotency records.
// Get returns (nil, nil) when the key is unknown.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	Claim(ctx context.Context, key string, record *IdempotencyRecord, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, record *IdempotencyRecord, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	Store         IdempotencyStore
	TTL           time.Duration
	ProcessingTTL time.Duration
}

// IdempotencyMiddleware replays the stored response for a repeated
// X-Idempotency-Key. Keys are scoped per user and must be reused with an
// identical request. Server errors are not cached so the client can retry.
func IdempotencyMiddleware(config IdempotencyConfig) gin.HandlerFunc {
	if config.TTL <= 0 {
		config.TTL = DefaultIdempotencyTTL
	}
	if config.ProcessingTTL <= 0 {
		config.ProcessingTTL = DefaultProcessingTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, response.BadRequest("X-Idempotency-Key header is required"))
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		userID, _ := GetUserID(c)
		storeKey := IdempotencyKeyPrefix + userID + ":" + key
		requestHash := hashRequest(c.Request.Method, c.Request.URL.Path, body)
		ctx := c.Request.Context()

		existing, err := config.Store.Get(ctx, storeKey)
		if err != nil {
			// fail open
			c.Next()
			return
		}
		if existing != nil {
			replay(c, existing, requestHash)
			return
		}

		record := &IdempotencyRecord{
			Key:         key,
			Status:      StatusProcessing,
			RequestHash: requestHash,
			CreatedAt:   time.Now(),
		}
		claimed, err := config.Store.Claim(ctx, storeKey, record, config.ProcessingTTL)
		if err == nil && !claimed {
			if existing, _ = config.Store.Get(ctx, storeKey); existing != nil {
				replay(c, existing, requestHash)
				return
			}
		}

		rw := &capturingWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = rw
		c.Next()

		status := rw.Status()
		if status >= http.StatusInternalServerError {
			_ = config.Store.Delete(ctx, storeKey)
			return
		}

		record.Status = StatusCompleted
		record.ResponseCode = status
		record.ResponseBody = rw.body.String()
		_ = config.Store.Save(ctx, storeKey, record, config.TTL)
	}
}

func replay(c *gin.Context, record *IdempotencyRecord, requestHash string) {
	switch {
	case record.RequestHash != requestHash:
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, response.Error("IDEMPOTENCY_KEY_REUSED", "idempotency key already used with a different request"))
	case record.Status == StatusProcessing:
		c.AbortWithStatusJSON(http.StatusConflict, response.Error("REQUEST_IN_PROGRESS", "a request with this idempotency key is already being processed"))
	default:
		c.Data(record.ResponseCode, "application/json; charset=utf-8", []byte(record.ResponseBody))
		c.Abort()
	}
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type capturingWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RedisIdempotencyStore keeps records in Redis
type RedisIdempotencyStore struct {
	client *pkgredis.Client
}

// NewRedisIdempotencyStore creates a Redis-backed store
func NewRedisIdempotencyStore(client *pkgredis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if pkgredis.IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record IdempotencyRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, nil
}

func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, record *IdempotencyRecord, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, key, data, ttl).Result()
}

func (s *RedisIdempotencyStore) Save(ctx context.Context, key string, record *IdempotencyRecord, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *RedisIdempotencyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryIdempotencyStore keeps records in process memory.
// Used for single-node runs without Redis and in tests.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]memoryRecord
	now     func() time.Time
}

type memoryRecord struct {
	record    IdempotencyRecord
	expiresAt time.Time
}

// NewMemoryIdempotencyStore creates an in-memory store
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{records: make(map[string]memoryRecord), now: time.Now}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[key]
	if !ok || s.now().After(r.expiresAt) {
		delete(s.records, key)
		return nil, nil
	}
	record := r.record
	return &record, nil
}

func (s *MemoryIdempotencyStore) Claim(_ context.Context, key string, record *IdempotencyRecord, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.records[key]; ok && !s.now().After(r.expiresAt) {
		return false, nil
	}
	s.records[key] = memoryRecord{record: *record, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryIdempotencyStore) Save(_ context.Context, key string, record *IdempotencyRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = memoryRecord{record: *record, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryIdempotencyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
