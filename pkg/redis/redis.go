package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Nil is returned by reads of a missing key.
var Nil = redis.Nil

// Config holds Redis connection configuration
type Config struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Connect retry
	MaxRetries    int
	RetryInterval time.Duration
}

// DefaultConfig returns default Redis configuration
func DefaultConfig() *Config {
	return &Config{
		Host:          "localhost",
		Port:          6379,
		PoolSize:      50,
		MinIdleConns:  5,
		DialTimeout:   5 * time.Second,
		ReadTimeout:   3 * time.Second,
		WriteTimeout:  3 * time.Second,
		MaxRetries:    3,
		RetryInterval: time.Second,
	}
}

// Addr returns the Redis address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client wraps redis.Client with Lua script caching
type Client struct {
	client  *redis.Client
	scripts sync.Map // name -> *Script
}

// NewClient connects to Redis, retrying the initial ping.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				client.Close()
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}

		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return &Client{client: client}, nil
		}
	}

	client.Close()
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// Wrap builds a Client around an existing go-redis client.
func Wrap(client *redis.Client) *Client {
	return &Client{client: client}
}

// Client returns the underlying redis.Client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Ping checks if Redis connection is alive
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck performs a bounded ping
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := c.client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	if result != "PONG" {
		return fmt.Errorf("redis health check unexpected response: %s", result)
	}
	return nil
}

// --- Lua Script Support ---

// Script is a named Lua script with its server-side SHA
type Script struct {
	Name   string
	SHA    string
	Source string
}

func computeSHA1(source string) string {
	h := sha1.New()
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// LoadScript loads a Lua script into Redis and caches its SHA
func (c *Client) LoadScript(ctx context.Context, name, source string) (*Script, error) {
	sha, err := c.client.ScriptLoad(ctx, source).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	script := &Script{Name: name, SHA: sha, Source: source}
	c.scripts.Store(name, script)
	return script, nil
}

// ScriptSHA returns the cached SHA for a script name
func (c *Client) ScriptSHA(name string) (string, bool) {
	if s, ok := c.scripts.Load(name); ok {
		return s.(*Script).SHA, true
	}
	return "", false
}

// EvalWithFallback runs a script by SHA, loading or reloading it when the
// server does not know it (first use, or after SCRIPT FLUSH / failover).
func (c *Client) EvalWithFallback(ctx context.Context, name, source string, keys []string, args ...interface{}) *redis.Cmd {
	if sha, ok := c.ScriptSHA(name); ok {
		result := c.client.EvalSha(ctx, sha, keys, args...)
		if !isNoScriptError(result.Err()) {
			return result
		}
	}

	script, err := c.LoadScript(ctx, name, source)
	if err != nil {
		cmd := redis.NewCmd(ctx)
		cmd.SetErr(err)
		return cmd
	}
	return c.client.EvalSha(ctx, script.SHA, keys, args...)
}

func isNoScriptError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "NOSCRIPT")
}

// --- Key Operations ---

// Get gets a value by key
func (c *Client) Get(ctx context.Context, key string) *redis.StringCmd {
	return c.client.Get(ctx, key)
}

// Set sets a value with optional expiration
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	return c.client.Set(ctx, key, value, expiration)
}

// SetNX sets a value only if key doesn't exist
func (c *Client) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	return c.client.SetNX(ctx, key, value, expiration)
}

// Del deletes keys
func (c *Client) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	return c.client.Del(ctx, keys...)
}

// HGetAll gets all fields in a hash
func (c *Client) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return c.client.HGetAll(ctx, key)
}

// IsNil reports whether err is the missing-key sentinel
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
