package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.DB = 15

	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 6379, cfg.Port)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, "localhost:6379", cfg.Addr())
}

func TestNewClient_Unreachable(t *testing.T) {
	cfg := &Config{
		Host:          "invalid-host-that-does-not-exist",
		Port:          9999,
		MaxRetries:    0,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   500 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewClient(ctx, cfg)
	assert.Error(t, err)
}

func TestComputeSHA1(t *testing.T) {
	sha := computeSHA1("return 1")

	assert.Len(t, sha, 40)
	assert.Equal(t, sha, computeSHA1("return 1"))
	assert.NotEqual(t, sha, computeSHA1("return 2"))
}

func TestIsNoScriptError(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{fmt.Errorf("some error"), false},
		{fmt.Errorf("NOSCRIPT No matching script. Please use EVAL."), true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, isNoScriptError(tt.err), "err=%v", tt.err)
	}
}

func TestIsNil(t *testing.T) {
	assert.True(t, IsNil(goredis.Nil))
	assert.True(t, IsNil(fmt.Errorf("wrapped: %w", goredis.Nil)))
	assert.False(t, IsNil(fmt.Errorf("other")))
}

func TestClient_EvalWithFallback_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, getTestConfig())
	require.NoError(t, err)
	defer client.Close()

	source := `return tonumber(ARGV[1]) * 2`

	result, err := client.EvalWithFallback(ctx, "test_double", source, nil, 7).Int()
	require.NoError(t, err)
	assert.Equal(t, 14, result)

	_, cached := client.ScriptSHA("test_double")
	assert.True(t, cached)

	// Flushing server scripts must be recovered transparently
	require.NoError(t, client.Client().ScriptFlush(ctx).Err())
	result, err = client.EvalWithFallback(ctx, "test_double", source, nil, 10).Int()
	require.NoError(t, err)
	assert.Equal(t, 20, result)
}

func TestClient_KeyOperations_Integration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, getTestConfig())
	require.NoError(t, err)
	defer client.Close()

	key := "test:key:" + time.Now().Format("20060102150405.000")
	defer client.Del(ctx, key)

	require.NoError(t, client.Set(ctx, key, "v1", time.Minute).Err())

	ok, err := client.SetNX(ctx, key, "v2", time.Minute).Result()
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := client.Get(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, "v1", val)

	require.NoError(t, client.Del(ctx, key).Err())
	_, err = client.Get(ctx, key).Result()
	assert.True(t, IsNil(err))
}
