package database

import (
	"context"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories depend on it so they can run inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	MaxRetries    int
	RetryInterval time.Duration

	// Adds an otelpgx tracer to every connection
	EnableTracing bool
}

// DefaultPostgresConfig returns default configuration.
// Password must be supplied by the caller.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Database:        "ringside",
		SSLMode:         "disable",
		MaxConns:        25,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		MaxRetries:      3,
		RetryInterval:   2 * time.Second,
	}
}

// DSN returns the PostgreSQL connection string
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// PostgresDB wraps pgxpool.Pool
type PostgresDB struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new PostgreSQL connection pool, retrying the first ping
func NewPostgres(ctx context.Context, cfg *PostgresConfig) (*PostgresDB, error) {
	if cfg == nil {
		cfg = DefaultPostgresConfig()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	if cfg.EnableTracing {
		poolConfig.ConnConfig.Tracer = otelpgx.NewTracer(otelpgx.WithIncludeQueryParameters())
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(cfg.RetryInterval):
			}
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			lastErr = err
			continue
		}

		if lastErr = pool.Ping(ctx); lastErr != nil {
			pool.Close()
			continue
		}

		return &PostgresDB{pool: pool}, nil
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}

// Pool returns the underlying pgxpool.Pool
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes all connections in the pool gracefully
func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// HealthCheck performs a bounded SELECT 1
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var result int
	if err := db.pool.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("database health check returned unexpected result: %d", result)
	}
	return nil
}

// Migrate applies the schema statements in order.
func (db *PostgresDB) Migrate(ctx context.Context, statements ...string) error {
	for i, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
