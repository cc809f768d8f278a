package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prohmpiriya/ringside/internal/domain"
	"github.com/prohmpiriya/ringside/pkg/database"
	"github.com/prohmpiriya/ringside/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// pgForeignKeyViolation is the SQLSTATE for a missing referenced row
const pgForeignKeyViolation = "23503"

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db database.DBTX
}

// NewPostgresOrderRepository creates a new PostgresOrderRepository
func NewPostgresOrderRepository(db database.DBTX) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

// SubmitOrder inserts the order and its items in one transaction.
// Resubmitting the same ID is a no-op so callers may retry.
func (r *PostgresOrderRepository) SubmitOrder(ctx context.Context, order *domain.Order) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.submit")
	defer span.End()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("event_id", order.EventID),
		attribute.Int64("total_price", order.TotalPrice),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, event_id, buyer_id, order_type, total_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`,
		order.ID,
		order.EventID,
		order.BuyerID,
		order.OrderType,
		order.TotalPrice,
		string(order.Status),
		order.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return "", fmt.Errorf("%w: %s", domain.ErrEventNotFound, order.EventID)
		}
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, item := range order.Items {
		batch.Queue(`
			INSERT INTO order_items (
				order_id, line_no, ref_id, ref_model, seat_zone_id,
				zone_name, quantity, price_at_order, date
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (order_id, line_no) DO NOTHING
		`,
			order.ID,
			i+1,
			item.RefID,
			item.RefModel,
			item.SeatZoneID,
			item.ZoneName,
			item.Quantity,
			item.PriceAtOrder,
			string(item.Date),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to insert order items: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		telemetry.SetSpanError(ctx, err)
		return "", fmt.Errorf("failed to commit order: %w", err)
	}
	return order.ID, nil
}

// GetOrder loads an order and its items
func (r *PostgresOrderRepository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.get")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	order := &domain.Order{}
	var status string
	err := r.db.QueryRow(ctx, `
		SELECT id, event_id, buyer_id, order_type, total_price, status, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID,
		&order.EventID,
		&order.BuyerID,
		&order.OrderType,
		&order.TotalPrice,
		&status,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		telemetry.SetSpanError(ctx, err)
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	order.Status = domain.OrderStatus(status)

	rows, err := r.db.Query(ctx, `
		SELECT ref_id, ref_model, seat_zone_id, zone_name, quantity, price_at_order, date::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY line_no
	`, id)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var (
			item domain.OrderItem
			date string
		)
		if err := rows.Scan(
			&item.RefID,
			&item.RefModel,
			&item.SeatZoneID,
			&item.ZoneName,
			&item.Quantity,
			&item.PriceAtOrder,
			&date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Date = domain.Date(date)
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}
	return order, nil
}

// CancelOrder sets the order status to cancelled
func (r *PostgresOrderRepository) CancelOrder(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.order.cancel")
	defer span.End()
	span.SetAttributes(attribute.String("order_id", id))

	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE orders SET status = $2
		WHERE id = $1
	`, id, string(domain.OrderStatusCancelled))
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return fmt.Errorf("failed to cancel order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return nil
}
