package repository

// Schema creates the tables used by the Postgres repositories. Weight
// classes (with their matches) and seat zones (with their seats) are
// stored as JSONB documents on the event row.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id             UUID PRIMARY KEY,
		organizer_id   TEXT NOT NULL,
		location_id    TEXT NOT NULL,
		name           TEXT NOT NULL,
		level          TEXT NOT NULL,
		start_date     DATE NOT NULL,
		end_date       DATE NOT NULL,
		description    TEXT NOT NULL DEFAULT '',
		posters        JSONB NOT NULL DEFAULT '[]',
		status         TEXT NOT NULL,
		mode           TEXT NOT NULL,
		weight_classes JSONB NOT NULL DEFAULT '[]',
		seat_zones     JSONB NOT NULL DEFAULT '[]',
		created_at     TIMESTAMPTZ NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL,
		CHECK (start_date <= end_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_organizer_id ON events (organizer_id)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id          UUID PRIMARY KEY,
		event_id    UUID NOT NULL REFERENCES events (id),
		buyer_id    TEXT NOT NULL,
		order_type  TEXT NOT NULL,
		total_price BIGINT NOT NULL CHECK (total_price >= 0),
		status      TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_buyer_id ON orders (buyer_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id       UUID NOT NULL REFERENCES orders (id) ON DELETE CASCADE,
		line_no        INT NOT NULL,
		ref_id         TEXT NOT NULL,
		ref_model      TEXT NOT NULL,
		seat_zone_id   TEXT NOT NULL,
		zone_name      TEXT NOT NULL,
		quantity       INT NOT NULL CHECK (quantity > 0),
		price_at_order BIGINT NOT NULL,
		date           DATE NOT NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
}
