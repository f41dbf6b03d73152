package crdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL the repository depends on. The partial unique index
// on bookings is the uniqueness invariant: at most one active row per
// (seat, band, date range) tuple.
const Schema = `
CREATE TABLE IF NOT EXISTS plans (
	id UUID PRIMARY KEY,
	plan_type TEXT NOT NULL,
	name TEXT NOT NULL,
	price_cents INT NOT NULL,
	duration_months INT NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	plan_id UUID NOT NULL,
	plan_type TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('active', 'expired', 'cancelled')),
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS subscriptions_user_idx ON subscriptions (user_id, status, created_at DESC);

CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY,
	seat_number INT NOT NULL,
	user_id UUID NOT NULL,
	subscription_id UUID NOT NULL,
	time_band TEXT NOT NULL CHECK (time_band IN ('full_day', 'morning', 'evening', 'night')),
	start_date DATE NOT NULL,
	end_date DATE NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('active', 'cancelled', 'expired')),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS bookings_active_slot_idx
	ON bookings (seat_number, time_band, start_date, end_date)
	WHERE status = 'active';
CREATE INDEX IF NOT EXISTS bookings_seat_idx ON bookings (seat_number, status);
CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_id, status);

CREATE TABLE IF NOT EXISTS outbox (
	id UUID PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	payload_json BYTES NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at TIMESTAMPTZ,
	status TEXT NOT NULL CHECK (status IN ('NEW', 'PUBLISHED', 'FAILED')),
	dedupe_key TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS outbox_status_idx ON outbox (status, created_at);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
