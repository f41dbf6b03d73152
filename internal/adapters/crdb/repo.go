package crdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	SerializationFailureCode = "40001"
)

// Repository is the authoritative store for subscriptions and bookings.
// The bookings table carries a partial unique index on
// (seat_number, time_band, start_date, end_date) WHERE status = 'active';
// together with serializable transactions it guarantees that of N racing
// confirmations for an overlapping range exactly one wins.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	timer := prometheus.NewTimer(observability.DBTxDuration)
	defer timer.ObserveDuration()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SET TRANSACTION ISOLATION LEVEL SERIALIZABLE")
	if err != nil {
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}

	err = fn(tx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == SerializationFailureCode {
			return domain.ErrSerializationFailure
		}
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return nil
}

// ActiveSubscription returns the most recently created active subscription
// for a user. Expiry is lazy: rows whose end date has passed are filtered
// on read, not swept eagerly.
func (r *Repository) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, plan_id, plan_type, status, start_date, end_date, created_at
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active' AND end_date >= current_date
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.PlanType, &sub.Status,
		&sub.StartDate, &sub.EndDate, &sub.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return &sub, nil
}

// ActivateSubscription inserts a new active subscription and cancels any
// prior active rows for the same user, emitting subscription.changed.
func (r *Repository) ActivateSubscription(ctx context.Context, sub domain.Subscription) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			UPDATE subscriptions SET status = 'cancelled'
			WHERE user_id = $1 AND status = 'active'
		`, sub.UserID)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO subscriptions (id, user_id, plan_id, plan_type, status, start_date, end_date)
			VALUES ($1, $2, $3, $4, 'active', $5, $6)
		`, sub.ID, sub.UserID, sub.PlanID, sub.PlanType, domain.DateOf(sub.StartDate), domain.DateOf(sub.EndDate))
		if err != nil {
			return err
		}
		return r.insertChangeEvent(ctx, tx, "subscription", sub.ID, "subscription.changed", map[string]interface{}{
			"subscription_id": sub.ID,
			"user_id":         sub.UserID,
			"plan_type":       sub.PlanType,
		})
	})
}

// IsSeatAvailable reports whether no active booking on (seat, band)
// overlaps the closed date range [start, end]. Active rows already past
// their end date are not occupancy even before the expiry flip reaches
// them.
func (r *Repository) IsSeatAvailable(ctx context.Context, seat int, band domain.TimeBand, start, end time.Time) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE seat_number = $1 AND time_band = $2 AND status = 'active'
			  AND start_date <= $4 AND end_date >= $3
			  AND end_date >= current_date
		)
	`, seat, band, domain.DateOf(start), domain.DateOf(end)).Scan(&taken)
	if err != nil {
		return false, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return !taken, nil
}

// ConfirmBooking is the atomic commit step of the confirmation protocol:
// purge terminal rows for the exact tuple, re-check the overlap, insert
// guarded by the partial unique index, and record the change event, all
// inside one serializable transaction. A lost race surfaces as
// ErrSeatConflict.
func (r *Repository) ConfirmBooking(ctx context.Context, b domain.Booking) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		// Terminal rows are retained for audit until a re-insert needs the
		// exact slot; purge them so they cannot trip the uniqueness invariant.
		_, err := tx.Exec(ctx, `
			DELETE FROM bookings
			WHERE seat_number = $1 AND time_band = $2
			  AND start_date = $3 AND end_date = $4
			  AND status IN ('cancelled', 'expired')
		`, b.SeatNumber, b.Band, b.StartDate, b.EndDate)
		if err != nil {
			return err
		}

		var taken bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE seat_number = $1 AND time_band = $2 AND status = 'active'
				  AND start_date <= $4 AND end_date >= $3
				  AND end_date >= current_date
			)
		`, b.SeatNumber, b.Band, b.StartDate, b.EndDate).Scan(&taken)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrSeatConflict
		}

		result, err := tx.Exec(ctx, `
			INSERT INTO bookings (id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'active')
			ON CONFLICT (seat_number, time_band, start_date, end_date) WHERE status = 'active' DO NOTHING
		`, b.ID, b.SeatNumber, b.UserID, b.SubscriptionID, b.Band, b.StartDate, b.EndDate)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return domain.ErrSeatConflict
		}

		return r.insertChangeEvent(ctx, tx, "booking", b.ID, "booking.created", map[string]interface{}{
			"booking_id":  b.ID,
			"seat_number": b.SeatNumber,
			"time_band":   b.Band,
			"user_id":     b.UserID,
		})
	})
}

// CancelBooking flips the caller's active booking to cancelled. Dates are
// never touched; cancellation only moves the status field.
func (r *Repository) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error) {
	var b domain.Booking
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE bookings SET status = 'cancelled'
			WHERE id = $1 AND user_id = $2 AND status = 'active'
			RETURNING id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status, created_at
		`, bookingID, userID).Scan(&b.ID, &b.SeatNumber, &b.UserID, &b.SubscriptionID,
			&b.Band, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
		if err == pgx.ErrNoRows {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		return r.insertChangeEvent(ctx, tx, "booking", b.ID, "booking.cancelled", map[string]interface{}{
			"booking_id":  b.ID,
			"seat_number": b.SeatNumber,
			"time_band":   b.Band,
		})
	})
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveBookings returns every booking currently counting as occupancy,
// for status aggregation across the full seat catalog.
func (r *Repository) ActiveBookings(ctx context.Context) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `
		SELECT id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status, created_at
		FROM bookings
		WHERE status = 'active' AND end_date >= current_date
	`)
}

// ActiveBookingsForSeat returns the active bookings on one seat.
func (r *Repository) ActiveBookingsForSeat(ctx context.Context, seat int) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `
		SELECT id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status, created_at
		FROM bookings
		WHERE seat_number = $1 AND status = 'active' AND end_date >= current_date
	`, seat)
}

// ActiveBookingsForUser returns the caller's current bookings, used by the
// pre-checks of the confirmation protocol.
func (r *Repository) ActiveBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `
		SELECT id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status, created_at
		FROM bookings
		WHERE user_id = $1 AND status = 'active' AND end_date >= current_date
	`, userID)
}

// BookingsForUser returns the caller's bookings in every status, newest
// first. Active rows past their end date are reported as expired without
// waiting for the flip.
func (r *Repository) BookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	bookings, err := r.queryBookings(ctx, `
		SELECT id, seat_number, user_id, subscription_id, time_band, start_date, end_date, status, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range bookings {
		if bookings[i].Status == domain.BookingActive && bookings[i].ExpiredAt(now) {
			bookings[i].Status = domain.BookingExpired
		}
	}
	return bookings, nil
}

// ExpireDue flips active bookings and subscriptions whose end date has
// passed and records booking.expired events. Callers treat this as an
// opportunistic tidy-up; reads never depend on it.
func (r *Repository) ExpireDue(ctx context.Context) (int, error) {
	var flipped int
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			UPDATE bookings SET status = 'expired'
			WHERE status = 'active' AND end_date < current_date
			RETURNING id, seat_number, time_band
		`)
		if err != nil {
			return err
		}
		type expiredRow struct {
			id   uuid.UUID
			seat int
			band domain.TimeBand
		}
		var done []expiredRow
		for rows.Next() {
			var e expiredRow
			if err := rows.Scan(&e.id, &e.seat, &e.band); err != nil {
				rows.Close()
				return err
			}
			done = append(done, e)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			UPDATE subscriptions SET status = 'expired'
			WHERE status = 'active' AND end_date < current_date
		`)
		if err != nil {
			return err
		}

		for _, e := range done {
			err := r.insertChangeEvent(ctx, tx, "booking", e.id, "booking.expired", map[string]interface{}{
				"booking_id":  e.id,
				"seat_number": e.seat,
				"time_band":   e.band,
			})
			if err != nil {
				return err
			}
		}
		flipped = len(done)
		return nil
	})
	return flipped, err
}

// ListPlans returns the purchasable plan catalog.
func (r *Repository) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, plan_type, name, price_cents, duration_months
		FROM plans ORDER BY price_cents ASC
	`)
	if err != nil {
		return nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var plans []domain.Plan
	for rows.Next() {
		var p domain.Plan
		if err := rows.Scan(&p.ID, &p.Type, &p.Name, &p.PriceCents, &p.DurationMonths); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]domain.Booking, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		err := rows.Scan(&b.ID, &b.SeatNumber, &b.UserID, &b.SubscriptionID,
			&b.Band, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *Repository) insertChangeEvent(ctx context.Context, tx pgx.Tx, aggregateType string, aggregateID uuid.UUID, eventType string, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return r.InsertOutbox(ctx, tx, OutboxRecord{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
		DedupeKey:     uuid.New().String(),
	})
}
