// Package booking implements the reservation confirmation protocol and
// lifecycle operations over the authoritative store.
package booking

import (
	"context"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Store is the authoritative persistence the protocol commits against.
// ConfirmBooking must be atomic: availability re-check plus insert in one
// transaction, losers surfacing domain.ErrSeatConflict. Implemented by
// crdb.Repository; tests use an in-memory fake.
type Store interface {
	ActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	ActiveBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	IsSeatAvailable(ctx context.Context, seat int, band domain.TimeBand, start, end time.Time) (bool, error)
	ConfirmBooking(ctx context.Context, b domain.Booking) error
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error)
	BookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
}

// Auditor records booking state changes for the audit trail. Best effort;
// a failed audit write never fails the booking.
type Auditor interface {
	BookingCreated(ctx context.Context, b domain.Booking) error
	BookingCancelled(ctx context.Context, b domain.Booking) error
}

type Service struct {
	store  Store
	audit  Auditor
	logger observability.Logger
}

func NewService(store Store, audit Auditor, logger observability.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// Book runs the confirmation protocol for one attempt:
//
//  1. resolve the caller's active subscription,
//  2. gate the requested band against the plan's compatible set,
//  3. reject a second booking in the same band,
//  4. reject re-booking a seat the caller already holds,
//  5. optimistic availability pre-check (UX fast-fail only),
//  6. atomic purge + re-check + insert in the store,
//  7. audit and return the created booking.
//
// The booking always spans the subscription's entire validity window.
func (s *Service) Book(ctx context.Context, userID uuid.UUID, seat int, band domain.TimeBand) (*domain.Booking, error) {
	if !domain.ValidSeat(seat) || !domain.ValidBand(band) {
		return nil, domain.ErrInvalidInput
	}

	sub, err := s.store.ActiveSubscription(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.reject(domain.ErrNoActivePlan)
	}
	if err != nil {
		return nil, err
	}

	if !domain.BandCompatible(sub.PlanType, band) {
		return nil, s.reject(domain.ErrPlanIncompatible)
	}

	held, err := s.store.ActiveBookingsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, h := range held {
		if h.Band == band {
			return nil, s.reject(domain.ErrAlreadyHasBandSlot)
		}
	}
	for _, h := range held {
		if h.SeatNumber == seat {
			return nil, s.reject(domain.ErrSeatAlreadyMine)
		}
	}

	// Fast-fail pre-check. Not the correctness gate; two callers can both
	// pass it, the transactional confirm below decides the winner.
	free, err := s.store.IsSeatAvailable(ctx, seat, band, sub.StartDate, sub.EndDate)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, s.reject(domain.ErrSeatConflict)
	}

	b := domain.NewBooking(seat, band, *sub)
	err = s.store.ConfirmBooking(ctx, b)
	if errors.Is(err, domain.ErrSerializationFailure) {
		// Lost the serializable race: same outcome as an overlap.
		return nil, s.reject(domain.ErrSeatConflict)
	}
	if err != nil {
		if errors.Is(err, domain.ErrSeatConflict) {
			return nil, s.reject(err)
		}
		return nil, err
	}

	observability.BookingAttempts.WithLabelValues("confirmed").Inc()
	if s.audit != nil {
		if aerr := s.audit.BookingCreated(ctx, b); aerr != nil {
			s.logger.WithField("booking_id", b.ID).Warn("audit write failed: ", aerr)
		}
	}
	return &b, nil
}

// Cancel flips the caller's active booking to cancelled.
func (s *Service) Cancel(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error) {
	b, err := s.store.CancelBooking(ctx, bookingID, userID)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		if aerr := s.audit.BookingCancelled(ctx, *b); aerr != nil {
			s.logger.WithField("booking_id", b.ID).Warn("audit write failed: ", aerr)
		}
	}
	return b, nil
}

// Bookings returns the caller's booking history, lazy expiry applied.
func (s *Service) Bookings(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	return s.store.BookingsForUser(ctx, userID)
}

// SeatAvailability returns the bands still free on a seat for the
// caller's subscription window. Candidates are the plan's compatible
// bands, or every band when the inspection toggle is set; the toggle
// never changes what Book will accept.
func (s *Service) SeatAvailability(ctx context.Context, userID uuid.UUID, seat int, allBands bool) ([]domain.TimeBand, error) {
	if !domain.ValidSeat(seat) {
		return nil, domain.ErrInvalidInput
	}
	sub, err := s.store.ActiveSubscription(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNoActivePlan
	}
	if err != nil {
		return nil, err
	}

	candidates := domain.CompatibleBands(sub.PlanType)
	if allBands {
		candidates = domain.AllBands
	}
	free := make([]domain.TimeBand, 0, len(candidates))
	for _, band := range candidates {
		ok, err := s.store.IsSeatAvailable(ctx, seat, band, sub.StartDate, sub.EndDate)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, band)
		}
	}
	return free, nil
}

func (s *Service) reject(err error) error {
	observability.BookingAttempts.WithLabelValues(outcomeLabel(err)).Inc()
	return err
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActivePlan):
		return "no_active_plan"
	case errors.Is(err, domain.ErrPlanIncompatible):
		return "plan_incompatible"
	case errors.Is(err, domain.ErrAlreadyHasBandSlot):
		return "already_has_band_slot"
	case errors.Is(err, domain.ErrSeatAlreadyMine):
		return "seat_already_mine"
	case errors.Is(err, domain.ErrSeatConflict):
		return "seat_conflict"
	default:
		return "error"
	}
}
