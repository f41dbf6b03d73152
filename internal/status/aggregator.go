// Package status derives per-seat, per-viewer display state from the
// current booking set. Derivation is pure; this package only wires it to
// the store, the seat catalog and the snapshot cache.
package status

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type Store interface {
	ActiveBookings(ctx context.Context) ([]domain.Booking, error)
	ActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
}

type Catalog interface {
	ListSeats(ctx context.Context) ([]domain.Seat, error)
}

// Cache stores the viewer-independent occupancy snapshot. May be nil, in
// which case every read goes to the store.
type Cache interface {
	GetOccupancy(ctx context.Context) ([]byte, error)
	SetOccupancy(ctx context.Context, data []byte, ttl time.Duration) error
}

// Occupant is one active booking's footprint on a seat, the minimum
// needed to derive display status for any viewer.
type Occupant struct {
	Band   domain.TimeBand `json:"band"`
	UserID uuid.UUID       `json:"user_id"`
}

// Occupancy maps seat number to its active occupants.
type Occupancy map[int][]Occupant

// SeatView is one seat as presented to one viewer.
type SeatView struct {
	Seat      domain.Seat              `json:"seat"`
	Status    domain.SeatDisplayStatus `json:"status"`
	FreeBands []domain.TimeBand        `json:"free_bands"`
}

type Aggregator struct {
	store    Store
	catalog  Catalog
	cache    Cache
	cacheTTL time.Duration
	logger   observability.Logger
}

func NewAggregator(store Store, catalog Catalog, cache Cache, cacheTTL time.Duration, logger observability.Logger) *Aggregator {
	return &Aggregator{store: store, catalog: catalog, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Overview computes the display status of the full seat catalog for one
// viewer. With allBands set, free bands widen from the viewer's plan to
// every band; this is inspection only and changes nothing about what a
// booking attempt will accept.
func (a *Aggregator) Overview(ctx context.Context, viewerID uuid.UUID, allBands bool) ([]SeatView, error) {
	var (
		seats []domain.Seat
		occ   Occupancy
		sub   *domain.Subscription
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		seats, err = a.catalog.ListSeats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		occ, err = a.occupancy(gctx)
		return err
	})
	g.Go(func() error {
		s, err := a.store.ActiveSubscription(gctx, viewerID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		sub = s
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var viewerBands []domain.TimeBand
	if sub != nil {
		viewerBands = domain.CompatibleBands(sub.PlanType)
	}
	candidates := viewerBands
	if allBands {
		candidates = domain.AllBands
	}

	views := make([]SeatView, 0, len(seats))
	for _, seat := range seats {
		occupants := occ[seat.Number]
		bookings := make([]domain.Booking, len(occupants))
		booked := make(map[domain.TimeBand]bool, len(occupants))
		for i, o := range occupants {
			bookings[i] = domain.Booking{UserID: o.UserID, Band: o.Band, Status: domain.BookingActive}
			booked[o.Band] = true
		}
		views = append(views, SeatView{
			Seat:      seat,
			Status:    domain.DeriveSeatStatus(bookings, viewerID, viewerBands),
			FreeBands: domain.FreeBands(candidates, booked),
		})
	}
	return views, nil
}

// Refresh recomputes the occupancy snapshot from the store and writes it
// to the cache. Called by the status worker on each change-feed event.
func (a *Aggregator) Refresh(ctx context.Context) error {
	occ, err := a.load(ctx)
	if err != nil {
		return err
	}
	if a.cache != nil {
		data, err := json.Marshal(occ)
		if err != nil {
			return err
		}
		if err := a.cache.SetOccupancy(ctx, data, a.cacheTTL); err != nil {
			return err
		}
	}
	observability.StatusRefreshes.Inc()
	return nil
}

func (a *Aggregator) occupancy(ctx context.Context) (Occupancy, error) {
	if a.cache != nil {
		data, err := a.cache.GetOccupancy(ctx)
		if err != nil {
			a.logger.Warn("occupancy cache read failed: ", err)
		} else if data != nil {
			var occ Occupancy
			if err := json.Unmarshal(data, &occ); err == nil {
				return occ, nil
			}
		}
	}
	return a.load(ctx)
}

func (a *Aggregator) load(ctx context.Context) (Occupancy, error) {
	bookings, err := a.store.ActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	occ := make(Occupancy)
	for _, b := range bookings {
		occ[b.SeatNumber] = append(occ[b.SeatNumber], Occupant{Band: b.Band, UserID: b.UserID})
	}
	return occ, nil
}
