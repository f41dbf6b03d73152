package status

import (
	"context"
	"testing"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	bookings []domain.Booking
	subs     map[uuid.UUID]domain.Subscription
}

func (f *fakeStore) ActiveBookings(ctx context.Context) ([]domain.Booking, error) {
	return f.bookings, nil
}

func (f *fakeStore) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	sub, ok := f.subs[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sub, nil
}

type fakeCatalog struct {
	seats []domain.Seat
}

func (f *fakeCatalog) ListSeats(ctx context.Context) ([]domain.Seat, error) {
	return f.seats, nil
}

type fakeCache struct {
	data []byte
	sets int
}

func (f *fakeCache) GetOccupancy(ctx context.Context) ([]byte, error) { return f.data, nil }

func (f *fakeCache) SetOccupancy(ctx context.Context, data []byte, ttl time.Duration) error {
	f.data = data
	f.sets++
	return nil
}

func seats(n int) []domain.Seat {
	out := make([]domain.Seat, n)
	for i := range out {
		out[i] = domain.Seat{Number: i + 1, Floor: 1, RowLabel: "A"}
	}
	return out
}

func active(seat int, user uuid.UUID, band domain.TimeBand) domain.Booking {
	return domain.Booking{ID: uuid.New(), SeatNumber: seat, UserID: user, Band: band, Status: domain.BookingActive}
}

func TestOverview(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()

	store := &fakeStore{
		bookings: []domain.Booking{
			active(1, viewer, domain.BandMorning),
			active(2, other, domain.BandFullDay),
			active(2, other, domain.BandMorning),
			active(2, other, domain.BandEvening),
			active(2, other, domain.BandNight),
			active(3, other, domain.BandEvening),
		},
		subs: map[uuid.UUID]domain.Subscription{
			viewer: {ID: uuid.New(), UserID: viewer, PlanType: domain.PlanEvening, Status: domain.SubscriptionActive},
		},
	}
	agg := NewAggregator(store, &fakeCatalog{seats: seats(4)}, nil, time.Minute, observability.NewLogger())

	views, err := agg.Overview(context.Background(), viewer, false)
	require.NoError(t, err)
	require.Len(t, views, 4)

	assert.Equal(t, domain.SeatMine, views[0].Status)
	assert.Equal(t, domain.SeatFullyBooked, views[1].Status)
	// Viewer's only compatible band is taken on seat 3.
	assert.Equal(t, domain.SeatRestricted, views[2].Status)
	assert.Equal(t, domain.SeatAvailable, views[3].Status)
	assert.Equal(t, []domain.TimeBand{domain.BandEvening}, views[3].FreeBands)
}

func TestOverview_AllBandsToggleWidensFreeBands(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()

	store := &fakeStore{
		bookings: []domain.Booking{active(1, other, domain.BandMorning)},
		subs: map[uuid.UUID]domain.Subscription{
			viewer: {ID: uuid.New(), UserID: viewer, PlanType: domain.PlanNight, Status: domain.SubscriptionActive},
		},
	}
	agg := NewAggregator(store, &fakeCatalog{seats: seats(1)}, nil, time.Minute, observability.NewLogger())

	views, err := agg.Overview(context.Background(), viewer, true)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, []domain.TimeBand{domain.BandFullDay, domain.BandEvening, domain.BandNight}, views[0].FreeBands)
	// Status still derives from the viewer's own plan, not the toggle.
	assert.Equal(t, domain.SeatPartiallyBooked, views[0].Status)
}

func TestOverview_NoPlanViewerIsRestricted(t *testing.T) {
	viewer := uuid.New()
	store := &fakeStore{subs: map[uuid.UUID]domain.Subscription{}}
	agg := NewAggregator(store, &fakeCatalog{seats: seats(2)}, nil, time.Minute, observability.NewLogger())

	views, err := agg.Overview(context.Background(), viewer, false)
	require.NoError(t, err)
	for _, v := range views {
		assert.Equal(t, domain.SeatRestricted, v.Status)
		assert.Empty(t, v.FreeBands)
	}
}

func TestRefreshWritesSnapshotAndOverviewReadsIt(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	cache := &fakeCache{}

	store := &fakeStore{
		bookings: []domain.Booking{active(7, other, domain.BandNight)},
		subs: map[uuid.UUID]domain.Subscription{
			viewer: {ID: uuid.New(), UserID: viewer, PlanType: domain.PlanFlexible, Status: domain.SubscriptionActive},
		},
	}
	agg := NewAggregator(store, &fakeCatalog{seats: seats(8)}, cache, time.Minute, observability.NewLogger())

	require.NoError(t, agg.Refresh(context.Background()))
	assert.Equal(t, 1, cache.sets)

	// Mutate the store after the snapshot; Overview must serve cached data.
	store.bookings = nil
	views, err := agg.Overview(context.Background(), viewer, false)
	require.NoError(t, err)
	assert.Equal(t, domain.SeatPartiallyBooked, views[6].Status)
}
