package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Destroyerg0d/studyhub-reservations/internal/domain"
	"github.com/Destroyerg0d/studyhub-reservations/internal/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore enforces the same invariants as the crdb repository under a
// single mutex, which makes it a faithful stand-in for the atomic
// confirm step.
type memStore struct {
	mu       sync.Mutex
	subs     map[uuid.UUID]domain.Subscription
	bookings map[uuid.UUID]domain.Booking
}

func newMemStore() *memStore {
	return &memStore{
		subs:     make(map[uuid.UUID]domain.Subscription),
		bookings: make(map[uuid.UUID]domain.Booking),
	}
}

func (m *memStore) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[userID]
	if !ok || sub.Status != domain.SubscriptionActive || sub.ExpiredAt(time.Now()) {
		return nil, domain.ErrNotFound
	}
	out := sub
	return &out, nil
}

func (m *memStore) ActiveBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID && b.Status == domain.BookingActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) IsSeatAvailable(ctx context.Context, seat int, band domain.TimeBand, start, end time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.overlapLocked(seat, band, start, end), nil
}

func (m *memStore) ConfirmBooking(ctx context.Context, b domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.bookings {
		if existing.Status.Terminal() && existing.SeatNumber == b.SeatNumber && existing.Band == b.Band &&
			existing.StartDate.Equal(b.StartDate) && existing.EndDate.Equal(b.EndDate) {
			delete(m.bookings, id)
		}
	}
	if m.overlapLocked(b.SeatNumber, b.Band, b.StartDate, b.EndDate) {
		return domain.ErrSeatConflict
	}
	m.bookings[b.ID] = b
	return nil
}

func (m *memStore) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[bookingID]
	if !ok || b.UserID != userID || b.Status != domain.BookingActive {
		return nil, domain.ErrNotFound
	}
	b.Status = domain.BookingCancelled
	m.bookings[bookingID] = b
	return &b, nil
}

func (m *memStore) BookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) overlapLocked(seat int, band domain.TimeBand, start, end time.Time) bool {
	for _, b := range m.bookings {
		if b.Status == domain.BookingActive && b.SeatNumber == seat && b.Band == band && b.Overlaps(start, end) {
			return true
		}
	}
	return false
}

func (m *memStore) addSubscription(userID uuid.UUID, planType domain.PlanType, start, end time.Time) domain.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := domain.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    uuid.New(),
		PlanType:  planType,
		Status:    domain.SubscriptionActive,
		StartDate: start,
		EndDate:   end,
	}
	m.subs[userID] = sub
	return sub
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func futureWindow() (time.Time, time.Time) {
	start := domain.DateOf(time.Now())
	return start, start.AddDate(0, 1, 0)
}

func newTestService(store Store) *Service {
	return NewService(store, nil, observability.NewLogger())
}

func TestBook_NoActivePlan(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.Book(context.Background(), uuid.New(), 5, domain.BandMorning)
	assert.ErrorIs(t, err, domain.ErrNoActivePlan)
}

func TestBook_ExpiredSubscriptionIsNoPlan(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	store.addSubscription(user, domain.PlanMorning, date(2024, 1, 1), date(2024, 1, 31))

	svc := newTestService(store)
	_, err := svc.Book(context.Background(), user, 5, domain.BandMorning)
	assert.ErrorIs(t, err, domain.ErrNoActivePlan)
}

func TestBook_PlanIncompatible(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	start, end := futureWindow()
	store.addSubscription(user, domain.PlanMorning, start, end)

	svc := newTestService(store)
	_, err := svc.Book(context.Background(), user, 5, domain.BandEvening)
	assert.ErrorIs(t, err, domain.ErrPlanIncompatible)
}

func TestBook_FlexiblePlanSucceeds(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	start, end := futureWindow()
	sub := store.addSubscription(user, domain.PlanFlexible, start, end)

	svc := newTestService(store)
	b, err := svc.Book(context.Background(), user, 5, domain.BandNight)
	require.NoError(t, err)

	assert.Equal(t, 5, b.SeatNumber)
	assert.Equal(t, domain.BandNight, b.Band)
	assert.Equal(t, sub.ID, b.SubscriptionID)
	assert.True(t, b.StartDate.Equal(domain.DateOf(sub.StartDate)))
	assert.True(t, b.EndDate.Equal(domain.DateOf(sub.EndDate)))
	assert.Equal(t, domain.BookingActive, b.Status)
}

func TestBook_SeatConflictForOverlappingRange(t *testing.T) {
	store := newMemStore()
	start, end := futureWindow()

	userX := uuid.New()
	store.addSubscription(userX, domain.PlanNight, start, end)
	svc := newTestService(store)
	_, err := svc.Book(context.Background(), userX, 5, domain.BandNight)
	require.NoError(t, err)

	userY := uuid.New()
	store.addSubscription(userY, domain.PlanNight, start.AddDate(0, 0, 10), end.AddDate(0, 0, 10))
	_, err = svc.Book(context.Background(), userY, 5, domain.BandNight)
	assert.ErrorIs(t, err, domain.ErrSeatConflict)
}

func TestBook_CancelledRowDoesNotBlock(t *testing.T) {
	store := newMemStore()
	start, end := futureWindow()

	userX := uuid.New()
	store.addSubscription(userX, domain.PlanNight, start, end)
	svc := newTestService(store)
	b, err := svc.Book(context.Background(), userX, 5, domain.BandNight)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, userX)
	require.NoError(t, err)

	userY := uuid.New()
	store.addSubscription(userY, domain.PlanNight, start, end)
	got, err := svc.Book(context.Background(), userY, 5, domain.BandNight)
	require.NoError(t, err)
	assert.Equal(t, userY, got.UserID)
}

func TestBook_SeatAlreadyMine(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	start, end := futureWindow()
	store.addSubscription(user, domain.PlanDay, start, end)

	svc := newTestService(store)
	_, err := svc.Book(context.Background(), user, 5, domain.BandMorning)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), user, 5, domain.BandEvening)
	assert.ErrorIs(t, err, domain.ErrSeatAlreadyMine)
}

func TestBook_AlreadyHasBandSlot(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	start, end := futureWindow()
	store.addSubscription(user, domain.PlanDay, start, end)

	svc := newTestService(store)
	_, err := svc.Book(context.Background(), user, 5, domain.BandMorning)
	require.NoError(t, err)

	_, err = svc.Book(context.Background(), user, 7, domain.BandMorning)
	assert.ErrorIs(t, err, domain.ErrAlreadyHasBandSlot)
}

func TestBook_InvalidInput(t *testing.T) {
	store := newMemStore()
	user := uuid.New()
	start, end := futureWindow()
	store.addSubscription(user, domain.PlanFlexible, start, end)

	svc := newTestService(store)
	_, err := svc.Book(context.Background(), user, 0, domain.BandMorning)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Book(context.Background(), user, 41, domain.BandMorning)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.Book(context.Background(), user, 5, domain.TimeBand("brunch"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Exactly one of N concurrent attempts for the same seat, band and
// overlapping range may win; the rest get SeatConflict.
func TestBook_RaceExactlyOneWinner(t *testing.T) {
	store := newMemStore()
	start, end := futureWindow()
	svc := newTestService(store)

	const attempts = 32
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		user := uuid.New()
		store.addSubscription(user, domain.PlanFlexible, start, end)
		wg.Add(1)
		go func(u uuid.UUID) {
			defer wg.Done()
			_, err := svc.Book(context.Background(), u, 12, domain.BandFullDay)
			results <- err
		}(user)
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, domain.ErrSeatConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, conflicts)
}

func TestCancel_NotFoundForForeignBooking(t *testing.T) {
	store := newMemStore()
	start, end := futureWindow()
	owner := uuid.New()
	store.addSubscription(owner, domain.PlanFlexible, start, end)

	svc := newTestService(store)
	b, err := svc.Book(context.Background(), owner, 3, domain.BandMorning)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), b.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSeatAvailability(t *testing.T) {
	store := newMemStore()
	start, end := futureWindow()

	other := uuid.New()
	store.addSubscription(other, domain.PlanMorning, start, end)
	svc := newTestService(store)
	_, err := svc.Book(context.Background(), other, 5, domain.BandMorning)
	require.NoError(t, err)

	viewer := uuid.New()
	store.addSubscription(viewer, domain.PlanDay, start, end)

	free, err := svc.SeatAvailability(context.Background(), viewer, 5, false)
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeBand{domain.BandEvening}, free)

	all, err := svc.SeatAvailability(context.Background(), viewer, 5, true)
	require.NoError(t, err)
	assert.Equal(t, []domain.TimeBand{domain.BandFullDay, domain.BandEvening, domain.BandNight}, all)
}

func TestSeatAvailability_NoPlan(t *testing.T) {
	svc := newTestService(newMemStore())
	_, err := svc.SeatAvailability(context.Background(), uuid.New(), 5, false)
	assert.ErrorIs(t, err, domain.ErrNoActivePlan)
}
