package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func activeBooking(user uuid.UUID, band TimeBand) Booking {
	return Booking{ID: uuid.New(), UserID: user, Band: band, Status: BookingActive}
}

func TestDeriveSeatStatus(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()

	t.Run("no bookings, compatible plan", func(t *testing.T) {
		got := DeriveSeatStatus(nil, viewer, CompatibleBands(PlanMorning))
		assert.Equal(t, SeatAvailable, got)
	})

	t.Run("viewer holds the seat", func(t *testing.T) {
		bookings := []Booking{activeBooking(viewer, BandMorning)}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanMorning))
		assert.Equal(t, SeatMine, got)
	})

	t.Run("mine wins over fully booked", func(t *testing.T) {
		bookings := []Booking{
			activeBooking(viewer, BandMorning),
			activeBooking(other, BandEvening),
			activeBooking(other, BandNight),
			activeBooking(other, BandFullDay),
		}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanMorning))
		assert.Equal(t, SeatMine, got)
	})

	t.Run("all four bands taken by others", func(t *testing.T) {
		bookings := []Booking{
			activeBooking(other, BandFullDay),
			activeBooking(other, BandMorning),
			activeBooking(other, BandEvening),
			activeBooking(other, BandNight),
		}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanFlexible))
		assert.Equal(t, SeatFullyBooked, got)
	})

	t.Run("partially booked, viewer still has a free band", func(t *testing.T) {
		bookings := []Booking{activeBooking(other, BandMorning)}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanDay))
		assert.Equal(t, SeatPartiallyBooked, got)
	})

	t.Run("restricted when viewer's only band is taken", func(t *testing.T) {
		bookings := []Booking{activeBooking(other, BandMorning)}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanMorning))
		assert.Equal(t, SeatRestricted, got)
	})

	t.Run("restricted for viewer without a plan", func(t *testing.T) {
		got := DeriveSeatStatus(nil, viewer, CompatibleBands(PlanType("unknown")))
		assert.Equal(t, SeatRestricted, got)
	})

	t.Run("terminal rows are not occupancy", func(t *testing.T) {
		bookings := []Booking{
			{ID: uuid.New(), UserID: other, Band: BandMorning, Status: BookingCancelled},
			{ID: uuid.New(), UserID: viewer, Band: BandEvening, Status: BookingExpired},
		}
		got := DeriveSeatStatus(bookings, viewer, CompatibleBands(PlanMorning))
		assert.Equal(t, SeatAvailable, got)
	})
}

func TestFreeBands(t *testing.T) {
	booked := map[TimeBand]bool{BandMorning: true}
	free := FreeBands(CompatibleBands(PlanFlexible), booked)
	assert.Equal(t, []TimeBand{BandEvening, BandNight, BandFullDay}, free)
	assert.Empty(t, FreeBands(CompatibleBands(PlanMorning), booked))
}

func TestBookedBands(t *testing.T) {
	u := uuid.New()
	bands := BookedBands([]Booking{
		activeBooking(u, BandMorning),
		activeBooking(u, BandMorning),
		{ID: uuid.New(), UserID: u, Band: BandNight, Status: BookingCancelled},
	})
	assert.Equal(t, map[TimeBand]bool{BandMorning: true}, bands)
}
