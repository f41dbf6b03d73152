package domain

import "github.com/google/uuid"

// BookedBands collects the distinct bands held by active bookings on one
// seat. Terminal rows must be filtered out by the caller's query.
func BookedBands(bookings []Booking) map[TimeBand]bool {
	booked := make(map[TimeBand]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == BookingActive {
			booked[b.Band] = true
		}
	}
	return booked
}

// FreeBands returns the candidate bands not already held by an active
// booking, preserving candidate order.
func FreeBands(candidates []TimeBand, booked map[TimeBand]bool) []TimeBand {
	free := make([]TimeBand, 0, len(candidates))
	for _, band := range candidates {
		if !booked[band] {
			free = append(free, band)
		}
	}
	return free
}

// DeriveSeatStatus computes the display status of one seat for one viewer
// from the seat's active bookings and the viewer's compatible bands.
//
// Precedence: a seat the viewer holds is always "mine"; a seat with all
// bands taken is "fully-booked"; a seat whose remaining bands leave the
// viewer nothing bookable is "restricted" even when only partially taken,
// since a partial marker would suggest the viewer could still book it.
func DeriveSeatStatus(bookings []Booking, viewerID uuid.UUID, viewerBands []TimeBand) SeatDisplayStatus {
	booked := make(map[TimeBand]bool, len(bookings))
	for _, b := range bookings {
		if b.Status != BookingActive {
			continue
		}
		if b.UserID == viewerID {
			return SeatMine
		}
		booked[b.Band] = true
	}
	if len(booked) == len(AllBands) {
		return SeatFullyBooked
	}
	if len(FreeBands(viewerBands, booked)) == 0 {
		return SeatRestricted
	}
	if len(booked) > 0 {
		return SeatPartiallyBooked
	}
	return SeatAvailable
}
