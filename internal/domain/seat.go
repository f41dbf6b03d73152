package domain

const (
	// SeatCount is the fixed inventory size. Seats are numbered 1..SeatCount.
	SeatCount = 40
)

// Seat is a physical seat. Floor and row are static display attributes;
// occupancy is derived entirely from Booking rows.
type Seat struct {
	Number   int
	Floor    int
	RowLabel string
}

// ValidSeat reports whether the seat number is within the inventory.
func ValidSeat(n int) bool {
	return n >= 1 && n <= SeatCount
}

// SeatDisplayStatus is a per-viewer presentation value derived from the
// current booking set. It is never stored.
type SeatDisplayStatus string

const (
	SeatAvailable       SeatDisplayStatus = "available"
	SeatPartiallyBooked SeatDisplayStatus = "partially-booked"
	SeatFullyBooked     SeatDisplayStatus = "fully-booked"
	SeatMine            SeatDisplayStatus = "mine"
	SeatRestricted      SeatDisplayStatus = "restricted"
)
