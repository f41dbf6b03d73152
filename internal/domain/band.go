package domain

// TimeBand is one of the four fixed recurring daily reservation windows.
type TimeBand string

const (
	BandFullDay TimeBand = "full_day"
	BandMorning TimeBand = "morning"
	BandEvening TimeBand = "evening"
	BandNight   TimeBand = "night"
)

// AllBands lists every bookable band in display order.
var AllBands = []TimeBand{BandFullDay, BandMorning, BandEvening, BandNight}

// BandWindow is a wall-clock window for a band. Display only; conflict
// logic operates on dates, a booking always spans whole days.
type BandWindow struct {
	Start string
	End   string
}

var bandWindows = map[TimeBand]BandWindow{
	BandFullDay: {Start: "08:00", End: "22:00"},
	BandMorning: {Start: "08:00", End: "14:00"},
	BandEvening: {Start: "14:00", End: "20:00"},
	BandNight:   {Start: "20:00", End: "02:00"},
}

// WindowOf returns the wall-clock window of a band. The second return is
// false for an unknown band.
func WindowOf(band TimeBand) (BandWindow, bool) {
	w, ok := bandWindows[band]
	return w, ok
}

// ValidBand reports whether band is one of the four known bands.
func ValidBand(band TimeBand) bool {
	_, ok := bandWindows[band]
	return ok
}
