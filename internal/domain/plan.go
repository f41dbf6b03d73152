package domain

import "github.com/google/uuid"

// PlanType is the category of a subscription plan. It determines which
// time bands the holder may reserve.
type PlanType string

const (
	PlanFullDay  PlanType = "full_day"
	PlanMorning  PlanType = "morning"
	PlanEvening  PlanType = "evening"
	PlanNight    PlanType = "night"
	PlanDay      PlanType = "day"
	PlanFlexible PlanType = "flexible"
)

type Plan struct {
	ID             uuid.UUID
	Type           PlanType
	Name           string
	PriceCents     int64
	DurationMonths int
}

// planBands is the fixed compatibility policy. Not configurable at runtime.
var planBands = map[PlanType][]TimeBand{
	PlanFullDay:  {BandFullDay},
	PlanMorning:  {BandMorning},
	PlanEvening:  {BandEvening},
	PlanNight:    {BandNight},
	PlanDay:      {BandMorning, BandEvening},
	PlanFlexible: {BandMorning, BandEvening, BandNight, BandFullDay},
}

// CompatibleBands returns the set of bands a plan type may reserve. An
// unrecognized type resolves to the empty set: no bookable bands.
func CompatibleBands(t PlanType) []TimeBand {
	bands, ok := planBands[t]
	if !ok {
		return nil
	}
	out := make([]TimeBand, len(bands))
	copy(out, bands)
	return out
}

// BandCompatible reports whether a plan type may reserve the given band.
func BandCompatible(t PlanType, band TimeBand) bool {
	for _, b := range planBands[t] {
		if b == band {
			return true
		}
	}
	return false
}
