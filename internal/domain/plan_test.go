package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatibleBands(t *testing.T) {
	cases := []struct {
		planType PlanType
		want     []TimeBand
	}{
		{PlanFullDay, []TimeBand{BandFullDay}},
		{PlanMorning, []TimeBand{BandMorning}},
		{PlanEvening, []TimeBand{BandEvening}},
		{PlanNight, []TimeBand{BandNight}},
		{PlanDay, []TimeBand{BandMorning, BandEvening}},
		{PlanFlexible, []TimeBand{BandMorning, BandEvening, BandNight, BandFullDay}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompatibleBands(tc.planType), "plan type %s", tc.planType)
	}
}

func TestCompatibleBands_UnknownTypeFailsClosed(t *testing.T) {
	assert.Empty(t, CompatibleBands(PlanType("weekend")))
	assert.Empty(t, CompatibleBands(PlanType("")))
}

func TestBandCompatible(t *testing.T) {
	assert.True(t, BandCompatible(PlanDay, BandMorning))
	assert.True(t, BandCompatible(PlanDay, BandEvening))
	assert.False(t, BandCompatible(PlanDay, BandNight))
	assert.False(t, BandCompatible(PlanDay, BandFullDay))
	assert.False(t, BandCompatible(PlanMorning, BandEvening))
	assert.False(t, BandCompatible(PlanType("bogus"), BandMorning))
}

func TestWindowOf(t *testing.T) {
	w, ok := WindowOf(BandMorning)
	assert.True(t, ok)
	assert.Equal(t, "08:00", w.Start)

	_, ok = WindowOf(TimeBand("afternoon"))
	assert.False(t, ok)
}
