package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateStats_Empty(t *testing.T) {
	assert.Equal(t, GuestStats{}, AggregateStats(nil))
	assert.Equal(t, GuestStats{}, AggregateStats([]*Guest{}))
}

func TestAggregateStats_PlusOneCounting(t *testing.T) {
	tests := []struct {
		name          string
		guest         Guest
		wantAttending int
		wantPlusOne   int
	}{
		{"confirmed with confirmed plus-one", Guest{RSVPStatus: RSVPConfirmed, PlusOne: true, PlusOneConfirmed: true}, 2, 1},
		{"confirmed with unconfirmed plus-one", Guest{RSVPStatus: RSVPConfirmed, PlusOne: true}, 1, 0},
		{"confirmed alone", Guest{RSVPStatus: RSVPConfirmed}, 1, 0},
		{"declined with plus-one", Guest{RSVPStatus: RSVPDeclined, PlusOne: true, PlusOneConfirmed: true}, 0, 1},
		{"maybe", Guest{RSVPStatus: RSVPMaybe}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.guest
			stats := AggregateStats([]*Guest{&g})
			assert.Equal(t, tt.wantAttending, stats.TotalAttending)
			assert.Equal(t, tt.wantPlusOne, stats.WithPlusOne)
			assert.Equal(t, 1, stats.Total)
		})
	}
}

func TestAggregateStats_Mixed(t *testing.T) {
	guests := []*Guest{
		{RSVPStatus: RSVPConfirmed, PlusOne: true, PlusOneConfirmed: true, DietaryRestrictions: "vegan"},
		{RSVPStatus: RSVPConfirmed, Allergies: "peanuts"},
		{RSVPStatus: RSVPDeclined, PlusOneDietaryRestrictions: "halal"},
		{RSVPStatus: RSVPPending},
		{RSVPStatus: RSVPMaybe, ChildrenDietaryRestrictions: "vegetarian"},
		{RSVPStatus: ""},
	}

	stats := AggregateStats(guests)

	assert.Equal(t, GuestStats{
		Total:               6,
		Confirmed:           2,
		Declined:            1,
		Pending:             2,
		Maybe:               1,
		WithPlusOne:         1,
		TotalAttending:      3,
		DietaryRestrictions: 2,
	}, stats)
	assert.Equal(t, stats.Total, stats.Confirmed+stats.Declined+stats.Pending+stats.Maybe)
}
