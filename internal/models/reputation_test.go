package models_test

import (
	"encoding/json"
	"testing"

	"github.com/getmentor/mentorship-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverallFromBreakdown(t *testing.T) {
	tests := []struct {
		name      string
		breakdown models.RatingBreakdown
		expected  float64
	}{
		{
			name:      "no ratings",
			breakdown: models.RatingBreakdown{},
			expected:  0,
		},
		{
			name:      "three fives and a four",
			breakdown: models.RatingBreakdown{FiveStar: 3, FourStar: 1},
			expected:  4.75,
		},
		{
			name:      "one of each",
			breakdown: models.RatingBreakdown{OneStar: 1, TwoStar: 1, ThreeStar: 1, FourStar: 1, FiveStar: 1},
			expected:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, models.OverallFromBreakdown(tt.breakdown), 1e-9)
		})
	}
}

func TestReputation_RecordRating(t *testing.T) {
	var rep models.Reputation

	for _, stars := range []int{5, 5, 4, 5} {
		require.NoError(t, rep.RecordRating(stars, models.UniformCategoryRatings(stars)))
		assert.InDelta(t, models.OverallFromBreakdown(rep.Breakdown()), rep.OverallRating(), 1e-9)
	}

	assert.Equal(t, 4, rep.TotalRatings())
	assert.Equal(t, models.RatingBreakdown{FiveStar: 3, FourStar: 1}, rep.Breakdown())
	assert.InDelta(t, 4.75, rep.OverallRating(), 1e-9)
	assert.InDelta(t, 4.75, rep.CategoryRatings().Communication, 1e-9)
	assert.InDelta(t, 4.75, rep.CategoryRatings().Professionalism, 1e-9)
}

func TestReputation_RecordRating_CategoryRunningMean(t *testing.T) {
	var rep models.Reputation

	require.NoError(t, rep.RecordRating(4, models.CategoryRatings{
		Communication: 2, Expertise: 5, Helpfulness: 4, Availability: 3, Professionalism: 5,
	}))
	require.NoError(t, rep.RecordRating(4, models.CategoryRatings{
		Communication: 4, Expertise: 5, Helpfulness: 2, Availability: 3, Professionalism: 1,
	}))

	cat := rep.CategoryRatings()
	assert.InDelta(t, 3.0, cat.Communication, 1e-9)
	assert.InDelta(t, 5.0, cat.Expertise, 1e-9)
	assert.InDelta(t, 3.0, cat.Helpfulness, 1e-9)
	assert.InDelta(t, 3.0, cat.Availability, 1e-9)
	assert.InDelta(t, 3.0, cat.Professionalism, 1e-9)
}

func TestReputation_RecordRating_RejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		stars    int
		category models.CategoryRatings
	}{
		{"zero stars", 0, models.UniformCategoryRatings(3)},
		{"six stars", 6, models.UniformCategoryRatings(3)},
		{"category too low", 3, models.CategoryRatings{Communication: 0, Expertise: 3, Helpfulness: 3, Availability: 3, Professionalism: 3}},
		{"category fractional", 3, models.CategoryRatings{Communication: 3.5, Expertise: 3, Helpfulness: 3, Availability: 3, Professionalism: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rep models.Reputation
			assert.Error(t, rep.RecordRating(tt.stars, tt.category))
			assert.Equal(t, 0, rep.TotalRatings())
			assert.Equal(t, float64(0), rep.OverallRating())
		})
	}
}

func TestReputation_JSONRecomputesOverall(t *testing.T) {
	raw := `{"ratingBreakdown":{"oneStar":0,"twoStar":0,"threeStar":0,"fourStar":1,"fiveStar":3},
		"totalRatings":4,"overallRating":1.0,"categoryRatings":{"communication":4}}`

	var rep models.Reputation
	require.NoError(t, json.Unmarshal([]byte(raw), &rep))
	assert.InDelta(t, 4.75, rep.OverallRating(), 1e-9)
	assert.Equal(t, 4, rep.TotalRatings())

	out, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"overallRating":4.75`)
}

func TestReputation_JSONRejectsMismatchedTotal(t *testing.T) {
	raw := `{"ratingBreakdown":{"fiveStar":3},"totalRatings":4}`

	var rep models.Reputation
	assert.Error(t, json.Unmarshal([]byte(raw), &rep))
}
