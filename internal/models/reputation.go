package models

import (
	"encoding/json"
	"fmt"
)

// Rating bounds for stars and category dimensions
const (
	MinRating = 1
	MaxRating = 5
)

// CategoryRatings holds one value per reputation dimension
type CategoryRatings struct {
	Communication   float64 `json:"communication"`
	Expertise       float64 `json:"expertise"`
	Helpfulness     float64 `json:"helpfulness"`
	Availability    float64 `json:"availability"`
	Professionalism float64 `json:"professionalism"`
}

// UniformCategoryRatings returns ratings with every dimension set to stars
func UniformCategoryRatings(stars int) CategoryRatings {
	v := float64(stars)
	return CategoryRatings{v, v, v, v, v}
}

func (c CategoryRatings) values() [5]float64 {
	return [5]float64{c.Communication, c.Expertise, c.Helpfulness, c.Availability, c.Professionalism}
}

func (c *CategoryRatings) set(v [5]float64) {
	c.Communication, c.Expertise, c.Helpfulness, c.Availability, c.Professionalism = v[0], v[1], v[2], v[3], v[4]
}

// Validate checks that every dimension is a whole rating in 1..5
func (c CategoryRatings) Validate() error {
	names := [5]string{"communication", "expertise", "helpfulness", "availability", "professionalism"}
	for i, v := range c.values() {
		if v < MinRating || v > MaxRating || v != float64(int(v)) {
			return fmt.Errorf("categoryRatings.%s must be an integer between %d and %d", names[i], MinRating, MaxRating)
		}
	}
	return nil
}

// RatingBreakdown counts ratings per star bucket
type RatingBreakdown struct {
	OneStar   int `json:"oneStar"`
	TwoStar   int `json:"twoStar"`
	ThreeStar int `json:"threeStar"`
	FourStar  int `json:"fourStar"`
	FiveStar  int `json:"fiveStar"`
}

func (b RatingBreakdown) buckets() [5]int {
	return [5]int{b.OneStar, b.TwoStar, b.ThreeStar, b.FourStar, b.FiveStar}
}

func (b *RatingBreakdown) increment(stars int) {
	switch stars {
	case 1:
		b.OneStar++
	case 2:
		b.TwoStar++
	case 3:
		b.ThreeStar++
	case 4:
		b.FourStar++
	case 5:
		b.FiveStar++
	}
}

func (b RatingBreakdown) total() int {
	n := 0
	for _, c := range b.buckets() {
		n += c
	}
	return n
}

// OverallFromBreakdown computes the weighted star mean; 0 when there are no ratings
func OverallFromBreakdown(b RatingBreakdown) float64 {
	total := b.total()
	if total == 0 {
		return 0
	}
	sum := 0
	for i, c := range b.buckets() {
		sum += c * (i + 1)
	}
	return float64(sum) / float64(total)
}

// Reputation is a mentor's aggregate rating. Its fields are only reachable
// through RecordRating so overall always agrees with the breakdown.
type Reputation struct {
	breakdown RatingBreakdown
	total     int
	overall   float64
	category  CategoryRatings
}

// NewReputationFromBreakdown builds an aggregate from existing bucket counts
func NewReputationFromBreakdown(b RatingBreakdown, category CategoryRatings) Reputation {
	return Reputation{
		breakdown: b,
		total:     b.total(),
		overall:   OverallFromBreakdown(b),
		category:  category,
	}
}

// RecordRating folds one rating into the aggregate
func (r *Reputation) RecordRating(stars int, category CategoryRatings) error {
	if stars < MinRating || stars > MaxRating {
		return fmt.Errorf("stars must be between %d and %d, got %d", MinRating, MaxRating, stars)
	}
	if err := category.Validate(); err != nil {
		return err
	}

	r.breakdown.increment(stars)
	r.total++
	r.overall = OverallFromBreakdown(r.breakdown)

	means := r.category.values()
	incoming := category.values()
	for i := range means {
		means[i] += (incoming[i] - means[i]) / float64(r.total)
	}
	r.category.set(means)
	return nil
}

// Breakdown returns the star histogram
func (r Reputation) Breakdown() RatingBreakdown {
	return r.breakdown
}

func (r Reputation) TotalRatings() int {
	return r.total
}

func (r Reputation) OverallRating() float64 {
	return r.overall
}

func (r Reputation) CategoryRatings() CategoryRatings {
	return r.category
}

// ReputationView is the serialized form of Reputation
type ReputationView struct {
	RatingBreakdown RatingBreakdown `json:"ratingBreakdown"`
	TotalRatings    int             `json:"totalRatings"`
	OverallRating   float64         `json:"overallRating"`
	CategoryRatings CategoryRatings `json:"categoryRatings"`
}

// View returns the exported representation
func (r Reputation) View() ReputationView {
	return ReputationView{
		RatingBreakdown: r.breakdown,
		TotalRatings:    r.total,
		OverallRating:   r.overall,
		CategoryRatings: r.category,
	}
}

func (r Reputation) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.View())
}

// UnmarshalJSON rejects documents whose total disagrees with the breakdown and
// recomputes overall instead of trusting the stored value.
func (r *Reputation) UnmarshalJSON(data []byte) error {
	var v ReputationView
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.TotalRatings != v.RatingBreakdown.total() {
		return fmt.Errorf("reputation totalRatings %d does not match breakdown sum %d", v.TotalRatings, v.RatingBreakdown.total())
	}
	*r = NewReputationFromBreakdown(v.RatingBreakdown, v.CategoryRatings)
	return nil
}
