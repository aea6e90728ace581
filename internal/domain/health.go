package domain

import "math"

// DefaultHealthyThreshold is the minimum health score for a product to be
// classified healthy.
const DefaultHealthyThreshold = 60

// Penalty and bonus weights applied per 100g/ml when a source does not
// supply its own health score.
const (
	sugarFreeGrams       = 5.0
	sugarPenaltyPerGram  = 1.5
	sugarPenaltyCap      = 30.0
	satFatFreeGrams      = 1.5
	satFatPenaltyPerGram = 3.0
	satFatPenaltyCap     = 20.0
	sodiumFreeMg         = 120.0
	sodiumPenaltyPerMg   = 0.05
	sodiumPenaltyCap     = 20.0
	calorieFreeKcal      = 150.0
	caloriePenaltyPerKc  = 0.1
	caloriePenaltyCap    = 20.0
	fatFreeGrams         = 10.0
	fatPenaltyPerGram    = 0.5
	fatPenaltyCap        = 10.0
	fiberBonusPerGram    = 2.0
	fiberBonusCap        = 10.0
	proteinFreeGrams     = 5.0
	proteinBonusPerGram  = 1.0
	proteinBonusCap      = 10.0
)

// ScoreNutrients derives a 0-100 health score from the nutrient profile.
func ScoreNutrients(p *Product) int {
	score := 100.0
	score -= over(p.Sugar, sugarFreeGrams, sugarPenaltyPerGram, sugarPenaltyCap)
	score -= over(p.SaturatedFats, satFatFreeGrams, satFatPenaltyPerGram, satFatPenaltyCap)
	score -= over(p.Sodium, sodiumFreeMg, sodiumPenaltyPerMg, sodiumPenaltyCap)
	score -= over(float64(p.Calories), calorieFreeKcal, caloriePenaltyPerKc, caloriePenaltyCap)
	score -= over(p.Fats, fatFreeGrams, fatPenaltyPerGram, fatPenaltyCap)
	score += over(p.Fiber, 0, fiberBonusPerGram, fiberBonusCap)
	score += over(p.Protein, proteinFreeGrams, proteinBonusPerGram, proteinBonusCap)
	return clampScore(int(math.Round(score)))
}

// over returns weight*(value-free) capped at limit, or 0 when value <= free
// or value is not finite.
func over(value, free, weight, limit float64) float64 {
	if value <= free || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return math.Min((value-free)*weight, limit)
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Normalize clamps out-of-range and non-finite values and enforces that a
// healthy product always meets the threshold.
func (p *Product) Normalize(threshold int) {
	if p.Calories < 0 {
		p.Calories = 0
	}
	for _, v := range []*float64{&p.Protein, &p.Carbs, &p.Sugar, &p.Fats, &p.SaturatedFats, &p.Fiber, &p.Sodium} {
		if *v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	p.Allergens = NewAllergens(p.Allergens...)
	p.HealthScore = clampScore(p.HealthScore)
	if p.HealthScore < threshold {
		p.IsHealthy = false
	}
}
