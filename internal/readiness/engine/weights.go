package engine

import (
	"math"

	"readiness-workers/internal/models"
)

const (
	WeightMarket    = 0.25
	WeightSkillGap  = 0.30
	WeightEducation = 0.15
	WeightTrend     = 0.20
	WeightGeography = 0.10
)

// Overall weights the integer sub-scores and rounds once.
func Overall(s models.SubScores) int {
	v := WeightMarket*float64(s.Market) +
		WeightSkillGap*float64(s.SkillGap) +
		WeightEducation*float64(s.Education) +
		WeightTrend*float64(s.Trend) +
		WeightGeography*float64(s.Geography)
	return int(math.Round(v))
}
