// internal/models/recommendation.go
package models

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Timeframe string

const (
	TimeframeImmediate Timeframe = "immediate"
	TimeframeShortTerm Timeframe = "short-term"
	TimeframeLongTerm  Timeframe = "long-term"
	TimeframeOngoing   Timeframe = "ongoing"
)

type RecommendationItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    Priority  `json:"priority"`
	Timeframe   Timeframe `json:"timeframe"`
	Resources   []string  `json:"resources,omitempty"`
}

type RecommendationBundle struct {
	SkillDevelopment   []RecommendationItem `json:"skill_development"`
	MarketPositioning  []RecommendationItem `json:"market_positioning"`
	EducationPaths     []RecommendationItem `json:"education_paths"`
	ExperienceBuilding []RecommendationItem `json:"experience_building"`
	Networking         []RecommendationItem `json:"networking"`
	NextSteps          []RecommendationItem `json:"next_steps"`
}

// Categories returns the five generated categories in their fixed order.
func (b RecommendationBundle) Categories() [][]RecommendationItem {
	return [][]RecommendationItem{
		b.SkillDevelopment,
		b.MarketPositioning,
		b.EducationPaths,
		b.ExperienceBuilding,
		b.Networking,
	}
}
