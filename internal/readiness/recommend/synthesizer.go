// Package recommend derives the categorized recommendation bundle from the
// same snapshot the readiness sub-scores were computed from.
package recommend

import (
	"fmt"
	"sync"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/readiness/signals"
)

const nextStepsPooled = 3

type category int

const (
	categorySkillDevelopment category = iota
	categoryMarketPositioning
	categoryEducationPaths
	categoryExperienceBuilding
	categoryNetworking
	numCategories
)

func (c category) String() string {
	return [...]string{"skill_development", "market_positioning", "education_paths", "experience_building", "networking"}[c]
}

type Input struct {
	Snapshot  *signals.Snapshot
	SubScores models.SubScores
	SkillGaps []models.SkillGapEntry
}

type generator func(*Input) []models.RecommendationItem

type Synthesizer struct {
	catalogue  []Certification
	generators [numCategories]generator
	logger     logger.Logger
}

func New(log logger.Logger) *Synthesizer {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Synthesizer{
		catalogue: DefaultCatalogue,
		logger:    log.WithFields(map[string]interface{}{"component": "recommend"}),
	}
	s.generators = [numCategories]generator{
		categorySkillDevelopment:   skillDevelopment,
		categoryMarketPositioning:  marketPositioning,
		categoryEducationPaths:     s.educationPaths,
		categoryExperienceBuilding: experienceBuilding,
		categoryNetworking:         networking,
	}
	return s
}

// Synthesize runs the five category generators concurrently and derives the
// next steps from their output. Every category in the result is non-empty.
func (s *Synthesizer) Synthesize(in *Input) models.RecommendationBundle {
	if in == nil {
		in = &Input{}
	}
	if in.Snapshot == nil {
		in.Snapshot = &signals.Snapshot{}
	}

	var results [numCategories][]models.RecommendationItem
	var wg sync.WaitGroup
	for i := category(0); i < numCategories; i++ {
		wg.Add(1)
		go func(c category) {
			defer wg.Done()
			results[c] = s.run(c, in)
		}(i)
	}
	wg.Wait()

	bundle := models.RecommendationBundle{
		SkillDevelopment:   results[categorySkillDevelopment],
		MarketPositioning:  results[categoryMarketPositioning],
		EducationPaths:     results[categoryEducationPaths],
		ExperienceBuilding: results[categoryExperienceBuilding],
		Networking:         results[categoryNetworking],
	}
	bundle.NextSteps = s.nextSteps(bundle)
	return bundle
}

func (s *Synthesizer) run(c category, in *Input) (items []models.RecommendationItem) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("recommendation generator panicked, using fallback", map[string]interface{}{
				"category": c.String(),
				"panic":    fmt.Sprint(r),
			})
			items = fallbackFor(c)
		}
	}()

	items = s.generators[c](in)
	if len(items) == 0 {
		s.logger.Debug("no recommendations generated, using fallback", map[string]interface{}{"category": c.String()})
		return fallbackFor(c)
	}
	return items
}

// nextSteps pools high-priority and immediate items across the five
// categories, ranks high+immediate first, then high, then immediate (stable
// in category order), keeps the top three and appends the planning steps.
func (s *Synthesizer) nextSteps(b models.RecommendationBundle) (steps []models.RecommendationItem) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("next steps derivation panicked, using planning steps", map[string]interface{}{"panic": fmt.Sprint(r)})
			steps = clone(planningSteps)
		}
	}()

	var ranked [3][]models.RecommendationItem
	for _, items := range b.Categories() {
		for _, it := range items {
			high := it.Priority == models.PriorityHigh
			immediate := it.Timeframe == models.TimeframeImmediate
			switch {
			case high && immediate:
				ranked[0] = append(ranked[0], it)
			case high:
				ranked[1] = append(ranked[1], it)
			case immediate:
				ranked[2] = append(ranked[2], it)
			}
		}
	}

	steps = make([]models.RecommendationItem, 0, nextStepsPooled+len(planningSteps))
	for _, tier := range ranked {
		for _, it := range tier {
			if len(steps) == nextStepsPooled {
				break
			}
			steps = append(steps, it)
		}
	}
	return append(steps, planningSteps...)
}
