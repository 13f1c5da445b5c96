package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/readiness/signals"
)

func createTestInput(jobs []models.NormalizedListing, insights []models.InsightRecord, gaps []models.SkillGapEntry) *Input {
	return &Input{
		Snapshot:  signals.NewSnapshot("Data Engineer", jobs, insights, []string{"SQL"}, []string{"Python", "Excel"}, []string{"Python", "Spark", "Airflow"}),
		SubScores: models.SubScores{Market: 50, SkillGap: 50, Education: 50, Trend: 50, Geography: 50},
		SkillGaps: gaps,
	}
}

func assertAllCategoriesNonEmpty(t *testing.T, b models.RecommendationBundle) {
	t.Helper()
	assert.NotEmpty(t, b.SkillDevelopment, "skill_development")
	assert.NotEmpty(t, b.MarketPositioning, "market_positioning")
	assert.NotEmpty(t, b.EducationPaths, "education_paths")
	assert.NotEmpty(t, b.ExperienceBuilding, "experience_building")
	assert.NotEmpty(t, b.Networking, "networking")
	assert.NotEmpty(t, b.NextSteps, "next_steps")
}

func TestSynthesize_FallbackGuarantee(t *testing.T) {
	s := New(logger.NewTestLogger(t))
	in := &Input{Snapshot: signals.NewSnapshot("Designer", nil, nil, nil, nil, nil)}

	b := s.Synthesize(in)

	assertAllCategoriesNonEmpty(t, b)
	assert.Equal(t, fallbackSkillDevelopment, b.SkillDevelopment)
	assert.Equal(t, fallbackNetworking, b.Networking)

	require.Len(t, b.NextSteps, 5)
	assert.Equal(t, "Map the core skills of your target role", b.NextSteps[0].Title)
	assert.Equal(t, "Rewrite your resume for the target role", b.NextSteps[1].Title)
	assert.Equal(t, "Build a small portfolio project", b.NextSteps[2].Title)
	assert.Equal(t, "Create a transition plan", b.NextSteps[3].Title)
	assert.Equal(t, "Establish progress tracking", b.NextSteps[4].Title)
}

func TestSynthesize_NilInput(t *testing.T) {
	assertAllCategoriesNonEmpty(t, New(nil).Synthesize(nil))
}

func TestSynthesize_PanickingGeneratorFallsBack(t *testing.T) {
	s := New(logger.NewTestLogger(t))
	s.generators[categoryMarketPositioning] = func(*Input) []models.RecommendationItem {
		panic("index out of range")
	}

	b := s.Synthesize(createTestInput([]models.NormalizedListing{{ID: "1", Title: "DE"}}, nil, nil))

	assert.Equal(t, fallbackMarketPositioning, b.MarketPositioning)
	assertAllCategoriesNonEmpty(t, b)
}

func TestSynthesize_FallbackIsCopied(t *testing.T) {
	s := New(nil)
	b := s.Synthesize(nil)
	b.SkillDevelopment[0].Title = "mutated"

	assert.Equal(t, "Map the core skills of your target role", fallbackSkillDevelopment[0].Title)
}

func TestSkillDevelopment(t *testing.T) {
	gaps := []models.SkillGapEntry{
		{Skill: "Spark", GapLevel: models.GapHigh, MentionCount: 7},
		{Skill: "Airflow", GapLevel: models.GapMedium, MentionCount: 3},
		{Skill: "dbt", GapLevel: models.GapLow, MentionCount: 1},
		{Skill: "Kafka", GapLevel: models.GapLow},
		{Skill: "Scala", GapLevel: models.GapLow},
		{Skill: "Flink", GapLevel: models.GapLow},
	}
	items := skillDevelopment(createTestInput(nil, nil, gaps))

	require.Len(t, items, maxSkillItems)
	for i, it := range items[:immediateSkills] {
		assert.Equal(t, models.PriorityHigh, it.Priority, i)
		assert.Equal(t, models.TimeframeImmediate, it.Timeframe, i)
	}
	assert.Equal(t, "Learn Spark", items[0].Title)
	assert.Contains(t, items[0].Description, "appears in 7")
	assert.Equal(t, models.PriorityMedium, items[3].Priority)
	assert.Contains(t, items[3].Description, "expected for the target role")
}

func TestEducationPaths_DetectsCertifications(t *testing.T) {
	insights := []models.InsightRecord{
		{Category: models.CategoryEducation, Content: "Passing the CKA got me interviews", URL: "https://forum.example/cka"},
		{Category: models.CategoryEducation, Content: "AWS certified folks get callbacks"},
		{Category: models.CategoryEducation, Content: "Sticking with backpacking trips"},
	}
	in := createTestInput(nil, insights, nil)
	in.SubScores.Education = 30

	items := New(nil).educationPaths(in)

	var titles []string
	for _, it := range items {
		titles = append(titles, it.Title)
	}
	assert.Contains(t, titles, "Pursue the Certified Kubernetes Administrator")
	assert.Contains(t, titles, "Pursue the AWS Certified Solutions Architect")
	assert.NotContains(t, titles, "Pursue the Certified ScrumMaster")
	assert.Equal(t, models.PriorityHigh, items[0].Priority)
	assert.Equal(t, []string{"https://forum.example/cka"}, items[len(items)-1].Resources)
}

func TestMarketPositioning(t *testing.T) {
	jobs := []models.NormalizedListing{
		{ID: "1", Title: "DE", Company: "Acme", Skills: []string{"Spark", "SQL"}, ApplyURL: "https://a", Salary: &models.Salary{Min: 90000, Max: 120000, Currency: "USD"}},
		{ID: "2", Title: "DE", Company: "Globex", Skills: []string{"Spark"}, Salary: &models.Salary{Min: 85000, Currency: "USD"}},
		{ID: "3", Title: "DE", Company: "Acme"},
	}
	in := createTestInput(jobs, nil, nil)
	in.SubScores.Market = 30

	items := marketPositioning(in)

	require.Len(t, items, 4)
	assert.Contains(t, items[0].Description, "Acme, Globex")
	assert.Equal(t, []string{"https://a"}, items[0].Resources)
	assert.Contains(t, items[1].Description, "Spark, SQL")
	assert.Contains(t, items[2].Description, "85000 USD to 120000 USD")
	assert.Equal(t, "Consider adjacent roles as a stepping stone", items[3].Title)
}

func TestExperienceBuilding_UsesOverlap(t *testing.T) {
	gaps := []models.SkillGapEntry{{Skill: "Spark"}, {Skill: "Airflow"}, {Skill: "dbt"}}
	items := experienceBuilding(createTestInput(nil, nil, gaps))

	require.Len(t, items, 2)
	assert.Equal(t, "Build a portfolio project with Spark and Airflow", items[0].Title)
	assert.Contains(t, items[1].Description, "Python")
}

func TestNextSteps_Ranking(t *testing.T) {
	item := func(title string, p models.Priority, tf models.Timeframe) models.RecommendationItem {
		return models.RecommendationItem{Title: title, Priority: p, Timeframe: tf}
	}
	b := models.RecommendationBundle{
		SkillDevelopment:   []models.RecommendationItem{item("high-short", models.PriorityHigh, models.TimeframeShortTerm)},
		MarketPositioning:  []models.RecommendationItem{item("medium-immediate", models.PriorityMedium, models.TimeframeImmediate)},
		EducationPaths:     []models.RecommendationItem{item("low-long", models.PriorityLow, models.TimeframeLongTerm)},
		ExperienceBuilding: []models.RecommendationItem{item("high-immediate-1", models.PriorityHigh, models.TimeframeImmediate)},
		Networking:         []models.RecommendationItem{item("high-immediate-2", models.PriorityHigh, models.TimeframeImmediate)},
	}

	steps := New(nil).nextSteps(b)

	var titles []string
	for _, s := range steps {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{
		"high-immediate-1",
		"high-immediate-2",
		"high-short",
		"Create a transition plan",
		"Establish progress tracking",
	}, titles)
}
