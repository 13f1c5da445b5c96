package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
	"readiness-workers/internal/readiness/signals"
	"readiness-workers/internal/repository"
)

type fakeRepo struct {
	mu          sync.Mutex
	transitions map[string]*models.Transition
	insights    []models.InsightRecord
	roleSkills  map[string][]string
	userSkills  []string
	fetchErr    error
	upsertErr   error
	saved       []*models.ReadinessScore
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		transitions: map[string]*models.Transition{
			"t-1": {ID: "t-1", UserID: "u-1", CurrentRole: "Backend Engineer", TargetRole: "Data Engineer"},
		},
		roleSkills: map[string][]string{},
	}
}

func (r *fakeRepo) GetTransition(_ context.Context, id string) (*models.Transition, error) {
	t, ok := r.transitions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (r *fakeRepo) GetInsightsByTransitionID(context.Context, string) ([]models.InsightRecord, error) {
	return r.insights, r.fetchErr
}

func (r *fakeRepo) GetRoleSkills(_ context.Context, role string) ([]string, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	return r.roleSkills[role], nil
}

func (r *fakeRepo) GetUserSkills(context.Context, string) ([]string, error) {
	return r.userSkills, r.fetchErr
}

func (r *fakeRepo) UpsertScore(_ context.Context, s *models.ReadinessScore) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	return nil
}

func (r *fakeRepo) GetScore(_ context.Context, transitionID string) (*models.ReadinessScore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.saved) - 1; i >= 0; i-- {
		if r.saved[i].TransitionID == transitionID {
			return r.saved[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeJobs struct {
	listings []models.NormalizedListing
	queries  []providers.SearchQuery
}

func (f *fakeJobs) SearchJobs(_ context.Context, q providers.SearchQuery) []models.NormalizedListing {
	f.queries = append(f.queries, q)
	return f.listings
}

func createTestEngine(t *testing.T, repo *fakeRepo, jobs JobSearcher, events chan<- models.ProgressEvent) *Engine {
	return New(Options{
		Repository: repo,
		Jobs:       jobs,
		Events:     events,
		Logger:     logger.NewTestLogger(t),
	})
}

func TestGenerateScore_NoDataIsNeutral(t *testing.T) {
	repo := newFakeRepo()
	e := createTestEngine(t, repo, &fakeJobs{}, nil)

	score, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)

	assert.True(t, score.SubScores.AllNeutral())
	assert.Equal(t, 50, score.OverallScore)
	assert.Empty(t, score.SkillGaps)
	assert.NotNil(t, score.SkillGaps)
	assert.NotEmpty(t, score.Observations)
	for _, items := range score.Recommendations.Categories() {
		assert.NotEmpty(t, items)
	}
	assert.NotEmpty(t, score.Recommendations.NextSteps)
	require.Len(t, repo.saved, 1)
	assert.Same(t, score, repo.saved[0])
}

func TestGenerateScore_UsesTargetRoleForJobSearch(t *testing.T) {
	jobs := &fakeJobs{}
	e := New(Options{Repository: newFakeRepo(), Jobs: jobs, JobListingLimit: 500})

	_, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)

	require.Len(t, jobs.queries, 1)
	assert.Equal(t, "Data Engineer", jobs.queries[0].Query)
	assert.Equal(t, DefaultJobListingLimit, jobs.queries[0].Limit)
}

func TestGenerateScore_WithSignals(t *testing.T) {
	repo := newFakeRepo()
	repo.roleSkills["Data Engineer"] = []string{"Python", "Spark", "SQL"}
	repo.userSkills = []string{"python"}
	repo.insights = []models.InsightRecord{
		{Category: models.CategoryMarket, Content: "Demand for data engineers is growing fast"},
		{Category: models.CategoryTrend, Content: "Spark adoption keeps rising"},
	}
	listings := make([]models.NormalizedListing, 0, 12)
	for i := 0; i < 12; i++ {
		listings = append(listings, models.NormalizedListing{
			ID:          string(rune('a' + i)),
			Title:       "Data Engineer",
			Description: "Spark pipelines with SQL",
			Location:    "Berlin",
		})
	}
	e := createTestEngine(t, repo, &fakeJobs{listings: listings}, nil)

	score, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)

	assert.False(t, score.SubScores.AllNeutral())
	assert.Equal(t, Overall(score.SubScores), score.OverallScore)
	assert.NotEmpty(t, score.SkillGaps)
	for _, g := range score.SkillGaps {
		assert.NotEqual(t, "Python", g.Skill, "skills the user has are not gaps")
	}
	for _, v := range []int{score.SubScores.Market, score.SubScores.SkillGap, score.SubScores.Education, score.SubScores.Trend, score.SubScores.Geography} {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
}

func TestGenerateScore_UnknownTransition(t *testing.T) {
	repo := newFakeRepo()
	events := make(chan models.ProgressEvent, 4)
	e := createTestEngine(t, repo, nil, events)

	score, err := e.GenerateScore(context.Background(), "missing")
	assert.Nil(t, score)
	assert.ErrorIs(t, err, ErrTransitionNotFound)
	assert.Empty(t, repo.saved)

	close(events)
	var states []models.ProgressState
	for ev := range events {
		states = append(states, ev.State)
	}
	assert.Equal(t, []models.ProgressState{models.StateRunning, models.StateFailed}, states)
}

func TestGenerateScore_PersistFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.upsertErr = errors.New("connection reset")
	e := createTestEngine(t, repo, nil, nil)

	score, err := e.GenerateScore(context.Background(), "t-1")
	assert.Nil(t, score)
	assert.ErrorIs(t, err, ErrScorePersist)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGenerateScore_FetchErrorsDegrade(t *testing.T) {
	repo := newFakeRepo()
	repo.fetchErr = errors.New("query timeout")
	e := createTestEngine(t, repo, nil, nil)

	score, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)
	assert.True(t, score.SubScores.AllNeutral())
}

func TestGenerateScore_PanickingExtractorIsNeutral(t *testing.T) {
	repo := newFakeRepo()
	e := createTestEngine(t, repo, nil, nil)
	e.extractors = []signals.Extractor{
		{Name: signals.NameMarket, Fn: func(*signals.Snapshot) signals.Signal { panic("index out of range") }},
		{Name: signals.NameSkillGap, Fn: func(*signals.Snapshot) signals.Signal { return signals.Signal{Score: 90} }},
		{Name: signals.NameEducation, Fn: signals.Education},
		{Name: signals.NameTrend, Fn: signals.Trend},
		{Name: signals.NameGeography, Fn: signals.Geography},
	}

	score, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, signals.Neutral, score.SubScores.Market)
	assert.Equal(t, 90, score.SubScores.SkillGap)
	// 0.25*50 + 0.30*90 + 0.15*50 + 0.20*50 + 0.10*50 = 62
	assert.Equal(t, 62, score.OverallScore)
	assert.Contains(t, score.Observations, "The market signal could not be computed")
}

func TestGenerateScore_EmitsProgress(t *testing.T) {
	events := make(chan models.ProgressEvent, 4)
	e := createTestEngine(t, newFakeRepo(), nil, events)

	_, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)

	first := <-events
	second := <-events
	assert.Equal(t, models.StateRunning, first.State)
	assert.Equal(t, models.StateComplete, second.State)
	assert.Equal(t, "t-1", second.TransitionID)
	assert.Equal(t, "overall score 50", second.Message)
}

func TestGetScore(t *testing.T) {
	repo := newFakeRepo()
	e := createTestEngine(t, repo, nil, nil)

	score, err := e.GetScore(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Nil(t, score)

	generated, err := e.GenerateScore(context.Background(), "t-1")
	require.NoError(t, err)

	score, err = e.GetScore(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, generated.ID, score.ID)
}

func TestOverall(t *testing.T) {
	tests := []struct {
		name string
		sub  models.SubScores
		want int
	}{
		{"all neutral", models.SubScores{Market: 50, SkillGap: 50, Education: 50, Trend: 50, Geography: 50}, 50},
		{"all zero", models.SubScores{}, 0},
		{"all max", models.SubScores{Market: 100, SkillGap: 100, Education: 100, Trend: 100, Geography: 100}, 100},
		// 20 + 20.1 + 6 + 5.6 + 6 = 57.7
		{"mixed rounds once", models.SubScores{Market: 80, SkillGap: 67, Education: 40, Trend: 28, Geography: 60}, 58},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overall(tt.sub))
		})
	}
	assert.InDelta(t, 1.0, WeightMarket+WeightSkillGap+WeightEducation+WeightTrend+WeightGeography, 1e-9)
}
