package collectmarketinsights

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/archive"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/errors"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
	"readiness-workers/internal/repository"
)

type fakeRepo struct {
	transitions map[string]*models.Transition
	getErr      error
	saveErr     error
	saved       []models.InsightRecord
}

func (f *fakeRepo) GetTransition(_ context.Context, id string) (*models.Transition, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.transitions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeRepo) SaveInsights(_ context.Context, insights []models.InsightRecord) (int, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	f.saved = append(f.saved, insights...)
	return len(insights), nil
}

type fakeArchive struct {
	docs []archive.Document
	err  error
}

func (f *fakeArchive) Store(_ context.Context, docs []archive.Document) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.docs = append(f.docs, docs...)
	return len(docs), nil
}

type recordedQueries struct {
	mu      sync.Mutex
	queries []providers.SearchQuery
}

func (r *recordedQueries) add(q providers.SearchQuery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

var published = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

func createTestSources(rec *recordedQueries) []Source {
	return []Source{
		ForumPosts("reddit", func(_ context.Context, q providers.SearchQuery) []models.ForumPost {
			rec.add(q)
			return []models.ForumPost{
				{ID: "p1", Title: "Is the salary worth it", URL: "https://reddit.test/p1", Source: "reddit", PublishedAt: published},
				{ID: "p2", Title: "Weekend plans", Body: "Nothing relevant here", Source: "reddit", PublishedAt: published},
			}
		}),
		TrendArticles("hackernews", func(_ context.Context, q providers.SearchQuery) []models.TrendArticle {
			rec.add(q)
			return []models.TrendArticle{
				{ID: "h1", Title: "Best bootcamp for beginners", URL: "https://hn.test/h1", Source: "hackernews", PublishedAt: published},
			}
		}),
	}
}

func createTestHandler(t *testing.T, repo *fakeRepo, arch Archiver, rec *recordedQueries) *Handler {
	opts := HandlerOptions{
		Config:     &Config{Timeout: time.Second, DefaultLimit: 10},
		Repository: repo,
		Sources:    createTestSources(rec),
		Logger:     logger.NewTestLogger(t),
	}
	if arch != nil {
		opts.Archive = arch
	}
	return NewHandler(opts)
}

func newRepo() *fakeRepo {
	return &fakeRepo{transitions: map[string]*models.Transition{
		"t-1": {ID: "t-1", UserID: "u-1", CurrentRole: "Support Engineer", TargetRole: "Data Analyst"},
	}}
}

func TestHandler_Execute_ClassifiesStoresAndArchives(t *testing.T) {
	repo := newRepo()
	arch := &fakeArchive{}
	rec := &recordedQueries{}
	h := createTestHandler(t, repo, arch, rec)

	out, err := h.Execute(context.Background(), &Input{TransitionID: "t-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, out.DocumentCount)
	assert.Equal(t, 2, out.InsightCount)
	assert.Equal(t, 2, out.StoredCount)
	assert.Equal(t, 2, out.ArchivedCount)
	assert.Equal(t, map[string]int{"market": 1, "education": 1}, out.Categories)
	assert.Equal(t, map[string]int{"reddit": 1, "hackernews": 1}, out.Sources)

	require.Len(t, rec.queries, 2)
	for _, q := range rec.queries {
		assert.Equal(t, "Data Analyst", q.Query)
		assert.Equal(t, 10, q.Limit)
	}

	for _, in := range repo.saved {
		assert.Equal(t, "t-1", in.TransitionID)
		assert.NotEmpty(t, in.ID)
	}
	require.Len(t, arch.docs, 2)
	byURL := map[string]archive.Document{}
	for _, d := range arch.docs {
		byURL[d.URL] = d
	}
	assert.Equal(t, models.CategoryMarket, byURL["https://reddit.test/p1"].Category)
	assert.Equal(t, models.CategoryEducation, byURL["https://hn.test/h1"].Category)
}

func TestHandler_Execute_QueryAndLimitOverrides(t *testing.T) {
	rec := &recordedQueries{}
	remote := true
	h := createTestHandler(t, newRepo(), nil, rec)

	out, err := h.Execute(context.Background(), &Input{
		TransitionID: "t-1",
		Query:        "analytics engineer",
		Limit:        5,
		Filters:      providers.Filters{Remote: &remote, DateRange: models.DateRangeMonth},
	})
	require.NoError(t, err)
	assert.Zero(t, out.ArchivedCount)

	require.Len(t, rec.queries, 2)
	assert.Equal(t, "analytics engineer", rec.queries[0].Query)
	assert.Equal(t, 5, rec.queries[0].Limit)
	assert.Equal(t, models.DateRangeMonth, rec.queries[0].Filters.DateRange)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		repo     *fakeRepo
		wantCode errors.ErrorCode
	}{
		{name: "missing id", input: &Input{}, repo: newRepo(), wantCode: errors.ErrCodeInvalidInput},
		{name: "unknown transition", input: &Input{TransitionID: "nope"}, repo: newRepo(), wantCode: errors.ErrCodeTransitionNotFound},
		{
			name:     "transition lookup failure",
			input:    &Input{TransitionID: "t-1"},
			repo:     &fakeRepo{getErr: stderrors.New("bad connection")},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
		{
			name:  "insert failure",
			input: &Input{TransitionID: "t-1"},
			repo: func() *fakeRepo {
				r := newRepo()
				r.saveErr = stderrors.New("disk full")
				return r
			}(),
			wantCode: errors.ErrCodeDatabaseInsertFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, tt.repo, nil, &recordedQueries{})
			_, err := h.Execute(context.Background(), tt.input)
			var std *errors.StandardError
			require.True(t, stderrors.As(err, &std))
			assert.Equal(t, tt.wantCode, std.Code)
		})
	}
}

func TestHandler_Execute_ArchiveFailureIsNotFatal(t *testing.T) {
	repo := newRepo()
	h := createTestHandler(t, repo, &fakeArchive{err: stderrors.New("cluster red")}, &recordedQueries{})

	out, err := h.Execute(context.Background(), &Input{TransitionID: "t-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, out.StoredCount)
	assert.Zero(t, out.ArchivedCount)
}

func TestLoadConfig_InsightLimitClamped(t *testing.T) {
	cfg := LoadConfig(&config.Config{Scoring: config.ScoringConfig{InsightLimit: 500}}, nil)
	assert.Equal(t, providers.MaxLimit, cfg.DefaultLimit)
	assert.Equal(t, 90*time.Second, cfg.Timeout)
}
