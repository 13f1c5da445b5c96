// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readiness-workers/internal/app"
	"readiness-workers/internal/archive"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"

	querymarketsignals "readiness-workers/internal/workers/data-access/query-market-signals"
	generatereadinessscore "readiness-workers/internal/workers/readiness/generate-readiness-score"
	getreadinessscore "readiness-workers/internal/workers/readiness/get-readiness-score"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	if os.Getenv("E2E_TESTS") == "" {
		fmt.Println("E2E_TESTS not set, skipping end-to-end tests")
		os.Exit(0)
	}
	zapLog, _ = zap.NewDevelopment()
	code := m.Run()
	zapLog.Sync()
	os.Exit(code)
}

func setupApp(t *testing.T) *app.App {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	// Force localhost for the docker-compose stack.
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Scoring.ArchiveIndex = "market-signals-e2e"

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	svc, err := app.New(ctx, cfg, logger.NewZapAdapter(zapLog), app.Options{
		ConnectAttempts: 3,
		RetryDelay:      time.Second,
		Archive:         true,
	})
	require.NoError(t, err, "services must be reachable")
	t.Cleanup(svc.Close)
	return svc
}

func seedTransition(t *testing.T, svc *app.App) string {
	t.Helper()
	id := "e2e-" + uuid.NewString()
	userID := "user-" + id

	db := svc.Postgres.DB
	_, err := db.Exec(`INSERT INTO career_transitions (id, user_id, from_role, target_role) VALUES ($1, $2, $3, $4)`,
		id, userID, "Backend Engineer", "Site Reliability Engineer")
	require.NoError(t, err)

	for _, skill := range []string{"go", "kubernetes", "terraform"} {
		_, err = db.Exec(`INSERT INTO role_skills (role, skill) VALUES ($1, $2) ON CONFLICT DO NOTHING`, "Site Reliability Engineer", skill)
		require.NoError(t, err)
	}
	_, err = db.Exec(`INSERT INTO user_skills (user_id, skill) VALUES ($1, $2)`, userID, "go")
	require.NoError(t, err)

	_, err = svc.Repository.SaveInsights(context.Background(), []models.InsightRecord{{
		ID:           uuid.NewString(),
		TransitionID: id,
		Source:       "reddit",
		Category:     models.CategoryMarket,
		Content:      "SRE hiring is strong and salary bands keep rising",
	}})
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Exec(`DELETE FROM career_transitions WHERE id = $1`, id)
		db.Exec(`DELETE FROM user_skills WHERE user_id = $1`, userID)
	})
	return id
}

func TestReadinessScoreLifecycle(t *testing.T) {
	svc := setupApp(t)
	id := seedTransition(t, svc)
	ctx := context.Background()

	get := getreadinessscore.NewHandler(getreadinessscore.HandlerOptions{Engine: svc.Engine, Logger: svc.Logger})
	before, err := get.Execute(ctx, &getreadinessscore.Input{TransitionID: id})
	require.NoError(t, err)
	assert.False(t, before.Found)

	gen := generatereadinessscore.NewHandler(generatereadinessscore.HandlerOptions{Engine: svc.Engine, Logger: svc.Logger})
	out, err := gen.Execute(ctx, &generatereadinessscore.Input{TransitionID: id})
	require.NoError(t, err)
	require.NotNil(t, out.ReadinessScore)

	score := out.ReadinessScore
	assert.Equal(t, id, score.TransitionID)
	assert.GreaterOrEqual(t, score.OverallScore, 0)
	assert.LessOrEqual(t, score.OverallScore, 100)

	after, err := get.Execute(ctx, &getreadinessscore.Input{TransitionID: id})
	require.NoError(t, err)
	require.True(t, after.Found)
	assert.Equal(t, score.ID, after.ReadinessScore.ID)
	assert.Equal(t, score.OverallScore, after.ReadinessScore.OverallScore)

	regenerated, err := gen.Execute(ctx, &generatereadinessscore.Input{TransitionID: id})
	require.NoError(t, err)
	assert.Equal(t, score.ID, regenerated.ReadinessScore.ID, "regeneration updates the existing row")
}

func TestGenerateUnknownTransition(t *testing.T) {
	svc := setupApp(t)
	gen := generatereadinessscore.NewHandler(generatereadinessscore.HandlerOptions{Engine: svc.Engine, Logger: svc.Logger})

	_, err := gen.Execute(context.Background(), &generatereadinessscore.Input{TransitionID: "e2e-missing-" + uuid.NewString()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRANSITION_NOT_FOUND")
}

func TestMarketSignalArchive(t *testing.T) {
	svc := setupApp(t)
	if svc.Archive == nil {
		t.Skip("elasticsearch unavailable")
	}
	ctx := context.Background()
	id := "e2e-" + uuid.NewString()

	docs := []archive.Document{
		archive.FromDocument(id, models.CategoryMarket, models.ForumPost{
			Source: "reddit", Title: "SRE salaries in 2026", Body: "Hiring for SRE roles is up", URL: "https://example.com/" + id + "/1", PublishedAt: time.Now(),
		}),
		archive.FromDocument(id, models.CategoryEducation, models.TrendArticle{
			Source: "hackernews", Title: "Best kubernetes course", URL: "https://example.com/" + id + "/2", PublishedAt: time.Now(),
		}),
	}
	stored, err := svc.Archive.Store(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	res, err := svc.Elastic.Client.Indices.Refresh(svc.Elastic.Client.Indices.Refresh.WithIndex(svc.Archive.Index()))
	require.NoError(t, err)
	res.Body.Close()

	h := querymarketsignals.NewHandler(querymarketsignals.HandlerOptions{Archive: svc.Archive, Logger: svc.Logger})
	out, err := h.Execute(ctx, &querymarketsignals.Input{TransitionID: id, Category: "market"})
	require.NoError(t, err)
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "reddit", out.Documents[0].Source)
	assert.Equal(t, int64(1), out.TotalHits)
}
