package jobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readiness-workers/internal/common/cache"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/gateway"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
)

func createTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:")

	return NewClient(config.ProviderConfig{
		BaseURL: srv.URL,
		APIKey:  "rapid-key",
		Host:    "jsearch.p.rapidapi.com",
	}, store, logger.NewTestLogger(t))
}

func jobJSON(id, title string) string {
	return fmt.Sprintf(`{
		"job_id": %q,
		"job_title": %q,
		"employer_name": "Acme &amp; Co",
		"job_description": "<p>Build   <b>pipelines</b></p>",
		"job_city": "Austin",
		"job_state": "TX",
		"job_country": "US",
		"job_is_remote": true,
		"job_min_salary": 120000,
		"job_max_salary": null,
		"job_salary_currency": "USD",
		"job_posted_at_datetime_utc": "2025-02-01T10:00:00.000Z",
		"job_apply_link": "https://jobs.example/%s",
		"job_required_skills": ["Python", "SQL"]
	}`, id, title, id)
}

func TestSearchJobs(t *testing.T) {
	remote := true
	tests := []struct {
		name           string
		query          providers.SearchQuery
		body           string
		validateReq    func(t *testing.T, r *http.Request)
		validateOutput func(t *testing.T, out []models.NormalizedListing)
	}{
		{
			name:  "normalizes and filters",
			query: providers.SearchQuery{Query: "data engineer", Limit: 25, Filters: providers.Filters{Location: "Austin", Remote: &remote, DateRange: models.DateRangeWeek}},
			body:  `{"status":"OK","data":[` + jobJSON("j1", "Data Engineer") + `,` + jobJSON("j1", "Duplicate") + `,{"job_id":"","job_title":"no id"},` + jobJSON("j2", "Senior Data Engineer") + `]}`,
			validateReq: func(t *testing.T, r *http.Request) {
				q := r.URL.Query()
				assert.Equal(t, "data engineer in Austin", q.Get("query"))
				assert.Equal(t, "3", q.Get("num_pages"))
				assert.Equal(t, "week", q.Get("date_posted"))
				assert.Equal(t, "true", q.Get("remote_jobs_only"))
				assert.Equal(t, "rapid-key", r.Header.Get("X-RapidAPI-Key"))
				assert.Equal(t, "jsearch.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))
			},
			validateOutput: func(t *testing.T, out []models.NormalizedListing) {
				require.Len(t, out, 2)
				first := out[0]
				assert.Equal(t, "j1", first.ID)
				assert.Equal(t, "Data Engineer", first.Title)
				assert.Equal(t, "Acme & Co", first.Company)
				assert.Equal(t, "Build pipelines", first.Description)
				assert.Equal(t, "Austin, TX, US", first.Location)
				assert.True(t, first.Remote)
				require.NotNil(t, first.Salary)
				assert.Equal(t, 120000.0, first.Salary.Min)
				assert.Equal(t, []string{"Python", "SQL"}, first.Skills)
				assert.Equal(t, 2025, first.PostedAt.Year())
				assert.Equal(t, ServiceName, first.SourceName())
			},
		},
		{
			name:  "truncates to limit",
			query: providers.SearchQuery{Query: "go", Limit: 1},
			body:  `{"data":[` + jobJSON("a", "A") + `,` + jobJSON("b", "B") + `]}`,
			validateOutput: func(t *testing.T, out []models.NormalizedListing) {
				require.Len(t, out, 1)
				assert.Equal(t, "a", out[0].ID)
			},
		},
		{
			name:  "missing data array",
			query: providers.SearchQuery{Query: "go"},
			body:  `{"status":"OK"}`,
			validateOutput: func(t *testing.T, out []models.NormalizedListing) {
				assert.NotNil(t, out)
				assert.Empty(t, out)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/search", r.URL.Path)
				if tt.validateReq != nil {
					tt.validateReq(t, r)
				}
				w.Write([]byte(tt.body))
			})
			tt.validateOutput(t, c.SearchJobs(context.Background(), tt.query))
		})
	}
}

func TestSearchJobs_LimitCappedAtFifty(t *testing.T) {
	var items []string
	for i := 0; i < 60; i++ {
		items = append(items, jobJSON(fmt.Sprintf("j%d", i), "Role"))
	}
	c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("num_pages"))
		w.Write([]byte(`{"data":[` + strings.Join(items, ",") + `]}`))
	})

	out := c.SearchJobs(context.Background(), providers.SearchQuery{Query: "x", Limit: 500})
	assert.Len(t, out, providers.MaxLimit)
}

func TestSearchJobs_FailureYieldsEmpty(t *testing.T) {
	c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	out := c.SearchJobs(context.Background(), providers.SearchQuery{Query: "x"})
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSearchJobs_SecondCallServedFromCache(t *testing.T) {
	var calls int32
	c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"data":[` + jobJSON("a", "A") + `]}`))
	})

	q := providers.SearchQuery{Query: "sre", Limit: 5}
	first := c.SearchJobs(context.Background(), q)
	second := c.SearchJobs(context.Background(), q)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJobDetails(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/job-details", r.URL.Path)
			assert.Equal(t, "abc", r.URL.Query().Get("job_id"))
			w.Write([]byte(`{"data":[` + jobJSON("abc", "Platform Engineer") + `]}`))
		})
		got, err := c.GetJobDetails(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, "Platform Engineer", got.Title)
	})

	t.Run("empty result is not found", func(t *testing.T) {
		c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[]}`))
		})
		_, err := c.GetJobDetails(context.Background(), "missing")
		assert.True(t, errors.Is(err, ErrJobNotFound))
	})

	t.Run("provider error propagates", func(t *testing.T) {
		c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
		_, err := c.GetJobDetails(context.Background(), "abc")
		require.Error(t, err)
		assert.True(t, gateway.IsKind(err, gateway.KindAuth))
	})

	t.Run("blank id", func(t *testing.T) {
		c := createTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := c.GetJobDetails(context.Background(), " ")
		assert.True(t, errors.Is(err, ErrJobNotFound))
	})
}
