// Package jobs is the job-listing provider client (JSearch-style API).
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"readiness-workers/internal/common/cache"
	"readiness-workers/internal/common/config"
	"readiness-workers/internal/common/gateway"
	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
)

const (
	ServiceName = "jsearch"
	pageSize    = 10
)

var ErrJobNotFound = errors.New("JOB_NOT_FOUND")

type Client struct {
	gw     *gateway.Gateway
	logger logger.Logger
}

func NewClient(cfg config.ProviderConfig, store cache.Store, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["X-RapidAPI-Key"] = cfg.APIKey
	}
	if cfg.Host != "" {
		headers["X-RapidAPI-Host"] = cfg.Host
	}
	return &Client{
		gw: gateway.New(gateway.Options{
			Service: ServiceName,
			BaseURL: cfg.BaseURL,
			Headers: headers,
			Store:   store,
			Logger:  log,
		}),
		logger: log.WithFields(map[string]interface{}{"provider": ServiceName}),
	}
}

type rawJob struct {
	ID             string   `json:"job_id"`
	Title          string   `json:"job_title"`
	Employer       string   `json:"employer_name"`
	Description    string   `json:"job_description"`
	City           string   `json:"job_city"`
	State          string   `json:"job_state"`
	Country        string   `json:"job_country"`
	IsRemote       bool     `json:"job_is_remote"`
	MinSalary      float64  `json:"job_min_salary"`
	MaxSalary      float64  `json:"job_max_salary"`
	SalaryCurrency string   `json:"job_salary_currency"`
	PostedAt       string   `json:"job_posted_at_datetime_utc"`
	ApplyLink      string   `json:"job_apply_link"`
	RequiredSkills []string `json:"job_required_skills"`
}

func validJob(j *rawJob) bool {
	return strings.TrimSpace(j.ID) != "" && strings.TrimSpace(j.Title) != ""
}

// SearchJobs returns up to q.Limit listings (never more than 50), deduplicated
// by id. Provider failures are logged and yield an empty list.
func (c *Client) SearchJobs(ctx context.Context, q providers.SearchQuery) []models.NormalizedListing {
	limit := q.PageSize(providers.MaxLimit)

	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/search", gateway.RequestConfig{
		Params: searchParams(q, limit),
	}, gateway.TTLShort)
	if err != nil {
		c.logger.Warn("job search failed, returning no listings", map[string]interface{}{
			"query": q.Query,
			"error": err,
		})
		return []models.NormalizedListing{}
	}

	items, dropped := providers.DecodeItems(raw["data"], validJob)
	if dropped > 0 {
		c.logger.Debug("dropped malformed job listings", map[string]interface{}{"count": dropped})
	}

	seen := make(map[string]bool, len(items))
	listings := make([]models.NormalizedListing, 0, len(items))
	for i := range items {
		if seen[items[i].ID] {
			continue
		}
		seen[items[i].ID] = true
		listings = append(listings, normalize(&items[i]))
		if len(listings) == limit {
			break
		}
	}
	return listings
}

// GetJobDetails propagates provider failures, unlike SearchJobs, since an
// empty answer to a lookup by id would be misleading.
func (c *Client) GetJobDetails(ctx context.Context, jobID string) (*models.NormalizedListing, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, fmt.Errorf("%w: empty job id", ErrJobNotFound)
	}
	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/job-details", gateway.RequestConfig{
		Params: map[string]interface{}{"job_id": jobID},
	}, gateway.TTLMedium)
	if err != nil {
		return nil, fmt.Errorf("job details %s: %w", jobID, err)
	}

	items, _ := providers.DecodeItems(raw["data"], validJob)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	listing := normalize(&items[0])
	return &listing, nil
}

func searchParams(q providers.SearchQuery, limit int) map[string]interface{} {
	query := strings.TrimSpace(q.Query)
	if loc := strings.TrimSpace(q.Filters.Location); loc != "" {
		query = fmt.Sprintf("%s in %s", query, loc)
	}
	params := map[string]interface{}{
		"query":     query,
		"page":      1,
		"num_pages": (limit + pageSize - 1) / pageSize,
	}
	switch q.Filters.DateRange {
	case models.DateRangeDay:
		params["date_posted"] = "today"
	case models.DateRangeWeek:
		params["date_posted"] = "week"
	case models.DateRangeMonth:
		params["date_posted"] = "month"
	}
	if q.Filters.Remote != nil && *q.Filters.Remote {
		params["remote_jobs_only"] = true
	}
	return params
}

func normalize(j *rawJob) models.NormalizedListing {
	listing := models.NormalizedListing{
		ID:          j.ID,
		Title:       providers.CleanText(j.Title),
		Company:     providers.CleanText(j.Employer),
		Description: providers.CleanText(j.Description),
		Location:    joinLocation(j.City, j.State, j.Country),
		Remote:      j.IsRemote,
		ApplyURL:    j.ApplyLink,
		Source:      ServiceName,
	}
	if j.MinSalary > 0 || j.MaxSalary > 0 {
		listing.Salary = &models.Salary{Min: j.MinSalary, Max: j.MaxSalary, Currency: j.SalaryCurrency}
	}
	for _, s := range j.RequiredSkills {
		if s = providers.CleanText(s); s != "" {
			listing.Skills = append(listing.Skills, s)
		}
	}
	if t, err := time.Parse(time.RFC3339, j.PostedAt); err == nil {
		listing.PostedAt = t.UTC()
	}
	return listing
}

func joinLocation(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
