// Package trends holds the trend-article provider clients.
package trends

import (
	"context"
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
	NewsService     = "newsapi"
	newsMaxPage     = 100
	removedMarker   = "[Removed]"
	summaryMaxRunes = 600
)

type NewsClient struct {
	gw     *gateway.Gateway
	now    func() time.Time
	logger logger.Logger
}

func NewNewsClient(cfg config.ProviderConfig, store cache.Store, log logger.Logger) *NewsClient {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		headers["X-Api-Key"] = cfg.APIKey
	}
	return &NewsClient{
		gw: gateway.New(gateway.Options{
			Service: NewsService,
			BaseURL: cfg.BaseURL,
			Headers: headers,
			Store:   store,
			Logger:  log,
		}),
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"provider": NewsService}),
	}
}

type rawArticle struct {
	Source struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"source"`
	Author      string `json:"author"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}

// Articles have no id; the URL stands in for one.
func validArticle(a *rawArticle) bool {
	title := strings.TrimSpace(a.Title)
	return a.URL != "" && title != "" && title != removedMarker
}

// SearchArticles returns recent articles matching q. Failures, including an
// error status inside a 200 body, yield an empty list.
func (c *NewsClient) SearchArticles(ctx context.Context, q providers.SearchQuery) []models.TrendArticle {
	params := map[string]interface{}{
		"q":        strings.TrimSpace(q.Query),
		"pageSize": q.PageSize(newsMaxPage),
		"sortBy":   "relevancy",
		"language": "en",
	}
	if since := q.Filters.DateRange.Since(c.now()); !since.IsZero() {
		params["from"] = since.Format("2006-01-02")
	}

	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/v2/everything", gateway.RequestConfig{Params: params}, gateway.TTLVeryLong)
	if err != nil {
		c.logger.Warn("article search failed, returning no articles", map[string]interface{}{
			"query": q.Query,
			"error": err,
		})
		return []models.TrendArticle{}
	}
	if status, _ := raw["status"].(string); status == "error" {
		c.logger.Warn("provider reported an error", map[string]interface{}{
			"code":    raw["code"],
			"message": raw["message"],
		})
		return []models.TrendArticle{}
	}

	items, _ := providers.DecodeItems(raw["articles"], validArticle)
	articles := make([]models.TrendArticle, 0, len(items))
	for _, it := range items {
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		a := models.TrendArticle{
			ID:        it.URL,
			Title:     providers.CleanText(it.Title),
			Summary:   providers.Truncate(providers.CleanText(summary), summaryMaxRunes),
			URL:       it.URL,
			Publisher: it.Source.Name,
			Author:    it.Author,
			Source:    NewsService,
		}
		if t, err := time.Parse(time.RFC3339, it.PublishedAt); err == nil {
			a.PublishedAt = t.UTC()
		}
		articles = append(articles, a)
	}
	return articles
}
