package trends

import (
	"context"
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
	HackerNewsService = "hackernews"
	hnMaxPage         = 100
	hnItemURL         = "https://news.ycombinator.com/item?id=%s"
)

type HackerNewsClient struct {
	gw     *gateway.Gateway
	now    func() time.Time
	logger logger.Logger
}

func NewHackerNewsClient(cfg config.ProviderConfig, store cache.Store, log logger.Logger) *HackerNewsClient {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &HackerNewsClient{
		gw: gateway.New(gateway.Options{
			Service: HackerNewsService,
			BaseURL: cfg.BaseURL,
			Store:   store,
			Logger:  log,
		}),
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"provider": HackerNewsService}),
	}
}

type rawHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
	StoryText   string `json:"story_text"`
}

func validHit(h *rawHit) bool {
	return h.ObjectID != "" && strings.TrimSpace(h.Title) != ""
}

// SearchStories searches front-page stories. Failures yield an empty list.
func (c *HackerNewsClient) SearchStories(ctx context.Context, q providers.SearchQuery) []models.TrendArticle {
	params := map[string]interface{}{
		"query":       strings.TrimSpace(q.Query),
		"tags":        "story",
		"hitsPerPage": q.PageSize(hnMaxPage),
	}
	if since := q.Filters.DateRange.Since(c.now()); !since.IsZero() {
		params["numericFilters"] = fmt.Sprintf("created_at_i>%d", since.Truncate(24*time.Hour).Unix())
	}

	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/api/v1/search", gateway.RequestConfig{Params: params}, gateway.TTLVeryLong)
	if err != nil {
		c.logger.Warn("story search failed, returning no stories", map[string]interface{}{
			"query": q.Query,
			"error": err,
		})
		return []models.TrendArticle{}
	}

	items, _ := providers.DecodeItems(raw["hits"], validHit)
	stories := make([]models.TrendArticle, 0, len(items))
	for _, it := range items {
		link := it.URL
		if link == "" {
			link = fmt.Sprintf(hnItemURL, it.ObjectID)
		}
		stories = append(stories, models.TrendArticle{
			ID:          it.ObjectID,
			Title:       providers.CleanText(it.Title),
			Summary:     providers.Truncate(providers.CleanText(it.StoryText), summaryMaxRunes),
			URL:         link,
			Publisher:   "Hacker News",
			Author:      it.Author,
			Points:      it.Points,
			Source:      HackerNewsService,
			PublishedAt: time.Unix(it.CreatedAtI, 0).UTC(),
		})
	}
	return stories
}
