// Package forums holds the discussion-forum provider clients.
package forums

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
	StackExchangeService = "stackexchange"
	stackExchangeMaxPage = 100
	bodyPreviewRunes     = 1000
)

type StackExchangeClient struct {
	gw     *gateway.Gateway
	site   string
	key    string
	now    func() time.Time
	logger logger.Logger
}

func NewStackExchangeClient(cfg config.ProviderConfig, store cache.Store, log logger.Logger) *StackExchangeClient {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	site := cfg.Site
	if site == "" {
		site = "stackoverflow"
	}
	return &StackExchangeClient{
		gw: gateway.New(gateway.Options{
			Service: StackExchangeService,
			BaseURL: cfg.BaseURL,
			Store:   store,
			Logger:  log,
		}),
		site:   site,
		key:    cfg.APIKey,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"provider": StackExchangeService}),
	}
}

type rawQuestion struct {
	ID           string   `json:"question_id"`
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Link         string   `json:"link"`
	Score        int      `json:"score"`
	AnswerCount  int      `json:"answer_count"`
	CreationDate int64    `json:"creation_date"`
	Tags         []string `json:"tags"`
}

// Unanswered questions carry no community signal and are dropped.
func validQuestion(q *rawQuestion) bool {
	return q.ID != "" && strings.TrimSpace(q.Title) != "" && q.AnswerCount > 0
}

// SearchQuestions runs an advanced search and returns answered questions.
// Failures are logged and yield an empty list.
func (c *StackExchangeClient) SearchQuestions(ctx context.Context, q providers.SearchQuery) []models.ForumPost {
	params := map[string]interface{}{
		"q":        searchText(q),
		"site":     c.site,
		"order":    "desc",
		"sort":     "relevance",
		"pagesize": q.PageSize(stackExchangeMaxPage),
		"filter":   "withbody",
	}
	if since := q.Filters.DateRange.Since(c.now()); !since.IsZero() {
		// Truncated to the day so repeated searches share a fingerprint.
		params["fromdate"] = since.Truncate(24 * time.Hour).Unix()
	}
	if c.key != "" {
		params["key"] = c.key
	}

	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/2.3/search/advanced", gateway.RequestConfig{Params: params}, gateway.TTLLong)
	if err != nil {
		c.logger.Warn("question search failed, returning no posts", map[string]interface{}{
			"query": q.Query,
			"error": err,
		})
		return []models.ForumPost{}
	}
	if backoff, ok := raw["backoff"]; ok {
		c.logger.Warn("provider requested backoff", map[string]interface{}{"seconds": backoff})
	}

	items, _ := providers.DecodeItems(raw["items"], validQuestion)
	posts := make([]models.ForumPost, 0, len(items))
	for _, it := range items {
		posts = append(posts, models.ForumPost{
			ID:          it.ID,
			Title:       providers.CleanText(it.Title),
			Body:        providers.Truncate(providers.CleanText(it.Body), bodyPreviewRunes),
			URL:         it.Link,
			Community:   c.site,
			Score:       it.Score,
			ReplyCount:  it.AnswerCount,
			Tags:        it.Tags,
			Source:      StackExchangeService,
			PublishedAt: time.Unix(it.CreationDate, 0).UTC(),
		})
	}
	return posts
}

func searchText(q providers.SearchQuery) string {
	text := strings.TrimSpace(q.Query)
	if loc := strings.TrimSpace(q.Filters.Location); loc != "" {
		text += " " + loc
	}
	if q.Filters.Remote != nil && *q.Filters.Remote {
		text += " remote"
	}
	return text
}
