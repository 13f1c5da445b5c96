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
	RedditService    = "reddit"
	redditMaxPage    = 100
	redditPublicHost = "https://www.reddit.com"
)

type RedditClient struct {
	gw     *gateway.Gateway
	logger logger.Logger
}

func NewRedditClient(cfg config.ProviderConfig, store cache.Store, log logger.Logger) *RedditClient {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	headers := map[string]string{}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = cfg.UserAgent
	}
	return &RedditClient{
		gw: gateway.New(gateway.Options{
			Service: RedditService,
			BaseURL: cfg.BaseURL,
			Headers: headers,
			Store:   store,
			Logger:  log,
		}),
		logger: log.WithFields(map[string]interface{}{"provider": RedditService}),
	}
}

type rawRedditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Over18      bool    `json:"over_18"`
}

func validRedditPost(p *rawRedditPost) bool {
	return p.ID != "" && strings.TrimSpace(p.Title) != "" && !p.Over18
}

// SearchPosts searches public posts. Adult content is excluded and failures
// yield an empty list.
func (c *RedditClient) SearchPosts(ctx context.Context, q providers.SearchQuery) []models.ForumPost {
	params := map[string]interface{}{
		"q":     searchText(q),
		"limit": q.PageSize(redditMaxPage),
		"sort":  "relevance",
		"t":     redditWindow(q.Filters.DateRange),
	}

	raw, err := gateway.Request[map[string]interface{}](ctx, c.gw, "/search.json", gateway.RequestConfig{Params: params}, gateway.TTLLong)
	if err != nil {
		c.logger.Warn("post search failed, returning no posts", map[string]interface{}{
			"query": q.Query,
			"error": err,
		})
		return []models.ForumPost{}
	}

	// Listings wrap each post as {"kind": "t3", "data": {...}}.
	var children []interface{}
	if list, ok := providers.Field(raw, "data", "children").([]interface{}); ok {
		for _, child := range list {
			if m, ok := child.(map[string]interface{}); ok {
				children = append(children, m["data"])
			}
		}
	}

	items, _ := providers.DecodeItems(children, validRedditPost)
	posts := make([]models.ForumPost, 0, len(items))
	for _, it := range items {
		post := models.ForumPost{
			ID:          it.ID,
			Title:       providers.CleanText(it.Title),
			Body:        providers.Truncate(providers.CleanText(it.SelfText), bodyPreviewRunes),
			Community:   it.Subreddit,
			Score:       it.Score,
			ReplyCount:  it.NumComments,
			Source:      RedditService,
			PublishedAt: time.Unix(int64(it.CreatedUTC), 0).UTC(),
		}
		if it.Permalink != "" {
			post.URL = redditPublicHost + it.Permalink
		}
		posts = append(posts, post)
	}
	return posts
}

func redditWindow(r models.DateRange) string {
	switch r {
	case models.DateRangeDay, models.DateRangeWeek, models.DateRangeMonth, models.DateRangeYear:
		return string(r)
	default:
		return "all"
	}
}
