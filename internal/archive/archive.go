// Package archive keeps every provider document collected for a transition in
// an Elasticsearch index so market signals can be searched after the cache
// entries behind them have expired.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"readiness-workers/internal/common/logger"
	"readiness-workers/internal/models"
)

const DefaultIndex = "market-signals"

var (
	ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")
	ErrSearchFailed  = errors.New("SEARCH_QUERY_FAILED")
)

// Document is the archived form of a listing, forum post or article.
type Document struct {
	ID           string                 `json:"id"`
	TransitionID string                 `json:"transition_id,omitempty"`
	Source       string                 `json:"source"`
	Category     models.InsightCategory `json:"category,omitempty"`
	Title        string                 `json:"title"`
	Content      string                 `json:"content"`
	URL          string                 `json:"url,omitempty"`
	PublishedAt  time.Time              `json:"published_at"`
	IndexedAt    time.Time              `json:"indexed_at"`
}

// FromDocument builds an archive document. Ids are derived from source and
// link, so re-archiving the same post overwrites it.
func FromDocument(transitionID string, category models.InsightCategory, d models.Document) Document {
	key := d.SourceName() + "|" + d.Link()
	if d.Link() == "" {
		key = d.SourceName() + "|" + d.Text()
	}
	title, content := splitText(d)
	return Document{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String(),
		TransitionID: transitionID,
		Source:       d.SourceName(),
		Category:     category,
		Title:        title,
		Content:      content,
		URL:          d.Link(),
		PublishedAt:  d.Timestamp().UTC(),
	}
}

func splitText(d models.Document) (string, string) {
	switch v := d.(type) {
	case models.NormalizedListing:
		return v.Title, v.Description
	case models.ForumPost:
		return v.Title, v.Body
	case models.TrendArticle:
		return v.Title, v.Summary
	}
	return "", d.Text()
}

type Archive struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
	now    func() time.Time
}

func New(client *elasticsearch.Client, index string, log logger.Logger) *Archive {
	if index == "" {
		index = DefaultIndex
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Archive{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "archive", "index": index}),
		now:    time.Now,
	}
}

func (a *Archive) Index() string { return a.index }

const indexMapping = `{
	"mappings": {
		"properties": {
			"id":            {"type": "keyword"},
			"transition_id": {"type": "keyword"},
			"source":        {"type": "keyword"},
			"category":      {"type": "keyword"},
			"title":         {"type": "text"},
			"content":       {"type": "text"},
			"url":           {"type": "keyword", "index": false},
			"published_at":  {"type": "date"},
			"indexed_at":    {"type": "date"}
		}
	}
}`

// EnsureIndex creates the index with its mapping when it does not exist.
func (a *Archive) EnsureIndex(ctx context.Context) error {
	res, err := a.client.Indices.Exists([]string{a.index}, a.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = a.client.Indices.Create(a.index,
		a.client.Indices.Create.WithContext(ctx),
		a.client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if bytes.Contains(body, []byte("resource_already_exists_exception")) {
			return nil
		}
		return fmt.Errorf("create index: %s", res.Status())
	}
	a.logger.Info("archive index created", nil)
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// Store bulk-indexes docs and returns how many were accepted. Per-item
// rejections are logged, not returned.
func (a *Archive) Store(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	now := a.now().UTC()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		d.IndexedAt = now
		if err := enc.Encode(map[string]interface{}{"index": map[string]interface{}{"_index": a.index, "_id": d.ID}}); err != nil {
			return 0, fmt.Errorf("encode bulk action: %w", err)
		}
		if err := enc.Encode(d); err != nil {
			return 0, fmt.Errorf("encode document %s: %w", d.ID, err)
		}
	}

	res, err := a.client.Bulk(bytes.NewReader(buf.Bytes()),
		a.client.Bulk.WithContext(ctx),
		a.client.Bulk.WithIndex(a.index),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", res.Status())
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	stored := 0
	for _, item := range br.Items {
		for _, r := range item {
			if r.Status >= 200 && r.Status < 300 {
				stored++
				continue
			}
			fields := map[string]interface{}{"id": r.ID, "status": r.Status}
			if r.Error != nil {
				fields["error"] = r.Error.Type + ": " + r.Error.Reason
			}
			a.logger.Warn("document rejected by archive", fields)
		}
	}
	return stored, nil
}
