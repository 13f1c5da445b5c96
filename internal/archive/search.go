package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type SearchQuery struct {
	Keywords     string
	TransitionID string
	Category     string
	Source       string
	DateFrom     time.Time
	From         int
	Size         int
}

type SearchResult struct {
	Documents []Document `json:"documents"`
	TotalHits int64      `json:"totalHits"`
	MaxScore  float64    `json:"maxScore"`
	Took      int64      `json:"took"`
}

// BuildQuery renders the search body. Keywords go to a multi_match scored
// query; every other field is a non-scoring filter.
func BuildQuery(q SearchQuery) map[string]interface{} {
	var must []interface{}
	var filter []interface{}

	if q.Keywords != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Keywords,
				"fields": []string{"title^3", "content"},
				"type":   "best_fields",
			},
		})
	} else {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	if q.TransitionID != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"transition_id": q.TransitionID}})
	}
	if q.Category != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"category": q.Category}})
	}
	if q.Source != "" {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"source": q.Source}})
	}
	if !q.DateFrom.IsZero() {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"published_at": map[string]interface{}{"gte": q.DateFrom.UTC().Format(time.RFC3339)},
			},
		})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"published_at": map[string]interface{}{"order": "desc"}},
		},
	}
}

func pageBounds(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return from, size
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			Source Document `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (a *Archive) Search(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	body, err := json.Marshal(BuildQuery(q))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchFailed, err)
	}
	from, size := pageBounds(q.From, q.Size)

	req := esapi.SearchRequest{
		Index: []string{a.index},
		Body:  bytes.NewReader(body),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, a.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusNotFound && bytes.Contains(raw, []byte("index_not_found_exception")) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, a.index)
		}
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.Status())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	out := &SearchResult{
		Documents: make([]Document, 0, len(sr.Hits.Hits)),
		TotalHits: sr.Hits.Total.Value,
		Took:      sr.Took,
	}
	if sr.Hits.MaxScore != nil {
		out.MaxScore = *sr.Hits.MaxScore
	}
	for _, h := range sr.Hits.Hits {
		out.Documents = append(out.Documents, h.Source)
	}
	return out, nil
}
