package collectmarketinsights

import "readiness-workers/internal/providers"

type Input struct {
	TransitionID string            `json:"transitionId"`
	Query        string            `json:"query,omitempty"`
	Limit        int               `json:"limit,omitempty"`
	Filters      providers.Filters `json:"filters"`
}

type Output struct {
	InsightCount  int            `json:"insightCount"`
	StoredCount   int            `json:"storedCount"`
	ArchivedCount int            `json:"archivedCount"`
	DocumentCount int            `json:"documentCount"`
	Categories    map[string]int `json:"categories"`
	Sources       map[string]int `json:"sources"`
}
