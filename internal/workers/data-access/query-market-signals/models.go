package querymarketsignals

import "readiness-workers/internal/archive"

type Input struct {
	Keywords     string     `json:"keywords,omitempty"`
	TransitionID string     `json:"transitionId,omitempty"`
	Category     string     `json:"category,omitempty"`
	Source       string     `json:"source,omitempty"`
	DateFrom     string     `json:"dateFrom,omitempty"`
	Pagination   Pagination `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Documents []archive.Document `json:"documents"`
	TotalHits int64              `json:"totalHits"`
	MaxScore  float64            `json:"maxScore"`
	TookMs    int64              `json:"tookMs"`
}
