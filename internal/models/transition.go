// internal/models/transition.go
package models

import "time"

type Transition struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	CurrentRole string    `json:"currentRole"`
	TargetRole  string    `json:"targetRole"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InsightRecord struct {
	ID           string          `json:"id"`
	TransitionID string          `json:"transitionId"`
	Source       string          `json:"source"`
	Category     InsightCategory `json:"category"`
	Content      string          `json:"content"`
	URL          string          `json:"url,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// InsightsByCategory groups insights, preserving their input order.
func InsightsByCategory(insights []InsightRecord) map[InsightCategory][]InsightRecord {
	out := make(map[InsightCategory][]InsightRecord)
	for _, in := range insights {
		out[in.Category] = append(out[in.Category], in)
	}
	return out
}
