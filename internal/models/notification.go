// internal/models/notification.go
package models

import "time"

type Notification struct {
	ID           string                 `json:"id"`
	TransitionID string                 `json:"transitionId"`
	Recipient    string                 `json:"recipient"`
	Type         string                 `json:"type"`    // "score_summary"
	Channel      string                 `json:"channel"` // "email"
	Status       string                 `json:"status"`  // "sent", "failed", "disabled"
	Payload      map[string]interface{} `json:"payload"`
	SentAt       time.Time              `json:"sentAt"`
	CreatedAt    time.Time              `json:"createdAt"`
}
