package generatereadinessscore

import "readiness-workers/internal/models"

type Input struct {
	TransitionID string `json:"transitionId"`
}

type Output struct {
	ReadinessScore *models.ReadinessScore `json:"readinessScore"`
	// LowConfidence is set when every sub-score fell back to neutral.
	LowConfidence bool `json:"lowConfidence"`
}
