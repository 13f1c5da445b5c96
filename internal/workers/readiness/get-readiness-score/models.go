package getreadinessscore

import "readiness-workers/internal/models"

type Input struct {
	TransitionID string `json:"transitionId"`
}

type Output struct {
	Found          bool                   `json:"found"`
	ReadinessScore *models.ReadinessScore `json:"readinessScore"`
	LowConfidence  bool                   `json:"lowConfidence"`
}
