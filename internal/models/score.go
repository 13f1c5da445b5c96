// internal/models/score.go
package models

import "time"

type GapLevel string

const (
	GapLow    GapLevel = "Low"
	GapMedium GapLevel = "Medium"
	GapHigh   GapLevel = "High"
)

type SkillGapEntry struct {
	Skill        string   `json:"skill"`
	GapLevel     GapLevel `json:"gapLevel"`
	Confidence   int      `json:"confidence"`
	MentionCount int      `json:"mentionCount"`
}

type SubScores struct {
	Market    int `json:"market"`
	SkillGap  int `json:"skillGap"`
	Education int `json:"education"`
	Trend     int `json:"trend"`
	Geography int `json:"geography"`
}

// AllNeutral reports whether every sub-score sits at the neutral default,
// which callers treat as a low-confidence score.
func (s SubScores) AllNeutral() bool {
	return s.Market == 50 && s.SkillGap == 50 && s.Education == 50 && s.Trend == 50 && s.Geography == 50
}

type ReadinessScore struct {
	ID              string               `json:"id"`
	TransitionID    string               `json:"transitionId"`
	OverallScore    int                  `json:"overallScore"`
	SubScores       SubScores            `json:"subScores"`
	SkillGaps       []SkillGapEntry      `json:"skillGaps"`
	Observations    []string             `json:"observations"`
	Recommendations RecommendationBundle `json:"recommendations"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type ProgressState string

const (
	StateIdle     ProgressState = "idle"
	StateRunning  ProgressState = "running"
	StateComplete ProgressState = "complete"
	StateFailed   ProgressState = "failed"
)

type ProgressEvent struct {
	TransitionID string        `json:"transitionId"`
	State        ProgressState `json:"state"`
	Message      string        `json:"message,omitempty"`
	At           time.Time     `json:"at"`
}
