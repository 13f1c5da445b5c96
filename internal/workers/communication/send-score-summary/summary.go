package sendscoresummary

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"readiness-workers/internal/models"
)

type summary struct {
	Name         string
	Score        *models.ReadinessScore
	Highlights   []models.RecommendationItem
	LowSignal    bool
	TopGaps      []models.SkillGapEntry
	Observations []string
}

const maxHighlights = 3

const textBody = `Hi {{.Name}},

Your career readiness score is {{.Score.OverallScore}}/100.

  Market demand   {{.Score.SubScores.Market}}
  Skill gap       {{.Score.SubScores.SkillGap}}
  Education       {{.Score.SubScores.Education}}
  Trend           {{.Score.SubScores.Trend}}
  Geography       {{.Score.SubScores.Geography}}
{{if .LowSignal}}
We found little market data for this transition, so treat the score as a rough estimate.
{{end}}{{if .TopGaps}}
Skills to focus on:
{{range .TopGaps}}  - {{.Skill}} ({{.GapLevel}} gap)
{{end}}{{end}}
Next steps:
{{range .Highlights}}  - {{.Title}}: {{.Description}}
{{end}}`

const htmlBody = `<p>Hi {{.Name}},</p>
<p>Your career readiness score is <strong>{{.Score.OverallScore}}/100</strong>.</p>
<table>
<tr><td>Market demand</td><td>{{.Score.SubScores.Market}}</td></tr>
<tr><td>Skill gap</td><td>{{.Score.SubScores.SkillGap}}</td></tr>
<tr><td>Education</td><td>{{.Score.SubScores.Education}}</td></tr>
<tr><td>Trend</td><td>{{.Score.SubScores.Trend}}</td></tr>
<tr><td>Geography</td><td>{{.Score.SubScores.Geography}}</td></tr>
</table>
{{if .LowSignal}}<p><em>We found little market data for this transition, so treat the score as a rough estimate.</em></p>{{end}}
{{if .TopGaps}}<h3>Skills to focus on</h3><ul>{{range .TopGaps}}<li>{{.Skill}} ({{.GapLevel}} gap)</li>{{end}}</ul>{{end}}
<h3>Next steps</h3>
<ul>{{range .Highlights}}<li><strong>{{.Title}}</strong>: {{.Description}}</li>{{end}}</ul>`

var (
	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

func newSummary(name string, score *models.ReadinessScore) summary {
	if strings.TrimSpace(name) == "" {
		name = "there"
	}
	s := summary{
		Name:      name,
		Score:     score,
		LowSignal: score.SubScores.AllNeutral(),
	}
	next := score.Recommendations.NextSteps
	s.Highlights = next[:min(len(next), maxHighlights)]
	for _, g := range score.SkillGaps {
		if g.GapLevel == models.GapHigh && len(s.TopGaps) < maxHighlights {
			s.TopGaps = append(s.TopGaps, g)
		}
	}
	return s
}

func (s summary) subject() string {
	return fmt.Sprintf("Your career readiness score: %d/100", s.Score.OverallScore)
}

// render returns the plain text and HTML bodies.
func (s summary) render() (string, string, error) {
	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, s); err != nil {
		return "", "", fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, s); err != nil {
		return "", "", fmt.Errorf("render html body: %w", err)
	}
	return text.String(), html.String(), nil
}
