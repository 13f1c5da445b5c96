package signals

import (
	"time"

	"github.com/google/uuid"

	"readiness-workers/internal/models"
	"readiness-workers/internal/providers"
)

const insightContentRunes = 500

var categoryTerms = []struct {
	category models.InsightCategory
	terms    []string
}{
	{models.CategoryMarket, []string{"salary", "salaries", "hiring", "job market", "demand", "openings", "compensation", "offers"}},
	{models.CategoryEducation, []string{"course", "bootcamp", "certification", "certificate", "degree", "tutorial", "learn", "study", "curriculum"}},
	{models.CategoryTrend, []string{"trend", "growth", "future of", "adoption", "rising", "forecast", "industry", "emerging"}},
	{models.CategoryLocation, []string{"remote", "hybrid", "relocat", "city", "hub", "on-site", "onsite", "visa"}},
	{models.CategoryNetworking, []string{"network", "meetup", "conference", "mentor", "linkedin", "community", "referral"}},
	{models.CategorySkills, []string{"skill", "experience with", "proficien", "stack", "tooling", "framework", "language"}},
}

// Classify tags each document with every insight category whose keywords it
// mentions, producing one InsightRecord per (document, category) pair.
// Documents matching no category are skipped.
func Classify(transitionID string, docs []models.Document) []models.InsightRecord {
	var out []models.InsightRecord
	for _, doc := range docs {
		text := doc.Text()
		if text == "" {
			continue
		}
		created := doc.Timestamp()
		if created.IsZero() {
			created = time.Now().UTC()
		}
		content := providers.Truncate(text, insightContentRunes)
		for _, ct := range categoryTerms {
			if !containsAny(text, ct.terms) {
				continue
			}
			out = append(out, models.InsightRecord{
				ID:           insightID(transitionID, ct.category, doc),
				TransitionID: transitionID,
				Source:       doc.SourceName(),
				Category:     ct.category,
				Content:      content,
				URL:          doc.Link(),
				CreatedAt:    created,
			})
		}
	}
	return out
}

// insightID is stable per (transition, category, document), so collecting the
// same documents again does not store them twice.
func insightID(transitionID string, category models.InsightCategory, doc models.Document) string {
	ref := doc.Link()
	if ref == "" {
		ref = doc.Text()
	}
	key := transitionID + "|" + string(category) + "|" + doc.SourceName() + "|" + ref
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}
