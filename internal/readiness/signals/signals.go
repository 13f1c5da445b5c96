// Package signals turns normalized provider results and stored insights into
// the five 0-100 readiness sub-scores. Every extractor is a pure function of a
// Snapshot and falls back to Neutral when its input category is empty.
package signals

import (
	"fmt"
	"math"
	"sort"

	"readiness-workers/internal/models"
)

// Neutral is the score for an absent input category: unknown, not poor.
const Neutral = 50

type Signal struct {
	Score        int                    `json:"score"`
	Observations []string               `json:"observations,omitempty"`
	SkillGaps    []models.SkillGapEntry `json:"skillGaps,omitempty"`
}

// Snapshot is the single fetch every extractor in one scoring run reads from.
type Snapshot struct {
	TargetRole        string
	Jobs              []models.NormalizedListing
	Insights          map[models.InsightCategory][]models.InsightRecord
	UserSkills        []string
	CurrentRoleSkills []string
	TargetRoleSkills  []string
}

func NewSnapshot(targetRole string, jobs []models.NormalizedListing, insights []models.InsightRecord, userSkills, currentSkills, targetSkills []string) *Snapshot {
	return &Snapshot{
		TargetRole:        targetRole,
		Jobs:              jobs,
		Insights:          models.InsightsByCategory(insights),
		UserSkills:        userSkills,
		CurrentRoleSkills: currentSkills,
		TargetRoleSkills:  targetSkills,
	}
}

type Extractor struct {
	Name string
	Fn   func(*Snapshot) Signal
}

const (
	NameMarket    = "market"
	NameSkillGap  = "skill_gap"
	NameEducation = "education"
	NameTrend     = "trend"
	NameGeography = "geography"
)

// All lists the extractors in sub-score order.
var All = []Extractor{
	{Name: NameMarket, Fn: Market},
	{Name: NameSkillGap, Fn: SkillGap},
	{Name: NameEducation, Fn: Education},
	{Name: NameTrend, Fn: Trend},
	{Name: NameGeography, Fn: Geography},
}

// Market: min(jobs,40) + salary bonus (20) + min(growth*10,40).
func Market(s *Snapshot) Signal {
	market := s.Insights[models.CategoryMarket]
	if len(s.Jobs) == 0 && len(market) == 0 {
		return neutral("No job listings or market insights found; market demand is unknown")
	}

	salary := false
	for _, j := range s.Jobs {
		if j.Salary.Present() {
			salary = true
			break
		}
	}
	growth := 0
	for _, in := range market {
		if !salary && containsAny(in.Content, salaryTerms) {
			salary = true
		}
		if containsAny(in.Content, growthTerms) {
			growth++
		}
	}

	score := min(len(s.Jobs), 40) + min(growth*10, 40)
	if salary {
		score += 20
	}

	obs := []string{fmt.Sprintf("Found %d job listings for %s", len(s.Jobs), roleOr(s.TargetRole, "the target role"))}
	if salary {
		obs = append(obs, "Salary information is available for the target role")
	}
	if growth > 0 {
		obs = append(obs, fmt.Sprintf("%d market insights point to growing demand", growth))
	}
	return Signal{Score: clamp(score), Observations: obs}
}

// SkillGap: share of target skills already covered by the user's own skills
// or their current role's skills.
func SkillGap(s *Snapshot) Signal {
	targets := dedupe(s.TargetRoleSkills)
	if len(targets) == 0 {
		return neutral("No skill list is defined for the target role")
	}

	have := make(map[string]bool, len(s.UserSkills)+len(s.CurrentRoleSkills))
	for _, sk := range s.UserSkills {
		have[normalizeSkill(sk)] = true
	}
	for _, sk := range s.CurrentRoleSkills {
		have[normalizeSkill(sk)] = true
	}

	matched := 0
	var gaps []models.SkillGapEntry
	for _, target := range targets {
		if have[normalizeSkill(target)] {
			matched++
			continue
		}
		n := s.mentionCount(target)
		gaps = append(gaps, models.SkillGapEntry{
			Skill:        target,
			GapLevel:     gapLevel(n),
			Confidence:   clamp(30 + n*10),
			MentionCount: n,
		})
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].MentionCount > gaps[j].MentionCount })

	score := int(math.Round(float64(matched) / float64(len(targets)) * 100))
	obs := []string{fmt.Sprintf("You already cover %d of %d target-role skills", matched, len(targets))}
	if len(gaps) > 0 {
		obs = append(obs, fmt.Sprintf("Most in-demand missing skill: %s", gaps[0].Skill))
	}
	return Signal{Score: clamp(score), Observations: obs, SkillGaps: gaps}
}

// Education: min(n*10,80) + min(structured*5,20).
func Education(s *Snapshot) Signal {
	edu := s.Insights[models.CategoryEducation]
	if len(edu) == 0 {
		return neutral("No education insights collected yet")
	}
	structured := countMatching(edu, structuredPathTerms)
	score := min(len(edu)*10, 80) + min(structured*5, 20)
	obs := []string{fmt.Sprintf("%d education insights found", len(edu))}
	if structured > 0 {
		obs = append(obs, fmt.Sprintf("%d mention structured learning paths", structured))
	}
	return Signal{Score: clamp(score), Observations: obs}
}

// Trend: min(n*10,60) + min(positive*8,40).
func Trend(s *Snapshot) Signal {
	trend := s.Insights[models.CategoryTrend]
	if len(trend) == 0 {
		return neutral("No industry trend insights collected yet")
	}
	positive := countMatching(trend, positiveTrendTerms)
	score := min(len(trend)*10, 60) + min(positive*8, 40)
	obs := []string{fmt.Sprintf("%d industry trend insights found", len(trend))}
	if positive > 0 {
		obs = append(obs, fmt.Sprintf("%d describe positive momentum", positive))
	}
	return Signal{Score: clamp(score), Observations: obs}
}

// Geography: min(n*10,40) + min(positive*10,30) + min(remote*10,30).
func Geography(s *Snapshot) Signal {
	loc := s.Insights[models.CategoryLocation]
	if len(loc) == 0 {
		return neutral("No location insights collected yet")
	}
	positive := countMatching(loc, positiveLocationTerms)
	remote := countMatching(loc, remoteTerms)
	score := min(len(loc)*10, 40) + min(positive*10, 30) + min(remote*10, 30)
	obs := []string{fmt.Sprintf("%d location insights found", len(loc))}
	if remote > 0 {
		obs = append(obs, fmt.Sprintf("%d mention remote or hybrid options", remote))
	}
	return Signal{Score: clamp(score), Observations: obs}
}

// mentionCount counts listings and insights that mention skill.
func (s *Snapshot) mentionCount(skill string) int {
	n := 0
	for _, j := range s.Jobs {
		if listingMentions(j, skill) {
			n++
		}
	}
	for _, group := range s.Insights {
		for _, in := range group {
			if MentionsWord(in.Content, skill) {
				n++
			}
		}
	}
	return n
}

func listingMentions(j models.NormalizedListing, skill string) bool {
	want := normalizeSkill(skill)
	for _, sk := range j.Skills {
		if normalizeSkill(sk) == want {
			return true
		}
	}
	return MentionsWord(j.Text(), skill)
}

func gapLevel(mentions int) models.GapLevel {
	switch {
	case mentions >= 5:
		return models.GapHigh
	case mentions >= 2:
		return models.GapMedium
	default:
		return models.GapLow
	}
}

func countMatching(insights []models.InsightRecord, terms []string) int {
	n := 0
	for _, in := range insights {
		if containsAny(in.Content, terms) {
			n++
		}
	}
	return n
}

func dedupe(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, sk := range skills {
		key := normalizeSkill(sk)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, sk)
	}
	return out
}

func neutral(observation string) Signal {
	return Signal{Score: Neutral, Observations: []string{observation}}
}

func roleOr(role, fallback string) string {
	if role == "" {
		return fallback
	}
	return role
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
