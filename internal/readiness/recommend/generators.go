package recommend

import (
	"fmt"
	"sort"
	"strings"

	"readiness-workers/internal/models"
	"readiness-workers/internal/readiness/signals"
)

const (
	maxSkillItems   = 5
	immediateSkills = 3
	strongScore     = 70
	weakScore       = 50
)

func skillDevelopment(in *Input) []models.RecommendationItem {
	var items []models.RecommendationItem
	for i, gap := range in.SkillGaps {
		if i == maxSkillItems {
			break
		}
		item := models.RecommendationItem{
			Title:       "Learn " + gap.Skill,
			Description: skillDescription(gap),
			Priority:    models.PriorityHigh,
			Timeframe:   models.TimeframeImmediate,
		}
		if i >= immediateSkills {
			item.Priority = models.PriorityMedium
			item.Timeframe = models.TimeframeShortTerm
		}
		items = append(items, item)
	}

	if in.SubScores.SkillGap >= strongScore && len(in.SkillGaps) > 0 {
		items = append(items, models.RecommendationItem{
			Title:       "Deepen your strongest transferable skills",
			Description: "You already cover most target skills. Go deeper on them to stand out against other candidates.",
			Priority:    models.PriorityLow,
			Timeframe:   models.TimeframeOngoing,
		})
	}
	return items
}

func skillDescription(gap models.SkillGapEntry) string {
	if gap.MentionCount == 0 {
		return fmt.Sprintf("%s is expected for the target role and missing from your skills.", gap.Skill)
	}
	return fmt.Sprintf("%s is missing from your skills and appears in %d current listings and insights (%s gap).",
		gap.Skill, gap.MentionCount, strings.ToLower(string(gap.GapLevel)))
}

func marketPositioning(in *Input) []models.RecommendationItem {
	s := in.Snapshot
	if len(s.Jobs) == 0 {
		return nil
	}
	role := s.TargetRole
	if role == "" {
		role = "target role"
	}

	var items []models.RecommendationItem
	companies := topCompanies(s.Jobs, 3)
	desc := fmt.Sprintf("%d open %s listings were found.", len(s.Jobs), role)
	if len(companies) > 0 {
		desc += " Active employers include " + strings.Join(companies, ", ") + "."
	}
	items = append(items, models.RecommendationItem{
		Title:       fmt.Sprintf("Tailor your resume to %s listings", role),
		Description: desc,
		Priority:    models.PriorityHigh,
		Timeframe:   models.TimeframeImmediate,
		Resources:   applyLinks(s.Jobs, 3),
	})

	if skills := topListedSkills(s.Jobs, 5); len(skills) > 0 {
		items = append(items, models.RecommendationItem{
			Title:       "Highlight in-demand skills on your profile",
			Description: "Listings most often ask for: " + strings.Join(skills, ", ") + ".",
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeShortTerm,
		})
	}

	if lo, hi, cur, ok := salaryRange(s.Jobs); ok {
		items = append(items, models.RecommendationItem{
			Title:       "Benchmark your salary expectations",
			Description: fmt.Sprintf("Advertised pay ranges from %s to %s.", formatMoney(lo, cur), formatMoney(hi, cur)),
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeShortTerm,
		})
	}

	if in.SubScores.Market < weakScore {
		items = append(items, models.RecommendationItem{
			Title:       "Consider adjacent roles as a stepping stone",
			Description: "Demand for the target role looks limited. Roles that share its skills can shorten the path.",
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeLongTerm,
		})
	}
	return items
}

func (s *Synthesizer) educationPaths(in *Input) []models.RecommendationItem {
	edu := in.Snapshot.Insights[models.CategoryEducation]
	if len(edu) == 0 {
		return nil
	}

	priority := models.PriorityMedium
	if in.SubScores.Education < weakScore {
		priority = models.PriorityHigh
	}

	var items []models.RecommendationItem
	for _, cert := range s.catalogue {
		for _, rec := range edu {
			if mentionsAny(rec.Content, cert.Keywords) {
				items = append(items, models.RecommendationItem{
					Title:       "Pursue the " + cert.Name,
					Description: fmt.Sprintf("Market discussions for this transition mention the %s.", cert.Name),
					Priority:    priority,
					Timeframe:   models.TimeframeShortTerm,
					Resources:   []string{cert.URL},
				})
				break
			}
		}
	}

	var links []string
	for _, rec := range edu {
		if rec.URL != "" && len(links) < 5 {
			links = append(links, rec.URL)
		}
	}
	items = append(items, models.RecommendationItem{
		Title:       "Follow a structured learning path",
		Description: fmt.Sprintf("%d education resources were found for this transition. Pick one and follow it end to end.", len(edu)),
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeLongTerm,
		Resources:   links,
	})
	return items
}

func experienceBuilding(in *Input) []models.RecommendationItem {
	var items []models.RecommendationItem

	if len(in.SkillGaps) > 0 {
		focus := make([]string, 0, 2)
		for _, g := range in.SkillGaps {
			if len(focus) == 2 {
				break
			}
			focus = append(focus, g.Skill)
		}
		items = append(items, models.RecommendationItem{
			Title:       "Build a portfolio project with " + strings.Join(focus, " and "),
			Description: "A public project that uses your missing skills gives employers concrete evidence.",
			Priority:    models.PriorityHigh,
			Timeframe:   models.TimeframeShortTerm,
		})
	}

	if overlap := overlapping(in.Snapshot.CurrentRoleSkills, in.Snapshot.TargetRoleSkills); len(overlap) > 0 {
		items = append(items, models.RecommendationItem{
			Title:       "Use your current role as a bridge",
			Description: "Your current role already exercises " + strings.Join(overlap, ", ") + ". Ask for projects that lean on them.",
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeImmediate,
		})
	}

	if skills := in.Snapshot.Insights[models.CategorySkills]; len(skills) > 0 {
		items = append(items, models.RecommendationItem{
			Title:       "Contribute to open-source projects in the field",
			Description: fmt.Sprintf("%d skill discussions suggest hands-on contribution is valued.", len(skills)),
			Priority:    models.PriorityLow,
			Timeframe:   models.TimeframeOngoing,
		})
	}
	return items
}

func networking(in *Input) []models.RecommendationItem {
	s := in.Snapshot
	var items []models.RecommendationItem

	if nw := s.Insights[models.CategoryNetworking]; len(nw) > 0 {
		var links []string
		for _, rec := range nw {
			if rec.URL != "" && len(links) < 3 {
				links = append(links, rec.URL)
			}
		}
		items = append(items, models.RecommendationItem{
			Title:       "Join the communities practitioners mention",
			Description: fmt.Sprintf("%d networking insights point to active communities for this field.", len(nw)),
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeOngoing,
			Resources:   links,
		})
	}

	if in.SubScores.Geography >= strongScore {
		items = append(items, models.RecommendationItem{
			Title:       "Attend local and virtual meetups",
			Description: "Location signals are favourable. In-person and remote events are a direct route to referrals.",
			Priority:    models.PriorityMedium,
			Timeframe:   models.TimeframeShortTerm,
		})
	}

	if len(items) > 0 && s.TargetRole != "" {
		items = append(items, models.RecommendationItem{
			Title:       "Request informational interviews",
			Description: fmt.Sprintf("Ask three people working as %s about their path into the role.", s.TargetRole),
			Priority:    models.PriorityHigh,
			Timeframe:   models.TimeframeImmediate,
		})
	}
	return items
}

func mentionsAny(text string, terms []string) bool {
	for _, t := range terms {
		if signals.MentionsWord(text, t) {
			return true
		}
	}
	return false
}

func topCompanies(jobs []models.NormalizedListing, n int) []string {
	return topN(jobs, n, func(j models.NormalizedListing) []string {
		if j.Company == "" {
			return nil
		}
		return []string{j.Company}
	})
}

func topListedSkills(jobs []models.NormalizedListing, n int) []string {
	return topN(jobs, n, func(j models.NormalizedListing) []string { return j.Skills })
}

// topN ranks values by frequency, ties broken by first appearance.
func topN(jobs []models.NormalizedListing, n int, values func(models.NormalizedListing) []string) []string {
	counts := map[string]int{}
	var order []string
	for _, j := range jobs {
		for _, v := range values(j) {
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

func applyLinks(jobs []models.NormalizedListing, n int) []string {
	var out []string
	for _, j := range jobs {
		if j.ApplyURL != "" {
			out = append(out, j.ApplyURL)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

func salaryRange(jobs []models.NormalizedListing) (lo, hi float64, currency string, ok bool) {
	for _, j := range jobs {
		if !j.Salary.Present() {
			continue
		}
		for _, v := range []float64{j.Salary.Min, j.Salary.Max} {
			if v <= 0 {
				continue
			}
			if !ok || v < lo {
				lo = v
			}
			if !ok || v > hi {
				hi = v
			}
			ok = true
		}
		if currency == "" {
			currency = j.Salary.Currency
		}
	}
	return lo, hi, currency, ok
}

func formatMoney(v float64, currency string) string {
	s := fmt.Sprintf("%.0f", v)
	if currency != "" {
		s += " " + currency
	}
	return s
}

func overlapping(current, target []string) []string {
	set := make(map[string]bool, len(current))
	for _, c := range current {
		set[strings.ToLower(strings.TrimSpace(c))] = true
	}
	var out []string
	for _, t := range target {
		if set[strings.ToLower(strings.TrimSpace(t))] {
			out = append(out, t)
		}
	}
	return out
}
