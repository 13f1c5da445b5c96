package recommend

import "readiness-workers/internal/models"

// Fallback lists are returned when a category's generator panics or has
// nothing to say, so no category of a bundle is ever empty.

var fallbackSkillDevelopment = []models.RecommendationItem{
	{
		Title:       "Map the core skills of your target role",
		Description: "Collect five recent job postings for the role and list the skills they share. Rate yourself against each one.",
		Priority:    models.PriorityHigh,
		Timeframe:   models.TimeframeImmediate,
	},
	{
		Title:       "Practice one skill each week",
		Description: "Pick the skill you rated lowest and spend a few focused hours on it every week.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeOngoing,
	},
}

var fallbackMarketPositioning = []models.RecommendationItem{
	{
		Title:       "Rewrite your resume for the target role",
		Description: "Lead with transferable achievements and use the vocabulary of target-role postings.",
		Priority:    models.PriorityHigh,
		Timeframe:   models.TimeframeShortTerm,
	},
	{
		Title:       "Update your professional profiles",
		Description: "Align your headline and summary with the role you are moving into.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeShortTerm,
	},
}

var fallbackEducationPaths = []models.RecommendationItem{
	{
		Title:       "Take an introductory course in the target field",
		Description: "A short structured course fills foundational gaps and signals commitment to employers.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeShortTerm,
	},
	{
		Title:       "Research recognized certifications",
		Description: "Find which certifications hiring managers in the target role ask for most often.",
		Priority:    models.PriorityLow,
		Timeframe:   models.TimeframeLongTerm,
	},
}

var fallbackExperienceBuilding = []models.RecommendationItem{
	{
		Title:       "Build a small portfolio project",
		Description: "Ship one project that exercises the target role's day-to-day work and publish it.",
		Priority:    models.PriorityHigh,
		Timeframe:   models.TimeframeShortTerm,
	},
	{
		Title:       "Take on adjacent work in your current job",
		Description: "Volunteer for tasks that overlap with the target role to gain referenceable experience.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeOngoing,
	},
}

var fallbackNetworking = []models.RecommendationItem{
	{
		Title:       "Talk to people already in the role",
		Description: "Request three informational interviews with practitioners in the target role.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeShortTerm,
	},
	{
		Title:       "Join a professional community",
		Description: "Participate regularly in an online or local community for the target field.",
		Priority:    models.PriorityLow,
		Timeframe:   models.TimeframeOngoing,
	},
}

var planningSteps = []models.RecommendationItem{
	{
		Title:       "Create a transition plan",
		Description: "Turn these recommendations into a dated plan with monthly milestones.",
		Priority:    models.PriorityHigh,
		Timeframe:   models.TimeframeImmediate,
	},
	{
		Title:       "Establish progress tracking",
		Description: "Regenerate your readiness score regularly and review which sub-scores moved.",
		Priority:    models.PriorityMedium,
		Timeframe:   models.TimeframeOngoing,
	},
}

func fallbackFor(c category) []models.RecommendationItem {
	var src []models.RecommendationItem
	switch c {
	case categorySkillDevelopment:
		src = fallbackSkillDevelopment
	case categoryMarketPositioning:
		src = fallbackMarketPositioning
	case categoryEducationPaths:
		src = fallbackEducationPaths
	case categoryExperienceBuilding:
		src = fallbackExperienceBuilding
	default:
		src = fallbackNetworking
	}
	return clone(src)
}

func clone(items []models.RecommendationItem) []models.RecommendationItem {
	out := make([]models.RecommendationItem, len(items))
	copy(out, items)
	return out
}
