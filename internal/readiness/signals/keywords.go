package signals

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	salaryTerms = []string{"salary", "salaries", "compensation", "pay range", "per year", "per hour", "$", "€", "£", "k/yr"}

	growthTerms = []string{"growth", "growing", "in demand", "in-demand", "high demand", "hiring", "increase", "expanding", "shortage", "booming"}

	structuredPathTerms = []string{"bootcamp", "certification", "certificate", "degree", "course", "curriculum", "roadmap", "learning path", "program"}

	positiveTrendTerms = []string{"growth", "growing", "rising", "increase", "demand", "opportunit", "boom", "expanding", "adoption", "popular"}

	positiveLocationTerms = []string{"hub", "high demand", "thriving", "growing", "many opportunities", "hotspot", "top city", "best city"}

	remoteTerms = []string{"remote", "hybrid", "work from home", "wfh", "distributed", "anywhere"}
)

// containsAny reports whether any term occurs in text. Matching ignores case
// and is substring based, so stems like "opportunit" catch their variants.
func containsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// MentionsWord reports whether term appears in text as a whole word, so
// short skills like "go" or "r" do not match inside other words.
func MentionsWord(text, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return false
	}
	lower := strings.ToLower(text)
	for offset := 0; ; {
		i := strings.Index(lower[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if boundaryBefore(lower, start) && boundaryAfter(lower, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// '+' and '#' end a word only if the term itself did not, so "c" does not
// match "c++" while "c++" still matches itself.
func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
