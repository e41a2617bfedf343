// Package filter post-processes contact lists: title rules, designation
// matching, deduplication and employee-range eligibility.
package filter

import (
	"strings"
	"unicode"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// blockedKeywords are rejected wherever they appear as a whole word. Plural
// and -ship forms are listed explicitly so "International" still passes.
var blockedKeywords = []string{
	"intern", "interns", "internship", "internships",
	"student", "students",
	"volunteer", "volunteers",
	"freelancer", "freelancers",
	"contractor", "contractors",
	"trainee", "trainees",
}

// genericTitles are rejected only when they are the entire title.
var genericTitles = map[string]bool{
	"employee":    true,
	"staff":       true,
	"worker":      true,
	"member":      true,
	"team member": true,
}

// Tokens splits s into lowercase alphanumeric words. Every other rune is a
// separator.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsWord reports whether keyword occurs in title on word boundaries.
// Multi-word keywords must appear as a contiguous run of words.
func ContainsWord(title, keyword string) bool {
	kw := Tokens(keyword)
	if len(kw) == 0 {
		return false
	}
	words := Tokens(title)
	for i := 0; i+len(kw) <= len(words); i++ {
		match := true
		for j := range kw {
			if words[i+j] != kw[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// IsBlockedTitle reports whether a title is never acceptable regardless of
// designation.
func IsBlockedTitle(title string) bool {
	if genericTitles[strings.Join(Tokens(title), " ")] {
		return true
	}
	for _, kw := range blockedKeywords {
		if ContainsWord(title, kw) {
			return true
		}
	}
	return false
}

// MatchesDesignation reports whether title satisfies the designation filter.
// An empty filter matches every title.
func MatchesDesignation(title string, f model.DesignationFilter) bool {
	if f.Empty() {
		return true
	}
	for _, kw := range f {
		if ContainsWord(title, kw) {
			return true
		}
	}
	return false
}

var contactTypeRules = []struct {
	kind     model.ContactType
	keywords []string
}{
	{model.ContactTypeFounder, []string{"founder", "co-founder", "cofounder", "owner", "ceo"}},
	{model.ContactTypeHR, []string{"hr", "human resources", "human resource", "recruiter", "talent", "chro"}},
	{model.ContactTypeExecutive, []string{"director", "manager", "vp", "vice president", "head", "chief"}},
}

// Categorize buckets a title into a coarse contact type.
func Categorize(title string) model.ContactType {
	for _, rule := range contactTypeRules {
		for _, kw := range rule.keywords {
			if ContainsWord(title, kw) {
				return rule.kind
			}
		}
	}
	return model.ContactTypeEmployee
}
