package drafter

import (
	"strings"
	"unicode/utf8"
)

const minClauseLen = 50

var (
	legalTerms   = []string{"shall", "may", "pursuant", "notwithstanding", "provided"}
	subjectTerms = []string{"officer", "person", "prosecutor", "court"}
)

// Validation reports drafting problems in a clause body. Issues never block
// storage; they are surfaced to reviewers.
type Validation struct {
	Valid       bool     `json:"is_valid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

func Validate(body string) Validation {
	v := Validation{Issues: []string{}, Suggestions: []string{}}
	lower := strings.ToLower(body)

	if utf8.RuneCountInString(strings.TrimSpace(body)) < minClauseLen {
		v.Issues = append(v.Issues, "Clause is too short")
		v.Suggestions = append(v.Suggestions, "Expand the clause with more specific details")
	}
	if !containsAny(lower, legalTerms) {
		v.Issues = append(v.Issues, "Missing formal legal language")
		v.Suggestions = append(v.Suggestions, "Use formal legal terms like 'shall', 'pursuant to', etc.")
	}
	if !containsAny(lower, subjectTerms) {
		v.Issues = append(v.Issues, "Unclear subject of the clause")
		v.Suggestions = append(v.Suggestions, "Clearly identify who is subject to this provision")
	}

	v.Valid = len(v.Issues) == 0
	return v
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
