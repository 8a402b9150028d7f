package normalizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"peoples-bill-be/pkg/apperror"
	"peoples-bill-be/pkg/region"
)

const (
	MinContentLen   = 10
	MaxContentLen   = 5000
	MinAge          = 13
	MaxAge          = 120
	MaxOccupation   = 100
	DefaultLanguage = "en"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}$`)

// Input is a raw submission as delivered by the intake collaborator.
type Input struct {
	Content    string
	Region     string
	Language   string
	Age        *int
	Occupation *string
}

// Result is a validated, normalized submission. Demographic fields pass through.
type Result struct {
	Content    string
	Normalized string
	Region     string
	Language   string
	Age        *int
	Occupation *string
}

// Normalize cleans and validates a raw submission. It never coerces an invalid
// value into a valid one.
func Normalize(in Input) (*Result, error) {
	text := CollapseWhitespace(in.Content)

	length := utf8.RuneCountInString(text)
	if length < MinContentLen {
		return nil, apperror.NewValidationError("content", "min_length",
			fmt.Sprintf("submission must be at least %d characters", MinContentLen))
	}
	if length > MaxContentLen {
		return nil, apperror.NewValidationError("content", "max_length",
			fmt.Sprintf("submission must be at most %d characters", MaxContentLen))
	}

	if !region.IsValid(in.Region) {
		return nil, apperror.NewValidationError("region", "region",
			fmt.Sprintf("invalid region, must be one of: %s", strings.Join(region.Names(), ", ")))
	}

	lang := strings.ToLower(strings.TrimSpace(in.Language))
	if lang == "" {
		lang = DefaultLanguage
	}
	if !languagePattern.MatchString(lang) {
		return nil, apperror.NewValidationError("language", "language", "language must be a 2 or 3 letter code")
	}

	if in.Age != nil && (*in.Age < MinAge || *in.Age > MaxAge) {
		return nil, apperror.NewValidationError("age", "age_range",
			fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	}

	var occupation *string
	if in.Occupation != nil {
		occ := strings.TrimSpace(*in.Occupation)
		if utf8.RuneCountInString(occ) > MaxOccupation {
			return nil, apperror.NewValidationError("occupation", "max_length",
				fmt.Sprintf("occupation must be at most %d characters", MaxOccupation))
		}
		if occ != "" {
			occupation = &occ
		}
	}

	return &Result{
		Content:    in.Content,
		Normalized: text,
		Region:     in.Region,
		Language:   lang,
		Age:        in.Age,
		Occupation: occupation,
	}, nil
}

// CollapseWhitespace trims the text and collapses whitespace runs to a single space.
func CollapseWhitespace(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// ComparableText lowercases the text and replaces everything but letters and
// digits with single spaces. Used for term extraction and local embeddings.
func ComparableText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return CollapseWhitespace(b.String())
}
