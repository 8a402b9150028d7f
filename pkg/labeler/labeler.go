package labeler

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"peoples-bill-be/pkg/normalizer"
)

const (
	MethodTheme          = "theme"
	MethodKeyword        = "keyword"
	MethodRepresentative = "representative"

	maxKeywords     = 5
	maxLabelRunes   = 60
	maxSummaryRunes = 500
	summaryMembers  = 3
	minTermLen      = 4
)

type theme struct {
	key   string
	label string
}

// Checked in order; the first key contained in a top keyword wins.
var themes = []theme{
	{"asset", "Asset Declaration"},
	{"property", "Property Disclosure"},
	{"wealth", "Unexplained Wealth"},
	{"corruption", "Anti-Corruption Measures"},
	{"investigation", "Investigation Process"},
	{"confiscat", "Asset Confiscation"},
	{"penalt", "Penalties and Sanctions"},
	{"fair", "Fair Hearing Rights"},
	{"whistleblower", "Whistleblower Protection"},
	{"transparency", "Transparency Requirements"},
	{"audit", "Lifestyle Audits"},
	{"income", "Income Verification"},
	{"bank", "Financial Scrutiny"},
	{"office", "Public Office Standards"},
	{"report", "Reporting Requirements"},
}

type Result struct {
	Label    string
	Summary  string
	Keywords []string
	Method   string
}

type termCount struct {
	term string
	freq int
	docs int
}

// Label names a cluster from its member texts. representative is the index of
// the member closest to the centroid and is used when term extraction is
// inconclusive. The result depends only on the texts and their order.
func Label(texts []string, representative int) Result {
	if len(texts) == 0 {
		return Result{Label: "General Submissions", Summary: "No submissions in this cluster", Method: MethodRepresentative}
	}
	if representative < 0 || representative >= len(texts) {
		representative = 0
	}

	terms := salientTerms(texts)
	keywords := make([]string, 0, maxKeywords)
	for i := 0; i < len(terms) && i < maxKeywords; i++ {
		keywords = append(keywords, terms[i].term)
	}

	res := Result{Keywords: keywords, Summary: Summary(texts)}

	for _, kw := range keywords {
		for _, th := range themes {
			if strings.Contains(kw, th.key) {
				res.Label, res.Method = th.label, MethodTheme
				return res
			}
		}
	}

	if len(terms) > 0 && terms[0].docs >= 2 {
		res.Label, res.Method = titleCase(terms[0].term)+"-Related Submissions", MethodKeyword
		return res
	}

	res.Label, res.Method = truncateRunes(firstSentence(texts[representative]), maxLabelRunes), MethodRepresentative
	return res
}

// Summary joins the first sentences of the first few members.
func Summary(texts []string) string {
	if len(texts) == 0 {
		return "No submissions in this cluster"
	}
	parts := make([]string, 0, summaryMembers)
	for i := 0; i < len(texts) && i < summaryMembers; i++ {
		parts = append(parts, firstSentence(texts[i]))
	}
	return truncateRunes("Citizens suggest: "+strings.Join(parts, "; "), maxSummaryRunes)
}

func salientTerms(texts []string) []termCount {
	counts := make(map[string]*termCount)
	for _, text := range texts {
		seen := make(map[string]bool)
		for _, w := range normalizer.Words(text) {
			if utf8.RuneCountInString(w) < minTermLen {
				continue
			}
			tc, ok := counts[w]
			if !ok {
				tc = &termCount{term: w}
				counts[w] = tc
			}
			tc.freq++
			if !seen[w] {
				seen[w] = true
				tc.docs++
			}
		}
	}

	out := make([]termCount, 0, len(counts))
	for _, tc := range counts {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].freq != out[j].freq {
			return out[i].freq > out[j].freq
		}
		return out[i].term < out[j].term
	})
	return out
}

func firstSentence(text string) string {
	text = normalizer.CollapseWhitespace(text)
	if i := strings.IndexAny(text, ".!?"); i > 0 {
		return strings.TrimSpace(text[:i])
	}
	return truncateRunes(text, 100)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

func titleCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
