package labeler

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name           string
		texts          []string
		representative int
		wantLabel      string
		wantMethod     string
		wantKeywords   []string
	}{
		{
			name: "known theme",
			texts: []string{
				"Corruption must attract severe penalties including prison terms.",
				"Severe penalties and prison terms for corruption convictions.",
			},
			wantLabel:    "Anti-Corruption Measures",
			wantMethod:   MethodTheme,
			wantKeywords: []string{"corruption", "penalties", "prison", "severe", "terms"},
		},
		{
			name: "theme from first matching keyword",
			texts: []string{
				"Public officers must declare their assets and property every year.",
				"Every public officer should declare assets and property publicly.",
				"Asset declaration by public officers must cover all property.",
			},
			wantLabel:    "Property Disclosure",
			wantMethod:   MethodTheme,
			wantKeywords: []string{"property", "public", "assets", "declare", "officers"},
		},
		{
			name: "shared keyword without theme",
			texts: []string{
				"Rural roads need tarring before rains.",
				"Rural roads flood badly every year.",
			},
			wantLabel:  "Roads-Related Submissions",
			wantMethod: MethodKeyword,
		},
		{
			name: "inconclusive falls back to representative",
			texts: []string{
				"Build more hospitals in the north. Staff them well.",
				"Stop illegal mining near rivers.",
			},
			representative: 1,
			wantLabel:      "Stop illegal mining near rivers",
			wantMethod:     MethodRepresentative,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Label(tt.texts, tt.representative)
			assert.Equal(t, tt.wantLabel, res.Label)
			assert.Equal(t, tt.wantMethod, res.Method)
			if tt.wantKeywords != nil {
				assert.Equal(t, tt.wantKeywords, res.Keywords)
			}
			assert.True(t, strings.HasPrefix(res.Summary, "Citizens suggest: "))
		})
	}
}

func TestLabelIsStable(t *testing.T) {
	texts := []string{
		"Whistleblowers need protection from retaliation at work.",
		"Protect whistleblowers who report corruption.",
		"Anyone who reports graft deserves protection.",
	}
	first := Label(texts, 0)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Label(texts, 0))
	}
}

func TestRepresentativeLabelIsTruncated(t *testing.T) {
	long := strings.Repeat("abcdefghij ", 10)
	res := Label([]string{long, "zzzz"}, 0)
	assert.Equal(t, MethodRepresentative, res.Method)
	assert.LessOrEqual(t, utf8.RuneCountInString(res.Label), 60)
}

func TestSummary(t *testing.T) {
	assert.Equal(t,
		"Citizens suggest: Build more hospitals in the north; Stop illegal mining near rivers",
		Summary([]string{"Build more hospitals in the north. Staff them well.", "Stop illegal mining near rivers."}))

	long := strings.Repeat("x", 400) + "."
	assert.Equal(t, 500, utf8.RuneCountInString(Summary([]string{long, long, long})))
	assert.Equal(t, "No submissions in this cluster", Summary(nil))
}
