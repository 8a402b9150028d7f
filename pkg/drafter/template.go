package drafter

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"peoples-bill-be/pkg/apperror"
)

const TemplateVersion = "template-v1"

type clauseTemplate struct {
	key       string
	title     string
	body      string
	rationale string
}

var templates = []clauseTemplate{
	{
		key:       "Asset Declaration",
		title:     "Asset Declaration Requirements",
		body:      "Every public officer shall, within {timeframe} of assumption of office and {frequency} thereafter, submit to the Office of the Special Prosecutor a comprehensive declaration of assets, liabilities, and business interests, including those of their spouse and children under eighteen years of age.",
		rationale: "Ensures transparency and accountability in public service",
	},
	{
		key:       "Unexplained Wealth",
		title:     "Presumption of Unexplained Wealth",
		body:      "Where the Office of the Special Prosecutor has reasonable grounds to believe that a public officer owns property or has pecuniary resources disproportionate to their known sources of income, the burden of proof shall shift to the officer to demonstrate that such assets were lawfully acquired.",
		rationale: "Implements reverse burden of proof for unexplained wealth",
	},
	{
		key:       "Investigation Process",
		title:     "Investigation Procedures",
		body:      "Upon receipt of credible information or citizen petition regarding unexplained wealth, the Office of the Special Prosecutor shall, within {timeframe}, commence preliminary investigations and notify the concerned public officer in writing of the nature of the inquiry.",
		rationale: "Establishes clear investigation procedures",
	},
	{
		key:       "Asset Confiscation",
		title:     "Confiscation of Unexplained Assets",
		body:      "Where a public officer fails to satisfactorily explain the lawful origin of assets deemed disproportionate to their income, the High Court shall, upon application by the Office of the Special Prosecutor, order the confiscation of such assets to the State.",
		rationale: "Provides for recovery of illicitly acquired assets",
	},
	{
		key:       "Fair Hearing Rights",
		title:     "Right to Fair Hearing",
		body:      "Every person subject to investigation under this Act shall have the right to: (a) receive written notice of the investigation; (b) legal representation of their choice; (c) present evidence in their defense; (d) cross-examine witnesses; and (e) appeal any adverse determination to a higher court.",
		rationale: "Protects constitutional rights during investigations",
	},
	{
		key:       "Penalties and Sanctions",
		title:     "Penalties for Violation",
		body:      "Any public officer found guilty of possessing unexplained wealth shall be: (a) liable to a fine not exceeding three times the value of the unexplained assets; (b) disqualified from holding public office for a period not less than {years} years; and (c) subject to imprisonment for a term not exceeding {prison_term} years.",
		rationale: "Establishes deterrent penalties",
	},
	{
		key:       "Whistleblower Protection",
		title:     "Protection of Whistleblowers",
		body:      "Any person who, in good faith, provides information leading to the discovery of unexplained wealth shall be: (a) protected from victimization, discrimination, or retaliatory action; (b) entitled to witness protection where necessary; and (c) eligible for a reward not exceeding {percentage}% of recovered assets.",
		rationale: "Encourages reporting of corruption",
	},
}

var (
	timeframePatterns = []struct {
		unit string
		re   *regexp.Regexp
	}{
		{"days", regexp.MustCompile(`(\d+)\s*days?`)},
		{"months", regexp.MustCompile(`(\d+)\s*months?`)},
		{"years", regexp.MustCompile(`(\d+)\s*years?`)},
	}
	yearsPattern = regexp.MustCompile(`(\d+)\s*years?`)

	frequencyKeywords = []string{"yearly", "annually", "every year", "every two years", "biannually"}
)

// Placeholders holds the values substituted into template bodies.
type Placeholders struct {
	Timeframe  string
	Frequency  string
	Years      string
	PrisonTerm string
	Percentage string
}

func DefaultPlaceholders() Placeholders {
	return Placeholders{
		Timeframe:  "thirty (30) days",
		Frequency:  "every two (2) years",
		Years:      "ten (10)",
		PrisonTerm: "five (5)",
		Percentage: "10",
	}
}

// ExtractPlaceholders scans member texts for concrete timeframes, frequencies
// and penalty terms. Later members override earlier ones.
func ExtractPlaceholders(texts []string) Placeholders {
	p := DefaultPlaceholders()

	for _, raw := range sample(texts) {
		text := strings.ToLower(raw)

		for _, tp := range timeframePatterns {
			if m := tp.re.FindStringSubmatch(text); m != nil {
				p.Timeframe = m[1] + " " + tp.unit
				break
			}
		}

		for _, kw := range frequencyKeywords {
			if strings.Contains(text, kw) {
				if strings.Contains(kw, "two") || strings.HasPrefix(kw, "bi") {
					p.Frequency = "every two (2) years"
				} else {
					p.Frequency = "annually"
				}
				break
			}
		}

		years := yearsPattern.FindStringSubmatch(text)
		if years == nil {
			continue
		}
		if strings.Contains(text, "disqualif") || strings.Contains(text, "ban") {
			p.Years = years[1]
		}
		if strings.Contains(text, "prison") || strings.Contains(text, "jail") {
			p.PrisonTerm = years[1]
		}
	}
	return p
}

func (p Placeholders) apply(body string) string {
	return strings.NewReplacer(
		"{timeframe}", p.Timeframe,
		"{frequency}", p.Frequency,
		"{years}", p.Years,
		"{prison_term}", p.PrisonTerm,
		"{percentage}", p.Percentage,
	).Replace(body)
}

// TemplateDrafter fills the legal template catalogue. It never calls out and
// always succeeds for a non-empty cluster.
type TemplateDrafter struct{}

func NewTemplateDrafter() *TemplateDrafter {
	return &TemplateDrafter{}
}

func (d *TemplateDrafter) Version() string {
	return TemplateVersion
}

func (d *TemplateDrafter) Draft(ctx context.Context, in Input) (*Draft, error) {
	if len(in.Texts) == 0 {
		return nil, &apperror.ClauseGenerationError{ClusterID: in.ClusterID, Err: fmt.Errorf("cluster has no members")}
	}

	label := strings.TrimSpace(in.Label)
	if label == "" {
		label = "General Submissions"
	}

	tpl, ok := matchTemplate(label)
	if !ok {
		lower := strings.ToLower(label)
		tpl = clauseTemplate{
			title:     "Provision for " + label,
			body:      fmt.Sprintf("The Office of the Special Prosecutor shall have the power to implement measures regarding %s as determined necessary for the effective administration of this Act.", lower),
			rationale: "Addresses citizen concerns about " + lower,
		}
	}

	body := ExtractPlaceholders(in.Texts).apply(tpl.body)
	return &Draft{
		Title:      tpl.title,
		Body:       body,
		Rationale:  tpl.rationale,
		Method:     MethodTemplate,
		Version:    TemplateVersion,
		Validation: Validate(body),
	}, nil
}

func matchTemplate(label string) (clauseTemplate, bool) {
	l := strings.ToLower(label)
	for _, t := range templates {
		k := strings.ToLower(t.key)
		if strings.Contains(l, k) || strings.Contains(k, l) {
			return t, true
		}
	}
	return clauseTemplate{}, false
}
