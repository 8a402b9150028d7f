package normalizer

import "strings"

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above after again all also an and any are as at be been before
		being below between both but by can could did do does doing down during each every few for from
		further had has have having he her here hers him his how i if in into is it its itself just like
		make may me more most must my no nor not now of off on once only or other our ours out over own
		same shall she should so some such than that the their them then there these they this those
		through to too under until up upon us very was we were what when where which while who whom why
		will with would you your`) {
		stopWords[w] = struct{}{}
	}
}

// IsStopWord reports whether the lowercased word carries no topical weight.
func IsStopWord(w string) bool {
	_, ok := stopWords[w]
	return ok
}

// Words splits text into lowercase words with stop words removed.
func Words(text string) []string {
	fields := strings.Fields(ComparableText(text))
	out := fields[:0]
	for _, f := range fields {
		if IsStopWord(f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Stem reduces plural and verb inflections so that "declared", "declare" and
// "declaring" share one form. Crude on purpose: it only needs to be stable.
func Stem(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		w = w[:len(w)-3] + "y"
	case strings.HasSuffix(w, "sses"):
		w = w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is"):
		w = w[:len(w)-1]
	}

	switch {
	case len(w) > 6 && strings.HasSuffix(w, "ing"):
		w = w[:len(w)-3]
	case len(w) > 5 && strings.HasSuffix(w, "ed"):
		w = w[:len(w)-2]
	}

	if len(w) > 4 && strings.HasSuffix(w, "e") {
		w = w[:len(w)-1]
	}
	return w
}
