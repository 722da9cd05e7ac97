package rakuten

import (
	"strings"
	"unicode"
)

// BestMatch picks the candidate whose name shares the most tokens with the
// part name. Ties go to the earliest candidate, so upstream relevance order
// breaks them. Candidates must be non-empty; callers short-circuit on empty
// search results before getting here.
func BestMatch(partName string, candidates []Item) Item {
	target := tokenize(partName)

	best := candidates[0]
	bestScore := overlap(target, tokenize(best.Name))
	for _, cand := range candidates[1:] {
		if score := overlap(target, tokenize(cand.Name)); score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return best
}

// tokenize lower-cases and splits on whitespace, hyphen and slash,
// returning the token set.
func tokenize(name string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '/'
	})
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
