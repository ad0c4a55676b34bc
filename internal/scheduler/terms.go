package scheduler

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "of": {}, "to": {}, "in": {},
	"on": {}, "for": {}, "with": {}, "about": {}, "my": {}, "more": {}, "how": {},
}

// term is a user phrase reduced to comparable words.
type term struct {
	display string
	words   []string
}

func newTerms(values ...[]string) []term {
	seen := make(map[string]struct{})
	out := make([]term, 0)
	for _, list := range values {
		for _, value := range list {
			words := splitWords(value)
			if len(words) == 0 {
				continue
			}
			key := strings.Join(words, " ")
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, term{display: strings.TrimSpace(value), words: words})
		}
	}
	return out
}

func splitWords(value string) []string {
	fields := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, field := range fields {
		if _, ok := stopWords[field]; ok {
			continue
		}
		out = append(out, field)
	}
	return out
}

// wordMatch compares single words; words of four or more characters also
// match on a shared prefix ("engineer" / "engineering").
func wordMatch(a, b string) bool {
	if a == b {
		return true
	}
	if len(a) < 4 || len(b) < 4 {
		return false
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func containsAll(haystack, needles []string) bool {
	if len(needles) == 0 {
		return false
	}
	for _, needle := range needles {
		found := false
		for _, word := range haystack {
			if wordMatch(word, needle) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matches reports whether the phrase and the term share all words of the
// shorter side.
func (t term) matches(phrase string) bool {
	words := splitWords(phrase)
	return containsAll(words, t.words) || containsAll(t.words, words)
}

// matchingTerms returns the terms matched by any of the phrases, in term order.
func matchingTerms(terms []term, phrases []string) []term {
	var out []term
	for _, t := range terms {
		for _, phrase := range phrases {
			if t.matches(phrase) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// countMatching returns how many phrases match at least one term.
func countMatching(terms []term, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		for _, t := range terms {
			if t.matches(phrase) {
				count++
				break
			}
		}
	}
	return count
}

func displayTerms(terms []term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.display)
	}
	return out
}
