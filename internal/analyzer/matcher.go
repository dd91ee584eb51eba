package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TermMatch collects the occurrences of one search term in a page's text.
type TermMatch struct {
	Term      string   `json:"term"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// FindTermMatches scans content for each term, case-insensitively, and
// returns one TermMatch per term that occurs at least once. Sentences keep
// their original casing so numbers and suffixes survive for later parsing.
func FindTermMatches(content string, terms []string) []TermMatch {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	lowerContent := strings.ToLower(content)
	sentences := splitIntoSentences(content)

	results := make([]TermMatch, 0, len(terms))
	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		n := strings.Count(lowerContent, lowerTerm)
		if n == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.lower, lowerTerm) {
				matched = append(matched, s.original)
			}
		}
		results = append(results, TermMatch{Term: term, Count: n, Sentences: matched})
	}
	return results
}

type sentence struct {
	original string
	lower    string
}

// splitIntoSentences splits on '.', '!' and '?' followed by whitespace or the
// end of text, and on newlines. A dot between digits ("12.5K") does not end
// a sentence. Whitespace runs inside a sentence collapse to one space.
func splitIntoSentences(text string) []sentence {
	var out []sentence
	emit := func(s string) {
		s = strings.Join(strings.Fields(s), " ")
		if s != "" {
			out = append(out, sentence{original: s, lower: strings.ToLower(s)})
		}
	}

	start := 0
	for i, r := range text {
		switch r {
		case '\n':
			emit(text[start:i])
			start = i + 1
		case '.', '!', '?':
			end := i + 1
			next, _ := utf8.DecodeRuneInString(text[end:])
			if end < len(text) && !unicode.IsSpace(next) {
				continue
			}
			emit(text[start:end])
			start = end
		}
	}
	if start < len(text) {
		emit(text[start:])
	}
	return out
}
