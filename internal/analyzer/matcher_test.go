package analyzer

import (
	"strings"
	"testing"
)

const profileText = `@jack
Joined March 2006.
Tweets 29,480  Following 4,012
Followers 6.5M. Likes 37.1K
He has 6,512,334 followers across the platform!`

func TestFindTermMatches(t *testing.T) {
	matches := FindTermMatches(profileText, []string{"followers", "retweets"})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match (retweets absent), got %d", len(matches))
	}

	m := matches[0]
	if m.Term != "followers" || m.Count != 2 {
		t.Errorf("expected followers x2, got %s x%d", m.Term, m.Count)
	}

	want := []string{"Followers 6.5M.", "He has 6,512,334 followers across the platform!"}
	if len(m.Sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %q", len(want), len(m.Sentences), m.Sentences)
	}
	for i := range want {
		if m.Sentences[i] != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], m.Sentences[i])
		}
	}
}

func TestFindTermMatches_Empty(t *testing.T) {
	if got := FindTermMatches("", []string{"followers"}); got != nil {
		t.Errorf("expected nil for empty content, got %v", got)
	}
	if got := FindTermMatches(profileText, nil); got != nil {
		t.Errorf("expected nil for no terms, got %v", got)
	}
}

func TestSplitIntoSentences_DecimalPoint(t *testing.T) {
	got := splitIntoSentences("Followers 12.5K. Following  1.2K\n\n  Posts 3,001")
	want := []string{"Followers 12.5K.", "Following 1.2K", "Posts 3,001"}

	if len(got) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].original != want[i] {
			t.Errorf("sentence %d: expected %q, got %q", i, want[i], got[i].original)
		}
		if got[i].lower != strings.ToLower(want[i]) {
			t.Errorf("sentence %d: lowercase mismatch %q", i, got[i].lower)
		}
	}
}

func BenchmarkFindTermMatches(b *testing.B) {
	content := strings.Repeat(profileText+"\n", 500)
	terms := []string{"followers", "follower", "following"}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		FindTermMatches(content, terms)
	}
}
