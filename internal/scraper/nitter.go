package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/FranksOps/followtrack/internal/analyzer"
	"github.com/FranksOps/followtrack/internal/count"
	"github.com/PuerkitoBio/goquery"
)

// DefaultNitterInstances lists the Nitter mirrors tried, in priority order.
var DefaultNitterInstances = []string{
	"https://nitter.net",
	"https://nitter.privacydev.net",
	"https://nitter.poast.org",
	"https://nitter.it",
}

var followersPhrase = regexp.MustCompile(`(?i)([\d.,]+\s*[KMB]?)\s*followers?`)

// NitterSource reads the profile page of a Nitter mirror.
type NitterSource struct {
	BaseURL string
	fetcher *Fetcher
}

func NewNitterSource(baseURL string, f *Fetcher) *NitterSource {
	return &NitterSource{BaseURL: strings.TrimRight(baseURL, "/"), fetcher: f}
}

// Name is the mirror's host, e.g. "nitter.net".
func (s *NitterSource) Name() string {
	if u, err := url.Parse(s.BaseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return s.BaseURL
}

func (s *NitterSource) FetchCount(ctx context.Context, handle string) (int64, error) {
	doc, err := fetchDocument(ctx, s.fetcher, s.BaseURL+"/"+url.PathEscape(handle))
	if err != nil {
		return 0, err
	}
	return firstPlausible(doc, count.StructuralRange,
		nitterFollowersStat,
		nitterSecondStat,
		nitterFollowersText,
	)
}

// nitterFollowersStat reads the labelled followers stat of current Nitter markup.
func nitterFollowersStat(doc *goquery.Document) []string {
	var out []string
	doc.Find("li.followers .profile-stat-num").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}

// nitterSecondStat covers older markup where the stats are unlabelled and
// the second one (tweets, followers, following...) is followers.
func nitterSecondStat(doc *goquery.Document) []string {
	stats := doc.Find("span.profile-stat-num")
	if stats.Length() < 2 {
		return nil
	}
	return []string{strings.TrimSpace(stats.Eq(1).Text())}
}

// nitterFollowersText searches the page text for "<number> followers".
func nitterFollowersText(doc *goquery.Document) []string {
	var out []string
	for _, m := range analyzer.FindTermMatches(doc.Text(), []string{"follower"}) {
		for _, sentence := range m.Sentences {
			for _, sub := range followersPhrase.FindAllStringSubmatch(sentence, -1) {
				out = append(out, sub[1])
			}
		}
	}
	return out
}
