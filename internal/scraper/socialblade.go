package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/FranksOps/followtrack/internal/count"
	"github.com/PuerkitoBio/goquery"
)

const DefaultSocialBladeURL = "https://socialblade.com"

var commaGrouped = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})+\b`)

// SocialBladeSource reads the statistics page of the SocialBlade aggregator.
// Its pages carry many unrelated numbers, so candidates must fall inside
// count.GenericRange.
type SocialBladeSource struct {
	BaseURL string
	fetcher *Fetcher
}

func NewSocialBladeSource(baseURL string, f *Fetcher) *SocialBladeSource {
	return &SocialBladeSource{BaseURL: strings.TrimRight(baseURL, "/"), fetcher: f}
}

func (s *SocialBladeSource) Name() string {
	return "socialblade"
}

func (s *SocialBladeSource) FetchCount(ctx context.Context, handle string) (int64, error) {
	doc, err := fetchDocument(ctx, s.fetcher, s.BaseURL+"/twitter/user/"+url.PathEscape(strings.ToLower(handle)))
	if err != nil {
		return 0, err
	}
	return firstPlausible(doc, count.GenericRange,
		socialBladeTopInfo,
		socialBladeNumbers,
	)
}

// socialBladeTopInfo reads the header stat block labelled "Followers".
func socialBladeTopInfo(doc *goquery.Document) []string {
	var out []string
	doc.Find(".YouTubeUserTopInfo").Each(func(_ int, block *goquery.Selection) {
		if !strings.Contains(strings.ToLower(block.Text()), "followers") {
			return
		}
		if v := strings.TrimSpace(block.Find("span[style*='font-weight: bold'], span b, b").First().Text()); v != "" {
			out = append(out, v)
		}
	})
	return out
}

// socialBladeNumbers returns every comma-grouped number in the page text.
func socialBladeNumbers(doc *goquery.Document) []string {
	return commaGrouped.FindAllString(doc.Text(), -1)
}
