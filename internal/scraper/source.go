package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/FranksOps/followtrack/internal/count"
	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrUnexpectedStatus is returned when a source answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("scraper: unexpected status")
	// ErrNoCandidate is returned when no extraction strategy found a plausible count.
	ErrNoCandidate = errors.New("scraper: no plausible follower count")
)

// Source yields the follower count of a handle from one public web page.
type Source interface {
	Name() string
	FetchCount(ctx context.Context, handle string) (int64, error)
}

// strategy returns candidate count texts in document order.
type strategy func(doc *goquery.Document) []string

// fetchDocument fetches targetURL and parses it as HTML. Non-2xx statuses
// become ErrUnexpectedStatus, annotated with the blocking vendor when known.
func fetchDocument(ctx context.Context, f *Fetcher, targetURL string) (*goquery.Document, error) {
	page, err := f.Fetch(ctx, targetURL)
	if err != nil {
		return nil, err
	}
	if !page.OK() {
		if page.Blocker != "" {
			return nil, fmt.Errorf("%w: %d (blocked by %s)", ErrUnexpectedStatus, page.StatusCode, page.Blocker)
		}
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, page.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// firstPlausible runs strategies in order and returns the first candidate
// that parses and falls inside r. Unparseable candidates are skipped.
func firstPlausible(doc *goquery.Document, r count.Range, strategies ...strategy) (int64, error) {
	for _, s := range strategies {
		for _, text := range s(doc) {
			n, err := count.Parse(text)
			if err != nil {
				continue
			}
			if r.Contains(n) {
				return n, nil
			}
		}
	}
	return 0, ErrNoCandidate
}
