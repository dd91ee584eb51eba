package useragent

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"sync/atomic"
)

// Profile is the header set a real browser sends on a top-level navigation.
// Scrape targets compare more than the User-Agent, so the whole set travels together.
type Profile struct {
	UserAgent      string
	AcceptLanguage string
	// SecCHUA is empty for browsers that do not send client hints (Firefox, Safari).
	SecCHUA         string
	SecCHUAPlatform string
}

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

// DefaultProfiles provides a realistic set of modern desktop browsers.
var DefaultProfiles = []Profile{
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecCHUA:         `"Google Chrome";v="129", "Not=A?Brand";v="8", "Chromium";v="129"`,
		SecCHUAPlatform: `"Windows"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecCHUA:         `"Google Chrome";v="129", "Not=A?Brand";v="8", "Chromium";v="129"`,
		SecCHUAPlatform: `"macOS"`,
	},
	{
		UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0.0.0 Safari/537.36 Edg/129.0.0.0",
		AcceptLanguage:  "en-US,en;q=0.9",
		SecCHUA:         `"Microsoft Edge";v="129", "Not=A?Brand";v="8", "Chromium";v="129"`,
		SecCHUAPlatform: `"Windows"`,
	},
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:131.0) Gecko/20100101 Firefox/131.0",
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:131.0) Gecko/20100101 Firefox/131.0",
		AcceptLanguage: "en-US,en;q=0.5",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Safari/605.1.15",
		AcceptLanguage: "en-US,en;q=0.9",
	},
}

// Apply sets the profile's headers on req, overwriting any existing values.
func (p Profile) Apply(req *http.Request) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", acceptHTML)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	if p.SecCHUA != "" {
		req.Header.Set("Sec-CH-UA", p.SecCHUA)
		req.Header.Set("Sec-CH-UA-Mobile", "?0")
		req.Header.Set("Sec-CH-UA-Platform", p.SecCHUAPlatform)
	}
}

// Pool hands out browser profiles sequentially or at random.
type Pool struct {
	profiles []Profile
	counter  atomic.Uint64
}

// NewPool creates a pool. An empty slice falls back to DefaultProfiles.
func NewPool(profiles []Profile) *Pool {
	if len(profiles) == 0 {
		profiles = DefaultProfiles
	}
	copied := make([]Profile, len(profiles))
	copy(copied, profiles)
	return &Pool{profiles: copied}
}

// FromUserAgents builds a pool from bare User-Agent strings, as read from configuration.
func FromUserAgents(uas []string) *Pool {
	profiles := make([]Profile, 0, len(uas))
	for _, ua := range uas {
		profiles = append(profiles, Profile{UserAgent: ua, AcceptLanguage: "en-US,en;q=0.9"})
	}
	return NewPool(profiles)
}

// Sequential returns the next profile in round-robin order. Safe for concurrent use.
func (p *Pool) Sequential() Profile {
	idx := p.counter.Add(1) - 1
	return p.profiles[idx%uint64(len(p.profiles))]
}

// Random returns a profile picked with crypto/rand, falling back to Sequential on failure.
func (p *Pool) Random() Profile {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.profiles))))
	if err != nil {
		return p.Sequential()
	}
	return p.profiles[n.Int64()]
}

// Len reports how many profiles the pool holds.
func (p *Pool) Len() int {
	return len(p.profiles)
}
