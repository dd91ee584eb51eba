package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response is the part of an HTTP response the detectors inspect.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether a bot-protection vendor challenged or blocked the request.
type Detector func(res Response) (detected bool, vendor string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
		detectRateLimit,
	}
}

// Analyze runs res through detectors in order and returns the first vendor
// that matches, or "" when the response looks like a genuine page.
func Analyze(res Response, detectors []Detector) string {
	for _, d := range detectors {
		if detected, vendor := d(res); detected {
			return vendor
		}
	}
	return ""
}

func serverHeader(res Response) string {
	return strings.ToLower(res.Header.Get("Server"))
}

func bodyContainsAny(body []byte, needles ...string) bool {
	for _, n := range needles {
		if bytes.Contains(body, []byte(n)) {
			return true
		}
	}
	return false
}

func detectCloudflare(res Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable {
		return false, ""
	}
	if strings.Contains(serverHeader(res), "cloudflare") || res.Header.Get("Cf-Mitigated") != "" {
		return true, "Cloudflare"
	}
	if bodyContainsAny(res.Body,
		"cf-browser-verification",
		"cf-turnstile",
		"challenge-platform",
		"Attention Required! | Cloudflare",
	) {
		return true, "Cloudflare"
	}
	return false, ""
}

func detectAkamai(res Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(serverHeader(res), "akamai") {
		return true, "Akamai"
	}
	// Akamai's generic block page.
	if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
		return true, "Akamai"
	}
	return false, ""
}

func detectDataDome(res Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if strings.Contains(serverHeader(res), "datadome") ||
		res.Header.Get("X-DataDome") != "" ||
		res.Header.Get("X-DataDome-Response") != "" {
		return true, "DataDome"
	}
	if bodyContainsAny(res.Body, "geo.captcha-delivery.com", "datadome") {
		return true, "DataDome"
	}
	return false, ""
}

func detectPerimeterX(res Response) (bool, string) {
	if res.StatusCode != http.StatusForbidden {
		return false, ""
	}
	if res.Header.Get("X-Px-Captcha") != "" {
		return true, "PerimeterX"
	}
	if bodyContainsAny(res.Body, "client.perimeterx.net", "px-captcha", "_pxBlock") {
		return true, "PerimeterX"
	}
	return false, ""
}

// detectRateLimit flags the 429s Nitter mirrors return when their upstream
// guest tokens are exhausted.
func detectRateLimit(res Response) (bool, string) {
	if res.StatusCode == http.StatusTooManyRequests {
		return true, "RateLimit"
	}
	return false, ""
}
