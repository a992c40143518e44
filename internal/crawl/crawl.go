// Package crawl fetches and scrapes website pages for generation context.
// Extraction is regex-based: no JS rendering, no retries, and a short fetch
// timeout that converts into a regular error.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrBadURL marks user input that cannot be normalized into a crawlable URL.
// Handlers map it to a 400.
var ErrBadURL = errors.New("invalid url")

// maxBodyBytes caps how much HTML is read per page.
const maxBodyBytes = 2 << 20

// maxTextChars caps extracted visible text per page.
const maxTextChars = 6000

// Page is the scraped content of a single URL.
type Page struct {
	URL         string   `json:"url"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Headings    []string `json:"headings,omitempty"`
	Text        string   `json:"text"`
	Links       []string `json:"links,omitempty"` // same-host, absolute
}

// Fetcher fetches and extracts pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a fetcher with the given per-request timeout.
// A zero timeout defaults to 8 seconds.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "AnnexaBot/1.0 (+https://annexa.app)",
	}
}

// Fetch retrieves one page and extracts its content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: status %d", u, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}

	return extractPage(u, string(body)), nil
}

// NormalizeURL parses and canonicalizes a user-supplied URL: scheme defaults
// to https, host lowercased, fragment dropped, trailing slash trimmed.
// Cache keys depend on this so that logically identical inputs collide.
func NormalizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty url", ErrBadURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrBadURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrBadURL, raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u, nil
}

var (
	reTitle    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	reMetaDesc = regexp.MustCompile(`(?is)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	reMetaRev  = regexp.MustCompile(`(?is)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']description["']`)
	reOGDesc   = regexp.MustCompile(`(?is)<meta[^>]*property=["']og:description["'][^>]*content=["']([^"']*)["']`)
	reHeading  = regexp.MustCompile(`(?is)<h[1-3][^>]*>(.*?)</h[1-3]>`)
	reHref     = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"'#]+)["']`)
	reScript   = regexp.MustCompile(`(?is)<(script|style|noscript|svg)[^>]*>.*?</(script|style|noscript|svg)>`)
	reTag      = regexp.MustCompile(`(?s)<[^>]*>`)
	reSpace    = regexp.MustCompile(`\s+`)
)

func extractPage(u *url.URL, body string) *Page {
	p := &Page{URL: u.String()}

	if m := reTitle.FindStringSubmatch(body); m != nil {
		p.Title = cleanText(m[1])
	}
	if m := reMetaDesc.FindStringSubmatch(body); m != nil {
		p.Description = cleanText(m[1])
	} else if m := reMetaRev.FindStringSubmatch(body); m != nil {
		p.Description = cleanText(m[1])
	} else if m := reOGDesc.FindStringSubmatch(body); m != nil {
		p.Description = cleanText(m[1])
	}

	for _, m := range reHeading.FindAllStringSubmatch(body, 20) {
		if h := cleanText(m[1]); h != "" {
			p.Headings = append(p.Headings, h)
		}
	}

	for _, m := range reHref.FindAllStringSubmatch(body, 200) {
		if link := resolveSameHost(u, m[1]); link != "" {
			p.Links = append(p.Links, link)
		}
	}
	p.Links = dedupe(p.Links)

	text := reScript.ReplaceAllString(body, " ")
	text = reTag.ReplaceAllString(text, " ")
	p.Text = truncate(cleanText(text), maxTextChars)

	return p
}

// truncate caps s at max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func cleanText(s string) string {
	s = reTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(reSpace.ReplaceAllString(s, " "))
}

// resolveSameHost resolves href against base and returns it only when it
// stays on the same host and looks like a content page.
func resolveSameHost(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(abs.Host, base.Host) {
		return ""
	}
	switch strings.ToLower(lastExt(abs.Path)) {
	case "", "html", "htm":
	default:
		return ""
	}
	abs.Fragment = ""
	abs.RawQuery = ""
	abs.Path = strings.TrimSuffix(abs.Path, "/")
	return abs.String()
}

func lastExt(p string) string {
	if idx := strings.LastIndexByte(p, '.'); idx >= 0 && idx > strings.LastIndexByte(p, '/') {
		return p[idx+1:]
	}
	return ""
}

func dedupe(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := links[:0]
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
