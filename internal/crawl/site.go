package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentFetches bounds the fan-out over discovered links.
const maxConcurrentFetches = 4

// Site is the scraped content of a small site crawl.
type Site struct {
	BaseURL string  `json:"base_url"`
	Pages   []*Page `json:"pages"`
}

// CrawlSite fetches the root page, then fans out over same-host links up to
// maxPages total. The root fetch is mandatory; subsidiary page failures
// degrade the result rather than failing the crawl.
func (f *Fetcher) CrawlSite(ctx context.Context, baseURL string, maxPages int) (*Site, error) {
	if maxPages <= 0 {
		maxPages = 1
	}

	root, err := f.Fetch(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("crawl root: %w", err)
	}

	site := &Site{BaseURL: root.URL, Pages: []*Page{root}}
	if maxPages == 1 || len(root.Links) == 0 {
		return site, nil
	}

	targets := root.Links
	if len(targets) > maxPages-1 {
		targets = targets[:maxPages-1]
	}

	var (
		mu    sync.Mutex
		extra []*Page
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, link := range targets {
		if link == root.URL {
			continue
		}
		g.Go(func() error {
			page, err := f.Fetch(gctx, link)
			if err != nil {
				// Degraded crawl: keep whatever pages succeeded.
				return nil
			}
			mu.Lock()
			extra = append(extra, page)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	site.Pages = append(site.Pages, extra...)
	return site, nil
}

// Summary renders the crawled content as a compact text block for prompts.
func (s *Site) Summary(maxChars int) string {
	var b strings.Builder
	for _, p := range s.Pages {
		fmt.Fprintf(&b, "--- %s\n", p.URL)
		if p.Title != "" {
			fmt.Fprintf(&b, "Title: %s\n", p.Title)
		}
		if p.Description != "" {
			fmt.Fprintf(&b, "Description: %s\n", p.Description)
		}
		if len(p.Headings) > 0 {
			fmt.Fprintf(&b, "Headings: %s\n", strings.Join(p.Headings, " | "))
		}
		if p.Text != "" {
			fmt.Fprintf(&b, "%s\n", p.Text)
		}
		if maxChars > 0 && b.Len() > maxChars {
			break
		}
	}
	return truncate(b.String(), maxChars)
}
