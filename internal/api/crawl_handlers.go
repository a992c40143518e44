package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/metrics"
)

// crawlTTL keeps crawl snapshots for an hour.
const crawlTTL = time.Hour

// crawlMaxPages caps the per-request crawl size.
const crawlMaxPages = 5

type crawlRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages,omitempty"`
	Tier     string `json:"tier,omitempty"`
}

// CrawlSite handles POST /api/crawl: a cached site snapshot used by the UI
// to preview what the generators will see.
func (s *Server) CrawlSite(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}
	base, err := crawl.NormalizeURL(req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid url")
		return
	}
	pages := req.MaxPages
	if pages <= 0 || pages > crawlMaxPages {
		pages = crawlMaxPages
	}

	tier := resolveTier(r, req.Tier)
	dec := s.Limiter.Allow(r.Context(), "crawl", clientIP(r), tier)
	if !dec.Allowed {
		metrics.Global().RateLimited("crawl", tier)
		writeRateLimited(w)
		return
	}

	key := cache.Key(cache.NSCrawl, map[string]string{
		"url":   base.String(),
		"pages": strconv.Itoa(pages),
	})
	if data, err := s.Store.Get(r.Context(), key); err == nil {
		var site crawl.Site
		if err := json.Unmarshal(data, &site); err == nil {
			metrics.Global().CacheHit("crawl")
			writeOK(w, envelope{"site": &site, "cached": true})
			return
		}
	}
	metrics.Global().CacheMiss("crawl")

	site, err := s.Fetcher.CrawlSite(r.Context(), base.String(), pages)
	if err != nil {
		logging.Op().Warn("crawl failed", "url", base.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "could not fetch the site")
		return
	}

	if data, err := json.Marshal(site); err == nil {
		_ = s.Store.Set(r.Context(), key, data, crawlTTL)
	}

	s.Limiter.Record(r.Context(), dec)
	writeOK(w, envelope{"site": site, "cached": false})
}
