// Package radar produces the competitive radar: LLM-generated scoring of the
// user's product against one competitor, built from concurrent crawls of
// both sites.
package radar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/annexahq/annexa/internal/ai"
	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/metrics"
)

// ErrSameSite rejects comparing a site against itself.
var ErrSameSite = errors.New("radar: product and competitor must be different sites")

// radarTTL keeps comparisons for a day; competitor sites drift slowly.
const radarTTL = 24 * time.Hour

// sitePages bounds the per-site crawl feeding the scoring prompt.
const sitePages = 3

// Request identifies one comparison.
type Request struct {
	ProductURL    string `json:"product_url"`
	CompetitorURL string `json:"competitor_url"`
}

// Scorecard holds 0-100 scores across the radar dimensions.
type Scorecard struct {
	Clarity             int    `json:"clarity"`
	Differentiation     int    `json:"differentiation"`
	Trust               int    `json:"trust"`
	PricingTransparency int    `json:"pricing_transparency"`
	CTAStrength         int    `json:"cta_strength"`
	Notes               string `json:"notes,omitempty"`
}

// Comparison is the radar output for one product/competitor pair.
type Comparison struct {
	ProductURL    string    `json:"product_url"`
	CompetitorURL string    `json:"competitor_url"`
	Product       Scorecard `json:"product"`
	Competitor    Scorecard `json:"competitor"`
	Verdict       string    `json:"verdict"`
	Generic       bool      `json:"generic,omitempty"` // true when the fallback scoring was substituted
}

// Result is a comparison plus its cache provenance.
type Result struct {
	Comparison *Comparison
	Cached     bool
}

// Service runs comparisons over the shared cache store.
type Service struct {
	store   cache.Store
	ai      *ai.Client
	fetcher *crawl.Fetcher
}

// New creates the radar service.
func New(store cache.Store, client *ai.Client, fetcher *crawl.Fetcher) *Service {
	return &Service{store: store, ai: client, fetcher: fetcher}
}

// Compare crawls both sites concurrently and scores them. The two crawls are
// an all-or-nothing batch: either root failing fails the comparison.
// Unparseable model output substitutes a neutral generic scoring instead of
// failing.
func (s *Service) Compare(ctx context.Context, req Request) (*Result, error) {
	product, err := crawl.NormalizeURL(req.ProductURL)
	if err != nil {
		return nil, fmt.Errorf("radar: product url: %w", err)
	}
	competitor, err := crawl.NormalizeURL(req.CompetitorURL)
	if err != nil {
		return nil, fmt.Errorf("radar: competitor url: %w", err)
	}
	if product.Host == competitor.Host {
		return nil, ErrSameSite
	}

	key := cache.Key(cache.NSCompetitor, map[string]string{
		"product":    product.String(),
		"competitor": competitor.String(),
	})

	if data, err := s.store.Get(ctx, key); err == nil {
		var cmp Comparison
		if err := json.Unmarshal(data, &cmp); err == nil {
			metrics.Global().CacheHit("radar")
			return &Result{Comparison: &cmp, Cached: true}, nil
		}
	}
	metrics.Global().CacheMiss("radar")

	var productSite, competitorSite *crawl.Site
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productSite, err = s.fetcher.CrawlSite(gctx, product.String(), sitePages)
		return err
	})
	g.Go(func() error {
		var err error
		competitorSite, err = s.fetcher.CrawlSite(gctx, competitor.String(), sitePages)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("radar crawl: %w", err)
	}

	start := time.Now()
	raw, err := s.ai.Complete(ctx, radarSystemPrompt, radarUserPrompt(productSite, competitorSite), 1200)
	if err != nil {
		metrics.Global().Generation("radar", "error", time.Since(start))
		return nil, fmt.Errorf("radar score: %w", err)
	}
	metrics.Global().Generation("radar", "ok", time.Since(start))

	cmp := &Comparison{}
	ai.DecodeJSONOr(raw, cmp, func() {
		*cmp = *genericComparison()
	})
	cmp.ProductURL = product.String()
	cmp.CompetitorURL = competitor.String()
	cmp.sanitize()

	data, err := json.Marshal(cmp)
	if err == nil {
		_ = s.store.Set(ctx, key, data, radarTTL)
	}

	return &Result{Comparison: cmp}, nil
}

const radarSystemPrompt = `You are a competitive positioning analyst.
Score both sites 0-100 on each dimension based only on the crawled content.
Respond with JSON only, no markdown fences, matching:
{"product": {"clarity": int, "differentiation": int, "trust": int, "pricing_transparency": int, "cta_strength": int, "notes": string},
 "competitor": {"clarity": int, "differentiation": int, "trust": int, "pricing_transparency": int, "cta_strength": int, "notes": string},
 "verdict": string}`

func radarUserPrompt(product, competitor *crawl.Site) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PRODUCT SITE (%s):\n%s\n\n", product.BaseURL, product.Summary(5000))
	fmt.Fprintf(&b, "COMPETITOR SITE (%s):\n%s\n", competitor.BaseURL, competitor.Summary(5000))
	b.WriteString("\nScore both and give a two-sentence verdict on where the product should sharpen its positioning.")
	return b.String()
}

// genericComparison is the deterministic neutral scoring substituted when
// the model output cannot be parsed.
func genericComparison() *Comparison {
	neutral := Scorecard{Clarity: 50, Differentiation: 50, Trust: 50, PricingTransparency: 50, CTAStrength: 50}
	return &Comparison{
		Product:    neutral,
		Competitor: neutral,
		Verdict:    "We could not produce a detailed comparison this time. Both sites scored neutrally; try again shortly.",
		Generic:    true,
	}
}

func (c *Comparison) sanitize() {
	c.Product.clamp()
	c.Competitor.clamp()
	c.Verdict = strings.TrimSpace(c.Verdict)
	if c.Verdict == "" {
		c.Verdict = genericComparison().Verdict
		c.Generic = true
	}
}

func (sc *Scorecard) clamp() {
	for _, p := range []*int{&sc.Clarity, &sc.Differentiation, &sc.Trust, &sc.PricingTransparency, &sc.CTAStrength} {
		if *p < 0 {
			*p = 0
		}
		if *p > 100 {
			*p = 100
		}
	}
}
