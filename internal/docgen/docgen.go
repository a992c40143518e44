// Package docgen generates legal and marketing document drafts from a
// crawled website and a generation provider, replaying cached results for
// logically identical requests.
package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/annexahq/annexa/internal/ai"
	"github.com/annexahq/annexa/internal/cache"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/metrics"
)

// Supported document types.
const (
	DocPrivacyPolicy  = "privacy_policy"
	DocTermsOfService = "terms_of_service"
	DocCookiePolicy   = "cookie_policy"
	DocRefundPolicy   = "refund_policy"
	DocDPA            = "dpa"
)

var docTypes = map[string]string{
	DocPrivacyPolicy:  "Privacy Policy",
	DocTermsOfService: "Terms of Service",
	DocCookiePolicy:   "Cookie Policy",
	DocRefundPolicy:   "Refund Policy",
	DocDPA:            "Data Processing Agreement",
}

// ErrUnknownDocType is returned for unsupported document types.
var ErrUnknownDocType = errors.New("docgen: unknown document type")

// ValidDocType reports whether t is a supported document type.
func ValidDocType(t string) bool {
	_, ok := docTypes[t]
	return ok
}

// draftTTL keeps document drafts replayable for a week.
const draftTTL = 7 * 24 * time.Hour

// patchTTL keeps landing-page patches for an hour; page copy goes stale fast.
const patchTTL = time.Hour

// crawlPages bounds how much of the user's site feeds the prompt.
const crawlPages = 3

// DraftRequest identifies one document generation.
type DraftRequest struct {
	Website     string `json:"website"`
	CompanyName string `json:"company_name"`
	DocType     string `json:"doc_type"`
}

// Section is one titled block of a generated draft.
type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Draft is a generated document.
type Draft struct {
	DocType    string    `json:"doc_type"`
	Title      string    `json:"title"`
	Sections   []Section `json:"sections"`
	Disclaimer string    `json:"disclaimer"`
}

// DraftResult is a draft plus its cache provenance.
type DraftResult struct {
	Draft  *Draft
	Cached bool
}

// PatchRequest identifies one landing-page copy patch.
type PatchRequest struct {
	URL  string `json:"url"`
	Goal string `json:"goal,omitempty"`
}

// Patch is rewritten landing-page copy.
type Patch struct {
	Hero      string `json:"hero"`
	Subhead   string `json:"subhead"`
	CTA       string `json:"cta"`
	Rationale string `json:"rationale,omitempty"`
}

// PatchResult is a patch plus its cache provenance.
type PatchResult struct {
	Patch  *Patch
	Cached bool
}

// Service runs the generate pipelines over the shared cache store.
type Service struct {
	store   cache.Store
	ai      *ai.Client
	fetcher *crawl.Fetcher
}

// New creates the docgen service.
func New(store cache.Store, client *ai.Client, fetcher *crawl.Fetcher) *Service {
	return &Service{store: store, ai: client, fetcher: fetcher}
}

// Generate produces a document draft: cache get, crawl, prompt,
// parse-or-fallback, sanitize, cache set. It is safe for two racing calls to
// both regenerate the same key; either result is valid to serve.
func (s *Service) Generate(ctx context.Context, req DraftRequest) (*DraftResult, error) {
	if !ValidDocType(req.DocType) {
		return nil, ErrUnknownDocType
	}
	base, err := crawl.NormalizeURL(req.Website)
	if err != nil {
		return nil, fmt.Errorf("docgen: %w", err)
	}

	key := cache.Key(cache.NSDraft, map[string]string{
		"website":  base.String(),
		"company":  strings.ToLower(req.CompanyName),
		"doc_type": req.DocType,
	})

	if data, err := s.store.Get(ctx, key); err == nil {
		var draft Draft
		if err := json.Unmarshal(data, &draft); err == nil {
			metrics.Global().CacheHit("drafts")
			return &DraftResult{Draft: &draft, Cached: true}, nil
		}
	}
	metrics.Global().CacheMiss("drafts")

	siteContext := ""
	if site, err := s.fetcher.CrawlSite(ctx, base.String(), crawlPages); err == nil {
		siteContext = site.Summary(8000)
	} else {
		logging.Op().Warn("draft crawl failed, generating from company name only",
			"website", base.String(), "error", err)
	}

	start := time.Now()
	raw, err := s.ai.Complete(ctx, draftSystemPrompt, draftUserPrompt(req, siteContext), 3000)
	if err != nil {
		metrics.Global().Generation("drafts", "error", time.Since(start))
		return nil, fmt.Errorf("docgen generate: %w", err)
	}
	metrics.Global().Generation("drafts", "ok", time.Since(start))

	draft := &Draft{}
	ai.DecodeJSONOr(raw, draft, func() {
		// Unparseable model output substitutes the generic template copy.
		*draft = *fallbackDraft(req)
	})
	draft.DocType = req.DocType
	draft.sanitize(req)

	data, err := json.Marshal(draft)
	if err == nil {
		_ = s.store.Set(ctx, key, data, draftTTL)
	}

	return &DraftResult{Draft: draft}, nil
}

// PatchLanding rewrites hero/subhead/CTA copy for one landing page. There is
// no safe deterministic default for page-specific copy, so unparseable model
// output is a hard failure here.
func (s *Service) PatchLanding(ctx context.Context, req PatchRequest) (*PatchResult, error) {
	u, err := crawl.NormalizeURL(req.URL)
	if err != nil {
		return nil, fmt.Errorf("docgen: %w", err)
	}

	key := cache.Key(cache.NSLandingPatch, map[string]string{
		"url":  u.String(),
		"goal": strings.ToLower(req.Goal),
	})

	if data, err := s.store.Get(ctx, key); err == nil {
		var patch Patch
		if err := json.Unmarshal(data, &patch); err == nil {
			metrics.Global().CacheHit("landing")
			return &PatchResult{Patch: &patch, Cached: true}, nil
		}
	}
	metrics.Global().CacheMiss("landing")

	page, err := s.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("docgen patch: %w", err)
	}

	start := time.Now()
	raw, err := s.ai.Complete(ctx, patchSystemPrompt, patchUserPrompt(req, page), 800)
	if err != nil {
		metrics.Global().Generation("landing", "error", time.Since(start))
		return nil, fmt.Errorf("docgen patch: %w", err)
	}
	metrics.Global().Generation("landing", "ok", time.Since(start))

	var patch Patch
	if err := ai.DecodeJSON(raw, &patch); err != nil {
		return nil, fmt.Errorf("docgen patch: %w", err)
	}
	if patch.Hero == "" || patch.CTA == "" {
		return nil, fmt.Errorf("docgen patch: model output missing required copy")
	}

	data, err := json.Marshal(&patch)
	if err == nil {
		_ = s.store.Set(ctx, key, data, patchTTL)
	}

	return &PatchResult{Patch: &patch}, nil
}

func (d *Draft) sanitize(req DraftRequest) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		d.Title = docTypes[req.DocType]
	}
	kept := d.Sections[:0]
	for _, sec := range d.Sections {
		sec.Heading = strings.TrimSpace(sec.Heading)
		sec.Body = strings.TrimSpace(sec.Body)
		if sec.Heading == "" && sec.Body == "" {
			continue
		}
		kept = append(kept, sec)
	}
	d.Sections = kept
	if len(d.Sections) == 0 {
		d.Sections = fallbackDraft(req).Sections
	}
	if strings.TrimSpace(d.Disclaimer) == "" {
		d.Disclaimer = genericDisclaimer
	}
}
