package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/annexahq/annexa/internal/ai"
	"github.com/annexahq/annexa/internal/crawl"
	"github.com/annexahq/annexa/internal/docgen"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/metrics"
	"github.com/annexahq/annexa/internal/radar"
)

type draftRequest struct {
	Website     string `json:"website"`
	CompanyName string `json:"company_name"`
	DocType     string `json:"doc_type"`
	Tier        string `json:"tier,omitempty"`
}

// CreateDraft handles POST /api/drafts.
func (s *Server) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Website == "" || req.CompanyName == "" || req.DocType == "" {
		writeError(w, http.StatusBadRequest, "website, company_name and doc_type are required")
		return
	}
	if !docgen.ValidDocType(req.DocType) {
		writeError(w, http.StatusBadRequest, "unknown doc_type")
		return
	}

	tier := resolveTier(r, req.Tier)
	dec := s.Limiter.Allow(r.Context(), "drafts", clientIP(r), tier)
	if !dec.Allowed {
		metrics.Global().RateLimited("drafts", tier)
		writeRateLimited(w)
		return
	}

	result, err := s.Docs.Generate(r.Context(), docgen.DraftRequest{
		Website:     req.Website,
		CompanyName: req.CompanyName,
		DocType:     req.DocType,
	})
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if !result.Cached {
		s.Limiter.Record(r.Context(), dec)
	}
	writeOK(w, envelope{"draft": result.Draft, "cached": result.Cached})
}

type patchRequest struct {
	URL  string `json:"url"`
	Goal string `json:"goal,omitempty"`
	Tier string `json:"tier,omitempty"`
}

// PatchLanding handles POST /api/landing-patch.
func (s *Server) PatchLanding(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	tier := resolveTier(r, req.Tier)
	dec := s.Limiter.Allow(r.Context(), "landing", clientIP(r), tier)
	if !dec.Allowed {
		metrics.Global().RateLimited("landing", tier)
		writeRateLimited(w)
		return
	}

	result, err := s.Docs.PatchLanding(r.Context(), docgen.PatchRequest{
		URL:  req.URL,
		Goal: req.Goal,
	})
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if !result.Cached {
		s.Limiter.Record(r.Context(), dec)
	}
	writeOK(w, envelope{"patch": result.Patch, "cached": result.Cached})
}

// writeDraftError maps generation pipeline failures onto the error taxonomy:
// bad input gets a 400, a disabled provider gets a clear 503-style message,
// everything else is a 500 with a short message and details in the logs.
func writeDraftError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, docgen.ErrUnknownDocType):
		writeError(w, http.StatusBadRequest, "unknown doc_type")
	case errors.Is(err, crawl.ErrBadURL):
		writeError(w, http.StatusBadRequest, "invalid url")
	case errors.Is(err, radar.ErrSameSite):
		writeError(w, http.StatusBadRequest, "product and competitor must be different sites")
	case errors.Is(err, ai.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "AI features are not configured")
	default:
		logging.Op().Error("generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "generation failed, please try again")
	}
}
