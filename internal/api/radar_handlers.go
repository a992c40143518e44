package api

import (
	"encoding/json"
	"net/http"

	"github.com/annexahq/annexa/internal/metrics"
	"github.com/annexahq/annexa/internal/radar"
)

type radarRequest struct {
	ProductURL    string `json:"product_url"`
	CompetitorURL string `json:"competitor_url"`
	Tier          string `json:"tier,omitempty"`
}

// CompareRadar handles POST /api/radar.
func (s *Server) CompareRadar(w http.ResponseWriter, r *http.Request) {
	var req radarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ProductURL == "" || req.CompetitorURL == "" {
		writeError(w, http.StatusBadRequest, "product_url and competitor_url are required")
		return
	}

	tier := resolveTier(r, req.Tier)
	dec := s.Limiter.Allow(r.Context(), "radar", clientIP(r), tier)
	if !dec.Allowed {
		metrics.Global().RateLimited("radar", tier)
		writeRateLimited(w)
		return
	}

	result, err := s.Radar.Compare(r.Context(), radar.Request{
		ProductURL:    req.ProductURL,
		CompetitorURL: req.CompetitorURL,
	})
	if err != nil {
		writeDraftError(w, err)
		return
	}

	if !result.Cached {
		s.Limiter.Record(r.Context(), dec)
	}
	writeOK(w, envelope{"comparison": result.Comparison, "cached": result.Cached})
}
