package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/annexahq/annexa/internal/auth"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/ratelimit"
)

type sessionRequest struct {
	Email string `json:"email"`
}

// CreateSession handles POST /api/sessions: issues a bearer token for the
// given email. New sessions always start on the free tier; upgrades come
// only through the billing webhook.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}

	token, sess, err := s.Sessions.Issue(r.Context(), email, ratelimit.TierFree)
	if err != nil {
		logging.Op().Error("session issue failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}

	writeOK(w, envelope{
		"token": token,
		"session": envelope{
			"subject": sess.Subject,
			"email":   sess.Email,
			"tier":    sess.Tier,
		},
	})
}

// CurrentSession handles GET /api/sessions/me.
func (s *Server) CurrentSession(w http.ResponseWriter, r *http.Request) {
	id := auth.GetIdentity(r.Context())
	if id == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	writeOK(w, envelope{
		"session": envelope{
			"subject": id.Subject,
			"email":   id.Email,
			"tier":    id.Tier,
		},
	})
}
