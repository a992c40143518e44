package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/annexahq/annexa/internal/billing"
	"github.com/annexahq/annexa/internal/logging"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 1 << 20

// BillingWebhook handles POST /webhooks/billing. Signature verification
// happens before anything else; a request that fails it produces no side
// effects at all.
func (s *Server) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	if !s.Billing.Enabled() {
		writeError(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	event, err := s.Billing.VerifyAndParse(payload, r.Header.Get("Webhook-Signature"))
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			writeError(w, http.StatusBadRequest, "invalid webhook signature")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := s.Billing.HandleEvent(r.Context(), event); err != nil {
		logging.Op().Error("webhook event handling failed", "event", event.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "event handling failed")
		return
	}

	writeOK(w, envelope{"received": true})
}
