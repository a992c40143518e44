package billing

import (
	"context"
	"fmt"

	"github.com/annexahq/annexa/internal/auth"
	"github.com/annexahq/annexa/internal/logging"
	"github.com/annexahq/annexa/internal/ratelimit"
)

// eventCheckoutCompleted upgrades the purchaser's tier.
const eventCheckoutCompleted = "checkout.session.completed"

// Config holds billing webhook configuration.
type Config struct {
	WebhookSecret string `json:"webhook_secret" yaml:"webhook_secret"`
}

// Service applies verified webhook events to session entitlements.
type Service struct {
	cfg      Config
	sessions *auth.Sessions
}

// New creates the billing service.
func New(cfg Config, sessions *auth.Sessions) *Service {
	return &Service{cfg: cfg, sessions: sessions}
}

// Enabled reports whether a webhook secret is configured.
func (s *Service) Enabled() bool {
	return s.cfg.WebhookSecret != ""
}

// VerifyAndParse verifies the signature header and parses the event.
func (s *Service) VerifyAndParse(payload []byte, sigHeader string) (*Event, error) {
	return ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
}

// HandleEvent applies one verified event. Unknown event types are
// acknowledged and skipped; the provider retries on non-2xx only.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	switch event.Type {
	case eventCheckoutCompleted:
		session := event.Data.Object
		if session.PaymentStatus != "" && session.PaymentStatus != "paid" {
			logging.Op().Info("checkout completed without payment, skipping upgrade",
				"event", event.ID, "payment_status", session.PaymentStatus)
			return nil
		}
		if session.ClientReferenceID == "" {
			return fmt.Errorf("billing: checkout event %s has no client reference", event.ID)
		}
		if err := s.sessions.SetTier(ctx, session.ClientReferenceID, ratelimit.TierEdge); err != nil {
			return fmt.Errorf("billing: apply upgrade: %w", err)
		}
		logging.Op().Info("tier upgraded via checkout", "event", event.ID, "tier", ratelimit.TierEdge)
		return nil
	default:
		logging.Op().Debug("ignoring webhook event", "type", event.Type, "event", event.ID)
		return nil
	}
}
