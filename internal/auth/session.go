package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/annexahq/annexa/internal/cache"
)

// sessionTTL bounds how long an issued token stays valid.
const sessionTTL = 30 * 24 * time.Hour

// Session is the stored record behind a bearer token. The store holds it
// under a hash of the token, never the token itself.
type Session struct {
	Subject   string    `json:"subject"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// Sessions issues and resolves bearer-token sessions in the cache store.
// This is the KV session handoff: billing webhooks upgrade a session's tier
// by rewriting the same record.
type Sessions struct {
	store cache.Store
}

// NewSessions creates a session manager over the given store.
func NewSessions(store cache.Store) *Sessions {
	return &Sessions{store: store}
}

// Issue creates a session and returns its bearer token.
func (s *Sessions) Issue(ctx context.Context, email, tier string) (string, *Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", nil, fmt.Errorf("auth: generate token: %w", err)
	}
	token := hex.EncodeToString(raw)

	// The subject is derived from the token's hash so logs and responses
	// never carry any part of the live bearer token.
	sum := sha256.Sum256(raw)
	sess := &Session{
		Subject:   "user:" + hex.EncodeToString(sum[:4]),
		Email:     email,
		Tier:      tier,
		CreatedAt: time.Now(),
	}
	if err := s.put(ctx, token, sess); err != nil {
		return "", nil, err
	}
	return token, sess, nil
}

// Get resolves a bearer token to its session, or nil when absent/expired.
func (s *Sessions) Get(ctx context.Context, token string) *Session {
	data, err := s.store.Get(ctx, sessionKey(token))
	if err != nil {
		return nil
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil
	}
	return &sess
}

// SetTier rewrites the session's tier, e.g. after a billing upgrade.
func (s *Sessions) SetTier(ctx context.Context, token, tier string) error {
	sess := s.Get(ctx, token)
	if sess == nil {
		return fmt.Errorf("auth: session not found")
	}
	sess.Tier = tier
	return s.put(ctx, token, sess)
}

func (s *Sessions) put(ctx context.Context, token string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	if err := s.store.Set(ctx, sessionKey(token), data, sessionTTL); err != nil {
		return fmt.Errorf("auth: store session: %w", err)
	}
	return nil
}

// Authenticate implements Authenticator from the Authorization header.
func (s *Sessions) Authenticate(r *http.Request) *Identity {
	token := bearerToken(r)
	if token == "" {
		return nil
	}
	sess := s.Get(r.Context(), token)
	if sess == nil {
		return nil
	}
	return &Identity{Subject: sess.Subject, Email: sess.Email, Tier: sess.Tier}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cache.NSSession + hex.EncodeToString(sum[:])
}
