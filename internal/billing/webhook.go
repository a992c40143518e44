// Package billing handles payment provider webhooks. Signature verification
// is mandatory before trusting event contents; a request that fails it is
// rejected outright with no side effects.
package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature covers every verification failure: malformed header,
// stale timestamp, or mismatched digest. Callers map it to a 400.
var ErrInvalidSignature = errors.New("billing: webhook signature verification failed")

// tolerance bounds how old a signed timestamp may be, limiting replay.
const tolerance = 5 * time.Minute

// Event is a verified webhook event.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data EventData       `json:"data"`
	Raw  json.RawMessage `json:"-"`
}

// EventData wraps the provider object the event describes.
type EventData struct {
	Object CheckoutSession `json:"object"`
}

// CheckoutSession is the subset of a completed checkout we act on.
// ClientReferenceID carries the Annexa session token of the purchaser.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	PaymentStatus     string `json:"payment_status"`
}

// ConstructEvent verifies the signature header against the raw payload and
// parses the event. The header format is "t=<unix>,v1=<hex hmac-sha256>",
// and the signed message is "<t>.<payload>".
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return constructEventAt(payload, sigHeader, secret, time.Now())
}

func constructEventAt(payload []byte, sigHeader, secret string, now time.Time) (*Event, error) {
	ts, sigs, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	age := now.Sub(time.Unix(ts, 0))
	if age > tolerance || age < -tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := computeSignature(payload, ts, secret)
	verified := false
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("%w: no matching v1 signature", ErrInvalidSignature)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("billing: parse event payload: %w", err)
	}
	event.Raw = payload
	return &event, nil
}

// Sign produces a valid signature header for payload; used by tests and the
// local development harness.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, computeSignature(payload, ts, secret))
}

func computeSignature(payload []byte, ts int64, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseSigHeader(header string) (ts int64, sigs []string, err error) {
	if header == "" {
		return 0, nil, fmt.Errorf("%w: missing signature header", ErrInvalidSignature)
	}
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}
	return ts, sigs, nil
}
