package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		resp := chatCompletionResponse{
			Choices: []chatChoice{{Message: chatChoiceMessage{Role: "assistant", Content: &content}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Complete(t *testing.T) {
	srv := completionServer(t, `{"ok": true}`)
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", Model: "test-model", BaseURL: srv.URL})
	out, err := c.Complete(context.Background(), "system", "user", 100)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if out != `{"ok": true}` {
		t.Fatalf("unexpected content: %q", out)
	}
}

func TestClient_Disabled(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Complete(context.Background(), "system", "user", 100)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got: %v", err)
	}
	if c.Enabled() {
		t.Fatal("client without API key should report disabled")
	}
}

func TestClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "system", "user", 100)
	if err == nil {
		t.Fatal("expected error on non-200 provider response")
	}
}

func TestClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatCompletionResponse{})
	}))
	defer srv.Close()

	c := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), "system", "user", 100)
	if err == nil {
		t.Fatal("expected error when the model returns no choices")
	}
}

func TestClient_Masked(t *testing.T) {
	c := NewClient(Config{APIKey: "sk-abcdefghijklmnop"})
	masked := c.Masked().APIKey
	if masked == c.cfg.APIKey {
		t.Fatal("Masked must not return the full key")
	}
	if masked != "sk-a****mnop" {
		t.Fatalf("unexpected masked key: %q", masked)
	}
}
