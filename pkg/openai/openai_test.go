package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestComplete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-3.5-turbo" {
			t.Errorf("model = %q, want default", req.Model)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Messages[1].Content != "I am feeling happy." {
			t.Errorf("user message = %q", req.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"upbeat summer pop"}}]}`))
	}))
	defer ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	got, err := c.Complete(context.Background(), "find playlists", "I am feeling happy.")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "upbeat summer pop" {
		t.Errorf("completion = %q", got)
	}
}

func TestCompleteCustomModel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want gpt-4o-mini", req.Model)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	c := &Client{Key: "k", Model: "gpt-4o-mini", BaseURL: ts.URL}
	if _, err := c.Complete(context.Background(), "s", "u"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
}

// TestCompleteDoesNotMutateClient checks that defaulting the HTTP
// client never writes back to the struct, which is shared across
// concurrent requests.
func TestCompleteDoesNotMutateClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer ts.Close()

	c := &Client{Key: "k", BaseURL: ts.URL}
	if _, err := c.Complete(context.Background(), "s", "u"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if c.Client != nil {
		t.Error("Complete assigned the default HTTP client to the struct")
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"Rate limit reached"}}`, http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := &Client{Key: "k", BaseURL: ts.URL}
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestCompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"message":"model overloaded"}}`))
	}))
	defer ts.Close()

	c := &Client{Key: "k", BaseURL: ts.URL}
	_, err := c.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected the API error message, got %v", err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c := &Client{Key: "k", BaseURL: ts.URL}
	if _, err := c.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
