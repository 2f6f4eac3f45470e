package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCurrent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/current.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("key = %q, want test-key", got)
		}
		if got := r.URL.Query().Get("q"); got != "Boston" {
			t.Errorf("q = %q, want Boston", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"location": {"name": "Boston", "region": "Massachusetts"},
			"current": {"temp_f": 54.5, "condition": {"text": "Light rain"}}
		}`))
	}))
	defer ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	report, err := c.Current(context.Background(), "Boston")
	if err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	want := Report{Location: "Boston", Region: "Massachusetts", TempF: 54.5, Condition: "Light rain"}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
}

func TestCurrentUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":1006,"message":"No matching location found."}}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	if _, err := c.Current(context.Background(), "nowhere-at-all"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCurrentMalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	if _, err := c.Current(context.Background(), "Boston"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestCurrentUnresolvedLocation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location": {}, "current": {}}`))
	}))
	defer ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	if _, err := c.Current(context.Background(), ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

// TestCurrentDoesNotMutateClient checks that defaulting the HTTP client
// never writes back to the struct, which is shared across concurrent
// requests.
func TestCurrentDoesNotMutateClient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"location":{"name":"Boston"},"current":{"temp_f":50,"condition":{"text":"Clear"}}}`))
	}))
	defer ts.Close()

	c := &Client{Key: "k", BaseURL: ts.URL}
	if _, err := c.Current(context.Background(), "Boston"); err != nil {
		t.Fatalf("Current returned error: %v", err)
	}
	if c.Client != nil {
		t.Error("Current assigned the default HTTP client to the struct")
	}
}

func TestCurrentServerDown(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := &Client{Key: "test-key", BaseURL: ts.URL}
	if _, err := c.Current(context.Background(), "Boston"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
