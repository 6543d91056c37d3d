package trafficest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

func TestEstimateParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/traffic/example.com" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"domain":"example.com","monthly_visits":120000,"unique_visitors":85000,"bounce_rate":0.42}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	est, err := client.Estimate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if est.MonthlyVisits != 120000 {
		t.Errorf("monthly visits = %v, want 120000", est.MonthlyVisits)
	}
	if est.BounceRate != 0.42 {
		t.Errorf("bounce rate = %v, want 0.42", est.BounceRate)
	}
}

func TestEstimateServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Estimate(context.Background(), "example.com")
	if err == nil {
		t.Fatal("expected error for 502")
	}
	var perr *resilience.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if perr.Kind != resilience.KindHTTPError {
		t.Errorf("kind = %s, want %s", perr.Kind, resilience.KindHTTPError)
	}
	if !resilience.IsTransient(err) {
		t.Error("502 should be transient")
	}
}
