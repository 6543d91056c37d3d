package secprobe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestProbeReadsSecurityHeaders(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=63072000")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	client := NewClient(WithHTTPClient(srv.Client()), WithScheme("https"))

	result, err := client.Probe(context.Background(), u.Host)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !result.HTTPSValid {
		t.Error("expected HTTPSValid for TLS server")
	}
	if !result.HSTS || !result.CSP || !result.XContentTypeOptions {
		t.Errorf("missing headers in %+v", result)
	}
	if result.XFrameOptions || result.ReferrerPolicy {
		t.Errorf("unexpected headers in %+v", result)
	}
	// 50 (https) + 10 + 10 + 10
	if got := result.Score(); got != 80 {
		t.Errorf("score = %v, want 80", got)
	}
}

func TestProbePlainHTTPScoresNoTLS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	client := NewClient(WithScheme("http"))

	result, err := client.Probe(context.Background(), u.Host)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if result.HTTPSValid {
		t.Error("HTTPSValid should be false without TLS")
	}
	if got := result.Score(); got != 0 {
		t.Errorf("score = %v, want 0", got)
	}
}
