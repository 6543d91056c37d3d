package provider

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/resilience"
	"github.com/sitepulse/compete-cli/pkg/socialgraph"
	"github.com/sitepulse/compete-cli/pkg/techdetect"
)

type fakeTechClient struct {
	detection *techdetect.Detection
	err       error
}

func (f *fakeTechClient) Detect(ctx context.Context, domain string) (*techdetect.Detection, error) {
	return f.detection, f.err
}

type fakeSocialClient struct {
	metrics map[string]*socialgraph.ProfileMetrics
	errs    map[string]error
}

func (f *fakeSocialClient) ProfileMetrics(ctx context.Context, platform, username string) (*socialgraph.ProfileMetrics, error) {
	if err, ok := f.errs[platform]; ok {
		return nil, err
	}
	return f.metrics[platform], nil
}

func TestRegistryOrderedByKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTechnologyProvider(&fakeTechClient{}), Policy{Cacheable: true})
	reg.Register(NewSocialProvider(&fakeSocialClient{}), Policy{})
	reg.Register(NewContentProvider(nil), Policy{Cacheable: true})

	all := reg.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Provider.Kind() >= all[i].Provider.Kind() {
			t.Errorf("registry not ordered: %s before %s",
				all[i-1].Provider.Kind(), all[i].Provider.Kind())
		}
	}
}

func TestRegistryReplacesSameKind(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewTechnologyProvider(&fakeTechClient{}), Policy{MaxAttempts: 1})
	reg.Register(NewTechnologyProvider(&fakeTechClient{}), Policy{MaxAttempts: 3})

	entry, ok := reg.Get(model.MetricTechnology)
	if !ok {
		t.Fatal("technology provider not registered")
	}
	if entry.Policy.MaxAttempts != 3 {
		t.Errorf("policy not replaced, MaxAttempts = %d", entry.Policy.MaxAttempts)
	}
}

func TestTechnologyProviderMapsDetection(t *testing.T) {
	p := NewTechnologyProvider(&fakeTechClient{detection: &techdetect.Detection{
		Domain: "example.com",
		Technologies: []techdetect.Technology{
			{Name: "WordPress", Category: "cms"},
			{Name: "Google Analytics", Category: "analytics"},
			{Name: "Nginx", Category: "web-server"},
		},
	}})

	payload, err := p.Fetch(context.Background(), model.Subject{Domain: "example.com"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v, _ := payload.Value("tech_count"); v != 3 {
		t.Errorf("tech_count = %v, want 3", v)
	}
	if v, _ := payload.Value("has_cms"); v != 1 {
		t.Errorf("has_cms = %v, want 1", v)
	}
	if v, _ := payload.Value("has_cdn"); v != 0 {
		t.Errorf("has_cdn = %v, want 0", v)
	}
	if payload.Labels["stack"] != "WordPress, Google Analytics, Nginx" {
		t.Errorf("stack = %q", payload.Labels["stack"])
	}
}

func TestSocialProviderAggregatesPlatforms(t *testing.T) {
	p := NewSocialProvider(&fakeSocialClient{metrics: map[string]*socialgraph.ProfileMetrics{
		"instagram": {Followers: 10000, Posts: 200, EngagementRate: 3.0},
		"twitter":   {Followers: 4000, Posts: 900, EngagementRate: 1.0},
	}})

	subject := model.Subject{
		Domain:  "example.com",
		Handles: map[string]string{"instagram": "@acme", "twitter": "@acme"},
	}
	payload, err := p.Fetch(context.Background(), subject)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v, _ := payload.Value("total_followers"); v != 14000 {
		t.Errorf("total_followers = %v, want 14000", v)
	}
	if v, _ := payload.Value("avg_engagement_rate"); v != 2.0 {
		t.Errorf("avg_engagement_rate = %v, want 2.0", v)
	}
	if payload.Labels["platforms"] != "instagram,twitter" {
		t.Errorf("platforms = %q", payload.Labels["platforms"])
	}
}

func TestSocialProviderToleratesOneStaleHandle(t *testing.T) {
	p := NewSocialProvider(&fakeSocialClient{
		metrics: map[string]*socialgraph.ProfileMetrics{
			"instagram": {Followers: 5000, EngagementRate: 2.0},
		},
		errs: map[string]error{
			"twitter": resilience.HTTPError("socialgraph", http.StatusNotFound, errors.New("no such profile")),
		},
	})

	subject := model.Subject{
		Domain:  "example.com",
		Handles: map[string]string{"instagram": "@acme", "twitter": "@gone"},
	}
	payload, err := p.Fetch(context.Background(), subject)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v, _ := payload.Value("total_followers"); v != 5000 {
		t.Errorf("total_followers = %v, want 5000", v)
	}
	if v, _ := payload.Value("platform_count"); v != 1 {
		t.Errorf("platform_count = %v, want 1", v)
	}
}

func TestSocialProviderNoHandles(t *testing.T) {
	p := NewSocialProvider(&fakeSocialClient{})

	_, err := p.Fetch(context.Background(), model.Subject{Domain: "example.com"})
	if err == nil {
		t.Fatal("expected error without handles")
	}
	var perr *resilience.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if resilience.IsTransient(err) {
		t.Error("missing handles should not be transient")
	}
}

func TestSocialProviderAllHandlesFail(t *testing.T) {
	p := NewSocialProvider(&fakeSocialClient{errs: map[string]error{
		"instagram": resilience.HTTPError("socialgraph", http.StatusBadGateway, errors.New("upstream down")),
	}})

	subject := model.Subject{
		Domain:  "example.com",
		Handles: map[string]string{"instagram": "@acme"},
	}
	_, err := p.Fetch(context.Background(), subject)
	if err == nil {
		t.Fatal("expected error when every platform fails")
	}
	if !resilience.IsTransient(err) {
		t.Error("502 should stay transient through aggregation")
	}
}
