package pagespeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

const auditFixture = `{
	"lighthouseResult": {
		"categories": {
			"performance": {"score": 0.8},
			"seo": {"score": 0.92},
			"accessibility": {"score": 0.7},
			"best-practices": {"score": 1.0}
		},
		"audits": {
			"largest-contentful-paint": {"numericValue": 2400.5},
			"first-contentful-paint": {"numericValue": 1100.0}
		}
	}
}`

func TestAudit_ParsesScores(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("url"), "mysite.com")
		w.Write([]byte(auditFixture))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(1000))

	result, err := c.Audit(context.Background(), "mysite.com")
	require.NoError(t, err)
	assert.Equal(t, 80.0, result.PerformanceScore)
	assert.Equal(t, 92.0, result.SEOScore)
	assert.Equal(t, 2400.5, result.LCPMs)
}

func TestAudit_RateLimitedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.Audit(context.Background(), "mysite.com")
	require.Error(t, err)
	assert.Equal(t, resilience.KindRateLimited, resilience.KindOf(err))
	assert.True(t, resilience.IsTransient(err))
}

func TestAudit_ParseError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient("", WithBaseURL(srv.URL), WithRateLimit(1000))

	_, err := c.Audit(context.Background(), "mysite.com")
	require.Error(t, err)
	assert.Equal(t, resilience.KindParseError, resilience.KindOf(err))
	assert.False(t, resilience.IsTransient(err))
}
