// Package contentaudit fetches a site's homepage and scores its on-page
// content quality.
package contentaudit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

// Auditor fetches and scores homepage content.
type Auditor interface {
	Audit(ctx context.Context, domain string) (*Audit, error)
}

// Audit holds the content metrics extracted from a homepage.
type Audit struct {
	Domain          string
	Title           string
	MetaDescription string
	WordCount       int
	H1Count         int
	H2Count         int
	ImageCount      int
	ImagesWithAlt   int
	InternalLinks   int
	ExternalLinks   int
}

// Score condenses the audit into a 0-100 content quality value.
func (a *Audit) Score() float64 {
	score := 0.0

	// A title between 20 and 70 chars gets full marks.
	switch n := len(a.Title); {
	case n >= 20 && n <= 70:
		score += 20
	case n > 0:
		score += 10
	}

	// Meta description between 70 and 160 chars.
	switch n := len(a.MetaDescription); {
	case n >= 70 && n <= 160:
		score += 20
	case n > 0:
		score += 10
	}

	// Exactly one h1 is the target.
	if a.H1Count == 1 {
		score += 15
	} else if a.H1Count > 1 {
		score += 5
	}

	// 300+ words of body copy.
	switch {
	case a.WordCount >= 300:
		score += 25
	case a.WordCount >= 100:
		score += 15
	case a.WordCount > 0:
		score += 5
	}

	// Alt text coverage.
	if a.ImageCount == 0 {
		score += 10
	} else {
		score += 10 * float64(a.ImagesWithAlt) / float64(a.ImageCount)
	}

	// At least a few internal links.
	if a.InternalLinks >= 5 {
		score += 10
	} else if a.InternalLinks > 0 {
		score += 5
	}

	return score
}

// Option configures the auditor.
type Option func(*httpAuditor)

// WithHTTPClient sets a custom HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(a *httpAuditor) { a.http = hc }
}

// WithScheme overrides the fetch scheme (httptest servers are http).
func WithScheme(scheme string) Option {
	return func(a *httpAuditor) { a.scheme = scheme }
}

// WithUserAgent overrides the User-Agent header sent with the fetch.
func WithUserAgent(ua string) Option {
	return func(a *httpAuditor) {
		if ua != "" {
			a.userAgent = ua
		}
	}
}

type httpAuditor struct {
	http      *http.Client
	scheme    string
	userAgent string
}

// New creates a homepage content auditor.
func New(opts ...Option) Auditor {
	a := &httpAuditor{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		scheme:    "https",
		userAgent: "compete-cli/1.0",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *httpAuditor) Audit(ctx context.Context, domain string) (*Audit, error) {
	reqURL := fmt.Sprintf("%s://%s/", a.scheme, domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, resilience.NewProviderError("contentaudit", resilience.KindHTTPError, err)
	}
	req.Header.Set("User-Agent", a.userAgent)

	resp, err := a.http.Do(req)
	if err != nil {
		return nil, resilience.NewProviderError("contentaudit", resilience.KindOf(err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resilience.HTTPError("contentaudit",
			resp.StatusCode, fmt.Errorf("contentaudit: status %d: %s", resp.StatusCode, body))
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, resilience.NewProviderError("contentaudit", resilience.KindParseError, err)
	}

	audit := extract(doc, domain)
	audit.Domain = domain
	return audit, nil
}

func extract(doc *html.Node, domain string) *Audit {
	audit := &Audit{}
	var bodyText strings.Builder
	var inBody bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && audit.Title == "" {
					audit.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				var name, content string
				for _, attr := range n.Attr {
					switch attr.Key {
					case "name":
						name = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if name == "description" {
					audit.MetaDescription = strings.TrimSpace(content)
				}
			case "h1":
				audit.H1Count++
			case "h2":
				audit.H2Count++
			case "img":
				audit.ImageCount++
				for _, attr := range n.Attr {
					if attr.Key == "alt" && strings.TrimSpace(attr.Val) != "" {
						audit.ImagesWithAlt++
						break
					}
				}
			case "a":
				for _, attr := range n.Attr {
					if attr.Key != "href" {
						continue
					}
					if isInternal(attr.Val, domain) {
						audit.InternalLinks++
					} else {
						audit.ExternalLinks++
					}
				}
			case "script", "style", "noscript":
				return
			case "body":
				inBody = true
			}
		}
		if n.Type == html.TextNode && inBody {
			bodyText.WriteString(n.Data)
			bodyText.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	audit.WordCount = len(strings.Fields(bodyText.String()))
	return audit
}

func isInternal(href, domain string) bool {
	if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") {
		return true
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "//") {
		return strings.Contains(href, domain)
	}
	// Relative path.
	return true
}
