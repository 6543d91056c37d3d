package analyzer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sitepulse/compete-cli/internal/resilience"
)

var domainPattern = regexp.MustCompile(`^([a-z0-9]([a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,}$`)

// NormalizeDomain strips any scheme, path, and www prefix from the input
// and validates the remaining hostname. An unusable input returns an
// invalid-domain ProviderError, the only error the analyzer surfaces at
// the top level.
func NormalizeDomain(raw string) (string, error) {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimPrefix(domain, "www.")

	if !domainPattern.MatchString(domain) {
		return "", resilience.NewProviderError("analyzer", resilience.KindInvalidDomain,
			fmt.Errorf("invalid domain %q", raw))
	}
	return domain, nil
}
