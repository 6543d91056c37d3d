package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sitepulse/compete-cli/internal/model"
)

// BuildPrompt renders the comparison into the user message sent to the
// model. Only settled categories are included; unavailable ones are
// named so the model does not invent numbers for them.
func BuildPrompt(resp *model.AnalyzeResponse) string {
	var b strings.Builder

	yourDomain, competitorDomain := "your site", "the competitor"
	if resp.YourSite != nil && resp.YourSite.Domain != "" {
		yourDomain = resp.YourSite.Domain
	}
	if resp.CompetitorSite != nil && resp.CompetitorSite.Domain != "" {
		competitorDomain = resp.CompetitorSite.Domain
	}

	fmt.Fprintf(&b, "Comparison of %s (the user) vs %s (the competitor).\n\n", yourDomain, competitorDomain)

	categories := make([]string, 0, len(resp.Comparison))
	for name := range resp.Comparison {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	var unavailable []string
	for _, name := range categories {
		cmp := resp.Comparison[name]
		if cmp.Winner == model.WinnerUnavailable {
			unavailable = append(unavailable, name)
			continue
		}
		fmt.Fprintf(&b, "- %s: user %.1f vs competitor %.1f (winner: %s)\n",
			name, cmp.YourValue, cmp.CompetitorValue, cmp.Winner)
	}

	fmt.Fprintf(&b, "\nMarket share score: user %d, competitor %d.\n",
		resp.MarketShare.Yours, resp.MarketShare.Competitor)

	if len(unavailable) > 0 {
		fmt.Fprintf(&b, "No data was available for: %s.\n", strings.Join(unavailable, ", "))
	}

	return b.String()
}
