package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/model"
	"github.com/sitepulse/compete-cli/internal/orchestrator"
	"github.com/sitepulse/compete-cli/internal/report"
)

var (
	analyzeOwner       string
	analyzeYour        string
	analyzeCompetitor  string
	analyzeForce       bool
	analyzeWithInsight bool
	analyzeXLSXPath    string
	analyzeJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare your site against a competitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		resp, run, err := env.Orchestrator.Analyze(cmd.Context(), orchestrator.Request{
			OwnerID:          analyzeOwner,
			YourDomain:       analyzeYour,
			CompetitorDomain: analyzeCompetitor,
			ForceRefresh:     analyzeForce,
			WithInsight:      analyzeWithInsight,
		})
		if err != nil {
			return err
		}
		zap.L().Info("run recorded", zap.String("run_id", run.ID))

		if analyzeXLSXPath != "" {
			if err := report.WriteXLSX(analyzeXLSXPath, resp); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", analyzeXLSXPath)
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(resp); err != nil {
				return eris.Wrap(err, "encode response")
			}
			return nil
		}

		printSummary(resp)
		return nil
	},
}

func printSummary(resp *model.AnalyzeResponse) {
	fmt.Printf("%s vs %s\n\n", resp.YourSite.Domain, resp.CompetitorSite.Domain)
	fmt.Printf("%-14s %12s %12s %12s\n", "CATEGORY", "YOURS", "COMPETITOR", "WINNER")
	for _, kind := range model.MetricKinds() {
		cmp, ok := resp.Comparison[string(kind)]
		if !ok {
			continue
		}
		if cmp.Winner == model.WinnerUnavailable {
			fmt.Printf("%-14s %12s %12s %12s\n", kind, "-", "-", "n/a")
			continue
		}
		fmt.Printf("%-14s %12.1f %12.1f %12s\n", kind, cmp.YourValue, cmp.CompetitorValue, cmp.Winner)
	}
	fmt.Printf("\nMarket share: you %d / competitor %d\n",
		resp.MarketShare.Yours, resp.MarketShare.Competitor)

	if resp.PartialFailure {
		fmt.Printf("\n%d metric(s) unavailable:\n", len(resp.FailedMetrics))
		for _, fm := range resp.FailedMetrics {
			fmt.Printf("  [%s] %s: %s\n", fm.Side, fm.Metric, fm.Kind)
		}
	}
	if resp.Insight != "" {
		fmt.Printf("\n%s\n", resp.Insight)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOwner, "owner", "", "owner ID (required)")
	analyzeCmd.Flags().StringVar(&analyzeYour, "your", "", "your domain (defaults to the owner's profile domain)")
	analyzeCmd.Flags().StringVar(&analyzeCompetitor, "competitor", "", "competitor domain (required)")
	analyzeCmd.Flags().BoolVar(&analyzeForce, "force", false, "bypass the metric cache")
	analyzeCmd.Flags().BoolVar(&analyzeWithInsight, "insight", false, "generate an LLM summary")
	analyzeCmd.Flags().StringVar(&analyzeXLSXPath, "xlsx", "", "write the comparison workbook to this path")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the full response as JSON")
	_ = analyzeCmd.MarkFlagRequired("owner")
	_ = analyzeCmd.MarkFlagRequired("competitor")
	rootCmd.AddCommand(analyzeCmd)
}
