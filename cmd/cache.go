package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitepulse/compete-cli/internal/cache"
	"github.com/sitepulse/compete-cli/internal/model"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the metric cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Store.DeleteExpiredMetrics(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("cache purged", zap.Int("deleted", n))
		fmt.Printf("deleted %d expired entries\n", n)
		return nil
	},
}

var (
	invalidateOwner  string
	invalidateDomain string
	invalidateKind   string
	invalidateSide   string
)

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Evict cached metrics for a domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		kinds := model.MetricKinds()
		kinds = append(kinds, model.MetricComparison)
		if invalidateKind != "" {
			kinds = []model.MetricKind{model.MetricKind(invalidateKind)}
		}

		evicted := 0
		for _, kind := range kinds {
			key := cache.Key{
				SubjectType: model.SubjectType(invalidateSide),
				OwnerID:     invalidateOwner,
				Domain:      invalidateDomain,
				Kind:        kind,
			}
			if err := env.Gateway.Invalidate(cmd.Context(), key); err != nil {
				return err
			}
			evicted++
		}
		fmt.Printf("invalidated %d key(s) for %s\n", evicted, invalidateDomain)
		return nil
	},
}

func init() {
	cacheInvalidateCmd.Flags().StringVar(&invalidateOwner, "owner", "", "owner ID (required)")
	cacheInvalidateCmd.Flags().StringVar(&invalidateDomain, "domain", "", "domain to evict (required)")
	cacheInvalidateCmd.Flags().StringVar(&invalidateKind, "kind", "", "restrict to one metric kind")
	cacheInvalidateCmd.Flags().StringVar(&invalidateSide, "side", "user", "subject side: user or competitor")
	_ = cacheInvalidateCmd.MarkFlagRequired("owner")
	_ = cacheInvalidateCmd.MarkFlagRequired("domain")

	cacheCmd.AddCommand(cachePurgeCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
