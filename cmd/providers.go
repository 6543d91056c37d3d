package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured metric providers",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := initRegistry()

		fmt.Printf("%-12s %-14s %-9s %-10s %s\n", "KIND", "PROVIDER", "CACHED", "ATTEMPTS", "NOTES")
		for _, reg := range registry.All() {
			cached := "no"
			if reg.Policy.Cacheable {
				cached = "yes"
			}
			attempts := reg.Policy.MaxAttempts
			if attempts <= 0 {
				attempts = 1
			}
			notes := ""
			if reg.Policy.CompetitorLiveOnly {
				notes = "competitor always live"
			}
			fmt.Printf("%-12s %-14s %-9s %-10d %s\n",
				reg.Provider.Kind(), reg.Provider.Name(), cached, attempts, notes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
