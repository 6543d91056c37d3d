package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sitepulse/compete-cli/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage business profiles and social connections",
}

var (
	profileOwner   string
	profileDomain  string
	profileHandles []string
)

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a business profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		declared := make([]model.SocialHandle, 0, len(profileHandles))
		for _, h := range profileHandles {
			platform, username, ok := strings.Cut(h, "=")
			if !ok {
				return eris.Errorf("bad handle %q, expected platform=username", h)
			}
			declared = append(declared, model.SocialHandle{
				Platform: platform,
				Username: username,
				Source:   model.HandleSourceDeclared,
			})
		}

		if err := env.Store.UpsertProfile(cmd.Context(), &model.BusinessProfile{
			OwnerID:         profileOwner,
			Domain:          profileDomain,
			DeclaredHandles: declared,
		}); err != nil {
			return err
		}
		fmt.Printf("profile %s saved\n", profileOwner)
		return nil
	},
}

var (
	connectPlatform string
	connectUsername string
	connectRevoke   bool
)

var profileConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Record an OAuth social connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.UpsertConnection(cmd.Context(), profileOwner, model.SocialHandle{
			Platform:  connectPlatform,
			Username:  connectUsername,
			Source:    model.HandleSourceOAuth,
			Connected: !connectRevoke,
		}); err != nil {
			return err
		}
		state := "connected"
		if connectRevoke {
			state = "revoked"
		}
		fmt.Printf("%s %s for %s\n", connectPlatform, state, profileOwner)
		return nil
	},
}

func init() {
	profileSetCmd.Flags().StringVar(&profileOwner, "owner", "", "owner ID (required)")
	profileSetCmd.Flags().StringVar(&profileDomain, "domain", "", "the owner's own domain")
	profileSetCmd.Flags().StringSliceVar(&profileHandles, "handle", nil, "declared handle as platform=username (repeatable)")
	_ = profileSetCmd.MarkFlagRequired("owner")

	profileConnectCmd.Flags().StringVar(&profileOwner, "owner", "", "owner ID (required)")
	profileConnectCmd.Flags().StringVar(&connectPlatform, "platform", "", "platform name (required)")
	profileConnectCmd.Flags().StringVar(&connectUsername, "username", "", "connected account username")
	profileConnectCmd.Flags().BoolVar(&connectRevoke, "revoke", false, "mark the connection revoked")
	_ = profileConnectCmd.MarkFlagRequired("owner")
	_ = profileConnectCmd.MarkFlagRequired("platform")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileConnectCmd)
	rootCmd.AddCommand(profileCmd)
}
