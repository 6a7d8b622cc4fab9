package cmd

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var relink bool

// linkCmd groups link maintenance.
var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Inspect and edit identity links",
}

var linkAddCmd = &cobra.Command{
	Use:   "add <platform-id> <game-uuid>",
	Short: "Link a chat account to a game account",
	Long: `Link a chat account to a game account and queue its first sync.

Without --relink, an account that is already linked elsewhere is refused.
With --relink, existing links of either account are replaced and the old
game account loses what the sync granted it.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(args[1]); err != nil {
			return fmt.Errorf("game id %q is not a uuid", args[1])
		}
		return adminCall(http.MethodPost, "/links", map[string]any{
			"platform_id": args[0],
			"game_id":     args[1],
			"relink":      relink,
		})
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <platform-id|game-uuid>",
	Short: "Remove a link and revoke what it granted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodDelete, "/links/"+url.PathEscape(args[0]), nil)
	},
}

var linkShowCmd = &cobra.Command{
	Use:   "show <platform-id|game-uuid>",
	Short: "Show the link of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodGet, "/links/"+url.PathEscape(args[0]), nil)
	},
}

func init() {
	linkAddCmd.Flags().BoolVar(&relink, "relink", false, "Replace existing links of either account")
	linkCmd.AddCommand(linkAddCmd, linkRemoveCmd, linkShowCmd)
	RootCmd.AddCommand(linkCmd)
}
