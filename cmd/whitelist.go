package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

// whitelistCmd groups the whitelist operations of a running server.
var whitelistCmd = &cobra.Command{
	Use:   "whitelist",
	Short: "Manage the whitelist of a running server",
}

var whitelistResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the whitelist and re-add every linked account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodPost, "/whitelist/reset", nil)
	},
}

var whitelistEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Let role sync manage the whitelist (saved to config.yaml)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodPut, "/whitelist/manage", map[string]bool{"enabled": true})
	},
}

var whitelistDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop role sync from touching the whitelist (saved to config.yaml)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodPut, "/whitelist/manage", map[string]bool{"enabled": false})
	},
}

func init() {
	whitelistCmd.AddCommand(whitelistResetCmd, whitelistEnableCmd, whitelistDisableCmd)
	RootCmd.AddCommand(whitelistCmd)
}
