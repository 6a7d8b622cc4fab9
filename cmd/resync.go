package cmd

import (
	"net/http"
	"net/url"

	"github.com/spf13/cobra"
)

// resyncCmd queues a manual resync on a running server.
var resyncCmd = &cobra.Command{
	Use:   "resync <platform-id|game-uuid>",
	Short: "Queue a full sync of one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodPost, "/sync/"+url.PathEscape(args[0]), nil)
	},
}

// reloadCmd makes a running server re-read its configuration.
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload configuration, role mapping and language files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodPost, "/reload", nil)
	},
}

// statusCmd shows the bound backend and whitelist mode.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return adminCall(http.MethodGet, "/status", nil)
	},
}

func init() {
	RootCmd.AddCommand(resyncCmd, reloadCmd, statusCmd)
}
