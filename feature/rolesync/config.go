package rolesync

import (
	"role-sync/core/reconcile"
	"role-sync/core/retry"
)

// Config holds the sync engine settings.
type Config struct {
	// ManageWhitelist lets the engine add and remove whitelist entries.
	ManageWhitelist bool `mapstructure:"manage_whitelist" default:"true"`
	// Roles maps platform role ids to permission groups.
	Roles reconcile.Mapping `mapstructure:"roles"`
	// Workers is the number of accounts processed concurrently.
	Workers int `mapstructure:"workers" default:"4"`
	// Retry bounds each store and backend call.
	Retry retry.Policy `mapstructure:"retry"`
	// Requeue bounds how often a failed work item is tried again, and how
	// long it waits in between.
	Requeue retry.Policy `mapstructure:"requeue"`
}
