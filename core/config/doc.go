// Package config provides configuration management for role-sync.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional config.yaml and a .env file. Defaults come from the
// `default` struct tags of every section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: admin API bind address and API key
//   - Log: logging level and format
//   - Database: link store driver (sqlite, mysql, postgres) and connection details
//   - Sync: whitelist management, role mapping (sync.roles) and retry budgets
//   - Permission: backend priority and per-backend settings
//   - Platform: optional member lookup service
//   - Lang: message language
//   - Host: standalone host loop
//
// The role mapping can only be set in config.yaml. Toggling whitelist
// management writes sync.manage_whitelist back into that file.
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
