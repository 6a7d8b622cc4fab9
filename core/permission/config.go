package permission

import "time"

// Config selects and configures the permission backend.
type Config struct {
	// Priority lists adapter names to probe first, in order.
	Priority []string `mapstructure:"priority" default:"luckperms,memory"`
	// CallTimeout bounds every backend call.
	CallTimeout time.Duration `mapstructure:"call_timeout" default:"5s"`
	// Memory configures the in-process backend.
	Memory MemoryConfig `mapstructure:"memory"`
	// LuckPerms configures the LuckPerms REST backend.
	LuckPerms LuckPermsConfig `mapstructure:"luckperms"`
}

// MemoryConfig configures the in-process backend.
type MemoryConfig struct {
	// Enabled makes the memory backend detectable.
	Enabled bool `mapstructure:"enabled" default:"false"`
}

// LuckPermsConfig configures the LuckPerms REST backend.
type LuckPermsConfig struct {
	// URL is the base URL of the REST API (empty disables the adapter).
	URL string `mapstructure:"url" default:""`
	// APIKey is sent as a bearer token.
	APIKey string `mapstructure:"api_key" default:""`
}
