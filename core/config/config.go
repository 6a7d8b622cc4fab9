package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"

	"role-sync/core/database"
	"role-sync/core/host"
	"role-sync/core/lang"
	"role-sync/core/logger"
	"role-sync/core/permission"
	"role-sync/core/platform"
	"role-sync/core/server"
	"role-sync/feature/rolesync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional config file looked up in the config path.
const FileName = "config.yaml"

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the admin HTTP server.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the link store.
	Database database.Config `mapstructure:"database"`
	// Sync holds the role mapping and the sync engine settings.
	Sync rolesync.Config `mapstructure:"sync"`
	// Permission selects the permission backend.
	Permission permission.Config `mapstructure:"permission"`
	// Platform configures the optional member lookup service.
	Platform platform.Config `mapstructure:"platform"`
	// Lang selects the message language.
	Lang lang.Config `mapstructure:"lang"`
	// Host configures the standalone host loop.
	Host host.Config `mapstructure:"host"`

	file string
}

// File is the config file settings are written back to.
func (c *Config) File() string {
	return c.file
}

// LoadConfig loads configuration from defaults, config.yaml, the .env file
// and environment variables, later sources winning.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.file = v.ConfigFileUsed()
	if config.file == "" {
		config.file = filepath.Join(path, FileName)
	}
	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Maps only come from the config file
		if field.Type.Kind() == reflect.Map {
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
