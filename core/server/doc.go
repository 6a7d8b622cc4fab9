// Package server holds the admin HTTP server configuration.
//
// The Config struct defines the bind host, port and the API key that
// protects every route. CLI commands use LocalURL to reach a running
// instance.
package server
