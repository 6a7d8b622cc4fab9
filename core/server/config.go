package server

import "net"

// Config holds configuration for the HTTP server.
type Config struct {
	// Host is the interface the admin API binds to.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// ListenAddr returns host:port for the listener.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// LocalURL is where CLI commands reach the running server. A wildcard bind
// address is reached over loopback.
func (c Config) LocalURL() string {
	host := c.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, c.Port)
}
