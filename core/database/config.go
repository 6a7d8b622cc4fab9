package database

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds configuration for the database connection.
type Config struct {
	// Driver is the database driver (mysql, postgres, sqlite).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name. For sqlite it is the file path (or :memory:).
	Name string `mapstructure:"name" default:"database.db"`
	// DisableSSL turns off TLS negotiation for networked drivers.
	DisableSSL bool `mapstructure:"disable_ssl" default:"false"`
	// TimeoutSeconds bounds connection setup and every I/O call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// MaxOpenConns caps the networked pool.
	MaxOpenConns int `mapstructure:"max_open_conns" default:"10"`
	// MaxIdleConns is the number of idle pooled connections kept around.
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
}

// IsEmbedded reports whether the configured driver is the single-file engine.
func (c Config) IsEmbedded() bool {
	return c.Driver == DriverSQLite
}
