package database

// Config holds configuration for the run-log database connection.
type Config struct {
	// Enabled turns the run log on. When false no connection is attempted.
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Driver is the database driver (mysql, sqlite).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path for sqlite.
	Name string `mapstructure:"name" default:"dailies.db"`
	// TimeoutSeconds bounds connection setup and each read/write.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
