package server

import (
	"net"
	"strconv"
)

// Config holds configuration for the read-only review HTTP server.
type Config struct {
	// Host is the interface the server binds to. Empty binds all interfaces.
	Host string `mapstructure:"host" default:"127.0.0.1"`
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
}

// Address returns the host:port listen address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsValidPort checks that Port is a number in the TCP port range.
func (c Config) IsValidPort() bool {
	p, err := strconv.Atoi(c.Port)
	return err == nil && p > 0 && p <= 65535
}
