package config

import (
	"strconv"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment variables the dev server honors.
//
// FRONTEND_PORT is kept as a string so a non-numeric value degrades to the
// default instead of failing the parse; misconfigured environments are
// never fatal.
type Env struct {
	// Host is the bind host for the dev server.
	Host string `env:"APP_HOST" envDefault:"127.0.0.1"`

	// FrontendPort is the application server's port. The dev server binds
	// one above it.
	FrontendPort string `env:"FRONTEND_PORT"`

	// BuildMode selects between the "base" and "player" build variants.
	BuildMode string `env:"REPLAYVIEW_BUILD" envDefault:"base"`
}

// ParseEnv loads configuration from environment variables. A parse failure
// yields the documented defaults rather than an error.
func ParseEnv() Env {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{Host: DefaultHost, BuildMode: "base"}
	}
	if e.Host == "" {
		e.Host = DefaultHost
	}
	return e
}

// FrontendPortValue returns the numeric application port, falling back to
// DefaultFrontendPort when FRONTEND_PORT is absent or non-numeric.
func (e Env) FrontendPortValue() int {
	n, err := strconv.Atoi(e.FrontendPort)
	if err != nil || n <= 0 || n > 65534 {
		return DefaultFrontendPort
	}
	return n
}

// DevPort returns the port the dev server should bind: the application
// port plus one.
func (e Env) DevPort() int {
	return e.FrontendPortValue() + 1
}

// PlayerMode reports whether the player build variant is selected.
func (e Env) PlayerMode() bool {
	return e.BuildMode == "player"
}
