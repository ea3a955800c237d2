// Package config loads ksync's environment-variable configuration and
// resolves it into the auth union the HTTP client core expects (spec §4.1,
// §6).
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the environment-derived configuration for a single command
// invocation.
type Config struct {
	KibanaURL         string `envconfig:"KIBANA_URL" required:"true"`
	KibanaUsername    string `envconfig:"KIBANA_USERNAME"`
	KibanaPassword    string `envconfig:"KIBANA_PASSWORD"`
	KibanaAPIKey      string `envconfig:"KIBANA_APIKEY"`
	KibanaMaxRequests int    `envconfig:"KIBANA_MAX_REQUESTS" default:"8"`
}

// AuthKind distinguishes the three supported credential shapes.
type AuthKind int

const (
	AuthNone AuthKind = iota
	AuthBasic
	AuthAPIKey
)

// Auth is the tagged union consumed by internal/httpclient.Connect.
type Auth struct {
	Kind     AuthKind
	Username string
	Password string
	Token    string
}

// ResolveAuth selects exactly one of Basic/ApiKey per spec §4.1, or None
// when neither is configured. Configuring both is a Configuration error
// surfaced before any network I/O.
func (c *Config) ResolveAuth() (Auth, error) {
	hasBasic := c.KibanaUsername != "" || c.KibanaPassword != ""
	hasAPIKey := c.KibanaAPIKey != ""

	switch {
	case hasBasic && hasAPIKey:
		return Auth{}, fmt.Errorf("resolving auth: both KIBANA_USERNAME/KIBANA_PASSWORD and KIBANA_APIKEY are set")
	case hasBasic:
		if c.KibanaUsername == "" || c.KibanaPassword == "" {
			return Auth{}, fmt.Errorf("resolving auth: KIBANA_USERNAME and KIBANA_PASSWORD must both be set")
		}
		return Auth{Kind: AuthBasic, Username: c.KibanaUsername, Password: c.KibanaPassword}, nil
	case hasAPIKey:
		return Auth{Kind: AuthAPIKey, Token: c.KibanaAPIKey}, nil
	default:
		return Auth{Kind: AuthNone}, nil
	}
}

// Load reads configuration from the process environment. overrides, when
// non-nil, is applied on top of the process environment before binding —
// this is the hook the external --env dotenv loader feeds through.
func Load(overrides map[string]string) (*Config, error) {
	for k, v := range overrides {
		if _, set := os.LookupEnv(k); !set {
			os.Setenv(k, v)
		}
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}
