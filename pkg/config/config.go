package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds the service-level configuration. Engine-internal tunables live
// in engine/sandbox.Config; this struct only carries what the process needs to
// wire the engine into its surroundings.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Execution ExecutionConfig `koanf:"execution"`
	Delegate  DelegateConfig  `koanf:"delegate"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

type ExecutionConfig struct {
	// DefaultTimeout applies when a request carries no timeout of its own.
	DefaultTimeout time.Duration `koanf:"default_timeout"`
	// MaxTimeout caps the per-request timeout.
	MaxTimeout time.Duration `koanf:"max_timeout"`
}

type DelegateConfig struct {
	// URL of the external elevated sandbox service. Empty means delegation
	// requests surface to the caller instead of being re-routed here.
	URL string `koanf:"url"`
	// Token authenticates against the delegate service.
	Token string `koanf:"token"`
	// PreferDelegate offloads plain JavaScript to the delegate even when local
	// execution would be possible, unless the request is a custom tool.
	PreferDelegate bool `koanf:"prefer_delegate"`
	// RequestTimeout bounds a single delegate round trip.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type LogConfig struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Execution: ExecutionConfig{
			DefaultTimeout: 30 * time.Second,
			MaxTimeout:     5 * time.Minute,
		},
		Delegate: DelegateConfig{
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envPrefix namespaces all environment overrides, e.g. SIM_SERVER_PORT.
const envPrefix = "SIM_"

// transformEnvKey converts SIM_SERVER_PORT to "server.port" and
// SIM_EXECUTION_DEFAULT_TIMEOUT to "execution.default_timeout".
func transformEnvKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' })
	if len(parts) == 0 {
		return ""
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// Load builds the configuration from defaults overridden by SIM_-prefixed
// environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(key), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}
