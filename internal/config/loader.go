package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v          *viper.Viper
	configFile string
	envPrefix  string
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:         viper.New(),
		envPrefix: "FACTMESH",
	}
}

// NewLoaderWithViper creates a loader using an existing viper instance,
// allowing CLI flag bindings to participate in precedence.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{
		v:         v,
		envPrefix: "FACTMESH",
	}
}

// WithConfigFile sets an explicit config file path.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// Viper returns the underlying viper instance for flag binding.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// Load loads configuration from all sources.
// Precedence (highest to lowest):
// 1. CLI flags (bound via viper.BindPFlag)
// 2. Environment variables (FACTMESH_*)
// 3. Project config (.factmesh.yaml in current directory)
// 4. User config (~/.config/factmesh/config.yaml)
// 5. Defaults
func (l *Loader) Load() (*Config, error) {
	l.setDefaults()

	l.v.SetEnvPrefix(l.envPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	} else {
		l.v.SetConfigName(".factmesh")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			l.v.AddConfigPath(filepath.Join(home, ".config", "factmesh"))
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func (l *Loader) setDefaults() {
	// Log defaults
	l.v.SetDefault("log.level", "info")
	l.v.SetDefault("log.format", "auto")

	// Model defaults
	l.v.SetDefault("model.provider", "openai")
	l.v.SetDefault("model.model", "gpt-4o-mini")
	l.v.SetDefault("model.temperature", 0.2)
	l.v.SetDefault("model.max_tokens", 2048)
	l.v.SetDefault("model.timeout", "60s")
	l.v.SetDefault("model.rate_per_sec", 2.0)
	l.v.SetDefault("model.rate_burst", 4)

	// Engine defaults
	l.v.SetDefault("engine.max_cycles", 8)
	l.v.SetDefault("engine.specialist_timeout", "3m")

	// Tool defaults
	l.v.SetDefault("tools.cache_ttl", "5m")

	// State defaults
	l.v.SetDefault("state.backend", "sqlite")
	l.v.SetDefault("state.path", ".factmesh/state/factmesh.db")

	// API defaults
	l.v.SetDefault("api.addr", ":8080")
	l.v.SetDefault("api.request_timeout", "5m")
	l.v.SetDefault("api.cors_origins", []string{"*"})
}

// ConfigFile returns the config file path actually used, if any.
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// IsSet checks if a key has been set by any source.
func (l *Loader) IsSet(key string) bool {
	return l.v.IsSet(key)
}
