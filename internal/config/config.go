// Package config loads and validates application configuration from
// flags, environment, config files and defaults.
package config

// Config holds all application configuration. Verdict thresholds and
// routing tables are fixed constants in their packages and deliberately
// have no knobs here.
type Config struct {
	Log         LogConfig         `mapstructure:"log"`
	Model       ModelConfig       `mapstructure:"model"`
	Engine      EngineConfig      `mapstructure:"engine"`
	Tools       ToolsConfig       `mapstructure:"tools"`
	Aggregation AggregationConfig `mapstructure:"aggregation"`
	State       StateConfig       `mapstructure:"state"`
	API         APIConfig         `mapstructure:"api"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig configures the model service adapter.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"` // openai, stub
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Timeout     string  `mapstructure:"timeout"`
	RatePerSec  float64 `mapstructure:"rate_per_sec"`
	RateBurst   int     `mapstructure:"rate_burst"`
	// ScenarioFile feeds the stub provider.
	ScenarioFile string `mapstructure:"scenario_file"`
}

// EngineConfig tunes the specialist execution engine.
type EngineConfig struct {
	MaxCycles         int    `mapstructure:"max_cycles"`
	SpecialistTimeout string `mapstructure:"specialist_timeout"`
}

// ToolsConfig tunes tool execution.
type ToolsConfig struct {
	CacheTTL string `mapstructure:"cache_ttl"`
}

// AggregationConfig carries optional weight overrides keyed by
// dimension name. Overrides replace defaults without renormalization.
type AggregationConfig struct {
	WeightOverrides map[string]float64 `mapstructure:"weight_overrides"`
}

// StateConfig configures claim persistence.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // sqlite, json
	Path    string `mapstructure:"path"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Addr           string   `mapstructure:"addr"`
	RequestTimeout string   `mapstructure:"request_timeout"`
	CORSOrigins    []string `mapstructure:"cors_origins"`
}
