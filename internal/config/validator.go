package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{errors: make(ValidationErrors, 0)}
}

// Validate checks the entire configuration and returns all problems at
// once rather than stopping at the first.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateModel(&cfg.Model)
	v.validateEngine(&cfg.Engine)
	v.validateTools(&cfg.Tools)
	v.validateAggregation(&cfg.Aggregation)
	v.validateState(&cfg.State)
	v.validateAPI(&cfg.API)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{Field: field, Value: value, Message: msg})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of debug, info, warn, error")
	}
	switch cfg.Format {
	case "", "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of auto, text, json")
	}
}

func (v *Validator) validateModel(cfg *ModelConfig) {
	switch cfg.Provider {
	case "openai", "stub":
	default:
		v.addError("model.provider", cfg.Provider, "must be openai or stub")
	}
	if cfg.Provider == "stub" && cfg.ScenarioFile == "" {
		v.addError("model.scenario_file", cfg.ScenarioFile, "stub provider requires a scenario file")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		v.addError("model.temperature", cfg.Temperature, "must be in [0, 2]")
	}
	if cfg.MaxTokens <= 0 {
		v.addError("model.max_tokens", cfg.MaxTokens, "must be positive")
	}
	v.validateDuration("model.timeout", cfg.Timeout)
	if cfg.RatePerSec <= 0 {
		v.addError("model.rate_per_sec", cfg.RatePerSec, "must be positive")
	}
	if cfg.RateBurst <= 0 {
		v.addError("model.rate_burst", cfg.RateBurst, "must be positive")
	}
}

func (v *Validator) validateEngine(cfg *EngineConfig) {
	if cfg.MaxCycles <= 0 || cfg.MaxCycles > 32 {
		v.addError("engine.max_cycles", cfg.MaxCycles, "must be in [1, 32]")
	}
	v.validateDuration("engine.specialist_timeout", cfg.SpecialistTimeout)
}

func (v *Validator) validateTools(cfg *ToolsConfig) {
	v.validateDuration("tools.cache_ttl", cfg.CacheTTL)
}

func (v *Validator) validateAggregation(cfg *AggregationConfig) {
	for dim, w := range cfg.WeightOverrides {
		if w < 0 || w > 1 {
			v.addError("aggregation.weight_overrides."+dim, w, "must be in [0, 1]")
		}
	}
}

func (v *Validator) validateState(cfg *StateConfig) {
	switch cfg.Backend {
	case "sqlite", "json":
	default:
		v.addError("state.backend", cfg.Backend, "must be sqlite or json")
	}
	if cfg.Path == "" {
		v.addError("state.path", cfg.Path, "must not be empty")
	}
}

func (v *Validator) validateAPI(cfg *APIConfig) {
	if cfg.Addr == "" {
		v.addError("api.addr", cfg.Addr, "must not be empty")
	}
	v.validateDuration("api.request_timeout", cfg.RequestTimeout)
}

func (v *Validator) validateDuration(field, value string) {
	if value == "" {
		return
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.addError(field, value, "must be a valid duration like 30s or 5m")
	}
}
