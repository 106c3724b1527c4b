package cmd

import (
	"time"

	"github.com/factmesh/factmesh/internal/adapters/model"
	"github.com/factmesh/factmesh/internal/adapters/state"
	"github.com/factmesh/factmesh/internal/aggregate"
	"github.com/factmesh/factmesh/internal/config"
	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/engine"
	"github.com/factmesh/factmesh/internal/explain"
	"github.com/factmesh/factmesh/internal/logging"
	"github.com/factmesh/factmesh/internal/pipeline"
	"github.com/factmesh/factmesh/internal/specialist"
	"github.com/factmesh/factmesh/internal/tooling"
)

// buildLogger creates the application logger from config.
func buildLogger(cfg *config.Config) *logging.Logger {
	return logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
}

// buildModel creates the configured model service.
func buildModel(cfg *config.Config, logger *logging.Logger) (core.ModelService, error) {
	switch cfg.Model.Provider {
	case "stub":
		return model.LoadStub(cfg.Model.ScenarioFile)
	default:
		return model.NewOpenAI(model.OpenAIConfig{
			APIKey:      cfg.Model.APIKey,
			BaseURL:     cfg.Model.BaseURL,
			Model:       cfg.Model.Model,
			Temperature: float32(cfg.Model.Temperature),
			MaxTokens:   cfg.Model.MaxTokens,
			RatePerSec:  cfg.Model.RatePerSec,
			RateBurst:   cfg.Model.RateBurst,
		}, logger.Slog())
	}
}

// buildPipeline wires the evaluation pipeline from config. The caller
// owns the returned store and must close it.
func buildPipeline(cfg *config.Config, logger *logging.Logger) (*pipeline.Pipeline, core.ClaimStore, error) {
	svc, err := buildModel(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	store, err := state.New(cfg.State)
	if err != nil {
		return nil, nil, err
	}

	modelTimeout := parseDuration(cfg.Model.Timeout, 60*time.Second)
	specialistTimeout := parseDuration(cfg.Engine.SpecialistTimeout, pipeline.DefaultSpecialistTimeout)

	eng := engine.New(svc, engine.Config{
		MaxCycles:    cfg.Engine.MaxCycles,
		ModelTimeout: modelTimeout,
	}, logger.Slog())

	explainer := explain.New(svc, explain.DefaultTimeout, logger.Slog())

	cacheTTL := parseDuration(cfg.Tools.CacheTTL, tooling.DefaultCacheTTL)
	specialists := specialist.All(logger.Slog(), tooling.WithCacheTTL(cacheTTL))

	p := pipeline.New(pipeline.Options{
		Engine:            eng,
		Specialists:       specialists,
		Aggregator:        aggregate.New(explainer, logger.Slog()),
		Store:             store,
		Logger:            logger.Slog(),
		SpecialistTimeout: specialistTimeout,
		WeightOverrides:   config.ParseWeightOverrides(cfg.Aggregation.WeightOverrides),
	})
	return p, store, nil
}

// parseDuration falls back to a default; the validator has already
// rejected malformed values on the normal path.
func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
