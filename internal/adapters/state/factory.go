package state

import (
	"fmt"

	"github.com/factmesh/factmesh/internal/config"
	"github.com/factmesh/factmesh/internal/core"
)

// New builds a ClaimStore from configuration.
func New(cfg config.StateConfig) (core.ClaimStore, error) {
	switch cfg.Backend {
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	case "json":
		return NewJSONStore(cfg.Path)
	default:
		return nil, core.NewValidationError("unknown_backend",
			fmt.Sprintf("unsupported state backend %q (want sqlite or json)", cfg.Backend))
	}
}
