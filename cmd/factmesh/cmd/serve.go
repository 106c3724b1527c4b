package cmd

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/factmesh/factmesh/internal/api"
	"github.com/factmesh/factmesh/internal/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the claim evaluation HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"listen address (overrides api.addr)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, configFile, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	p, store, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Hot-reload aggregation weights on config file writes.
	if configFile != "" {
		watcher, err := config.WatchWeights(configFile, logger.Slog(), p.SetWeightOverrides)
		if err != nil {
			logger.Warn("weight hot reload unavailable", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	addr := cfg.API.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := api.NewServer(p, store,
		api.WithLogger(logger.Slog()),
		api.WithRequestTimeout(parseDuration(cfg.API.RequestTimeout, 5*time.Minute)),
		api.WithCORSOrigins(cfg.API.CORSOrigins),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
