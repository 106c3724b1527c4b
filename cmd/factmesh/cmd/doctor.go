package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/factmesh/factmesh/internal/adapters/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, model connectivity and state storage",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	fmt.Println("Checking configuration...")
	cfg, configFile, err := loadConfig()
	if err != nil {
		fmt.Printf("  ✗ config: %v\n", err)
		return err
	}
	if configFile != "" {
		fmt.Printf("  ✓ config loaded from %s\n", configFile)
	} else {
		fmt.Println("  ✓ config loaded from defaults")
	}

	logger := buildLogger(cfg)
	allOk := true

	fmt.Println("\nChecking model service...")
	svc, err := buildModel(cfg, logger)
	if err != nil {
		fmt.Printf("  ✗ %s: %v\n", cfg.Model.Provider, err)
		allOk = false
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		if err := svc.Ping(ctx); err != nil {
			fmt.Printf("  ✗ %s: %v\n", svc.Name(), err)
			allOk = false
		} else {
			fmt.Printf("  ✓ %s reachable\n", svc.Name())
		}
	}

	fmt.Println("\nChecking state storage...")
	store, err := state.New(cfg.State)
	if err != nil {
		fmt.Printf("  ✗ %s at %s: %v\n", cfg.State.Backend, cfg.State.Path, err)
		allOk = false
	} else {
		fmt.Printf("  ✓ %s at %s\n", cfg.State.Backend, cfg.State.Path)
		_ = store.Close()
	}

	fmt.Println()
	if !allOk {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("All checks passed.")
	return nil
}
