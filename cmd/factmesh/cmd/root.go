// Package cmd implements the factmesh CLI.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/factmesh/factmesh/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// Version info - set via SetVersion()
	appVersion string
	appCommit  string
	appDate    string

	// rootViper carries flag bindings into config loading.
	rootViper = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "factmesh",
	Short: "AI-assisted claim truth assessment with community routing",
	Long: `factmesh evaluates claims with six specialist AI agents (logic,
source credibility, citations, social evidence, media forensics and
propagation patterns), aggregates their verdicts into an overall truth
score and routes low-confidence or high-stakes claims to community
voting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func SetVersion(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: .factmesh.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto",
		"log format (auto, text, json)")

	// Bind flags to viper (errors are nil when flag exists)
	_ = rootViper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = rootViper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// loadConfig loads and validates configuration with CLI flags bound.
// The second return value is the config file actually used, empty when
// running on defaults.
func loadConfig() (*config.Config, string, error) {
	loader := config.NewLoaderWithViper(rootViper)
	if cfgFile != "" {
		loader = loader.WithConfigFile(cfgFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, "", err
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, loader.ConfigFile(), nil
}
