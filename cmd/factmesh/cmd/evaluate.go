package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/factmesh/factmesh/internal/core"
	"github.com/factmesh/factmesh/internal/pipeline"
)

var (
	evalPlatforms     []string
	evalTopic         string
	evalSeverity      string
	evalTimeSensitive bool
	evalBreaking      bool
	evalURLs          []string
	evalMediaRefs     []string
	evalJSON          bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <claim text>",
	Short: "Evaluate a claim and print the verdict and routing decision",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringSliceVar(&evalPlatforms, "platform", nil,
		"platform the claim was observed on (twitter, reddit, farcaster); repeatable")
	evaluateCmd.Flags().StringVar(&evalTopic, "topic", "",
		"claim topic (politics, health, finance, tech, sports)")
	evaluateCmd.Flags().StringVar(&evalSeverity, "severity", "low",
		"claim severity (low, medium, high)")
	evaluateCmd.Flags().BoolVar(&evalTimeSensitive, "time-sensitive", false,
		"claim loses relevance quickly")
	evaluateCmd.Flags().BoolVar(&evalBreaking, "breaking", false,
		"claim concerns a breaking event")
	evaluateCmd.Flags().StringSliceVar(&evalURLs, "url", nil,
		"source URL cited with the claim; repeatable")
	evaluateCmd.Flags().StringSliceVar(&evalMediaRefs, "media", nil,
		"attached media reference; repeatable")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false,
		"print the full result as JSON")

	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger := buildLogger(cfg)

	p, store, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	claim := &core.ClaimMetadata{
		Text:          strings.Join(args, " "),
		Topic:         core.ParseTopic(evalTopic),
		Severity:      core.ParseSeverity(evalSeverity),
		TimeSensitive: evalTimeSensitive,
		Breaking:      evalBreaking,
		URLs:          evalURLs,
		MediaRefs:     evalMediaRefs,
	}
	for _, platform := range evalPlatforms {
		claim.Platforms = append(claim.Platforms, core.ParsePlatform(platform))
	}

	claim, err = p.Submit(ctx, claim)
	if err != nil {
		return err
	}

	result, err := p.Evaluate(ctx, claim)
	if err != nil {
		return err
	}

	if evalJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	printResult(result)
	return nil
}

func printResult(result *pipeline.Result) {
	verdict := result.Verdict
	routing := result.Routing

	fmt.Printf("Claim %s\n\n", result.Claim.ID)
	fmt.Printf("Verdict:    %s\n", verdict.Verdict)
	fmt.Printf("Score:      %.1f/100\n", verdict.OverallScore)
	fmt.Printf("Confidence: %.2f\n", verdict.Confidence)
	for _, dim := range core.Dimensions {
		fmt.Printf("  %-20s %5.1f\n", dim, verdict.Dimensions[dim])
	}
	if len(verdict.StrongSignals) > 0 {
		fmt.Println("\nSignals:")
		for _, s := range verdict.StrongSignals {
			fmt.Printf("  + %s\n", s)
		}
	}
	if len(verdict.Warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range verdict.Warnings {
			fmt.Printf("  ! %s\n", w)
		}
	}
	if verdict.Explanation != "" {
		fmt.Printf("\n%s\n", verdict.Explanation)
	}

	fmt.Printf("\nRoute:   %s (%s urgency)\n", routing.Route, routing.Urgency)
	fmt.Printf("Reason:  %s\n", routing.Reasoning)
	if routing.NeedsVote() {
		fmt.Printf("Voting:  %ds window, %d votes required\n",
			routing.VotingWindowSeconds, routing.MinVotesRequired)
	}
}
