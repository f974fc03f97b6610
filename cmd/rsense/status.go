package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/spf13/cobra"
)

var statusDays int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent metrics against your thresholds",
	Long: `Display recent daily metrics, flag days that exceeded your thresholds,
and suggest a tighter blind-approval threshold when your review habits
support one.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusDays, "days", 7, "number of recent days to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	manager := loadManager()
	config := manager.GetConfig()

	fmt.Printf("🔍 ReviewSense Status\n")
	fmt.Printf("%s\n", strings.Repeat("═", 50))

	fmt.Printf("\n📋 Configuration:\n")
	fmt.Printf("  Storage: %s\n", cfg.Storage.Type)
	fmt.Printf("  Experience level: %s\n", manager.Level())
	fmt.Printf("  Blind approval threshold: %dms\n", config.BlindApprovalTime)

	history, err := store.ListDailyMetrics(ctx, statusDays)
	if err != nil {
		return fmt.Errorf("list daily metrics: %w", err)
	}

	fmt.Printf("\n📊 Recent Days:\n")
	if len(history) == 0 {
		fmt.Printf("  No metrics yet (run 'rsense analyze' on your event logs)\n")
		return nil
	}

	for _, day := range history {
		check := manager.CheckMetrics(*day)
		flags := []string{}
		if check.AIPercentageExceeded {
			flags = append(flags, "AI% exceeded")
		}
		if check.ReviewTimeLow {
			flags = append(flags, "review time low")
		}

		marker := "✅"
		suffix := ""
		if len(flags) > 0 {
			marker = "⚠️ "
			suffix = " — " + strings.Join(flags, ", ")
		}
		fmt.Printf("  %s %s: AI %.1f%%, avg review %dms, %d blind approvals%s\n",
			marker, day.Date, day.AIPercentage, day.AvgReviewTime, day.BlindApprovals, suffix)
	}

	// Adaptive suggestion over the same window
	suggestion := manager.SuggestAdaptiveThreshold(derefMetrics(history))
	fmt.Printf("\n💡 Adaptive Threshold:\n")
	fmt.Printf("  %s\n", suggestion.Reasoning)
	if suggestion.Changed {
		fmt.Printf("  Suggested: %dms (currently %dms)\n",
			suggestion.RecommendedBlindApprovalTime, config.BlindApprovalTime)
		fmt.Printf("  Apply with: rsense thresholds set blind-approval-time %d\n",
			suggestion.RecommendedBlindApprovalTime)
	}

	return nil
}

func derefMetrics(history []*models.DailyMetrics) []models.DailyMetrics {
	out := make([]models.DailyMetrics, 0, len(history))
	for _, m := range history {
		out = append(out, *m)
	}
	return out
}
