package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/thresholds"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Show or adjust detection thresholds",
	Long: `Thresholds control when an acceptance counts as a blind approval:
maximum acceptance time, expected AI percentage, minimum review time,
and streak length. Presets exist per experience level; individual
values can be overridden and are clamped to safe bounds.`,
	RunE: runThresholdsShow,
}

var thresholdsLevelCmd = &cobra.Command{
	Use:   "level <junior|mid|senior>",
	Short: "Switch to an experience level preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runThresholdsLevel,
}

var thresholdsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Override a single threshold value",
	Long: `Valid keys:
  blind-approval-time  maximum acceptance time in ms (500-10000)
  max-ai-percentage    expected AI code percentage (20-100)
  min-review-time      minimum review time in ms (500-30000)
  streak-threshold     consecutive rapid approvals before alerting (2-10)`,
	Args: cobra.ExactArgs(2),
	RunE: runThresholdsSet,
}

var thresholdsExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export current thresholds to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runThresholdsExport,
}

var thresholdsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import thresholds from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runThresholdsImport,
}

func init() {
	thresholdsCmd.AddCommand(thresholdsLevelCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)
	thresholdsCmd.AddCommand(thresholdsExportCmd)
	thresholdsCmd.AddCommand(thresholdsImportCmd)
}

// thresholdsFilePath is where overrides persist between runs
func thresholdsFilePath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".reviewsense", "thresholds.yaml")
}

// loadManager builds a threshold manager from the configured level plus any
// persisted overrides
func loadManager() *thresholds.Manager {
	level := models.ExperienceLevel(strings.ToLower(cfg.Tracking.ExperienceLevel))
	manager := thresholds.NewManager(level)

	data, err := os.ReadFile(thresholdsFilePath())
	if err != nil {
		return manager
	}
	var exported thresholds.Export
	if err := yaml.Unmarshal(data, &exported); err != nil {
		logger.WithError(err).Warn("Ignoring unreadable thresholds file")
		return manager
	}
	manager.ImportConfig(exported)
	return manager
}

func saveManager(manager *thresholds.Manager) error {
	data, err := yaml.Marshal(manager.ExportConfig())
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	path := thresholdsFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write thresholds: %w", err)
	}
	return nil
}

func runThresholdsShow(cmd *cobra.Command, args []string) error {
	manager := loadManager()
	printThresholds(manager)

	fmt.Printf("\nPresets:\n")
	for level, config := range thresholds.AllLevelThresholds() {
		fmt.Printf("  %-6s  blind approval < %dms, AI ≤ %.0f%%, review ≥ %dms, streak %d\n",
			level, config.BlindApprovalTime, config.MaxAIPercentage,
			config.MinReviewTime, config.StreakThreshold)
	}
	return nil
}

func printThresholds(manager *thresholds.Manager) {
	config := manager.GetConfig()
	fmt.Printf("🎚  Detection Thresholds\n")
	fmt.Printf("Level: %s\n\n", manager.Level())
	fmt.Printf("  blind-approval-time: %dms\n", config.BlindApprovalTime)
	fmt.Printf("  max-ai-percentage:   %.0f%%\n", config.MaxAIPercentage)
	fmt.Printf("  min-review-time:     %dms\n", config.MinReviewTime)
	fmt.Printf("  streak-threshold:    %d\n", config.StreakThreshold)
}

func runThresholdsLevel(cmd *cobra.Command, args []string) error {
	level := models.ExperienceLevel(strings.ToLower(args[0]))
	switch level {
	case models.LevelJunior, models.LevelMid, models.LevelSenior:
	default:
		return fmt.Errorf("unknown level %q (expected junior, mid, or senior)", args[0])
	}

	manager := loadManager()
	manager.SetLevel(level)
	if err := saveManager(manager); err != nil {
		return err
	}

	fmt.Printf("Switched to %s preset (overrides discarded)\n\n", level)
	printThresholds(manager)
	return nil
}

func runThresholdsSet(cmd *cobra.Command, args []string) error {
	key, rawValue := args[0], args[1]
	manager := loadManager()

	switch key {
	case "blind-approval-time":
		ms, err := strconv.ParseInt(rawValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", rawValue, err)
		}
		manager.SetBlindApprovalTime(ms)
	case "max-ai-percentage":
		pct, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", rawValue, err)
		}
		manager.SetMaxAIPercentage(pct)
	case "min-review-time":
		ms, err := strconv.ParseInt(rawValue, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", rawValue, err)
		}
		manager.SetMinReviewTime(ms)
	case "streak-threshold":
		n, err := strconv.Atoi(rawValue)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", rawValue, err)
		}
		manager.SetStreakThreshold(n)
	default:
		return fmt.Errorf("unknown threshold key %q", key)
	}

	if err := saveManager(manager); err != nil {
		return err
	}

	fmt.Printf("Updated %s (values outside bounds are clamped)\n\n", key)
	printThresholds(manager)
	return nil
}

func runThresholdsExport(cmd *cobra.Command, args []string) error {
	manager := loadManager()
	data, err := yaml.Marshal(manager.ExportConfig())
	if err != nil {
		return fmt.Errorf("marshal thresholds: %w", err)
	}
	if err := os.WriteFile(args[0], data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Printf("Exported thresholds to %s\n", args[0])
	return nil
}

func runThresholdsImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var exported thresholds.Export
	if err := yaml.Unmarshal(data, &exported); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	manager := loadManager()
	manager.ImportConfig(exported)
	if err := saveManager(manager); err != nil {
		return err
	}

	fmt.Printf("Imported thresholds from %s\n\n", args[0])
	printThresholds(manager)
	return nil
}
