package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List detected agent sessions",
	Long: `List autonomous agent sessions detected in analyzed event logs:
bursts of rapid multi-file generation attributed to an AI agent rather
than interactive suggestion use.`,
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "maximum sessions to show")
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	sessions, err := store.ListAgentSessions(ctx, sessionsLimit)
	if err != nil {
		return fmt.Errorf("list agent sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No agent sessions detected yet")
		return nil
	}

	fmt.Printf("🤖 Agent Sessions (%d)\n\n", len(sessions))
	for _, s := range sessions {
		start := time.UnixMilli(s.StartTime).UTC()
		duration := time.Duration(s.EndTime-s.StartTime) * time.Millisecond

		fmt.Printf("%s  %s (%s confidence)\n",
			start.Format("2006-01-02 15:04:05"), s.Source, s.Confidence)
		fmt.Printf("  %d files, %d lines, %d characters over %s\n",
			s.FileCount(), s.TotalLines, s.TotalCharacters, duration.Round(time.Millisecond))

		files := make([]string, 0, len(s.FilesAffected))
		for f := range s.FilesAffected {
			files = append(files, f)
		}
		sort.Strings(files)
		for _, f := range files {
			fmt.Printf("    - %s\n", f)
		}
		fmt.Println()
	}

	return nil
}
