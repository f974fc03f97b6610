package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/reviewsense/reviewsense/internal/engine"
	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/output"
	"github.com/reviewsense/reviewsense/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	analyzeQuiet bool
	analyzeJSON  bool
	analyzeLevel string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <events.jsonl> [more.jsonl...]",
	Short: "Analyze tracking event logs and update review metrics",
	Long: `Analyze runs JSONL tracking event logs through the detection pipeline:
duplicate suppression, blind-approval detection, review quality scoring,
and agent session detection. Results are persisted to storage and a
per-day summary is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVarP(&analyzeQuiet, "quiet", "q", false, "one-line summary per day")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "machine-readable JSON output")
	analyzeCmd.Flags().StringVar(&analyzeLevel, "level", "", "experience level override (junior, mid, senior)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	events, err := loadEventFiles(args)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return fmt.Errorf("no events found in %d file(s)", len(args))
	}

	// Event files may interleave; the pipeline expects chronological order
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})

	level := models.ExperienceLevel(strings.ToLower(cfg.Tracking.ExperienceLevel))
	if analyzeLevel != "" {
		level = models.ExperienceLevel(strings.ToLower(analyzeLevel))
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	var (
		sessionMu      sync.Mutex
		closedSessions []models.AgentSession
	)
	router := engine.NewRouter(level,
		session.WithIdleTimeout(cfg.Tracking.SessionIdleTimeout),
		session.WithOnClose(func(s models.AgentSession) {
			sessionMu.Lock()
			closedSessions = append(closedSessions, s)
			sessionMu.Unlock()
		}),
	)
	applier := engine.NewApplier(store)

	duplicates := make(map[string]int)
	processed := make(map[string]int)
	blind := make(map[string][]output.BlindApprovalEntry)

	for i := range events {
		event := &events[i]
		date := engine.DateOf(event.Timestamp)

		result := router.ProcessEvent(event, nil)
		if result.Duplicate {
			duplicates[date]++
			continue
		}
		processed[date]++

		if result.BlindApproval != nil && result.BlindApproval.IsBlindApproval {
			blind[date] = append(blind[date], output.BlindApprovalEntry{
				FilePath:    event.FilePath,
				Timestamp:   event.Timestamp,
				Confidence:  result.BlindApproval.Confidence,
				TimeDeltaMS: result.BlindApproval.TimeDelta,
			})
		}

		if _, err := applier.Apply(ctx, event, result); err != nil {
			return fmt.Errorf("apply event for %s: %w", event.FilePath, err)
		}
	}

	// Seal any session still open at the end of the logs
	router.Close()

	sessionMu.Lock()
	sessionsByDate := make(map[string][]*models.AgentSession)
	for i := range closedSessions {
		s := closedSessions[i]
		if err := store.SaveAgentSession(ctx, &s); err != nil {
			logger.WithError(err).WithField("session_id", s.ID).Warn("Failed to persist agent session")
		}
		date := engine.DateOf(s.StartTime)
		sessionsByDate[date] = append(sessionsByDate[date], &closedSessions[i])
	}
	sessionMu.Unlock()

	formatter := output.NewFormatter(analyzeVerbosity())
	for _, date := range router.Metrics().Dates() {
		metrics := router.Metrics().Snapshot(date)
		if err := store.SaveDailyMetrics(ctx, &metrics); err != nil {
			return fmt.Errorf("save metrics for %s: %w", date, err)
		}

		files, err := store.ListFileReviews(ctx, date)
		if err != nil {
			return fmt.Errorf("list file reviews for %s: %w", date, err)
		}

		report := &output.Report{
			Date:              date,
			EventsProcessed:   processed[date],
			DuplicatesDropped: duplicates[date],
			Metrics:           &metrics,
			Files:             files,
			Sessions:          sessionsByDate[date],
			BlindApprovals:    blind[date],
		}
		if err := formatter.Format(report, os.Stdout); err != nil {
			return err
		}
	}

	return nil
}

func analyzeVerbosity() output.VerbosityLevel {
	switch {
	case analyzeJSON:
		return output.VerbosityJSON
	case analyzeQuiet:
		return output.VerbosityQuiet
	default:
		return output.GetDefaultVerbosity()
	}
}

// loadEventFiles reads JSONL event logs concurrently, one goroutine per file
func loadEventFiles(paths []string) ([]models.TrackingEvent, error) {
	perFile := make([][]models.TrackingEvent, len(paths))

	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			events, err := readEventFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			perFile[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.TrackingEvent
	for _, events := range perFile {
		all = append(all, events...)
	}
	return all, nil
}

func readEventFile(path string) ([]models.TrackingEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []models.TrackingEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event models.TrackingEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
