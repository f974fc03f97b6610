// Package session groups bursts of autonomous multi-file AI edits into
// discrete agent sessions.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reviewsense/reviewsense/internal/models"
)

const (
	// rapidWindow is the burst window the signals are evaluated over,
	// relative to event timestamps rather than arrival time.
	rapidWindow = 10_000 // ms

	// minDistinctFiles for the rapid-file-changes signal.
	minDistinctFiles = 3

	// minClosedFileEvents for the closed-file-modifications signal.
	minClosedFileEvents = 2

	// bulkLineThreshold marks a single edit as bulk generation.
	bulkLineThreshold = 100

	// minConsistentEvents for the consistent-source signal.
	minConsistentEvents = 3

	// minSignalTypes is how many distinct signal types must fire before a
	// burst becomes a session. One signal alone is never enough.
	minSignalTypes = 2

	// DefaultIdleTimeout closes a session with no qualifying events.
	DefaultIdleTimeout = 30 * time.Second
)

// Result is the outcome of routing one event through the detector.
type Result struct {
	SessionDetected bool                 `json:"session_detected"`
	SessionStarted  bool                 `json:"session_started"`
	Session         *models.AgentSession `json:"session,omitempty"`
}

// burstEvent is the per-event record the signal window is evaluated over.
type burstEvent struct {
	timestamp  int64
	filePath   string
	source     string
	closedFile bool
	bulk       bool
	gitCommit  bool
	lines      int
	chars      int
}

// Detector is the Idle -> Active -> Idle session state machine. The mutex
// guards against the idle timer firing concurrently with event processing;
// event admission itself is sequential.
type Detector struct {
	mu          sync.Mutex
	recent      []burstEvent
	active      *models.AgentSession
	idleTimer   *time.Timer
	idleTimeout time.Duration
	onClose     func(models.AgentSession)
	logger      *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithIdleTimeout overrides the idle auto-close duration.
func WithIdleTimeout(d time.Duration) Option {
	return func(det *Detector) { det.idleTimeout = d }
}

// WithOnClose registers a callback invoked with every closed session,
// whether closed explicitly or by the idle timer.
func WithOnClose(fn func(models.AgentSession)) Option {
	return func(det *Detector) { det.onClose = fn }
}

// NewDetector creates an idle detector.
func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		idleTimeout: DefaultIdleTimeout,
		logger:      slog.Default().With("component", "session_detector"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProcessEvent routes one event through the state machine. Only events that
// represent landed code (generation and accepted suggestions) qualify.
func (d *Detector) ProcessEvent(event *models.TrackingEvent) Result {
	d.mu.Lock()
	defer d.mu.Unlock()

	if event.Kind != models.EventCodeGenerated && event.Kind != models.EventSuggestionAccepted {
		return Result{Session: d.active}
	}

	d.pruneWindow(event.Timestamp)
	be := burstEvent{
		timestamp:  event.Timestamp,
		filePath:   event.FilePath,
		source:     event.Source,
		closedFile: event.Metadata.ClosedFileModification,
		bulk: event.Metadata.BulkGeneration ||
			(event.LinesOfCode != nil && *event.LinesOfCode >= bulkLineThreshold),
		gitCommit: event.Metadata.GitCommitSignature,
	}
	if event.LinesOfCode != nil {
		be.lines = *event.LinesOfCode
	}
	if event.CharactersCount != nil {
		be.chars = *event.CharactersCount
	}
	d.recent = append(d.recent, be)

	signals := d.evaluateSignals(event)

	if d.active == nil {
		if signals.Count() < minSignalTypes {
			return Result{}
		}
		d.active = &models.AgentSession{
			ID:            uuid.NewString(),
			Source:        event.Source,
			StartTime:     d.recent[0].timestamp,
			FilesAffected: make(map[string]bool),
			Signals:       signals,
		}
		// The whole burst belongs to the session, not just the event that
		// tipped it over the signal threshold.
		for _, prior := range d.recent {
			if prior.filePath != "" {
				d.active.FilesAffected[prior.filePath] = true
			}
			d.active.TotalLines += prior.lines
			d.active.TotalCharacters += prior.chars
			if prior.timestamp > d.active.EndTime {
				d.active.EndTime = prior.timestamp
			}
		}
		d.active.Confidence = confidenceForSignals(d.active.Signals.Count())
		d.resetIdleTimer()
		d.logger.Debug("agent session started",
			"session_id", d.active.ID,
			"source", d.active.Source,
			"signals", d.active.Signals.Count())
		return Result{SessionDetected: true, SessionStarted: true, Session: d.active}
	}

	// Active session: signals are sticky across the burst.
	d.active.Signals = mergeSignals(d.active.Signals, signals)
	d.accumulate(event)
	d.active.Confidence = confidenceForSignals(d.active.Signals.Count())
	d.resetIdleTimer()
	return Result{SessionDetected: true, Session: d.active}
}

// evaluateSignals checks the five independent signals against the whole
// burst window, which already includes the current event.
func (d *Detector) evaluateSignals(event *models.TrackingEvent) models.SessionSignals {
	var signals models.SessionSignals

	files := make(map[string]bool)
	closedCount := 0
	sameSource := true
	for _, be := range d.recent {
		if be.filePath != "" {
			files[be.filePath] = true
		}
		if be.closedFile {
			closedCount++
		}
		if be.bulk {
			signals.BulkCodeGeneration = true
		}
		if be.gitCommit {
			signals.GitCommitSignature = true
		}
		if be.source != event.Source {
			sameSource = false
		}
	}

	signals.RapidFileChanges = len(files) >= minDistinctFiles
	signals.ClosedFileModifications = closedCount >= minClosedFileEvents
	signals.ConsistentSource = sameSource && len(d.recent) >= minConsistentEvents
	return signals
}

// pruneWindow drops burst entries older than the window relative to the
// current event timestamp. An expired burst cannot seed a new session.
func (d *Detector) pruneWindow(now int64) {
	kept := d.recent[:0]
	for _, be := range d.recent {
		if now-be.timestamp <= rapidWindow {
			kept = append(kept, be)
		}
	}
	d.recent = kept
}

// accumulate folds an event's size and file into the active session.
func (d *Detector) accumulate(event *models.TrackingEvent) {
	if event.FilePath != "" {
		d.active.FilesAffected[event.FilePath] = true
	}
	if event.LinesOfCode != nil {
		d.active.TotalLines += *event.LinesOfCode
	}
	if event.CharactersCount != nil {
		d.active.TotalCharacters += *event.CharactersCount
	}
	if event.Timestamp > d.active.EndTime {
		d.active.EndTime = event.Timestamp
	}
}

// CurrentSession returns the active session, or nil when idle.
func (d *Detector) CurrentSession() *models.AgentSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// ForceEndSession closes the active session immediately, cancels the idle
// timer, and returns the closed record. Returns nil when idle.
func (d *Detector) ForceEndSession() *models.AgentSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeActive()
}

// Close disposes the detector, ending any active session and canceling the
// idle timer so no callback fires after shutdown.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeActive()
	d.recent = nil
}

// closeActive seals and returns the active session. Caller holds the mutex.
func (d *Detector) closeActive() *models.AgentSession {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}
	if d.active == nil {
		return nil
	}
	closed := d.active
	d.active = nil
	d.recent = nil
	d.logger.Debug("agent session closed",
		"session_id", closed.ID,
		"files", closed.FileCount(),
		"lines", closed.TotalLines)
	if d.onClose != nil {
		d.onClose(*closed)
	}
	return closed
}

// resetIdleTimer restarts the auto-close countdown. Caller holds the mutex.
func (d *Detector) resetIdleTimer() {
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	sessionID := d.active.ID
	d.idleTimer = time.AfterFunc(d.idleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		// A force-end may have won the race; only close the same session.
		if d.active != nil && d.active.ID == sessionID {
			d.closeActive()
		}
	})
}

// confidenceForSignals maps distinct fired signal types to a confidence
// level: 2 -> low, 3 -> medium, 4-5 -> high.
func confidenceForSignals(count int) models.Confidence {
	switch {
	case count >= 4:
		return models.ConfidenceHigh
	case count == 3:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func mergeSignals(a, b models.SessionSignals) models.SessionSignals {
	return models.SessionSignals{
		RapidFileChanges:        a.RapidFileChanges || b.RapidFileChanges,
		ClosedFileModifications: a.ClosedFileModifications || b.ClosedFileModifications,
		BulkCodeGeneration:      a.BulkCodeGeneration || b.BulkCodeGeneration,
		GitCommitSignature:      a.GitCommitSignature || b.GitCommitSignature,
		ConsistentSource:        a.ConsistentSource || b.ConsistentSource,
	}
}
