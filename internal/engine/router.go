// Package engine routes tracking events through the detection pipeline in
// the order the contract requires: dedup gate, classifiers, reconcile update.
package engine

import (
	"log/slog"

	"github.com/reviewsense/reviewsense/internal/approval"
	"github.com/reviewsense/reviewsense/internal/dedup"
	"github.com/reviewsense/reviewsense/internal/models"
	"github.com/reviewsense/reviewsense/internal/review"
	"github.com/reviewsense/reviewsense/internal/session"
	"github.com/reviewsense/reviewsense/internal/thresholds"
)

// RouteResult is everything the pipeline produced for one event.
type RouteResult struct {
	Duplicate     bool                `json:"duplicate"`
	BlindApproval *approval.Detection `json:"blind_approval,omitempty"`
	ReviewQuality *review.Result      `json:"review_quality,omitempty"`
	Session       session.Result      `json:"session"`
}

// Router owns the component instances for one developer's event stream and
// the pending-suggestion lifecycle. Events are admitted one at a time.
type Router struct {
	dedup      *dedup.Deduplicator
	approval   *approval.Detector
	review     *review.Analyzer
	sessions   *session.Detector
	thresholds *thresholds.Manager

	// pending maps file path to the timestamp a suggestion was displayed,
	// so an acceptance arriving without a delta can still be timed.
	pending map[string]int64

	metrics *DailyAccumulator
	logger  *slog.Logger
}

// NewRouter wires the pipeline for a developer at the given experience level.
func NewRouter(level models.ExperienceLevel, sessionOpts ...session.Option) *Router {
	tm := thresholds.NewManager(level)
	return &Router{
		dedup:      dedup.New(),
		approval:   approval.NewDetector(tm.GetConfig()),
		review:     review.NewAnalyzer(),
		sessions:   session.NewDetector(sessionOpts...),
		thresholds: tm,
		pending:    make(map[string]int64),
		metrics:    NewDailyAccumulator(),
		logger:     slog.Default().With("component", "router"),
	}
}

// ProcessEvent runs one event through the pipeline. ctx may be nil; it
// carries reviewer context the event itself cannot (was the file open).
func (r *Router) ProcessEvent(event *models.TrackingEvent, ctx *review.Context) RouteResult {
	if r.dedup.IsDuplicate(event) {
		r.logger.Debug("duplicate event suppressed",
			"file_path", event.FilePath,
			"timestamp", event.Timestamp)
		return RouteResult{Duplicate: true}
	}

	result := RouteResult{}
	switch event.Kind {
	case models.EventSuggestionShown:
		if event.FilePath != "" {
			r.pending[event.FilePath] = event.Timestamp
		}

	case models.EventSuggestionRejected:
		delete(r.pending, event.FilePath)

	case models.EventSuggestionAccepted:
		event = r.resolvePendingDelta(event)
		detection := r.approval.Detect(event)
		result.BlindApproval = &detection
		quality := r.review.Analyze(event, ctx)
		result.ReviewQuality = &quality
		result.Session = r.sessions.ProcessEvent(event)

	case models.EventCodeGenerated:
		result.Session = r.sessions.ProcessEvent(event)
	}

	r.metrics.Record(event, result)
	return result
}

// resolvePendingDelta fills a missing acceptance delta from the pending
// suggestion displayed for the same file, then retires the pending entry.
func (r *Router) resolvePendingDelta(event *models.TrackingEvent) *models.TrackingEvent {
	shownAt, ok := r.pending[event.FilePath]
	if ok {
		delete(r.pending, event.FilePath)
	}
	if event.AcceptanceTimeDelta != nil || !ok {
		return event
	}
	delta := event.Timestamp - shownAt
	if delta < 0 {
		return event
	}
	timed := *event
	timed.AcceptanceTimeDelta = &delta
	return &timed
}

// Thresholds returns the developer's threshold manager.
func (r *Router) Thresholds() *thresholds.Manager {
	return r.thresholds
}

// ApplyThresholds pushes the manager's current config into the detectors.
// Called after the caller adjusts the manager (level change, setters, import).
func (r *Router) ApplyThresholds() {
	r.approval.UpdateThresholds(r.thresholds.GetConfig())
}

// Approval exposes the blind-approval detector for streak and stats queries.
func (r *Router) Approval() *approval.Detector {
	return r.approval
}

// Sessions exposes the agent-session detector.
func (r *Router) Sessions() *session.Detector {
	return r.sessions
}

// Dedup exposes the deduplicator for observability.
func (r *Router) Dedup() *dedup.Deduplicator {
	return r.dedup
}

// Metrics exposes the daily accumulator.
func (r *Router) Metrics() *DailyAccumulator {
	return r.metrics
}

// Close disposes the pipeline, ending any active agent session and stopping
// its idle timer.
func (r *Router) Close() {
	r.sessions.Close()
}
