// Package dedup suppresses repeated detections of the same physical edit
// observed through multiple tracking channels.
package dedup

import (
	"fmt"

	"github.com/reviewsense/reviewsense/internal/models"
)

const (
	// Window is how long two equal-keyed events count as the same edit.
	Window = 1000 // ms

	// bucketSize rounds timestamps so near-simultaneous observations of one
	// edit collapse onto one key.
	bucketSize = 100 // ms
)

// Deduplicator tracks recently seen edits by derived key. Not safe for
// concurrent use; the engine admits one event at a time.
type Deduplicator struct {
	seen map[string]int64 // key -> timestamp of first observation (ms)
}

// Stats reports the deduplicator's retained state.
type Stats struct {
	RetainedEvents int   `json:"retained_events"`
	WindowMS       int64 `json:"window_ms"`
}

// New creates an empty deduplicator.
func New() *Deduplicator {
	return &Deduplicator{seen: make(map[string]int64)}
}

// key derives the identity of a physical edit. An event with no file path
// still gets a key; it just deduplicates only by exact size coincidence.
func key(event *models.TrackingEvent) string {
	lines := 0
	if event.LinesOfCode != nil {
		lines = *event.LinesOfCode
	}
	chars := 0
	if event.CharactersCount != nil {
		chars = *event.CharactersCount
	}
	bucket := event.Timestamp / bucketSize * bucketSize
	return fmt.Sprintf("%s|%d|%d|%d", event.FilePath, lines, chars, bucket)
}

// IsDuplicate reports whether the event repeats an edit already recorded
// within the window. The first observation of a key is recorded and returns
// false. Entries older than the window are evicted lazily on every call.
func (d *Deduplicator) IsDuplicate(event *models.TrackingEvent) bool {
	d.evict(event.Timestamp)

	k := key(event)
	if first, ok := d.seen[k]; ok {
		if abs(event.Timestamp-first) <= Window {
			return true
		}
		// Same key but outside the window: a genuinely new edit.
		d.seen[k] = event.Timestamp
		return false
	}

	d.seen[k] = event.Timestamp
	return false
}

// evict drops entries older than the window relative to now.
func (d *Deduplicator) evict(now int64) {
	for k, ts := range d.seen {
		if now-ts > Window {
			delete(d.seen, k)
		}
	}
}

// GetStats returns the current retained-event count and window size.
func (d *Deduplicator) GetStats() Stats {
	return Stats{
		RetainedEvents: len(d.seen),
		WindowMS:       Window,
	}
}

// Reset clears all recorded edits.
func (d *Deduplicator) Reset() {
	d.seen = make(map[string]int64)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
