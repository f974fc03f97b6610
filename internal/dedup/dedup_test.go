package dedup

import (
	"testing"

	"github.com/reviewsense/reviewsense/internal/models"
)

func intp(v int) *int { return &v }

func editEvent(ts int64, path string, lines, chars int) *models.TrackingEvent {
	return &models.TrackingEvent{
		Timestamp:       ts,
		Source:          "copilot",
		Kind:            models.EventCodeGenerated,
		FilePath:        path,
		LinesOfCode:     intp(lines),
		CharactersCount: intp(chars),
	}
}

func TestIsDuplicate_SameBucket(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	if d.IsDuplicate(editEvent(base, "main.go", 10, 200)) {
		t.Error("first observation should not be a duplicate")
	}
	if !d.IsDuplicate(editEvent(base+50, "main.go", 10, 200)) {
		t.Error("same edit 50ms later should be a duplicate")
	}
}

func TestIsDuplicate_OutsideWindow(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	if d.IsDuplicate(editEvent(base, "main.go", 10, 200)) {
		t.Error("first observation should not be a duplicate")
	}
	if d.IsDuplicate(editEvent(base+1100, "main.go", 10, 200)) {
		t.Error("same edit 1100ms later is a new edit, not a duplicate")
	}
}

func TestIsDuplicate_KeyIndependence(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	tests := []struct {
		name  string
		other *models.TrackingEvent
	}{
		{"different file", editEvent(base+10, "other.go", 10, 200)},
		{"different lines", editEvent(base+10, "main.go", 11, 200)},
		{"different chars", editEvent(base+10, "main.go", 10, 201)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.Reset()
			d.IsDuplicate(editEvent(base, "main.go", 10, 200))
			if d.IsDuplicate(tt.other) {
				t.Error("changing any key component should produce a distinct edit")
			}
		})
	}
}

func TestIsDuplicate_NoFilePath(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	a := editEvent(base, "", 5, 80)
	b := editEvent(base+20, "", 5, 80)
	if d.IsDuplicate(a) {
		t.Error("first pathless event should not be a duplicate")
	}
	if !d.IsDuplicate(b) {
		t.Error("identical pathless events within the window coincide and deduplicate")
	}
}

func TestGetStats_EvictionBoundsMemory(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	d.IsDuplicate(editEvent(base, "a.go", 1, 10))
	d.IsDuplicate(editEvent(base+200, "b.go", 2, 20))

	stats := d.GetStats()
	if stats.RetainedEvents != 2 {
		t.Errorf("RetainedEvents = %d, want 2", stats.RetainedEvents)
	}
	if stats.WindowMS != 1000 {
		t.Errorf("WindowMS = %d, want 1000", stats.WindowMS)
	}

	// An event far in the future evicts everything stale.
	d.IsDuplicate(editEvent(base+10_000, "c.go", 3, 30))
	if got := d.GetStats().RetainedEvents; got != 1 {
		t.Errorf("RetainedEvents after eviction = %d, want 1", got)
	}
}

func TestReset(t *testing.T) {
	d := New()
	base := int64(1_700_000_000_000)

	d.IsDuplicate(editEvent(base, "main.go", 10, 200))
	d.Reset()

	if d.GetStats().RetainedEvents != 0 {
		t.Error("Reset should clear retained events")
	}
	if d.IsDuplicate(editEvent(base+10, "main.go", 10, 200)) {
		t.Error("after Reset the same edit is observed fresh")
	}
}
