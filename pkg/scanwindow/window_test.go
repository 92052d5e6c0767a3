package scanwindow

import (
	"testing"
	"time"
)

var jst = time.FixedZone("JST", 9*60*60)

func TestResolveMorning(t *testing.T) {
	r := NewResolver(DefaultConfig(jst))

	now := time.Date(2024, 4, 10, 5, 0, 12, 0, jst)
	w := r.Resolve(now)
	if w == nil {
		t.Fatal("Resolve() = nil, want morning window")
	}

	wantStart := time.Date(2024, 4, 9, 12, 0, 0, 0, jst)
	wantEnd := time.Date(2024, 4, 10, 5, 0, 0, 0, jst)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("Resolve() = %v, want %v .. %v", w, wantStart, wantEnd)
	}
}

func TestResolveAfternoon(t *testing.T) {
	r := NewResolver(DefaultConfig(jst))

	now := time.Date(2024, 4, 10, 15, 0, 3, 0, jst)
	w := r.Resolve(now)
	if w == nil {
		t.Fatal("Resolve() = nil, want afternoon window")
	}

	wantEnd := time.Date(2024, 4, 10, 15, 0, 0, 0, jst)
	wantStart := wantEnd.Add(-48 * time.Hour)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("Resolve() = %v, want %v .. %v", w, wantStart, wantEnd)
	}
}

func TestResolveOutsideTriggerRanges(t *testing.T) {
	cfg := DefaultConfig(jst)
	cfg.MorningTriggerStart = 4
	cfg.MorningTriggerEnd = 6
	cfg.AfternoonTriggerStart = 14
	cfg.AfternoonTriggerEnd = 16
	r := NewResolver(cfg)

	if w := r.Resolve(time.Date(2024, 4, 10, 9, 0, 0, 0, jst)); w != nil {
		t.Errorf("Resolve() = %v, want nil outside trigger ranges", w)
	}
	if w := r.Resolve(time.Date(2024, 4, 10, 5, 30, 0, 0, jst)); w == nil {
		t.Error("Resolve() = nil, want window inside narrowed morning trigger")
	}
}

func TestResolveConvertsToConfiguredZone(t *testing.T) {
	r := NewResolver(DefaultConfig(jst))

	// 20:30 UTC is 05:30 JST the next day, a morning run.
	now := time.Date(2024, 4, 9, 20, 30, 0, 0, time.UTC)
	w := r.Resolve(now)
	if w == nil {
		t.Fatal("Resolve() = nil, want morning window")
	}
	wantEnd := time.Date(2024, 4, 10, 5, 0, 0, 0, jst)
	if !w.End.Equal(wantEnd) {
		t.Errorf("Resolve().End = %v, want %v", w.End, wantEnd)
	}
}

func TestWindowContains(t *testing.T) {
	w := &Window{
		Start: time.Date(2024, 4, 9, 12, 0, 0, 0, jst),
		End:   time.Date(2024, 4, 10, 5, 0, 0, 0, jst),
	}

	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"inside", time.Date(2024, 4, 9, 23, 0, 0, 0, jst), true},
		{"exactly at end", w.End, true},
		{"exactly at start", w.Start, false},
		{"before start", w.Start.Add(-time.Minute), false},
		{"after end", w.End.Add(time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Contains(tt.t); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.t, got, tt.want)
			}
		})
	}
}

func TestConsecutiveWindowsAreContiguous(t *testing.T) {
	cfg := DefaultConfig(jst)
	cfg.AfternoonLookback = 10 * time.Hour
	r := NewResolver(cfg)

	morning := r.Resolve(time.Date(2024, 4, 10, 5, 0, 0, 0, jst))
	afternoon := r.Resolve(time.Date(2024, 4, 10, 15, 0, 0, 0, jst))
	if morning == nil || afternoon == nil {
		t.Fatal("expected both windows")
	}
	if !morning.End.Equal(afternoon.Start) {
		t.Errorf("morning end %v != afternoon start %v", morning.End, afternoon.Start)
	}
}
