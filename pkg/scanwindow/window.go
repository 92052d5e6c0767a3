// Package scanwindow computes the time interval a given run is responsible
// for covering when checking for newly aired episodes. The cadence is two
// disjoint windows per day; their hour boundaries are configuration.
package scanwindow

import (
	"fmt"
	"time"
)

// Config holds the hour boundaries of the two daily scan windows. Trigger
// ranges decide which window a run belongs to based on the wall-clock hour
// the run starts at.
type Config struct {
	// Trigger ranges, half-open [start,end) in hours of the day.
	MorningTriggerStart   int
	MorningTriggerEnd     int
	AfternoonTriggerStart int
	AfternoonTriggerEnd   int

	// Morning window covers yesterday MorningStartHour:00 to today
	// MorningEndHour:00.
	MorningStartHour int
	MorningEndHour   int

	// Afternoon window covers the AfternoonLookback ending at today
	// AfternoonEndHour:00.
	AfternoonEndHour  int
	AfternoonLookback time.Duration

	Location *time.Location
}

// DefaultConfig returns the deployed cadence: a 05:00 run covering yesterday
// noon through 05:00, and a 15:00 run covering the preceding 48 hours.
func DefaultConfig(loc *time.Location) Config {
	return Config{
		MorningTriggerStart:   0,
		MorningTriggerEnd:     12,
		AfternoonTriggerStart: 12,
		AfternoonTriggerEnd:   24,
		MorningStartHour:      12,
		MorningEndHour:        5,
		AfternoonEndHour:      15,
		AfternoonLookback:     48 * time.Hour,
		Location:              loc,
	}
}

// Window is the interval a run covers. Consecutive windows under the fixed
// daily cadence are contiguous and non-overlapping.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t belongs to the window. The end bound is
// inclusive and the start bound exclusive: an episode airing exactly at a
// cutoff belongs to the window ending at that cutoff, so the run at the
// cutoff picks it up rather than deferring it to the next run.
func (w *Window) Contains(t time.Time) bool {
	return t.After(w.Start) && !t.After(w.End)
}

func (w *Window) String() string {
	const layout = "2006-01-02 15:04"
	return fmt.Sprintf("%s .. %s", w.Start.Format(layout), w.End.Format(layout))
}

// Resolver computes the scan window for a run instant.
type Resolver struct {
	cfg Config
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the window the run starting at now is responsible for, or
// nil when now falls outside both trigger ranges. A nil window means the run
// must be skipped; it is not an error.
func (r *Resolver) Resolve(now time.Time) *Window {
	cfg := r.cfg
	local := now.In(cfg.Location)
	hour := local.Hour()

	switch {
	case hour >= cfg.MorningTriggerStart && hour < cfg.MorningTriggerEnd:
		end := atHour(local, cfg.MorningEndHour)
		start := atHour(end.AddDate(0, 0, -1), cfg.MorningStartHour)
		return &Window{Start: start, End: end}
	case hour >= cfg.AfternoonTriggerStart && hour < cfg.AfternoonTriggerEnd:
		end := atHour(local, cfg.AfternoonEndHour)
		return &Window{Start: end.Add(-cfg.AfternoonLookback), End: end}
	default:
		return nil
	}
}

func atHour(t time.Time, hour int) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
