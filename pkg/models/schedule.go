package models

import (
	"fmt"
	"time"
)

// ScheduleEntry is one title from the seasonal airing calendar. Entries are
// produced by the calendar fetch and are read-only to the discovery engine.
type ScheduleEntry struct {
	PrimaryTitle string       `json:"primary_title" boltholdKey:"PrimaryTitle"`
	AltNames     []string     `json:"all_cn_names,omitempty"`
	JPName       string       `json:"jp_name,omitempty"`
	Weekday      time.Weekday `json:"weekday"`
	AirTime      string       `json:"begin_time"`
	AirDate      string       `json:"begin_date"`
	Site         string       `json:"site,omitempty"`
}

// HasAirInfo reports whether the entry carries enough information for the
// airing-time match. Entries without it are skipped, not errored.
func (e *ScheduleEntry) HasAirInfo() bool {
	return e.AirTime != "" && e.AirDate != ""
}

// AirClock parses the declared "HH:MM" air time.
func (e *ScheduleEntry) AirClock() (hour, minute int, err error) {
	if _, err = fmt.Sscanf(e.AirTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parsing air time %q: %w", e.AirTime, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("air time %q out of range", e.AirTime)
	}
	return hour, minute, nil
}

// WatchEntry is one tracked title from the watch list, with the keywords used
// to search for its releases. Order of entries and keywords is significant.
type WatchEntry struct {
	Title      string   `json:"title"`
	SearchKeys []string `json:"search_keys"`
}
