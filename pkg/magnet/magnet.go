// Package magnet inspects magnet URIs for tracker information. The result is
// informational only: selection never depends on tracker quality.
package magnet

import (
	"net/url"
	"strings"
)

var animeTrackerHosts = []string{"bangumi.moe", "acgtracker", "ktxp.com"}

// Analysis summarizes the trackers announced by a magnet URI.
type Analysis struct {
	TrackerCount     int      `json:"tracker_count"`
	Trackers         []string `json:"trackers"`
	HasAnimeTrackers bool     `json:"has_anime_trackers"`
}

// Analyze extracts the tracker list from a magnet URI. Malformed URIs yield
// an empty analysis, never an error.
func Analyze(magnetURI string) Analysis {
	if magnetURI == "" {
		return Analysis{}
	}

	parts := strings.Split(magnetURI, "&tr=")
	if len(parts) < 2 {
		return Analysis{}
	}

	a := Analysis{TrackerCount: len(parts) - 1}
	for _, part := range parts[1:] {
		raw := part
		if i := strings.IndexByte(raw, '&'); i >= 0 {
			raw = raw[:i]
		}
		tracker, err := url.QueryUnescape(raw)
		if err != nil {
			tracker = raw
		}
		a.Trackers = append(a.Trackers, tracker)
		for _, host := range animeTrackerHosts {
			if strings.Contains(tracker, host) {
				a.HasAnimeTrackers = true
			}
		}
	}
	return a
}
