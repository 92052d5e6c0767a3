package models

import "time"

// HistoryEntry tracks the highest episode number ever downloaded for a title.
// The value is monotonic: it only moves up.
type HistoryEntry struct {
	Title          string    `json:"title" boltholdKey:"Title"`
	HighestEpisode float64   `json:"highest_episode"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConsumedMagnet marks a magnet URI as downloaded. The set is append-only and
// is the primary duplicate guard, independent of episode numbers.
type ConsumedMagnet struct {
	Magnet  string    `json:"magnet" boltholdKey:"Magnet"`
	AddedAt time.Time `json:"added_at"`
}

// HistoryRecord is the external representation of the download history, as
// served by the status API and the store inspector.
type HistoryRecord struct {
	HighestEpisodeDownloaded map[string]float64 `json:"highest_episode_downloaded"`
	AllDownloadedMagnets     []string           `json:"all_downloaded_magnets"`
}
