// Package models defines the core data structures used throughout the Bangumarr application.
//
// It includes:
//   - ScheduleEntry / WatchEntry: Seasonal calendar entries and tracked titles
//   - Resource: Torrent candidates returned by the search collaborator
//   - Task: Resolved download units queued for the pipeline
//   - HistoryEntry / ConsumedMagnet: The persisted deduplication history
//
// All models include appropriate serialization tags for database storage
// and JSON API responses.
package models