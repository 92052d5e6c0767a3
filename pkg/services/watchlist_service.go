package services

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bangumarr/bangumarr/pkg/models"
	log "github.com/sirupsen/logrus"
)

// WatchlistService loads the user's watched titles from a JSON file. The
// file is a JSON array so entry order survives a round trip; each entry maps
// a calendar title to the keywords used when searching for it.
type WatchlistService struct {
	path string
}

func NewWatchlistService(path string) *WatchlistService {
	return &WatchlistService{path: path}
}

// Load reads the watchlist file. A missing file is not an error; it just
// means nothing is watched yet.
func (s *WatchlistService) Load() ([]*models.WatchEntry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.WithField("path", s.path).Warn("Watchlist file not found, nothing to search")
			return nil, nil
		}
		return nil, fmt.Errorf("reading watchlist: %w", err)
	}

	var entries []*models.WatchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing watchlist: %w", err)
	}

	valid := entries[:0]
	for _, entry := range entries {
		if entry.Title == "" || len(entry.SearchKeys) == 0 {
			log.WithField("entry", entry).Warn("Skipping watchlist entry without title or search keys")
			continue
		}
		valid = append(valid, entry)
	}
	return valid, nil
}
