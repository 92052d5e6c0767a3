package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bangumarr/bangumarr/pkg/bangumi"
	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/bangumarr/bangumarr/pkg/repository"
	log "github.com/sirupsen/logrus"
)

// CalendarService refreshes the seasonal airing calendar from the community
// bangumi-data dump and persists it for the search phase.
type CalendarService struct {
	repo         repository.Repository
	client       *bangumi.Client
	targetYear   int
	targetMonths []int
	loc          *time.Location
}

func NewCalendarService(
	repo repository.Repository,
	client *bangumi.Client,
	targetYear int,
	targetMonths []int,
	loc *time.Location,
) *CalendarService {
	return &CalendarService{
		repo:         repo,
		client:       client,
		targetYear:   targetYear,
		targetMonths: targetMonths,
		loc:          loc,
	}
}

// Refresh downloads the full dump, keeps the target season's TV titles and
// replaces the stored calendar with them.
func (s *CalendarService) Refresh(ctx context.Context) error {
	items, err := s.client.FetchItems(ctx)
	if err != nil {
		return fmt.Errorf("fetching bangumi data: %w", err)
	}

	var entries []*models.ScheduleEntry
	for i := range items {
		entry, ok := s.buildEntry(&items[i])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	if err := s.repo.SaveScheduleEntries(entries); err != nil {
		return fmt.Errorf("saving schedule entries: %w", err)
	}

	log.WithFields(log.Fields{
		"total":  len(items),
		"kept":   len(entries),
		"year":   s.targetYear,
		"months": s.targetMonths,
	}).Info("Refreshed seasonal calendar")
	return nil
}

// buildEntry converts one dump item into a schedule entry, or reports false
// when the item is outside the target season or unusable.
func (s *CalendarService) buildEntry(item *bangumi.Item) (*models.ScheduleEntry, bool) {
	if item.Type != "" && item.Type != "tv" {
		return nil, false
	}
	if item.Begin == "" {
		return nil, false
	}

	begin, err := time.Parse(time.RFC3339, item.Begin)
	if err != nil {
		log.WithFields(log.Fields{
			"title": item.Title,
			"begin": item.Begin,
		}).Debug("Skipping item with unparsable begin time")
		return nil, false
	}
	local := begin.In(s.loc)

	if local.Year() != s.targetYear || !s.isTargetMonth(int(local.Month())) {
		return nil, false
	}

	entry := &models.ScheduleEntry{
		PrimaryTitle: item.Title,
		JPName:       item.Title,
		Weekday:      local.Weekday(),
		AirTime:      local.Format("15:04"),
		AirDate:      local.Format("2006-01-02"),
		Site:         item.OfficialSite,
	}

	if translated := item.TitleTranslate["zh-Hans"]; len(translated) > 0 {
		entry.PrimaryTitle = translated[0]
		entry.AltNames = translated
	}
	return entry, true
}

func (s *CalendarService) isTargetMonth(month int) bool {
	for _, m := range s.targetMonths {
		if m == month {
			return true
		}
	}
	return false
}

// buildScheduleLookup indexes schedule entries by primary title and every
// alternative name, first writer wins.
func buildScheduleLookup(entries []*models.ScheduleEntry) map[string]*models.ScheduleEntry {
	lookup := make(map[string]*models.ScheduleEntry, len(entries))
	for _, entry := range entries {
		if _, exists := lookup[entry.PrimaryTitle]; !exists {
			lookup[entry.PrimaryTitle] = entry
		}
		for _, name := range entry.AltNames {
			if _, exists := lookup[name]; !exists {
				lookup[name] = entry
			}
		}
		if entry.JPName != "" {
			if _, exists := lookup[entry.JPName]; !exists {
				lookup[entry.JPName] = entry
			}
		}
	}
	return lookup
}
