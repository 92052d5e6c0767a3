package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bangumarr/bangumarr/pkg/airing"
	"github.com/bangumarr/bangumarr/pkg/episode"
	"github.com/bangumarr/bangumarr/pkg/magnet"
	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/bangumarr/bangumarr/pkg/repository"
	"github.com/bangumarr/bangumarr/pkg/scanwindow"
	ptn "github.com/razsteinmetz/go-ptn"
	log "github.com/sirupsen/logrus"
)

// SearchClient queries the torrent search API for resource candidates.
type SearchClient interface {
	Search(ctx context.Context, keywords []string) ([]models.Resource, error)
}

// SearchService decides which watched titles are due in the current scan
// window, searches for their newest episode and enqueues download tasks.
type SearchService struct {
	repo      repository.Repository
	client    SearchClient
	watchlist *WatchlistService
	resolver  *scanwindow.Resolver
	matcher   *airing.Matcher
}

func NewSearchService(
	repo repository.Repository,
	client SearchClient,
	watchlist *WatchlistService,
	resolver *scanwindow.Resolver,
	matcher *airing.Matcher,
) *SearchService {
	return &SearchService{
		repo:      repo,
		client:    client,
		watchlist: watchlist,
		resolver:  resolver,
		matcher:   matcher,
	}
}

// Run performs one search pass for the scan window covering now. Titles are
// processed strictly one at a time; a failure on one title never blocks the
// others. It returns the number of tasks newly enqueued.
func (s *SearchService) Run(ctx context.Context, now time.Time) (int, error) {
	window := s.resolver.Resolve(now)
	if window == nil {
		log.WithField("now", now).Info("Current time is outside both scan windows, skipping search")
		return 0, nil
	}
	log.WithField("window", window).Info("Starting search pass")

	due, err := s.dueEntries(window)
	if err != nil {
		return 0, err
	}
	if len(due) == 0 {
		log.Info("No watched titles due in this window")
		return 0, nil
	}

	var tasks []*models.Task
	for _, watch := range due {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		task, err := s.searchTitle(ctx, watch)
		if err != nil {
			log.WithError(err).WithField("title", watch.Title).Error("Search failed for title")
			continue
		}
		if task != nil {
			tasks = append(tasks, task)
		}
	}

	if len(tasks) == 0 {
		log.Info("Search pass produced no new tasks")
		return 0, nil
	}

	added, err := s.repo.EnqueueTasks(tasks)
	if err != nil {
		return 0, fmt.Errorf("enqueueing tasks: %w", err)
	}
	log.WithFields(log.Fields{
		"candidates": len(tasks),
		"enqueued":   added,
	}).Info("Completed search pass")
	return added, nil
}

// dueEntries returns the watched titles whose scheduled airing falls inside
// the window, in watchlist order.
func (s *SearchService) dueEntries(window *scanwindow.Window) ([]*models.WatchEntry, error) {
	watched, err := s.watchlist.Load()
	if err != nil {
		return nil, fmt.Errorf("loading watchlist: %w", err)
	}
	if len(watched) == 0 {
		return nil, nil
	}

	entries, err := s.repo.FindScheduleEntries()
	if err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}
	lookup := buildScheduleLookup(entries)

	var due []*models.WatchEntry
	for _, watch := range watched {
		entry, ok := lookup[watch.Title]
		if !ok {
			log.WithField("title", watch.Title).Warn("Watched title not found in seasonal calendar")
			continue
		}
		if !entry.HasAirInfo() {
			log.WithField("title", watch.Title).Warn("Watched title has no airing information")
			continue
		}
		if s.matcher.IsDue(entry, window) {
			due = append(due, watch)
		}
	}
	return due, nil
}

// searchTitle searches one title and returns a task for the best new
// episode, or nil when nothing new was found.
func (s *SearchService) searchTitle(ctx context.Context, watch *models.WatchEntry) (*models.Task, error) {
	resources, err := s.client.Search(ctx, watch.SearchKeys)
	if err != nil {
		return nil, fmt.Errorf("querying search API: %w", err)
	}
	if len(resources) == 0 {
		log.WithField("title", watch.Title).Info("No search results")
		return nil, nil
	}

	highest, err := s.repo.HighestEpisode(watch.Title)
	if err != nil {
		return nil, fmt.Errorf("reading download history: %w", err)
	}

	best, bestEpisode, err := s.selectResource(resources)
	if err != nil {
		return nil, err
	}
	if best == nil {
		log.WithField("title", watch.Title).Info("All search results already consumed or unparsable")
		return nil, nil
	}
	if bestEpisode <= highest {
		log.WithFields(log.Fields{
			"title":   watch.Title,
			"episode": bestEpisode,
			"highest": highest,
		}).Info("Newest available episode is not newer than history")
		return nil, nil
	}

	return s.buildTask(watch.Title, best, bestEpisode), nil
}

// selectResource picks the resource with the highest parsable episode number
// among those not already consumed. Ties keep the first seen result, which
// preserves the search API's own ranking.
func (s *SearchService) selectResource(resources []models.Resource) (*models.Resource, float64, error) {
	var best *models.Resource
	var bestEpisode float64

	for i := range resources {
		res := &resources[i]
		if res.Magnet == "" {
			continue
		}

		consumed, err := s.repo.IsConsumed(res.Magnet)
		if err != nil {
			return nil, 0, fmt.Errorf("checking consumed magnets: %w", err)
		}
		if consumed {
			continue
		}

		ep, ok := episode.Parse(res.Title)
		if !ok {
			log.WithField("resource", res.Title).Debug("Skipping result without episode number")
			continue
		}

		if best == nil || ep > bestEpisode {
			best = res
			bestEpisode = ep
		}
	}
	return best, bestEpisode, nil
}

func (s *SearchService) buildTask(animeTitle string, res *models.Resource, ep float64) *models.Task {
	task := &models.Task{
		Magnet:     res.Magnet,
		AnimeTitle: animeTitle,
		Episode:    ep,
		Title:      res.Title,
		CreatedAt:  time.Now(),
	}

	if info, err := ptn.Parse(res.Title); err == nil {
		task.Resolution = info.Resolution
		task.Group = info.Group
	}

	analysis := magnet.Analyze(res.Magnet)
	task.Trackers = analysis.TrackerCount

	log.WithFields(log.Fields{
		"title":      animeTitle,
		"episode":    ep,
		"resolution": task.Resolution,
		"trackers":   task.Trackers,
	}).Info("Selected resource for download")
	return task
}
