package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bangumarr/bangumarr/pkg/repository"
	log "github.com/sirupsen/logrus"
)

// AppService coordinates all application services
type AppService struct {
	mu              sync.RWMutex
	repo            repository.Repository
	calendarService *CalendarService
	searchService   *SearchService
	downloadService *DownloadService

	lastRunAt time.Time
	lastError string
	nextRunAt time.Time
}

func NewAppService(
	repo repository.Repository,
	calendarService *CalendarService,
	searchService *SearchService,
	downloadService *DownloadService,
) *AppService {
	return &AppService{
		repo:            repo,
		calendarService: calendarService,
		searchService:   searchService,
		downloadService: downloadService,
	}
}

// RunTasks executes one full pass: refresh the calendar, search for due
// titles and drain the download queue. Phases run strictly in sequence;
// a stale calendar is tolerated, everything after it is not.
func (s *AppService) RunTasks(ctx context.Context, now time.Time) error {
	log.Info("Starting application tasks")
	startTime := time.Now()

	defer func() {
		s.mu.Lock()
		s.lastRunAt = startTime
		s.mu.Unlock()
	}()

	if err := s.calendarService.Refresh(ctx); err != nil {
		// A previous run's calendar is still usable.
		log.WithError(err).Error("Failed to refresh calendar, using stored schedule")
	}

	if _, err := s.searchService.Run(ctx, now); err != nil {
		s.setLastError(err)
		return fmt.Errorf("running search pass: %w", err)
	}

	if err := s.downloadService.ProcessQueue(ctx); err != nil {
		s.setLastError(err)
		return fmt.Errorf("processing download queue: %w", err)
	}

	s.setLastError(nil)
	log.WithField("duration", time.Since(startTime)).Info("Successfully completed all application tasks")
	return nil
}

func (s *AppService) setLastError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
	}
}

// SetNextRun records when the scheduler will fire next, for status display.
func (s *AppService) SetNextRun(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRunAt = t
}

// AppStatus is a point-in-time view of the daemon for the status endpoint.
type AppStatus struct {
	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	QueuedTasks  int        `json:"queued_tasks"`
	TrackedShows int        `json:"tracked_shows"`
}

func (s *AppService) Status() (*AppStatus, error) {
	queued, err := s.repo.CountTasks()
	if err != nil {
		return nil, fmt.Errorf("counting queued tasks: %w", err)
	}

	record, err := s.repo.HistoryRecord()
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	status := &AppStatus{
		LastError:    s.lastError,
		QueuedTasks:  queued,
		TrackedShows: len(record.HighestEpisodeDownloaded),
	}
	if !s.lastRunAt.IsZero() {
		t := s.lastRunAt
		status.LastRunAt = &t
	}
	if !s.nextRunAt.IsZero() {
		t := s.nextRunAt
		status.NextRunAt = &t
	}
	return status, nil
}

func (s *AppService) Close() error {
	log.Info("Shutting down application service")

	if err := s.repo.Close(); err != nil {
		return fmt.Errorf("closing repository: %w", err)
	}
	return nil
}
