package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bangumarr/bangumarr/pkg/models"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

// Repository defines the interface for data access operations
type Repository interface {
	// Download history operations
	HighestEpisode(title string) (float64, error)
	IsConsumed(magnet string) (bool, error)
	RecordDownload(title string, episode float64, magnet string) error
	HistoryRecord() (*models.HistoryRecord, error)

	// Task queue operations
	EnqueueTasks(tasks []*models.Task) (int, error)
	DequeueAllTasks() ([]*models.Task, error)
	ReplaceQueue(tasks []*models.Task) error
	QueueTasks() ([]*models.Task, error)
	CountTasks() (int, error)

	// Calendar cache operations
	SaveScheduleEntries(entries []*models.ScheduleEntry) error
	FindScheduleEntries() ([]*models.ScheduleEntry, error)

	// Utility operations
	Close() error
}

// BoltRepository implements Repository using BoltDB
type BoltRepository struct {
	store *bolthold.Store
}

func NewBoltRepository(store *bolthold.Store) Repository {
	return &BoltRepository{store: store}
}

func (r *BoltRepository) Store() *bolthold.Store {
	return r.store
}

// Download history operations

// HighestEpisode returns the highest episode ever recorded for a title,
// defaulting to 0 for unseen titles. A record that cannot be decoded is
// treated as absent rather than failing the run.
func (r *BoltRepository) HighestEpisode(title string) (float64, error) {
	var entry models.HistoryEntry
	err := r.store.Get(title, &entry)
	if errors.Is(err, bolthold.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		log.WithError(err).WithField("title", title).Warn("Unreadable history record, treating as absent")
		return 0, nil
	}
	return entry.HighestEpisode, nil
}

func (r *BoltRepository) IsConsumed(magnet string) (bool, error) {
	var consumed models.ConsumedMagnet
	err := r.store.Get(magnet, &consumed)
	if errors.Is(err, bolthold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check consumed magnet: %w", err)
	}
	return true, nil
}

// RecordDownload inserts the magnet into the consumed set and raises the
// title's highest episode if the given episode exceeds it. Idempotent:
// recording the same or a lower episode again only touches the magnet set.
func (r *BoltRepository) RecordDownload(title string, episode float64, magnet string) error {
	now := time.Now()

	if err := r.store.Upsert(magnet, &models.ConsumedMagnet{Magnet: magnet, AddedAt: now}); err != nil {
		return fmt.Errorf("failed to record consumed magnet: %w", err)
	}

	var entry models.HistoryEntry
	err := r.store.Get(title, &entry)
	if err != nil && !errors.Is(err, bolthold.ErrNotFound) {
		return fmt.Errorf("failed to load history for %q: %w", title, err)
	}
	if errors.Is(err, bolthold.ErrNotFound) {
		entry = models.HistoryEntry{Title: title}
	}

	if episode > entry.HighestEpisode {
		entry.HighestEpisode = episode
		entry.UpdatedAt = now
		if err := r.store.Upsert(title, &entry); err != nil {
			return fmt.Errorf("failed to update history for %q: %w", title, err)
		}
	}
	return nil
}

func (r *BoltRepository) HistoryRecord() (*models.HistoryRecord, error) {
	var entries []*models.HistoryEntry
	if err := r.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to find history entries: %w", err)
	}

	var consumed []*models.ConsumedMagnet
	if err := r.store.Find(&consumed, nil); err != nil {
		return nil, fmt.Errorf("failed to find consumed magnets: %w", err)
	}

	record := &models.HistoryRecord{
		HighestEpisodeDownloaded: make(map[string]float64, len(entries)),
	}
	for _, entry := range entries {
		record.HighestEpisodeDownloaded[entry.Title] = entry.HighestEpisode
	}
	for _, c := range consumed {
		record.AllDownloadedMagnets = append(record.AllDownloadedMagnets, c.Magnet)
	}
	sort.Strings(record.AllDownloadedMagnets)
	return record, nil
}

// Task queue operations

// EnqueueTasks appends tasks whose magnet is not already queued and returns
// the number actually added. Re-adding an existing magnet is a no-op.
func (r *BoltRepository) EnqueueTasks(tasks []*models.Task) (int, error) {
	added := 0
	now := time.Now()
	for i, task := range tasks {
		if task.Seq == 0 {
			// A single captured timestamp plus the index keeps the batch
			// ordered even when the clock is too coarse to tick between
			// iterations.
			task.Seq = now.UnixNano() + int64(i)
		}
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		err := r.store.Insert(task.Magnet, task)
		if errors.Is(err, bolthold.ErrKeyExists) {
			continue
		}
		if err != nil {
			return added, fmt.Errorf("failed to enqueue task %q: %w", task.Title, err)
		}
		added++
	}
	return added, nil
}

// DequeueAllTasks returns the full queue in enqueue order and clears it for
// processing. Unfinished tasks are written back with ReplaceQueue.
func (r *BoltRepository) DequeueAllTasks() ([]*models.Task, error) {
	tasks, err := r.findTasks()
	if err != nil {
		return nil, err
	}
	if err := r.store.DeleteMatching(&models.Task{}, nil); err != nil {
		return nil, fmt.Errorf("failed to clear task queue: %w", err)
	}
	return tasks, nil
}

// ReplaceQueue persists the given tasks as the new full queue content.
func (r *BoltRepository) ReplaceQueue(tasks []*models.Task) error {
	if err := r.store.DeleteMatching(&models.Task{}, nil); err != nil {
		return fmt.Errorf("failed to clear task queue: %w", err)
	}
	base := time.Now().UnixNano()
	for i, task := range tasks {
		task.Seq = base + int64(i)
		if err := r.store.Upsert(task.Magnet, task); err != nil {
			return fmt.Errorf("failed to requeue task %q: %w", task.Title, err)
		}
	}
	return nil
}

func (r *BoltRepository) CountTasks() (int, error) {
	tasks, err := r.findTasks()
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// QueueTasks returns the queue without clearing it, for status display.
func (r *BoltRepository) QueueTasks() ([]*models.Task, error) {
	return r.findTasks()
}

func (r *BoltRepository) findTasks() ([]*models.Task, error) {
	var tasks []*models.Task
	if err := r.store.Find(&tasks, nil); err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Seq < tasks[j].Seq })
	return tasks, nil
}

// Calendar cache operations

// SaveScheduleEntries replaces the cached calendar with the given entries.
func (r *BoltRepository) SaveScheduleEntries(entries []*models.ScheduleEntry) error {
	if err := r.store.DeleteMatching(&models.ScheduleEntry{}, nil); err != nil {
		return fmt.Errorf("failed to clear schedule entries: %w", err)
	}
	for _, entry := range entries {
		if err := r.store.Upsert(entry.PrimaryTitle, entry); err != nil {
			return fmt.Errorf("failed to save schedule entry %q: %w", entry.PrimaryTitle, err)
		}
	}
	return nil
}

func (r *BoltRepository) FindScheduleEntries() ([]*models.ScheduleEntry, error) {
	var entries []*models.ScheduleEntry
	if err := r.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to find schedule entries: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AirDate != entries[j].AirDate {
			return entries[i].AirDate < entries[j].AirDate
		}
		if entries[i].AirTime != entries[j].AirTime {
			return entries[i].AirTime < entries[j].AirTime
		}
		return entries[i].PrimaryTitle < entries[j].PrimaryTitle
	})
	return entries, nil
}

// Utility operations
func (r *BoltRepository) Close() error {
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("failed to close repository: %w", err)
	}
	return nil
}
