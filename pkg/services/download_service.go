package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/bangumarr/bangumarr/pkg/repository"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxRetryRounds = 2

	// Pacing between remote operations. The remote service throttles
	// aggressive clients, so these are deliberately generous.
	defaultTaskPause  = 3 * time.Second
	defaultRetryPause = 5 * time.Second
	defaultGroupPause = 10 * time.Second
)

// RemoteDownloader is the remote cloud-torrent service the pipeline drives.
type RemoteDownloader interface {
	Login(ctx context.Context) error
	ClearAccount(ctx context.Context) error
	AddMagnet(ctx context.Context, magnetURI string) (string, error)
	AwaitReady(ctx context.Context, title string, skipInitialWait bool) (*models.RemoteItem, error)
	FetchLocal(ctx context.Context, item *models.RemoteItem, dir string) ([]string, error)
	Cleanup(ctx context.Context, item *models.RemoteItem) error
}

// DownloadService drains the task queue through the four-step download
// pipeline: add the magnet remotely, wait for the remote fetch, pull the
// files to local disk, delete the remote copy. Tasks run strictly one at a
// time; failures are retried within the run and requeued for a later run
// when the retries are exhausted.
type DownloadService struct {
	repo        repository.Repository
	remote      RemoteDownloader
	downloadDir string

	maxRetryRounds int
	taskPause      time.Duration
	retryPause     time.Duration
	groupPause     time.Duration
}

func NewDownloadService(repo repository.Repository, remote RemoteDownloader, downloadDir string) *DownloadService {
	return &DownloadService{
		repo:           repo,
		remote:         remote,
		downloadDir:    downloadDir,
		maxRetryRounds: defaultMaxRetryRounds,
		taskPause:      defaultTaskPause,
		retryPause:     defaultRetryPause,
		groupPause:     defaultGroupPause,
	}
}

// ProcessQueue drains the whole queue once. The queue is emptied up front;
// tasks that fail after the in-run retries are put back for the next run,
// which starts them over from the first step.
func (s *DownloadService) ProcessQueue(ctx context.Context) error {
	tasks, err := s.repo.DequeueAllTasks()
	if err != nil {
		return fmt.Errorf("dequeuing tasks: %w", err)
	}
	if len(tasks) == 0 {
		log.Info("Download queue is empty")
		return nil
	}
	log.WithField("count", len(tasks)).Info("Processing download queue")

	if err := s.remote.Login(ctx); err != nil {
		// The queue was already drained; put it back untouched so the
		// tasks survive for the next run.
		if rqErr := s.repo.ReplaceQueue(tasks); rqErr != nil {
			log.WithError(rqErr).Error("Failed to restore queue after login failure")
		}
		return fmt.Errorf("authenticating with remote service: %w", err)
	}

	if err := s.remote.ClearAccount(ctx); err != nil {
		log.WithError(err).Warn("Failed to clear remote account, continuing")
	}

	groups := groupByTitle(tasks)
	var failed []*models.Task
	for i, group := range groups {
		if i > 0 {
			if err := pause(ctx, s.groupPause); err != nil {
				failed = appendRemaining(failed, groups[i:])
				s.requeue(failed)
				return err
			}
		}

		groupFailed, err := s.processGroup(ctx, group)
		failed = append(failed, groupFailed...)
		if err != nil {
			failed = appendRemaining(failed, groups[i+1:])
			s.requeue(failed)
			return err
		}
	}

	s.requeue(failed)
	log.WithFields(log.Fields{
		"processed": len(tasks),
		"failed":    len(failed),
	}).Info("Finished processing download queue")
	return nil
}

// processGroup runs one title's tasks, retrying failures up to
// maxRetryRounds extra rounds before giving up on them.
func (s *DownloadService) processGroup(ctx context.Context, group []*models.Task) ([]*models.Task, error) {
	pending := group
	for round := 0; round <= s.maxRetryRounds && len(pending) > 0; round++ {
		if round > 0 {
			log.WithFields(log.Fields{
				"title": pending[0].AnimeTitle,
				"round": round,
				"tasks": len(pending),
			}).Info("Retrying failed tasks")
		}

		var failed []*models.Task
		for i, task := range pending {
			if i > 0 || round > 0 {
				d := s.taskPause
				if round > 0 {
					d = s.retryPause
				}
				if err := pause(ctx, d); err != nil {
					return append(failed, pending[i:]...), err
				}
			}

			if err := s.runTask(ctx, task); err != nil {
				if ctx.Err() != nil {
					return append(append(failed, task), pending[i+1:]...), ctx.Err()
				}
				log.WithError(err).WithFields(log.Fields{
					"title":   task.AnimeTitle,
					"episode": task.Episode,
					"step":    task.RetryStep,
				}).Error("Download task failed")
				failed = append(failed, task)
			}
		}
		pending = failed
	}
	return pending, nil
}

// runTask drives one task through the pipeline, entering at the task's
// retry step. On failure the retry step records where the in-run retry
// rounds re-enter. History is written only after the entire pipeline
// succeeds.
func (s *DownloadService) runTask(ctx context.Context, task *models.Task) error {
	consumed, err := s.repo.IsConsumed(task.Magnet)
	if err != nil {
		return fmt.Errorf("checking consumed magnets: %w", err)
	}
	if consumed {
		log.WithFields(log.Fields{
			"title":   task.AnimeTitle,
			"episode": task.Episode,
		}).Info("Magnet already downloaded, dropping task")
		return nil
	}

	step := task.RetryStep
	if step == 0 {
		step = models.StepAddRemote
	}
	log.WithFields(log.Fields{
		"title":   task.AnimeTitle,
		"episode": task.Episode,
		"step":    step,
	}).Info("Running download task")

	if step <= models.StepAddRemote {
		if _, err := s.remote.AddMagnet(ctx, task.Magnet); err != nil {
			// The magnet may have landed remotely despite the error, so
			// retries re-enter at the readiness scan instead of re-adding.
			task.RetryStep = models.StepAwaitReady
			return fmt.Errorf("adding magnet: %w", err)
		}
	}

	// The item handle is never persisted, so resuming at a later step
	// still goes through the readiness scan to find it again. The initial
	// wait is only worth taking right after the magnet was added.
	item, err := s.remote.AwaitReady(ctx, task.Title, step >= models.StepAwaitReady)
	if err != nil {
		task.RetryStep = models.StepAwaitReady
		return fmt.Errorf("waiting for remote content: %w", err)
	}

	if step <= models.StepFetchLocal {
		paths, err := s.remote.FetchLocal(ctx, item, s.downloadDir)
		if err != nil {
			task.RetryStep = models.StepFetchLocal
			return fmt.Errorf("fetching files: %w", err)
		}
		log.WithFields(log.Fields{
			"title": task.AnimeTitle,
			"files": len(paths),
		}).Info("Fetched files to local disk")
	}

	if err := s.remote.Cleanup(ctx, item); err != nil {
		task.RetryStep = models.StepCleanupRemote
		return fmt.Errorf("cleaning up remote item: %w", err)
	}

	if err := s.repo.RecordDownload(task.AnimeTitle, task.Episode, task.Magnet); err != nil {
		return fmt.Errorf("recording download history: %w", err)
	}

	task.RetryStep = 0
	log.WithFields(log.Fields{
		"title":   task.AnimeTitle,
		"episode": task.Episode,
	}).Info("Download task completed")
	return nil
}

func (s *DownloadService) requeue(failed []*models.Task) {
	if len(failed) == 0 {
		return
	}
	// The next run clears the remote account before processing, which voids
	// any partial remote progress, so requeued tasks restart from the first
	// step rather than resuming mid-pipeline.
	for _, task := range failed {
		task.RetryStep = 0
	}
	if _, err := s.repo.EnqueueTasks(failed); err != nil {
		log.WithError(err).Error("Failed to requeue failed tasks")
		return
	}
	log.WithField("count", len(failed)).Warn("Requeued failed tasks for a later run")
}

// groupByTitle splits tasks into per-title groups, keeping both the group
// order and the task order within each group as first seen.
func groupByTitle(tasks []*models.Task) [][]*models.Task {
	index := make(map[string]int)
	var groups [][]*models.Task
	for _, task := range tasks {
		i, ok := index[task.AnimeTitle]
		if !ok {
			i = len(groups)
			index[task.AnimeTitle] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], task)
	}
	return groups
}

func appendRemaining(failed []*models.Task, groups [][]*models.Task) []*models.Task {
	for _, group := range groups {
		failed = append(failed, group...)
	}
	return failed
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
