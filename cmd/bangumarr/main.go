package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bangumarr/bangumarr/pkg/airing"
	"github.com/bangumarr/bangumarr/pkg/anisearch"
	"github.com/bangumarr/bangumarr/pkg/bangumi"
	"github.com/bangumarr/bangumarr/pkg/config"
	"github.com/bangumarr/bangumarr/pkg/handlers"
	"github.com/bangumarr/bangumarr/pkg/repository"
	"github.com/bangumarr/bangumarr/pkg/scanwindow"
	"github.com/bangumarr/bangumarr/pkg/seedr"
	"github.com/bangumarr/bangumarr/pkg/services"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
)

func main() {
	// Setup logging
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
	log.Info("Starting Bangumarr application")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("Failed to load timezone")
	}

	// Initialize database
	dbPath := filepath.Join(cfg.DataDir, "data.db")
	store, err := bolthold.Open(dbPath, 0666, nil)
	if err != nil {
		log.WithError(err).Fatal("Failed to open database")
	}

	// Initialize repository
	repo := repository.NewBoltRepository(store)

	// Initialize clients
	searchClient, err := anisearch.NewClient(&anisearch.Config{
		BaseURL:  cfg.SearchAPIURL,
		PageSize: cfg.SearchPageSize,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create search client")
	}

	seedrClient, err := seedr.NewClient(&seedr.Config{
		Email:    cfg.SeedrEmail,
		Password: cfg.SeedrPassword,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create seedr client")
	}

	bangumiClient := bangumi.NewClient(cfg.BangumiDataURL)

	// Initialize scan window resolution and airing match
	windowCfg := scanwindow.DefaultConfig(loc)
	windowCfg.MorningStartHour = cfg.MorningStartHour
	windowCfg.MorningEndHour = cfg.MorningEndHour
	windowCfg.AfternoonEndHour = cfg.AfternoonEndHour
	windowCfg.AfternoonLookback = time.Duration(cfg.AfternoonLookbackHours) * time.Hour
	resolver := scanwindow.NewResolver(windowCfg)
	matcher := airing.NewMatcher(loc, airing.DefaultLookbackDays)

	// Initialize services
	watchlistService := services.NewWatchlistService(cfg.WatchlistFile)
	calendarService := services.NewCalendarService(repo, bangumiClient, cfg.TargetYear, cfg.TargetMonths, loc)
	searchService := services.NewSearchService(repo, searchClient, watchlistService, resolver, matcher)
	downloadService := services.NewDownloadService(repo, seedrClient, cfg.DownloadDir)

	appService := services.NewAppService(repo, calendarService, searchService, downloadService)

	// Initialize HTTP handlers
	mux := http.NewServeMux()
	handler := handlers.NewHandler(appService, repo)
	handler.SetupRoutes(mux)

	// Start scheduled runs
	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	go runScheduler(schedulerCtx, appService, cfg.RunTimesList(), loc)

	// Start HTTP server
	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(server, appService, cancelScheduler)
}

// runScheduler runs a full task pass immediately, then at each configured
// daily run time.
func runScheduler(ctx context.Context, appService *services.AppService, runTimes []string, loc *time.Location) {
	runOnce(ctx, appService)

	for {
		now := time.Now().In(loc)
		next := nextRunTime(now, runTimes, loc)
		appService.SetNextRun(next)
		log.WithField("next_run", next.Format("2006-01-02 15:04")).Info("Waiting for next scheduled run")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		runOnce(ctx, appService)
	}
}

func runOnce(ctx context.Context, appService *services.AppService) {
	if err := appService.RunTasks(ctx, time.Now()); err != nil {
		log.WithError(err).Error("Failed to run application tasks")
	}
}

// nextRunTime returns the earliest configured run time strictly after now,
// today or tomorrow.
func nextRunTime(now time.Time, runTimes []string, loc *time.Location) time.Time {
	var next time.Time
	for day := 0; day <= 1; day++ {
		date := now.AddDate(0, 0, day)
		for _, rt := range runTimes {
			var hour, minute int
			if _, err := fmt.Sscanf(rt, "%d:%d", &hour, &minute); err != nil {
				continue
			}
			candidate := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			if candidate.After(now) && (next.IsZero() || candidate.Before(next)) {
				next = candidate
			}
		}
	}
	return next
}

// waitForShutdown waits for shutdown signals and gracefully shuts down
func waitForShutdown(server *http.Server, appService *services.AppService, cancelScheduler context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal, initiating graceful shutdown")

	cancelScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	} else {
		log.Info("HTTP server shut down successfully")
	}

	if err := appService.Close(); err != nil {
		log.WithError(err).Error("Failed to shutdown application service")
	} else {
		log.Info("Application service shut down successfully")
	}

	log.Info("Graceful shutdown completed")
}
