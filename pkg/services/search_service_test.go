package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bangumarr/bangumarr/pkg/airing"
	"github.com/bangumarr/bangumarr/pkg/models"
	"github.com/bangumarr/bangumarr/pkg/scanwindow"
)

type fakeSearchClient struct {
	results []models.Resource
	calls   int
}

func (f *fakeSearchClient) Search(ctx context.Context, keywords []string) ([]models.Resource, error) {
	f.calls++
	return f.results, nil
}

func writeWatchlist(t *testing.T, entries []*models.WatchEntry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "watchlist.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSearchService(t *testing.T, repo *fakeRepository, client SearchClient) *SearchService {
	t.Helper()
	watchlist := NewWatchlistService(writeWatchlist(t, []*models.WatchEntry{
		{Title: "Show A", SearchKeys: []string{"show", "a"}},
	}))
	resolver := scanwindow.NewResolver(scanwindow.DefaultConfig(time.UTC))
	matcher := airing.NewMatcher(time.UTC, airing.DefaultLookbackDays)
	return NewSearchService(repo, client, watchlist, resolver, matcher)
}

// 2024-04-10 is a Wednesday; a 05:30 run covers Tuesday noon to Wednesday
// 05:00, so a Tuesday 23:00 slot is due.
var (
	testRunTime = time.Date(2024, 4, 10, 5, 30, 0, 0, time.UTC)
	testEntry   = &models.ScheduleEntry{
		PrimaryTitle: "Show A",
		Weekday:      time.Tuesday,
		AirTime:      "23:00",
		AirDate:      "2024-04-09",
	}
)

func TestRunEnqueuesNewestEpisode(t *testing.T) {
	repo := newFakeRepository()
	repo.schedule = []*models.ScheduleEntry{testEntry}
	repo.highest["Show A"] = 2

	client := &fakeSearchClient{results: []models.Resource{
		{Title: "[Sub] Show A [02]", Magnet: "magnet:?xt=urn:btih:ep2"},
		{Title: "[Sub] Show A [03]", Magnet: "magnet:?xt=urn:btih:ep3"},
		{Title: "[Sub] Show A [01]", Magnet: "magnet:?xt=urn:btih:ep1"},
	}}

	svc := newTestSearchService(t, repo, client)
	added, err := svc.Run(context.Background(), testRunTime)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("Run() added = %d, want 1", added)
	}

	queued, _ := repo.QueueTasks()
	if len(queued) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queued))
	}
	task := queued[0]
	if task.AnimeTitle != "Show A" || task.Episode != 3 {
		t.Errorf("queued task = %+v, want Show A episode 3", task)
	}
	if task.Magnet != "magnet:?xt=urn:btih:ep3" {
		t.Errorf("queued magnet = %q, want ep3", task.Magnet)
	}
}

func TestRunSkipsWhenNothingNewer(t *testing.T) {
	repo := newFakeRepository()
	repo.schedule = []*models.ScheduleEntry{testEntry}
	repo.highest["Show A"] = 3

	client := &fakeSearchClient{results: []models.Resource{
		{Title: "[Sub] Show A [03]", Magnet: "magnet:?xt=urn:btih:ep3"},
	}}

	svc := newTestSearchService(t, repo, client)
	added, err := svc.Run(context.Background(), testRunTime)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 0 {
		t.Errorf("Run() added = %d, want 0", added)
	}
}

func TestRunIgnoresConsumedMagnets(t *testing.T) {
	repo := newFakeRepository()
	repo.schedule = []*models.ScheduleEntry{testEntry}
	repo.consumed["magnet:?xt=urn:btih:ep3"] = true

	client := &fakeSearchClient{results: []models.Resource{
		{Title: "[Sub] Show A [03]", Magnet: "magnet:?xt=urn:btih:ep3"},
		{Title: "[Sub] Show A [02]", Magnet: "magnet:?xt=urn:btih:ep2"},
	}}

	svc := newTestSearchService(t, repo, client)
	added, err := svc.Run(context.Background(), testRunTime)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("Run() added = %d, want 1", added)
	}

	queued, _ := repo.QueueTasks()
	if queued[0].Episode != 2 {
		t.Errorf("queued episode = %v, want 2 (consumed 3 skipped)", queued[0].Episode)
	}
}

func TestRunSkipsTitlesNotDue(t *testing.T) {
	repo := newFakeRepository()
	// Friday slot; not inside the Tuesday-noon-to-Wednesday-05:00 window.
	repo.schedule = []*models.ScheduleEntry{{
		PrimaryTitle: "Show A",
		Weekday:      time.Friday,
		AirTime:      "23:00",
		AirDate:      "2024-04-05",
	}}

	client := &fakeSearchClient{results: []models.Resource{
		{Title: "[Sub] Show A [03]", Magnet: "magnet:?xt=urn:btih:ep3"},
	}}

	svc := newTestSearchService(t, repo, client)
	added, err := svc.Run(context.Background(), testRunTime)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 0 {
		t.Errorf("Run() added = %d, want 0", added)
	}
	if client.calls != 0 {
		t.Errorf("Search called %d times for a title that is not due", client.calls)
	}
}

func TestRunSkipsOutsideTriggerRanges(t *testing.T) {
	repo := newFakeRepository()
	repo.schedule = []*models.ScheduleEntry{testEntry}
	client := &fakeSearchClient{}

	cfg := scanwindow.DefaultConfig(time.UTC)
	cfg.MorningTriggerStart, cfg.MorningTriggerEnd = 5, 6
	cfg.AfternoonTriggerStart, cfg.AfternoonTriggerEnd = 15, 16

	watchlist := NewWatchlistService(writeWatchlist(t, []*models.WatchEntry{
		{Title: "Show A", SearchKeys: []string{"show", "a"}},
	}))
	svc := NewSearchService(repo, client, watchlist,
		scanwindow.NewResolver(cfg), airing.NewMatcher(time.UTC, airing.DefaultLookbackDays))

	added, err := svc.Run(context.Background(), time.Date(2024, 4, 10, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 0 || client.calls != 0 {
		t.Errorf("Run() outside trigger ranges: added = %d, search calls = %d; want 0, 0", added, client.calls)
	}
}

func TestRunSkipsTitleMissingFromCalendar(t *testing.T) {
	repo := newFakeRepository()
	client := &fakeSearchClient{results: []models.Resource{
		{Title: "[Sub] Show A [01]", Magnet: "magnet:?xt=urn:btih:ep1"},
	}}

	svc := newTestSearchService(t, repo, client)
	added, err := svc.Run(context.Background(), testRunTime)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if added != 0 || client.calls != 0 {
		t.Errorf("added = %d, search calls = %d; want 0, 0 for unknown title", added, client.calls)
	}
}
