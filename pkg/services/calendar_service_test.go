package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bangumarr/bangumarr/pkg/bangumi"
	"github.com/bangumarr/bangumarr/pkg/models"
)

const testDump = `{
	"items": [
		{
			"title": "テスト番組",
			"titleTranslate": {"zh-Hans": ["测试节目", "测试番"]},
			"type": "tv",
			"begin": "2024-04-08T14:00:00.000Z",
			"officialSite": "https://example.com/a"
		},
		{
			"title": "Out of Season",
			"type": "tv",
			"begin": "2024-01-05T10:00:00.000Z"
		},
		{
			"title": "Some Movie",
			"type": "movie",
			"begin": "2024-04-20T10:00:00.000Z"
		},
		{
			"title": "No Begin",
			"type": "tv"
		}
	]
}`

func TestRefreshKeepsTargetSeasonOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testDump))
	}))
	defer server.Close()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}

	repo := newFakeRepository()
	svc := NewCalendarService(repo, bangumi.NewClient(server.URL), 2024, []int{4, 5, 6}, tokyo)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	entries, _ := repo.FindScheduleEntries()
	if len(entries) != 1 {
		t.Fatalf("saved %d entries, want 1", len(entries))
	}

	entry := entries[0]
	if entry.PrimaryTitle != "测试节目" {
		t.Errorf("PrimaryTitle = %q, want the first zh-Hans translation", entry.PrimaryTitle)
	}
	if entry.JPName != "テスト番組" {
		t.Errorf("JPName = %q", entry.JPName)
	}
	// 2024-04-08T14:00Z is 23:00 Monday in Tokyo.
	if entry.Weekday != time.Monday {
		t.Errorf("Weekday = %v, want Monday", entry.Weekday)
	}
	if entry.AirTime != "23:00" {
		t.Errorf("AirTime = %q, want 23:00", entry.AirTime)
	}
	if entry.AirDate != "2024-04-08" {
		t.Errorf("AirDate = %q, want 2024-04-08", entry.AirDate)
	}
}

func TestBuildScheduleLookupIndexesAllNames(t *testing.T) {
	entries := []*models.ScheduleEntry{
		{PrimaryTitle: "测试节目", AltNames: []string{"测试节目", "测试番"}, JPName: "テスト番組"},
		{PrimaryTitle: "另一个", JPName: "テスト番組"},
	}

	lookup := buildScheduleLookup(entries)
	for _, name := range []string{"测试节目", "测试番", "テスト番組", "另一个"} {
		if _, ok := lookup[name]; !ok {
			t.Errorf("lookup missing %q", name)
		}
	}
	// First writer wins on a name collision.
	if lookup["テスト番組"].PrimaryTitle != "测试节目" {
		t.Errorf("lookup[テスト番組] = %q, want the first entry", lookup["テスト番組"].PrimaryTitle)
	}
}
