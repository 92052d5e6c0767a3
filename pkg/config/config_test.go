package config

import (
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_DIR", "/tmp/data")
	t.Setenv("DOWNLOAD_DIR", "/tmp/downloads")
	t.Setenv("SEARCH_API_URL", "http://search.local/api/v1/resources")
	t.Setenv("SEEDR_EMAIL", "user@example.com")
	t.Setenv("SEEDR_PASSWORD", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, want Asia/Tokyo", cfg.Timezone)
	}
	if cfg.RunTimes != "05:00,15:00" {
		t.Errorf("RunTimes = %q", cfg.RunTimes)
	}
	if cfg.MorningStartHour != 12 || cfg.MorningEndHour != 5 || cfg.AfternoonEndHour != 15 {
		t.Errorf("window hours = %d/%d/%d, want 12/5/15",
			cfg.MorningStartHour, cfg.MorningEndHour, cfg.AfternoonEndHour)
	}
	if cfg.AfternoonLookbackHours != 48 {
		t.Errorf("AfternoonLookbackHours = %d, want 48", cfg.AfternoonLookbackHours)
	}
	if len(cfg.TargetMonths) != 3 {
		t.Errorf("TargetMonths = %v, want a three-month season", cfg.TargetMonths)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SEEDR_PASSWORD", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() expected error for missing SEEDR_PASSWORD")
	}
}

func TestTargetMonthsOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TARGET_YEAR", "2024")
	t.Setenv("TARGET_MONTHS", "10, 11, 12")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.TargetYear != 2024 {
		t.Errorf("TargetYear = %d, want 2024", cfg.TargetYear)
	}
	want := []int{10, 11, 12}
	for i, month := range want {
		if cfg.TargetMonths[i] != month {
			t.Errorf("TargetMonths = %v, want %v", cfg.TargetMonths, want)
			break
		}
	}
}

func TestValidateRejectsBadRunTimes(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_TIMES", "25:00")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for hour 25")
	}
}

func TestLocation(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Asia/Tokyo" {
		t.Errorf("Location() = %v, want Asia/Tokyo", loc)
	}
}

func TestCurrentSeason(t *testing.T) {
	tests := []struct {
		now       time.Time
		wantYear  int
		wantFirst int
	}{
		{time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 2024, 1},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 2024, 4},
		{time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC), 2024, 7},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), 2024, 10},
	}

	for _, tt := range tests {
		year, months := currentSeason(tt.now)
		if year != tt.wantYear || months[0] != tt.wantFirst || len(months) != 3 {
			t.Errorf("currentSeason(%v) = %d %v, want %d starting %d",
				tt.now, year, months, tt.wantYear, tt.wantFirst)
		}
	}
}
