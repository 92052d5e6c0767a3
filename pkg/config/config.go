package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `json:"port"`
	Host string `json:"host"`

	// Storage configuration
	DataDir     string `json:"data_dir" validate:"required"`
	DownloadDir string `json:"download_dir" validate:"required"`

	// Search API configuration
	SearchAPIURL   string `json:"search_api_url" validate:"required,url"`
	SearchPageSize int    `json:"search_page_size"`

	// Seedr configuration
	SeedrEmail    string `json:"seedr_email" validate:"required"`
	SeedrPassword string `json:"seedr_password" validate:"required"`

	// Calendar configuration
	BangumiDataURL string `json:"bangumi_data_url"`
	WatchlistFile  string `json:"watchlist_file"`
	TargetYear     int    `json:"target_year"`
	TargetMonths   []int  `json:"target_months"`

	// Scheduling configuration
	Timezone               string `json:"timezone"`
	RunTimes               string `json:"run_times"`
	MorningStartHour       int    `json:"morning_start_hour"`
	MorningEndHour         int    `json:"morning_end_hour"`
	AfternoonEndHour       int    `json:"afternoon_end_hour"`
	AfternoonLookbackHours int    `json:"afternoon_lookback_hours"`
}

const defaultBangumiDataURL = "https://unpkg.com/bangumi-data@0.3/dist/data.json"

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	seasonYear, seasonMonths := currentSeason(time.Now())

	config := &Config{
		Port:                   getEnvOrDefault("PORT", "3000"),
		Host:                   getEnvOrDefault("HOST", "0.0.0.0"),
		SearchPageSize:         getEnvIntOrDefault("SEARCH_PAGE_SIZE", 30),
		BangumiDataURL:         getEnvOrDefault("BANGUMI_DATA_URL", defaultBangumiDataURL),
		WatchlistFile:          getEnvOrDefault("WATCHLIST_FILE", "watchlist.json"),
		TargetYear:             getEnvIntOrDefault("TARGET_YEAR", seasonYear),
		Timezone:               getEnvOrDefault("TIMEZONE", "Asia/Tokyo"),
		RunTimes:               getEnvOrDefault("RUN_TIMES", "05:00,15:00"),
		MorningStartHour:       getEnvIntOrDefault("MORNING_START_HOUR", 12),
		MorningEndHour:         getEnvIntOrDefault("MORNING_END_HOUR", 5),
		AfternoonEndHour:       getEnvIntOrDefault("AFTERNOON_END_HOUR", 15),
		AfternoonLookbackHours: getEnvIntOrDefault("AFTERNOON_LOOKBACK_HOURS", 48),
	}

	months, err := getEnvIntListOrDefault("TARGET_MONTHS", seasonMonths)
	if err != nil {
		return nil, err
	}
	config.TargetMonths = months

	// Required environment variables
	if config.DataDir, err = getRequiredEnv("DATA_DIR"); err != nil {
		return nil, err
	}
	if config.DownloadDir, err = getRequiredEnv("DOWNLOAD_DIR"); err != nil {
		return nil, err
	}
	if config.SearchAPIURL, err = getRequiredEnv("SEARCH_API_URL"); err != nil {
		return nil, err
	}
	if config.SeedrEmail, err = getRequiredEnv("SEEDR_EMAIL"); err != nil {
		return nil, err
	}
	if config.SeedrPassword, err = getRequiredEnv("SEEDR_PASSWORD"); err != nil {
		return nil, err
	}

	return config, nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Host + ":" + c.Port
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// RunTimesList returns the configured daily run times, one "HH:MM" per entry.
func (c *Config) RunTimesList() []string {
	var times []string
	for _, part := range strings.Split(c.RunTimes, ",") {
		if part = strings.TrimSpace(part); part != "" {
			times = append(times, part)
		}
	}
	return times
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download directory is required")
	}
	if c.SearchAPIURL == "" {
		return fmt.Errorf("search API URL is required")
	}
	if c.SeedrEmail == "" || c.SeedrPassword == "" {
		return fmt.Errorf("seedr configuration is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if len(c.RunTimesList()) == 0 {
		return fmt.Errorf("at least one run time is required")
	}
	for _, rt := range c.RunTimesList() {
		var hour, minute int
		if _, err := fmt.Sscanf(rt, "%d:%d", &hour, &minute); err != nil {
			return fmt.Errorf("invalid run time %q: %w", rt, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return fmt.Errorf("invalid run time %q", rt)
		}
	}
	if len(c.TargetMonths) == 0 {
		return fmt.Errorf("at least one target month is required")
	}
	for _, month := range c.TargetMonths {
		if month < 1 || month > 12 {
			return fmt.Errorf("invalid target month %d", month)
		}
	}
	return nil
}

// currentSeason returns the year and three months of the anime season that
// contains now. Seasons start in January, April, July and October.
func currentSeason(now time.Time) (int, []int) {
	start := ((int(now.Month())-1)/3)*3 + 1
	return now.Year(), []int{start, start + 1, start + 2}
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntListOrDefault(key string, defaultValue []int) ([]int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	var list []int
	for _, part := range strings.Split(value, ",") {
		intValue, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("environment variable %s must be a comma-separated integer list: %w", key, err)
		}
		list = append(list, intValue)
	}
	return list, nil
}

func getRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return value, nil
}
