// Package config loads and validates application configuration from
// environment variables. Scan-window hours, run times and the target season
// all have defaults tuned for the Japanese broadcast schedule; only storage
// paths and service credentials are required.
package config
