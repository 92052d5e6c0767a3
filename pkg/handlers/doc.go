// Package handlers exposes the daemon's small HTTP API: health, run status,
// the pending download queue, the download history and a manual run trigger.
// Endpoints other than the health check can be protected with an API key via
// BANGUMARR_API_KEY.
package handlers
