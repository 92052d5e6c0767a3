package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bangumarr/bangumarr/pkg/repository"
	"github.com/bangumarr/bangumarr/pkg/services"
	log "github.com/sirupsen/logrus"
)

// Handler contains all HTTP handlers
type Handler struct {
	appService *services.AppService
	repo       repository.Repository
}

func NewHandler(appService *services.AppService, repo repository.Repository) *Handler {
	return &Handler{
		appService: appService,
		repo:       repo,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/api/status", authMiddleware(h.handleStatus))
	mux.HandleFunc("/api/queue", authMiddleware(h.handleQueue))
	mux.HandleFunc("/api/history", authMiddleware(h.handleHistory))
	mux.HandleFunc("/api/run", authMiddleware(h.handleRun))
}

// ResponseError represents an error response
type ResponseError struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResponseSuccess represents a success response
type ResponseSuccess struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (h *Handler) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func (h *Handler) writeErrorResponse(w http.ResponseWriter, status int, message, details string) {
	response := ResponseError{
		Error:   message,
		Message: details,
	}
	h.writeJSONResponse(w, status, response)
}

func (h *Handler) writeSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	response := ResponseSuccess{
		Message: message,
		Data:    data,
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Only GET requests are allowed")
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.writeSuccessResponse(w, "Service is healthy", health)
}

// handleStatus reports the daemon's run state and queue depth.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Only GET requests are allowed")
		return
	}

	status, err := h.appService.Status()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to get status", err.Error())
		return
	}

	h.writeSuccessResponse(w, "Status retrieved successfully", status)
}

// handleQueue lists the pending download tasks in queue order.
func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Only GET requests are allowed")
		return
	}

	tasks, err := h.repo.QueueTasks()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to get queue", err.Error())
		return
	}

	data := map[string]interface{}{
		"count": len(tasks),
		"tasks": tasks,
	}

	h.writeSuccessResponse(w, "Queue retrieved successfully", data)
}

// handleHistory returns the download history record.
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Only GET requests are allowed")
		return
	}

	record, err := h.repo.HistoryRecord()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to get history", err.Error())
		return
	}

	h.writeSuccessResponse(w, "History retrieved successfully", record)
}

// handleRun triggers a full task pass outside the fixed schedule.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed", "Only POST requests are allowed")
		return
	}

	// Run tasks asynchronously; a full pass can take minutes.
	go func() {
		if err := h.appService.RunTasks(context.Background(), time.Now()); err != nil {
			log.WithError(err).Error("Failed to run triggered tasks")
		}
	}()

	h.writeSuccessResponse(w, "Run initiated", nil)
}
