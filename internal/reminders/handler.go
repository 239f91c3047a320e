package reminders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/dental-clinic-platform/pkg/logging"
)

// CycleRunner is the part of Scheduler the operator endpoints need.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
	Status() Status
}

// Handler exposes the manual trigger and the scheduler status.
type Handler struct {
	runner CycleRunner
	logger *logging.Logger
}

// NewHandler creates a reminders HTTP handler.
func NewHandler(runner CycleRunner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{runner: runner, logger: logger}
}

// RegisterRoutes mounts the endpoints. Expected under /admin/reminders.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/run", h.Run)
	r.Get("/status", h.GetStatus)
}

// Run triggers one cycle synchronously and reports its result.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	// A client hanging up must not abort sends halfway through a batch.
	result, err := h.runner.RunCycle(context.WithoutCancel(r.Context()))
	switch {
	case errors.Is(err, ErrCycleInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "reminder cycle already in progress"})
		return
	case err != nil:
		h.logger.Error("reminders handler: manual run", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.logger.Info("reminders handler: manual run finished",
		"processed", result.ProcessedCount, "sent", result.SentCount, "failed", result.FailedCount)
	writeJSON(w, http.StatusOK, result)
}

// GetStatus reports whether the scheduler is started and busy.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.runner.Status())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
