package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"starforge-server/internal/shared/database"
	"starforge-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}

type HealthHandler struct {
	db *database.DB
}

func NewHealthHandler(db *database.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")

	storeStatus := "disconnected"
	if err := h.db.Ping(); err == nil {
		storeStatus = "connected"
	} else {
		logger.Warn("Snapshot store ping failed", "error", err)
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Store:     storeStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
