package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	"starforge-server/internal/shared/errors"
	"starforge-server/internal/shared/response"
)

type ScenarioHandler struct {
	service *scenario.Service
}

func NewScenarioHandler(service *scenario.Service) *ScenarioHandler {
	return &ScenarioHandler{service: service}
}

// Root dispatches the scenario endpoint by method.
func (h *ScenarioHandler) Root(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.GetState(w, r)
	case http.MethodDelete:
		h.Reset(w, r)
	default:
		response.Error(w, r, slog.With("handler", "scenario_root"), errors.MethodNotAllowed(r.Method))
	}
}

// GetState returns the full scenario with the current warning list.
func (h *ScenarioHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := h.service.View(ctx, middleware.SessionID(ctx))
	response.Success(w, http.StatusOK, state)
}

// Reset discards the session's scenario and its stored snapshot.
func (h *ScenarioHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := h.service.Reset(ctx, middleware.SessionID(ctx))
	response.Success(w, http.StatusOK, state)
}

// GetWarnings returns only the warning list, for clients polling instead
// of holding the websocket stream.
func (h *ScenarioHandler) GetWarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_scenario_warnings")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	warnings := h.service.Warnings(ctx, middleware.SessionID(ctx))
	if warnings == nil {
		warnings = []scenario.Warning{}
	}
	response.Success(w, http.StatusOK, warnings)
}

// UpdateSettings replaces the scenario settings.
func (h *ScenarioHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "update_scenario_settings")

	if r.Method != http.MethodPut {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var settings scenario.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid settings payload", err))
		return
	}

	state, err := h.service.UpdateSettings(ctx, middleware.SessionID(ctx), settings)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}

// GetTeamOptions lists the legal team counts for a player count, so the
// client renders the picker without duplicating the divisor rule.
func (h *ScenarioHandler) GetTeamOptions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_team_options")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	state := h.service.View(ctx, middleware.SessionID(ctx))
	response.Success(w, http.StatusOK, state.TeamCountOptions)
}
