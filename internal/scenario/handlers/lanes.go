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

type LaneHandler struct {
	service *scenario.Service
}

func NewLaneHandler(service *scenario.Service) *LaneHandler {
	return &LaneHandler{service: service}
}

type createLaneRequest struct {
	NodeA int               `json:"node_a"`
	NodeB int               `json:"node_b"`
	Type  scenario.LaneType `json:"type"`
}

type laneResponse struct {
	Lane  scenario.Lane      `json:"lane"`
	State scenario.StateView `json:"state"`
}

func (h *LaneHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_lane")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req createLaneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid lane payload", err))
		return
	}
	if req.Type == "" {
		req.Type = scenario.LaneNormal
	}

	lane, state, err := h.service.CreateLane(ctx, middleware.SessionID(ctx), req.NodeA, req.NodeB, req.Type)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, laneResponse{Lane: lane, State: state})
}

func (h *LaneHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "delete_lane")

	if r.Method != http.MethodDelete {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	laneID, err := pathID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	state, err := h.service.RemoveLane(ctx, middleware.SessionID(ctx), laneID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}
