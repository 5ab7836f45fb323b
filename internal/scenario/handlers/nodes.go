package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	"starforge-server/internal/shared/errors"
	"starforge-server/internal/shared/response"
)

type NodeHandler struct {
	service *scenario.Service
}

func NewNodeHandler(service *scenario.Service) *NodeHandler {
	return &NodeHandler{service: service}
}

// ByID dispatches the node id route by method.
func (h *NodeHandler) ByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPatch:
		h.Update(w, r)
	case http.MethodDelete:
		h.Delete(w, r)
	default:
		response.Error(w, r, slog.With("handler", "node_by_id"), errors.MethodNotAllowed(r.Method))
	}
}

type createNodeRequest struct {
	BodyTypeID   string `json:"body_type_id"`
	ParentStarID *int   `json:"parent_star_id,omitempty"`
}

type nodeResponse struct {
	Node  scenario.Node      `json:"node"`
	State scenario.StateView `json:"state"`
}

func (h *NodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_node")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	var req createNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid node payload", err))
		return
	}
	if req.BodyTypeID == "" {
		response.Error(w, r, logger, errors.Validation("body_type_id is required"))
		return
	}

	node, state, err := h.service.AddNode(ctx, middleware.SessionID(ctx), req.BodyTypeID, req.ParentStarID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, nodeResponse{Node: node, State: state})
}

func (h *NodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "update_node")

	if r.Method != http.MethodPatch {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	nodeID, err := pathID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var patch scenario.NodePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid node patch", err))
		return
	}

	node, state, err := h.service.UpdateNode(ctx, middleware.SessionID(ctx), nodeID, patch)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, nodeResponse{Node: node, State: state})
}

// Delete removes a node. When deleting a star with orbiting bodies, a
// reassign_to query parameter names the star that adopts them.
func (h *NodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "delete_node")

	if r.Method != http.MethodDelete {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	nodeID, err := pathID(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	var reassignTo *int
	if raw := r.URL.Query().Get("reassign_to"); raw != "" {
		target, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid reassign_to value", err))
			return
		}
		reassignTo = &target
	}

	state, err := h.service.RemoveNode(ctx, middleware.SessionID(ctx), nodeID, reassignTo)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}

func pathID(r *http.Request) (int, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return 0, errors.Validation("id is required")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.WrapValidation("invalid id format", err)
	}
	return id, nil
}
