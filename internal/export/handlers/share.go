package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	"starforge-server/internal/share"
	apperrors "starforge-server/internal/shared/errors"
	"starforge-server/internal/shared/response"
)

type ShareHandler struct {
	service *scenario.Service
	links   *share.LinkStore
}

func NewShareHandler(service *scenario.Service, links *share.LinkStore) *ShareHandler {
	return &ShareHandler{
		service: service,
		links:   links,
	}
}

type shareResponse struct {
	Token  string `json:"token"`
	LinkID string `json:"link_id,omitempty"`
}

// Create encodes the session's snapshot into a share token. With
// ?short=1 a short link id backed by the link store is minted as well.
func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_share")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, apperrors.MethodNotAllowed(r.Method))
		return
	}

	snap := h.service.SnapshotPayload(ctx, middleware.SessionID(ctx))

	token, err := share.Encode(snap)
	if err != nil {
		response.Error(w, r, logger, apperrors.WrapInternal("failed to encode share token", err))
		return
	}

	res := shareResponse{Token: token}
	if r.URL.Query().Get("short") == "1" {
		linkID, err := h.links.Put(ctx, token)
		if err != nil {
			response.Error(w, r, logger, apperrors.WrapExternal("failed to store share link", err))
			return
		}
		res.LinkID = linkID
	}

	response.Success(w, http.StatusOK, res)
}

// Resolve exchanges a short link id for its share token.
func (h *ShareHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "resolve_share")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, apperrors.MethodNotAllowed(r.Method))
		return
	}

	linkID := r.PathValue("id")
	if linkID == "" {
		response.Error(w, r, logger, apperrors.Validation("link id is required"))
		return
	}

	token, err := h.links.Resolve(ctx, linkID)
	if errors.Is(err, share.ErrLinkNotFound) {
		response.Error(w, r, logger, apperrors.NotFoundf("share link %s not found", linkID))
		return
	}
	if err != nil {
		response.Error(w, r, logger, apperrors.WrapExternal("failed to resolve share link", err))
		return
	}

	response.Success(w, http.StatusOK, shareResponse{Token: token})
}

type importRequest struct {
	Token string `json:"token"`
}

// Import replaces the session's scenario with a decoded share token.
func (h *ShareHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "import_share")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, apperrors.MethodNotAllowed(r.Method))
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, logger, apperrors.WrapValidation("invalid import payload", err))
		return
	}
	if req.Token == "" {
		response.Error(w, r, logger, apperrors.Validation("token is required"))
		return
	}

	snap, err := share.Decode(req.Token)
	if err != nil {
		response.Error(w, r, logger, apperrors.WrapValidation("share token is not decodable", err))
		return
	}

	state, err := h.service.ImportSnapshot(ctx, middleware.SessionID(ctx), snap)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, state)
}
