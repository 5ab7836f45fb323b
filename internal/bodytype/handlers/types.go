package handlers

import (
	"log/slog"
	"net/http"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/shared/errors"
	"starforge-server/internal/shared/response"
)

type BodyTypeHandler struct {
	registry *bodytype.Registry
}

func NewBodyTypeHandler(registry *bodytype.Registry) *BodyTypeHandler {
	return &BodyTypeHandler{registry: registry}
}

type catalogResponse struct {
	BodyTypes     []bodytype.Descriptor `json:"body_types"`
	ArtifactNames []string              `json:"artifact_names"`
}

// GetCatalog serves the static body type palette and artifact name list.
func (h *BodyTypeHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "get_body_type_catalog")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	response.Success(w, http.StatusOK, catalogResponse{
		BodyTypes:     h.registry.Descriptors(),
		ArtifactNames: bodytype.ArtifactNames(),
	})
}
