package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/export"
	"starforge-server/internal/middleware"
	"starforge-server/internal/pack"
	"starforge-server/internal/render"
	"starforge-server/internal/scenario"
	"starforge-server/internal/schema"
	"starforge-server/internal/shared/config"
	"starforge-server/internal/shared/errors"
	"starforge-server/internal/shared/response"
)

type ExportHandler struct {
	service   *scenario.Service
	registry  *bodytype.Registry
	validator *schema.Validator
}

func NewExportHandler(service *scenario.Service, registry *bodytype.Registry, validator *schema.Validator) *ExportHandler {
	return &ExportHandler{
		service:   service,
		registry:  registry,
		validator: validator,
	}
}

// Download validates the current scenario, transforms it, and streams
// the mod archive. Refusal reports every problem at once so the user
// can fix the whole list in one pass.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "export_download")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	sessionID := middleware.SessionID(ctx)
	snap := h.service.SnapshotPayload(ctx, sessionID)
	warnings := h.service.Warnings(ctx, sessionID)

	if problems := export.Problems(snap, h.registry, warnings); len(problems) > 0 {
		response.Problems(w, r, logger, problems)
		return
	}

	name := pack.Sanitize(snap.Settings.Name)
	pkg := export.Transform(snap, h.registry, name)

	// Schema validation fails closed: any violation refuses the export.
	if problems := h.schemaProblems(pkg); len(problems) > 0 {
		response.Problems(w, r, logger, problems)
		return
	}

	cfg := config.GlobalConfig
	picture, err := render.Snapshot(snap, h.registry, render.Options{
		Width:        cfg.Export.PictureWidth,
		Height:       cfg.Export.PictureHeight,
		CanvasWidth:  cfg.Editor.CanvasWidth,
		CanvasHeight: cfg.Editor.CanvasHeight,
	})
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to render scenario picture", err))
		return
	}

	archive, err := pack.BuildArchive(pkg, picture)
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to build archive", err))
		return
	}

	logger.Info("Scenario exported", "session_id", sessionID, "name", name, "archive_bytes", len(archive))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".zip"))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(archive)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(archive); err != nil {
		logger.Debug("Client disconnected mid-download", "error", err)
	}
}

// schemaProblems round-trips each export document through JSON and runs
// the supplementary schema check on the decoded form.
func (h *ExportHandler) schemaProblems(pkg export.Package) []string {
	var problems []string

	check := func(doc interface{}, schemaID string) {
		raw, err := json.Marshal(doc)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: failed to encode: %v", schemaID, err))
			return
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			problems = append(problems, fmt.Sprintf("%s: failed to decode: %v", schemaID, err))
			return
		}
		for _, err := range h.validator.Validate(decoded, schemaID) {
			problems = append(problems, err.Error())
		}
	}

	check(pkg.GalaxyChart, schema.GalaxyChartID)
	check(pkg.ScenarioInfo, schema.ScenarioInfoID)
	check(pkg.ModMetaData, schema.ModMetaDataID)

	return problems
}
