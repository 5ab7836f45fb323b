package server

import (
	"log/slog"
	"net/http"

	"starforge-server/internal/bodytype"
	bodytypeHandlers "starforge-server/internal/bodytype/handlers"
	exportHandlers "starforge-server/internal/export/handlers"
	"starforge-server/internal/middleware"
	"starforge-server/internal/scenario"
	scenarioHandlers "starforge-server/internal/scenario/handlers"
	"starforge-server/internal/schema"
	serverHandlers "starforge-server/internal/server/handlers"
	"starforge-server/internal/share"
	"starforge-server/internal/shared/database"
	"starforge-server/internal/ws"
)

type Routes struct {
	db              *database.DB
	scenarioService *scenario.Service
	registry        *bodytype.Registry
	validator       *schema.Validator
	links           *share.LinkStore
	hub             *ws.Hub
	logger          *slog.Logger
}

func NewRoutes(db *database.DB, scenarioService *scenario.Service, registry *bodytype.Registry, validator *schema.Validator, links *share.LinkStore, hub *ws.Hub, logger *slog.Logger) *Routes {
	return &Routes{
		db:              db,
		scenarioService: scenarioService,
		registry:        registry,
		validator:       validator,
		links:           links,
		hub:             hub,
		logger:          logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db)
	bodyTypeHandler := bodytypeHandlers.NewBodyTypeHandler(r.registry)
	scenarioHandler := scenarioHandlers.NewScenarioHandler(r.scenarioService)
	nodeHandler := scenarioHandlers.NewNodeHandler(r.scenarioService)
	laneHandler := scenarioHandlers.NewLaneHandler(r.scenarioService)
	exportHandler := exportHandlers.NewExportHandler(r.scenarioService, r.registry, r.validator)
	shareHandler := exportHandlers.NewShareHandler(r.scenarioService, r.links)

	// Public endpoints
	mux.Handle("/api/server/health", healthHandler)
	mux.HandleFunc("/api/body-types", bodyTypeHandler.GetCatalog)

	// Session-scoped endpoints; the middleware mints the session cookie
	// on first contact.
	session := func(h http.HandlerFunc) http.Handler {
		return middleware.Session(h)
	}

	mux.Handle("/api/scenario", session(scenarioHandler.Root))
	mux.Handle("/api/scenario/settings", session(scenarioHandler.UpdateSettings))
	mux.Handle("/api/scenario/warnings", session(scenarioHandler.GetWarnings))
	mux.Handle("/api/scenario/team-options", session(scenarioHandler.GetTeamOptions))
	mux.Handle("/api/scenario/import", session(shareHandler.Import))

	mux.Handle("/api/scenario/nodes", session(nodeHandler.Create))
	mux.Handle("/api/scenario/nodes/{id}", session(nodeHandler.ByID))

	mux.Handle("/api/scenario/lanes", session(laneHandler.Create))
	mux.Handle("/api/scenario/lanes/{id}", session(laneHandler.Delete))

	mux.Handle("/api/export", session(exportHandler.Download))
	mux.Handle("/api/share", session(shareHandler.Create))
	mux.Handle("/api/share/{id}", session(shareHandler.Resolve))

	mux.Handle("/ws/warnings", middleware.Session(r.hub))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/body-types"},
		"session_endpoints", []string{"/api/scenario", "/api/scenario/nodes", "/api/scenario/lanes", "/api/export", "/api/share"},
		"stream_endpoints", []string{"/ws/warnings"},
	)

	return mux
}
