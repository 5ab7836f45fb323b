package scenario

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"starforge-server/internal/bodytype"
	apperrors "starforge-server/internal/shared/errors"
)

// SnapshotStore persists one versioned snapshot per session.
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, version int, payload []byte) error
	Load(ctx context.Context, sessionID string) (int, []byte, error)
	Delete(ctx context.Context, sessionID string) error
}

// WarningNotifier receives the recomputed warning list after every
// mutation; the websocket layer implements it.
type WarningNotifier interface {
	NotifyWarnings(sessionID string, warnings []Warning)
}

// Service owns the live editor sessions. Each session holds one scenario
// graph; mutations serialize on the session lock, and the warning list is
// recomputed inside the same critical section so no torn state is ever
// observable.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session

	registry *bodytype.Registry
	limits   Limits
	defaults Settings
	store    SnapshotStore
	notifier WarningNotifier
	logger   *slog.Logger
}

type session struct {
	mu       sync.Mutex
	graph    *Graph
	settings Settings
	warnings []Warning
}

func NewService(registry *bodytype.Registry, limits Limits, defaults Settings, store SnapshotStore, logger *slog.Logger) *Service {
	logger.Debug("Initializing scenario service")

	return &Service{
		sessions: make(map[string]*session),
		registry: registry,
		limits:   limits,
		store:    store,
		logger:   logger,
		defaults: defaults,
	}
}

// SetNotifier attaches the warning push channel. Optional; nil means no
// push, clients poll instead.
func (s *Service) SetNotifier(n WarningNotifier) {
	s.notifier = n
}

// StateView is what every mutation endpoint answers with: the full
// scenario plus the freshly recomputed warnings, so the canvas never
// needs a second round trip.
type StateView struct {
	Settings         Settings  `json:"settings"`
	Nodes            []Node    `json:"nodes"`
	Lanes            []Lane    `json:"lanes"`
	Warnings         []Warning `json:"warnings"`
	TeamCountOptions []int     `json:"team_count_options"`
}

// NodePatch is a partial node update; nil fields are left untouched.
type NodePatch struct {
	Position     *Position      `json:"position,omitempty"`
	Rotation     *float64       `json:"rotation,omitempty"`
	BodyTypeID   *string        `json:"body_type_id,omitempty"`
	ParentStarID *int           `json:"parent_star_id,omitempty"`
	Ownership    *Ownership     `json:"ownership,omitempty"`
	Loot         *LootPatch     `json:"loot,omitempty"`
	Artifact     *ArtifactPatch `json:"artifact,omitempty"`
}

type LootPatch struct {
	Chance float64 `json:"chance"`
	Level  int     `json:"level"`
}

type ArtifactPatch struct {
	HasArtifact bool   `json:"has_artifact"`
	Name        string `json:"name"`
}

// session loads or creates the session for an id. A stored snapshot with
// a version mismatch is discarded rather than migrated.
func (s *Service) session(ctx context.Context, sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}

	logger := s.logger.With("component", "scenario_service", "operation", "open_session", "session_id", sessionID)

	sess := &session{
		graph:    NewGraph(s.registry, s.limits),
		settings: s.defaults,
	}

	if s.store != nil {
		version, payload, err := s.store.Load(ctx, sessionID)
		switch {
		case errors.Is(err, ErrSnapshotNotFound):
			logger.Debug("No stored snapshot, starting fresh")
		case err != nil:
			logger.Warn("Failed to load stored snapshot, starting fresh", "error", err)
		case version != SnapshotVersion:
			logger.Info("Discarding stored snapshot with mismatched version",
				"stored_version", version, "current_version", SnapshotVersion)
		default:
			var snap Snapshot
			if err := json.Unmarshal(payload, &snap); err != nil {
				logger.Warn("Failed to decode stored snapshot, starting fresh", "error", err)
			} else {
				sess.graph = FromSnapshot(s.registry, s.limits, snap)
				sess.settings = snap.Settings
				logger.Debug("Session restored from snapshot",
					"nodes", len(snap.Nodes), "lanes", len(snap.Lanes))
			}
		}
	}

	sess.warnings = ComputeWarnings(sess.graph.Snapshot(sess.settings), s.registry, s.limits)

	s.sessions[sessionID] = sess
	return sess
}

// settle recomputes warnings, persists the snapshot, and pushes the
// warning list. Must be called with the session lock held after every
// successful mutation.
func (s *Service) settle(ctx context.Context, sessionID string, sess *session) {
	snap := sess.graph.Snapshot(sess.settings)
	sess.warnings = ComputeWarnings(snap, s.registry, s.limits)

	if s.store != nil {
		payload, err := json.Marshal(snap)
		if err != nil {
			s.logger.Error("Failed to encode snapshot", "error", err, "session_id", sessionID)
		} else if err := s.store.Save(ctx, sessionID, SnapshotVersion, payload); err != nil {
			// Persistence is best effort; editing continues on failure.
			s.logger.Warn("Failed to persist snapshot", "error", err, "session_id", sessionID)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyWarnings(sessionID, sess.warnings)
	}
}

func (s *Service) view(sess *session) StateView {
	return StateView{
		Settings:         sess.settings,
		Nodes:            sess.graph.Nodes(),
		Lanes:            sess.graph.Lanes(),
		Warnings:         sess.warnings,
		TeamCountOptions: TeamCountOptions(sess.settings.PlayerCount),
	}
}

// View returns the current scenario state without mutating anything.
func (s *Service) View(ctx context.Context, sessionID string) StateView {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.view(sess)
}

// Warnings returns the current warning list.
func (s *Service) Warnings(ctx context.Context, sessionID string) []Warning {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.warnings
}

// SnapshotPayload returns the serializable scenario state for sharing
// and export.
func (s *Service) SnapshotPayload(ctx context.Context, sessionID string) Snapshot {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.graph.Snapshot(sess.settings)
}

// AddNode places a new node and returns it with the settled state.
func (s *Service) AddNode(ctx context.Context, sessionID, bodyTypeID string, parentStarID *int) (Node, StateView, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	node, err := sess.graph.AddNode(bodyTypeID, parentStarID)
	if err != nil {
		return Node{}, StateView{}, mapError(err)
	}

	s.settle(ctx, sessionID, sess)
	return node, s.view(sess), nil
}

// RemoveNode deletes a node, reassigning a star's dependents when a
// target is supplied.
func (s *Service) RemoveNode(ctx context.Context, sessionID string, nodeID int, reassignTo *int) (StateView, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.graph.RemoveNode(nodeID, reassignTo); err != nil {
		return StateView{}, mapError(err)
	}

	s.settle(ctx, sessionID, sess)
	return s.view(sess), nil
}

// UpdateNode applies a partial node update, field by field; the first
// rejected field aborts the whole patch with nothing applied.
func (s *Service) UpdateNode(ctx context.Context, sessionID string, nodeID int, patch NodePatch) (Node, StateView, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Validate against a scratch copy first so a patch that fails on its
	// second field leaves the graph untouched.
	scratch := FromSnapshot(s.registry, s.limits, sess.graph.Snapshot(sess.settings))
	if err := applyPatch(scratch, nodeID, patch, sess.settings.PlayerCount); err != nil {
		return Node{}, StateView{}, mapError(err)
	}

	if err := applyPatch(sess.graph, nodeID, patch, sess.settings.PlayerCount); err != nil {
		return Node{}, StateView{}, mapError(err)
	}

	node, err := sess.graph.Node(nodeID)
	if err != nil {
		return Node{}, StateView{}, mapError(err)
	}

	s.settle(ctx, sessionID, sess)
	return node, s.view(sess), nil
}

func applyPatch(g *Graph, nodeID int, patch NodePatch, playerCount int) error {
	if patch.BodyTypeID != nil {
		if err := g.SetNodeBodyType(nodeID, *patch.BodyTypeID); err != nil {
			return err
		}
	}
	if patch.Position != nil {
		if err := g.SetNodePosition(nodeID, *patch.Position); err != nil {
			return err
		}
	}
	if patch.Rotation != nil {
		if err := g.SetNodeRotation(nodeID, *patch.Rotation); err != nil {
			return err
		}
	}
	if patch.ParentStarID != nil {
		if err := g.SetNodeParentStar(nodeID, *patch.ParentStarID); err != nil {
			return err
		}
	}
	if patch.Ownership != nil {
		if err := g.SetNodeOwnership(nodeID, *patch.Ownership, playerCount); err != nil {
			return err
		}
	}
	if patch.Loot != nil {
		if err := g.SetNodeLoot(nodeID, patch.Loot.Chance, patch.Loot.Level); err != nil {
			return err
		}
	}
	if patch.Artifact != nil {
		if err := g.SetNodeArtifact(nodeID, patch.Artifact.HasArtifact, patch.Artifact.Name); err != nil {
			return err
		}
	}
	return nil
}

// CreateLane links two nodes.
func (s *Service) CreateLane(ctx context.Context, sessionID string, a, b int, laneType LaneType) (Lane, StateView, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	lane, err := sess.graph.CreateLane(a, b, laneType)
	if err != nil {
		return Lane{}, StateView{}, mapError(err)
	}

	s.settle(ctx, sessionID, sess)
	return lane, s.view(sess), nil
}

// RemoveLane deletes a lane.
func (s *Service) RemoveLane(ctx context.Context, sessionID string, laneID int) (StateView, error) {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := sess.graph.RemoveLane(laneID); err != nil {
		return StateView{}, mapError(err)
	}

	s.settle(ctx, sessionID, sess)
	return s.view(sess), nil
}

// UpdateSettings replaces the scenario settings after validation.
func (s *Service) UpdateSettings(ctx context.Context, sessionID string, settings Settings) (StateView, error) {
	if err := ValidateSettings(settings); err != nil {
		return StateView{}, mapError(err)
	}

	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if settings.Skybox == "" {
		settings.Skybox = DefaultSkybox
	}
	sess.settings = settings

	s.settle(ctx, sessionID, sess)
	return s.view(sess), nil
}

// Reset discards the session's scenario and stored snapshot, returning
// the session to a fresh default state.
func (s *Service) Reset(ctx context.Context, sessionID string) StateView {
	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.graph = NewGraph(s.registry, s.limits)
	sess.settings = s.defaults
	sess.warnings = ComputeWarnings(sess.graph.Snapshot(sess.settings), s.registry, s.limits)

	if s.store != nil {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to delete stored snapshot on reset", "error", err, "session_id", sessionID)
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyWarnings(sessionID, sess.warnings)
	}

	return s.view(sess)
}

// ImportSnapshot replaces the whole session state with a shared snapshot.
func (s *Service) ImportSnapshot(ctx context.Context, sessionID string, snap Snapshot) (StateView, error) {
	if snap.Version != SnapshotVersion {
		return StateView{}, apperrors.Validationf("snapshot version %d is not supported", snap.Version)
	}

	sess := s.session(ctx, sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.graph = FromSnapshot(s.registry, s.limits, snap)
	sess.settings = snap.Settings

	s.settle(ctx, sessionID, sess)
	return s.view(sess), nil
}

// mapError translates graph sentinel errors into the shared taxonomy so
// handlers answer with the right status code.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNodeNotFound), errors.Is(err, ErrLaneNotFound):
		return apperrors.NotFoundf("%s", err.Error())
	case errors.Is(err, ErrStarLimit), errors.Is(err, ErrBodyLimit):
		return apperrors.LimitExceededf("%s", err.Error())
	case errors.Is(err, ErrDuplicateLane),
		errors.Is(err, ErrMultipleStarParents),
		errors.Is(err, ErrPlayerSlotConflict),
		errors.Is(err, ErrReassignmentRequired):
		return apperrors.Conflictf("%s", err.Error())
	default:
		return apperrors.Validationf("%s", err.Error())
	}
}
