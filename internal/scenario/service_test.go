package scenario

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"starforge-server/internal/bodytype"
	apperrors "starforge-server/internal/shared/errors"
)

type memoryStore struct {
	mu       sync.Mutex
	versions map[string]int
	payloads map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		versions: make(map[string]int),
		payloads: make(map[string][]byte),
	}
}

func (s *memoryStore) Save(_ context.Context, sessionID string, version int, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.versions[sessionID] = version
	s.payloads[sessionID] = append([]byte(nil), payload...)
	return nil
}

func (s *memoryStore) Load(_ context.Context, sessionID string) (int, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.payloads[sessionID]
	if !ok {
		return 0, nil, ErrSnapshotNotFound
	}
	return s.versions[sessionID], payload, nil
}

func (s *memoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, sessionID)
	delete(s.payloads, sessionID)
	return nil
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls [][]Warning
}

func (n *recordingNotifier) NotifyWarnings(_ string, warnings []Warning) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, warnings)
}

func newTestService(t *testing.T, store SnapshotStore) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(bodytype.NewRegistry(), testLimits(), DefaultSettings(2), store, logger)
}

func TestServiceSessionRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(t, store)

	star, _, err := svc.AddNode(ctx, "session-a", "yellow_star", nil)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if _, _, err := svc.AddNode(ctx, "session-a", "terran", &star.ID); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	// A second service over the same store restores the session.
	restored := newTestService(t, store)
	state := restored.View(ctx, "session-a")
	if len(state.Nodes) != 2 {
		t.Fatalf("restored node count = %d, want 2", len(state.Nodes))
	}

	if store.versions["session-a"] != SnapshotVersion {
		t.Errorf("stored version = %d, want %d", store.versions["session-a"], SnapshotVersion)
	}
}

func TestServiceVersionMismatchDiscards(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(t, store)

	if _, _, err := svc.AddNode(ctx, "stale", "yellow_star", nil); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	store.versions["stale"] = SnapshotVersion - 1

	restored := newTestService(t, store)
	state := restored.View(ctx, "stale")
	if len(state.Nodes) != 0 {
		t.Errorf("mismatched snapshot was not discarded: %d nodes", len(state.Nodes))
	}
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newMemoryStore())

	if _, _, err := svc.AddNode(ctx, "left", "yellow_star", nil); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if got := svc.View(ctx, "right"); len(got.Nodes) != 0 {
		t.Errorf("fresh session sees %d nodes, want 0", len(got.Nodes))
	}
}

func TestServiceNotifiesAfterMutations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newMemoryStore())
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	star, _, err := svc.AddNode(ctx, "s", "yellow_star", nil)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if _, _, err := svc.AddNode(ctx, "s", "terran", &star.ID); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.calls) != 2 {
		t.Fatalf("notifier calls = %d, want 2", len(notifier.calls))
	}
	// The planet is parented but not lane-linked yet, so the second push
	// carries the reachability warning.
	last := notifier.calls[len(notifier.calls)-1]
	if countCategory(last, WarningReachability) != 1 {
		t.Errorf("last push warnings = %+v, want one reachability entry", last)
	}
}

func TestServiceUpdateNodeAtomicPatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newMemoryStore())

	star, _, err := svc.AddNode(ctx, "s", "yellow_star", nil)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	planet, _, err := svc.AddNode(ctx, "s", "terran", &star.ID)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	// Position is valid, ownership is not; nothing may apply.
	pos := Position{X: 10, Y: 20}
	bad := PlayerOwned(9)
	_, _, err = svc.UpdateNode(ctx, "s", planet.ID, NodePatch{
		Position:  &pos,
		Ownership: &bad,
	})
	if err == nil {
		t.Fatal("patch with invalid ownership succeeded")
	}
	if apperrors.GetType(err) != apperrors.ErrorTypeValidation {
		t.Errorf("error type = %v, want validation", apperrors.GetType(err))
	}

	state := svc.View(ctx, "s")
	for _, n := range state.Nodes {
		if n.ID == planet.ID && n.Position == pos {
			t.Error("rejected patch partially applied the position")
		}
	}
}

func TestServiceErrorMapping(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newMemoryStore())

	_, _, err := svc.AddNode(ctx, "s", "moon", nil)
	if apperrors.GetType(err) != apperrors.ErrorTypeValidation {
		t.Errorf("missing parent error type = %v, want validation", apperrors.GetType(err))
	}

	_, err = svc.RemoveLane(ctx, "s", 99)
	if apperrors.GetType(err) != apperrors.ErrorTypeNotFound {
		t.Errorf("missing lane error type = %v, want not_found", apperrors.GetType(err))
	}

	for i := 0; i < testLimits().MaxStars; i++ {
		if _, _, err := svc.AddNode(ctx, "s", "yellow_star", nil); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	_, _, err = svc.AddNode(ctx, "s", "yellow_star", nil)
	if apperrors.GetType(err) != apperrors.ErrorTypeLimitExceeded {
		t.Errorf("star limit error type = %v, want limit_exceeded", apperrors.GetType(err))
	}
}

func TestServiceReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemoryStore()
	svc := newTestService(t, store)

	if _, _, err := svc.AddNode(ctx, "s", "yellow_star", nil); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	state := svc.Reset(ctx, "s")
	if len(state.Nodes) != 0 {
		t.Errorf("reset state has %d nodes, want 0", len(state.Nodes))
	}

	if _, ok := store.payloads["s"]; ok {
		t.Error("stored snapshot survived the reset")
	}

	// A later restore must come up empty, not replay the old scenario.
	restored := newTestService(t, store)
	if got := restored.View(ctx, "s"); len(got.Nodes) != 0 {
		t.Errorf("restored session after reset has %d nodes, want 0", len(got.Nodes))
	}
}

func TestServiceImportSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, newMemoryStore())

	snap := Snapshot{
		Version:  SnapshotVersion,
		Settings: DefaultSettings(2),
		Nodes: []Node{
			{ID: 1, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar},
		},
	}

	state, err := svc.ImportSnapshot(ctx, "s", snap)
	if err != nil {
		t.Fatalf("ImportSnapshot failed: %v", err)
	}
	if len(state.Nodes) != 1 {
		t.Errorf("imported node count = %d, want 1", len(state.Nodes))
	}

	snap.Version = SnapshotVersion + 1
	if _, err := svc.ImportSnapshot(ctx, "s", snap); err == nil {
		t.Error("import with wrong version succeeded")
	}
}
