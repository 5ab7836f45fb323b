package share

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"starforge-server/internal/bodytype"
	"starforge-server/internal/scenario"
)

func intPtr(v int) *int { return &v }

func sampleSnapshot() scenario.Snapshot {
	return scenario.Snapshot{
		Version:  scenario.SnapshotVersion,
		Settings: scenario.DefaultSettings(2),
		Nodes: []scenario.Node{
			{ID: 1, BodyTypeID: "yellow_star", InitialCategory: bodytype.CategoryStar},
			{ID: 2, BodyTypeID: "terran", InitialCategory: bodytype.CategoryPlanet, ParentStarID: intPtr(1)},
		},
		Lanes: []scenario.Lane{
			{ID: 1, NodeA: 1, NodeB: 2, Type: scenario.LaneNormal},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	snap := sampleSnapshot()
	token, err := Encode(snap)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if strings.ContainsAny(token, "+/=") {
		t.Errorf("token %q is not URL-safe", token)
	}

	got, err := Decode(token)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Lanes) != 1 {
		t.Errorf("round trip lost content: %d nodes, %d lanes", len(got.Nodes), len(got.Lanes))
	}
	if got.Version != scenario.SnapshotVersion {
		t.Errorf("round trip version = %d, want %d", got.Version, scenario.SnapshotVersion)
	}
}

func TestDecodeLegacyToken(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(sampleSnapshot())
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	legacy := base64.StdEncoding.EncodeToString(payload)

	got, err := Decode(legacy)
	if err != nil {
		t.Fatalf("legacy token rejected: %v", err)
	}
	if len(got.Nodes) != 2 {
		t.Errorf("legacy decode lost nodes: %d", len(got.Nodes))
	}
}

func TestDecodeGarbage(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "!!!", "not-a-token", base64.StdEncoding.EncodeToString([]byte("plain text"))} {
		if _, err := Decode(token); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", token)
		}
	}
}

func testLinkStore() *LinkStore {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLinkStore(nil, time.Hour, logger)
}

func TestLinkStoreMemoryFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := testLinkStore()

	id, err := store.Put(ctx, "token-value")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if id == "" {
		t.Fatal("Put returned an empty id")
	}

	token, err := store.Resolve(ctx, id)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if token != "token-value" {
		t.Errorf("resolved token = %q, want token-value", token)
	}

	if _, err := store.Resolve(ctx, "unknown"); err != ErrLinkNotFound {
		t.Errorf("unknown id error = %v, want %v", err, ErrLinkNotFound)
	}
}

func TestLinkStoreExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewLinkStore(nil, -time.Second, logger)

	id, err := store.Put(ctx, "stale")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if _, err := store.Resolve(ctx, id); err != ErrLinkNotFound {
		t.Errorf("expired link error = %v, want %v", err, ErrLinkNotFound)
	}
}
