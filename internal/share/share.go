package share

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"starforge-server/internal/scenario"
)

// Encode serializes a snapshot into a URL-safe share token: JSON,
// deflate-compressed, base64 URL alphabet without padding.
func Encode(snap scenario.Snapshot) (string, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to initialize compressor: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to compress snapshot: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode parses a share token. Compressed tokens are tried first; tokens
// minted before compression was introduced are plain base64 JSON, so
// decoding falls back to that before giving up.
func Decode(token string) (scenario.Snapshot, error) {
	if snap, err := decodeCompressed(token); err == nil {
		return snap, nil
	}
	if snap, err := decodeLegacy(token); err == nil {
		return snap, nil
	}
	return scenario.Snapshot{}, fmt.Errorf("share token is not decodable")
}

func decodeCompressed(token string) (scenario.Snapshot, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return scenario.Snapshot{}, err
	}

	r := flate.NewReader(bytes.NewReader(raw))
	defer r.Close()

	payload, err := io.ReadAll(io.LimitReader(r, maxSnapshotBytes))
	if err != nil {
		return scenario.Snapshot{}, err
	}

	return decodeSnapshot(payload)
}

func decodeLegacy(token string) (scenario.Snapshot, error) {
	payload, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return scenario.Snapshot{}, err
	}
	return decodeSnapshot(payload)
}

// maxSnapshotBytes bounds decompression so a hostile token cannot
// balloon in memory.
const maxSnapshotBytes = 16 << 20

func decodeSnapshot(payload []byte) (scenario.Snapshot, error) {
	var snap scenario.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return scenario.Snapshot{}, err
	}
	if snap.Version == 0 && snap.Nodes == nil && snap.Lanes == nil {
		return scenario.Snapshot{}, fmt.Errorf("payload is not a snapshot")
	}
	return snap, nil
}
