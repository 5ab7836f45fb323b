package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"starforge-server/internal/scenario"
	"starforge-server/internal/shared/database"
)

// Repository stores one versioned snapshot per session in the local
// sqlite database. It implements scenario.SnapshotStore.
type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing snapshot repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) Save(ctx context.Context, sessionID string, version int, payload []byte) error {
	logger := r.logger.With(
		"component", "snapshot_repository",
		"operation", "save",
		"session_id", sessionID,
		"version", version,
	)
	logger.Debug("Saving snapshot")

	query := `
		INSERT INTO snapshots (session_id, version, payload, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`

	if _, err := r.db.ExecContext(ctx, query, sessionID, version, payload); err != nil {
		logger.Error("Failed to save snapshot", "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	logger.Debug("Snapshot saved successfully", "payload_bytes", len(payload))
	return nil
}

func (r *Repository) Load(ctx context.Context, sessionID string) (int, []byte, error) {
	logger := r.logger.With(
		"component", "snapshot_repository",
		"operation", "load",
		"session_id", sessionID,
	)
	logger.Debug("Loading snapshot")

	query := `
		SELECT version, payload
		FROM snapshots
		WHERE session_id = ?
	`

	var (
		version int
		payload []byte
	)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil, scenario.ErrSnapshotNotFound
	}
	if err != nil {
		logger.Error("Failed to load snapshot", "error", err)
		return 0, nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	logger.Debug("Snapshot loaded successfully", "version", version, "payload_bytes", len(payload))
	return version, payload, nil
}

// Delete removes a session's stored snapshot. Missing rows are not an
// error.
func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	logger := r.logger.With(
		"component", "snapshot_repository",
		"operation", "delete",
		"session_id", sessionID,
	)
	logger.Debug("Deleting snapshot")

	if _, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		logger.Error("Failed to delete snapshot", "error", err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
