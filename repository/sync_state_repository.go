// ABOUTME: PostgreSQL implementation of SyncStateRepository interface
// ABOUTME: Keeps the last continuation token and sync time per Feedly stream

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"feedly-sync/models"
)

// PostgreSQLSyncStateRepository implements SyncStateRepository using PostgreSQL
type PostgreSQLSyncStateRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgreSQLSyncStateRepository creates a new PostgreSQL sync state repository
func NewPostgreSQLSyncStateRepository(db *sql.DB, logger *slog.Logger) *PostgreSQLSyncStateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgreSQLSyncStateRepository{
		db:     db,
		logger: logger,
	}
}

// FindByStreamID finds the sync state of a stream
func (r *PostgreSQLSyncStateRepository) FindByStreamID(ctx context.Context, streamID string) (*models.SyncState, error) {
	query := `
		SELECT id, stream_id, continuation_token, last_sync, pending_since
		FROM sync_state
		WHERE stream_id = $1`

	state, err := r.scanOne(r.db.QueryRowContext(ctx, query, streamID))
	if err != nil {
		if errors.Is(err, ErrSyncStateNotFound) {
			return nil, fmt.Errorf("%w for stream_id: %s", ErrSyncStateNotFound, streamID)
		}
		return nil, fmt.Errorf("failed to find sync state by stream_id: %w", err)
	}
	return state, nil
}

// GetOldestOne returns the stream that was synced longest ago
func (r *PostgreSQLSyncStateRepository) GetOldestOne(ctx context.Context) (*models.SyncState, error) {
	query := `
		SELECT id, stream_id, continuation_token, last_sync, pending_since
		FROM sync_state
		ORDER BY last_sync ASC
		LIMIT 1`

	state, err := r.scanOne(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, ErrSyncStateNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get oldest sync state: %w", err)
	}
	return state, nil
}

// GetAll retrieves all sync states, most recently synced first
func (r *PostgreSQLSyncStateRepository) GetAll(ctx context.Context) ([]*models.SyncState, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, stream_id, continuation_token, last_sync, pending_since
		FROM sync_state
		ORDER BY last_sync DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer rows.Close()

	var states []*models.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync states: %w", err)
	}
	return states, nil
}

// Upsert creates or replaces the sync state of a stream
func (r *PostgreSQLSyncStateRepository) Upsert(ctx context.Context, syncState *models.SyncState) error {
	query := `
		INSERT INTO sync_state (id, stream_id, continuation_token, last_sync, pending_since)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stream_id) DO UPDATE SET
			continuation_token = EXCLUDED.continuation_token,
			last_sync = EXCLUDED.last_sync,
			pending_since = EXCLUDED.pending_since`

	_, err := r.db.ExecContext(ctx, query,
		syncState.ID,
		syncState.StreamID,
		syncState.ContinuationToken,
		syncState.LastSync,
		sql.NullTime{Time: syncState.PendingSince, Valid: !syncState.PendingSince.IsZero()},
	)
	if err != nil {
		r.logger.Error("Failed to upsert sync state",
			"stream_id", syncState.StreamID,
			"error", err)
		return fmt.Errorf("failed to upsert sync state: %w", err)
	}

	r.logger.Debug("Saved sync state",
		"stream_id", syncState.StreamID,
		"has_continuation", syncState.ContinuationToken != "")
	return nil
}

// DeleteByStreamID forgets a stream
func (r *PostgreSQLSyncStateRepository) DeleteByStreamID(ctx context.Context, streamID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sync_state WHERE stream_id = $1`, streamID)
	if err != nil {
		return fmt.Errorf("failed to delete sync state: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w for stream_id: %s", ErrSyncStateNotFound, streamID)
	}
	return nil
}

func (r *PostgreSQLSyncStateRepository) scanOne(row *sql.Row) (*models.SyncState, error) {
	state, err := scanSyncState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSyncStateNotFound
		}
		return nil, err
	}
	return state, nil
}

func scanSyncState(row interface{ Scan(dest ...any) error }) (*models.SyncState, error) {
	var s models.SyncState
	var pendingSince sql.NullTime
	if err := row.Scan(&s.ID, &s.StreamID, &s.ContinuationToken, &s.LastSync, &pendingSince); err != nil {
		return nil, err
	}
	if pendingSince.Valid {
		s.PendingSince = pendingSince.Time
	}
	return &s, nil
}
