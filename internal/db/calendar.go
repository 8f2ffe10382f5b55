package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/roundrobin/backend/internal/models"
)

const syncColumns = `id, user_id, provider, email, access_token, refresh_token, expires_at, sync_enabled, last_sync_at, last_error, created_at`

func scanSync(row pgx.Row) (models.CalendarSync, bool, error) {
	var cs models.CalendarSync
	err := row.Scan(&cs.ID, &cs.UserID, &cs.Provider, &cs.Email, &cs.AccessToken, &cs.RefreshToken, &cs.ExpiresAt, &cs.SyncEnabled, &cs.LastSyncAt, &cs.LastError, &cs.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.CalendarSync{}, false, nil
	}
	if err != nil {
		return models.CalendarSync{}, false, err
	}
	return cs, true, nil
}

func (s *Store) SyncByUser(ctx context.Context, userID string) (models.CalendarSync, bool, error) {
	return scanSync(s.Pool.QueryRow(ctx, `
		SELECT `+syncColumns+` FROM calendar_syncs
		WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, userID))
}

func (s *Store) SyncByID(ctx context.Context, id string) (models.CalendarSync, bool, error) {
	return scanSync(s.Pool.QueryRow(ctx, `
		SELECT `+syncColumns+` FROM calendar_syncs WHERE id = $1
	`, id))
}

func (s *Store) LatestEnabledSync(ctx context.Context) (models.CalendarSync, bool, error) {
	return scanSync(s.Pool.QueryRow(ctx, `
		SELECT `+syncColumns+` FROM calendar_syncs
		WHERE sync_enabled
		ORDER BY created_at DESC LIMIT 1
	`))
}

func (s *Store) InsertSync(ctx context.Context, cs models.CalendarSync) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO calendar_syncs (id, user_id, provider, email, access_token, refresh_token, expires_at, sync_enabled, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, cs.ID, cs.UserID, cs.Provider, cs.Email, cs.AccessToken, cs.RefreshToken, cs.ExpiresAt, cs.SyncEnabled, cs.CreatedAt)
	return err
}

// UpdateSyncTokens commits refreshed tokens only when the row still
// carries the expiry the refresher started from. Returns false when
// another instance won the race.
func (s *Store) UpdateSyncTokens(ctx context.Context, id, accessEnc, refreshEnc string, expiresAt, prevExpiresAt time.Time) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE calendar_syncs
		SET access_token = $1, refresh_token = $2, expires_at = $3, last_error = NULL
		WHERE id = $4 AND expires_at = $5
	`, accessEnc, refreshEnc, expiresAt, id, prevExpiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) MarkSyncError(ctx context.Context, id, message string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE calendar_syncs SET last_error = $1 WHERE id = $2
	`, message, id)
	return err
}

func (s *Store) MarkSynced(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE calendar_syncs SET last_sync_at = NOW(), last_error = NULL WHERE id = $1
	`, id)
	return err
}
