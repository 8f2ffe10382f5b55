package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/roundrobin/backend/internal/calendar"
	"github.com/roundrobin/backend/internal/models"
	"github.com/roundrobin/backend/internal/secrets"
)

const DefaultRefreshThreshold = 5 * time.Minute

// SyncStore is the persistence contract for calendar sync rows. The
// not-found cases are reported by the boolean, not an error.
// UpdateSyncTokens is a compare-and-swap on the previous expiry so two
// service instances racing a refresh commit at most one result.
type SyncStore interface {
	SyncByUser(ctx context.Context, userID string) (models.CalendarSync, bool, error)
	SyncByID(ctx context.Context, id string) (models.CalendarSync, bool, error)
	LatestEnabledSync(ctx context.Context) (models.CalendarSync, bool, error)
	UpdateSyncTokens(ctx context.Context, id, accessEnc, refreshEnc string, expiresAt, prevExpiresAt time.Time) (bool, error)
	MarkSyncError(ctx context.Context, id, message string) error
	MarkSynced(ctx context.Context, id string) error
}

// Session is a resolved, decrypted, refreshed-if-needed calendar
// binding for one operation. Shared reports that the user had no
// calendar of their own and the system-wide fallback sync was used.
type Session struct {
	SyncID      string
	UserID      string
	Shared      bool
	ProviderTag string
	Provider    calendar.Provider
	Credentials calendar.Credentials
}

// TokenManager resolves sync rows, decrypts tokens, and refreshes
// about-to-expire credentials. Concurrent refreshes of the same sync
// are collapsed to a single provider call.
type TokenManager struct {
	Store            SyncStore
	Registry         *calendar.Registry
	Cipher           *secrets.Cipher
	RefreshThreshold time.Duration
	Logger           zerolog.Logger
	Now              func() time.Time

	refreshGroup singleflight.Group
}

func (m *TokenManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *TokenManager) threshold() time.Duration {
	if m.RefreshThreshold > 0 {
		return m.RefreshThreshold
	}
	return DefaultRefreshThreshold
}

// Session resolves credentials for a user, falling back to the most
// recently connected sync-enabled calendar when the user has none.
func (m *TokenManager) Session(ctx context.Context, userID string) (Session, error) {
	sync, shared, err := m.resolveSync(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	if !sync.SyncEnabled {
		return Session{}, &AuthError{Err: fmt.Errorf("calendar sync %s is disabled", sync.ID)}
	}

	provider, err := m.Registry.Provider(sync.Provider)
	if err != nil {
		return Session{}, err
	}

	creds, err := m.credentials(ctx, sync, provider)
	if err != nil {
		return Session{}, err
	}

	if shared {
		m.Logger.Debug().
			Str("user_id", userID).
			Str("sync_id", sync.ID).
			Str("sync_email", sync.Email).
			Msg("using shared calendar fallback")
	}
	return Session{
		SyncID:      sync.ID,
		UserID:      userID,
		Shared:      shared,
		ProviderTag: sync.Provider,
		Provider:    provider,
		Credentials: creds,
	}, nil
}

func (m *TokenManager) resolveSync(ctx context.Context, userID string) (models.CalendarSync, bool, error) {
	sync, found, err := m.Store.SyncByUser(ctx, userID)
	if err != nil {
		return models.CalendarSync{}, false, err
	}
	if found {
		return sync, false, nil
	}
	sync, found, err = m.Store.LatestEnabledSync(ctx)
	if err != nil {
		return models.CalendarSync{}, false, err
	}
	if !found {
		return models.CalendarSync{}, false, ErrNoCalendar
	}
	return sync, true, nil
}

func (m *TokenManager) credentials(ctx context.Context, sync models.CalendarSync, provider calendar.Provider) (calendar.Credentials, error) {
	if m.now().Before(sync.ExpiresAt.Add(-m.threshold())) {
		return m.decrypt(sync)
	}

	v, err, _ := m.refreshGroup.Do(sync.ID, func() (any, error) {
		return m.refresh(ctx, sync.ID, provider)
	})
	if err != nil {
		return calendar.Credentials{}, err
	}
	return v.(calendar.Credentials), nil
}

// refresh re-reads the sync row first: a caller that raced in after a
// completed refresh must not trigger a second provider call.
func (m *TokenManager) refresh(ctx context.Context, syncID string, provider calendar.Provider) (calendar.Credentials, error) {
	sync, found, err := m.Store.SyncByID(ctx, syncID)
	if err != nil {
		return calendar.Credentials{}, err
	}
	if !found {
		return calendar.Credentials{}, ErrNoCalendar
	}
	if m.now().Before(sync.ExpiresAt.Add(-m.threshold())) {
		return m.decrypt(sync)
	}

	creds, err := m.decrypt(sync)
	if err != nil {
		return calendar.Credentials{}, err
	}

	m.Logger.Info().Str("sync_id", sync.ID).Str("provider", sync.Provider).Msg("refreshing calendar token")
	tok, err := provider.RefreshToken(ctx, creds.RefreshToken)
	if err != nil {
		m.RecordError(ctx, sync.ID, err)
		return calendar.Credentials{}, &AuthError{Err: err}
	}

	expiresAt := m.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	accessEnc, err := m.Cipher.Encrypt(tok.AccessToken)
	if err != nil {
		return calendar.Credentials{}, err
	}
	refreshEnc, err := m.Cipher.Encrypt(tok.RefreshToken)
	if err != nil {
		return calendar.Credentials{}, err
	}

	swapped, err := m.Store.UpdateSyncTokens(ctx, sync.ID, accessEnc, refreshEnc, expiresAt, sync.ExpiresAt)
	if err != nil {
		return calendar.Credentials{}, err
	}
	if !swapped {
		// Another instance won the refresh; use its result.
		current, found, err := m.Store.SyncByID(ctx, sync.ID)
		if err != nil {
			return calendar.Credentials{}, err
		}
		if !found {
			return calendar.Credentials{}, ErrNoCalendar
		}
		return m.decrypt(current)
	}

	return calendar.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

func (m *TokenManager) decrypt(sync models.CalendarSync) (calendar.Credentials, error) {
	access, err := m.Cipher.Decrypt(sync.AccessToken)
	if err != nil {
		return calendar.Credentials{}, fmt.Errorf("sync %s access token: %w", sync.ID, err)
	}
	refresh, err := m.Cipher.Decrypt(sync.RefreshToken)
	if err != nil {
		return calendar.Credentials{}, fmt.Errorf("sync %s refresh token: %w", sync.ID, err)
	}
	return calendar.Credentials{AccessToken: access, RefreshToken: refresh, ExpiresAt: sync.ExpiresAt}, nil
}

// RecordError writes lastError on the sync row. Best-effort: a failure
// to record is logged and never masks the original error.
func (m *TokenManager) RecordError(ctx context.Context, syncID string, opErr error) {
	if err := m.Store.MarkSyncError(ctx, syncID, opErr.Error()); err != nil {
		m.Logger.Warn().Err(err).Str("sync_id", syncID).Msg("failed to record sync error")
	}
}

// MarkSynced stamps lastSyncAt and clears lastError after a successful
// calendar operation. Best-effort.
func (m *TokenManager) MarkSynced(ctx context.Context, syncID string) {
	if err := m.Store.MarkSynced(ctx, syncID); err != nil {
		m.Logger.Warn().Err(err).Str("sync_id", syncID).Msg("failed to update sync timestamp")
	}
}
