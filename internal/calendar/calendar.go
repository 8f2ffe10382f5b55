// Package calendar defines the uniform contract over vendor calendar
// APIs and the pure availability slot arithmetic.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrAuth marks credentials the vendor rejected. It is fatal for the
// in-flight operation; callers never continue with stale tokens.
var ErrAuth = errors.New("calendar credentials rejected")

// ErrUnavailable marks a vendor or network failure that survived the
// bounded retry.
var ErrUnavailable = errors.New("calendar provider unavailable")

type Event struct {
	ID             string    `json:"id"`
	Summary        string    `json:"summary"`
	Description    string    `json:"description"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Attendees      []string  `json:"attendees"`
	Location       string    `json:"location"`
	ConferenceLink string    `json:"conference_link"`
}

type EventDraft struct {
	Summary           string
	Description       string
	Start             time.Time
	End               time.Time
	Attendees         []string
	Location          string
	RequestConference bool
}

type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type TokenResponse struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Provider is the capability set every vendor adapter implements.
// One concrete adapter per vendor; selection happens by the provider
// tag stored on the sync row, never by type inspection.
type Provider interface {
	GetEvents(ctx context.Context, creds Credentials, start, end time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, creds Credentials, draft EventDraft) (Event, error)
	DeleteEvent(ctx context.Context, creds Credentials, eventID string) error
	RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error)
}

type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

func (r *Registry) Register(tag string, p Provider) {
	r.providers[tag] = p
}

func (r *Registry) Provider(tag string) (Provider, error) {
	p, ok := r.providers[tag]
	if !ok {
		return nil, fmt.Errorf("unknown calendar provider %q", tag)
	}
	return p, nil
}
