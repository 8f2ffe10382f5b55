package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleProvider talks to the Google Calendar v3 API on the primary
// calendar of the connected account.
type GoogleProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	MaxRetries   int

	retryInterval time.Duration
}

func (g *GoogleProvider) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarScope},
	}
}

// Token refresh is managed by the token lifecycle layer, so the service
// is built on a static token source that never refreshes on its own.
func (g *GoogleProvider) service(ctx context.Context, creds Credentials) (*gcal.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("google calendar client: %w", err)
	}
	return svc, nil
}

func (g *GoogleProvider) GetEvents(ctx context.Context, creds Credentials, start, end time.Time) ([]Event, error) {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return nil, err
	}

	var items []*gcal.Event
	err = retryTransient(ctx, g.MaxRetries, g.retryInterval, func() error {
		resp, err := svc.Events.List("primary").
			TimeMin(start.Format(time.RFC3339)).
			TimeMax(end.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx).
			Do()
		if err != nil {
			return classifyGoogleError(err)
		}
		items = resp.Items
		return nil
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(items))
	for _, item := range items {
		ev, err := fromGoogleEvent(item)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *GoogleProvider) CreateEvent(ctx context.Context, creds Credentials, draft EventDraft) (Event, error) {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return Event{}, err
	}

	attendees := make([]*gcal.EventAttendee, 0, len(draft.Attendees))
	for _, email := range draft.Attendees {
		attendees = append(attendees, &gcal.EventAttendee{Email: email})
	}

	body := &gcal.Event{
		Summary:     draft.Summary,
		Description: draft.Description,
		Location:    draft.Location,
		Start:       &gcal.EventDateTime{DateTime: draft.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: draft.End.Format(time.RFC3339)},
		Attendees:   attendees,
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}
	if draft.RequestConference {
		body.ConferenceData = &gcal.ConferenceData{
			CreateRequest: &gcal.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &gcal.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	var created *gcal.Event
	err = retryTransient(ctx, g.MaxRetries, g.retryInterval, func() error {
		resp, err := svc.Events.Insert("primary", body).ConferenceDataVersion(1).Context(ctx).Do()
		if err != nil {
			return classifyGoogleError(err)
		}
		created = resp
		return nil
	})
	if err != nil {
		return Event{}, err
	}
	return fromGoogleEvent(created)
}

func (g *GoogleProvider) DeleteEvent(ctx context.Context, creds Credentials, eventID string) error {
	svc, err := g.service(ctx, creds)
	if err != nil {
		return err
	}
	return retryTransient(ctx, g.MaxRetries, g.retryInterval, func() error {
		if err := svc.Events.Delete("primary", eventID).Context(ctx).Do(); err != nil {
			return classifyGoogleError(err)
		}
		return nil
	})
}

func (g *GoogleProvider) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	ts := g.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil && re.Response.StatusCode < http.StatusInternalServerError {
			return TokenResponse{}, fmt.Errorf("%w: %v", ErrAuth, err)
		}
		return TokenResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	expiresIn := int(time.Until(tok.Expiry).Seconds())
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	return TokenResponse{AccessToken: tok.AccessToken, RefreshToken: newRefresh, ExpiresIn: expiresIn}, nil
}

func fromGoogleEvent(item *gcal.Event) (Event, error) {
	start, err := parseGoogleTime(item.Start)
	if err != nil {
		return Event{}, err
	}
	end, err := parseGoogleTime(item.End)
	if err != nil {
		return Event{}, err
	}
	attendees := make([]string, 0, len(item.Attendees))
	for _, a := range item.Attendees {
		if a.Email != "" {
			attendees = append(attendees, a.Email)
		}
	}
	return Event{
		ID:             item.Id,
		Summary:        item.Summary,
		Description:    item.Description,
		Start:          start,
		End:            end,
		Attendees:      attendees,
		Location:       item.Location,
		ConferenceLink: item.HangoutLink,
	}, nil
}

// parseGoogleTime handles both timed events (DateTime) and all-day
// events (Date only).
func parseGoogleTime(edt *gcal.EventDateTime) (time.Time, error) {
	if edt == nil {
		return time.Time{}, errors.New("event without start or end")
	}
	if edt.DateTime != "" {
		return time.Parse(time.RFC3339, edt.DateTime)
	}
	return time.Parse("2006-01-02", edt.Date)
}

func classifyGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrAuth, err))
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		default:
			return backoff.Permanent(err)
		}
	}
	// Network-level failure, assume transient.
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
