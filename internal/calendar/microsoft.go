package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const msGraphScope = "offline_access https://graph.microsoft.com/Calendars.ReadWrite"

// MicrosoftProvider talks to the Microsoft Graph calendar endpoints of
// the connected account's default calendar.
type MicrosoftProvider struct {
	ClientID     string
	ClientSecret string
	Tenant       string
	BaseURL      string
	LoginBaseURL string
	Client       *http.Client
	MaxRetries   int

	retryInterval time.Duration
}

type graphEvent struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	BodyPreview string `json:"bodyPreview"`
	Start       struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	Attendees []struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"attendees"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	OnlineMeeting struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

func (m *MicrosoftProvider) init() {
	if m.Client == nil {
		m.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if m.BaseURL == "" {
		m.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if m.LoginBaseURL == "" {
		m.LoginBaseURL = "https://login.microsoftonline.com"
	}
	if m.Tenant == "" {
		m.Tenant = "common"
	}
}

func (m *MicrosoftProvider) GetEvents(ctx context.Context, creds Credentials, start, end time.Time) ([]Event, error) {
	m.init()

	endpoint := fmt.Sprintf("%s/me/calendarView?startDateTime=%s&endDateTime=%s&$orderby=start/dateTime&$top=250",
		m.BaseURL,
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)))

	var payload struct {
		Value []graphEvent `json:"value"`
	}
	err := retryTransient(ctx, m.MaxRetries, m.retryInterval, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		req.Header.Set("Prefer", `outlook.timezone="UTC"`)
		return m.do(req, &payload)
	})
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(payload.Value))
	for _, ge := range payload.Value {
		ev, err := fromGraphEvent(ge)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (m *MicrosoftProvider) CreateEvent(ctx context.Context, creds Credentials, draft EventDraft) (Event, error) {
	m.init()

	attendees := make([]map[string]any, 0, len(draft.Attendees))
	for _, email := range draft.Attendees {
		attendees = append(attendees, map[string]any{
			"emailAddress": map[string]any{"address": email},
			"type":         "required",
		})
	}
	body := map[string]any{
		"subject": draft.Summary,
		"body":    map[string]any{"contentType": "text", "content": draft.Description},
		"start":   map[string]any{"dateTime": draft.Start.UTC().Format("2006-01-02T15:04:05"), "timeZone": "UTC"},
		"end":     map[string]any{"dateTime": draft.End.UTC().Format("2006-01-02T15:04:05"), "timeZone": "UTC"},
	}
	if len(attendees) > 0 {
		body["attendees"] = attendees
	}
	if draft.Location != "" {
		body["location"] = map[string]any{"displayName": draft.Location}
	}
	if draft.RequestConference {
		body["isOnlineMeeting"] = true
		body["onlineMeetingProvider"] = "teamsForBusiness"
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return Event{}, err
	}

	var created graphEvent
	err = retryTransient(ctx, m.MaxRetries, m.retryInterval, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/me/events", bytes.NewReader(raw))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		req.Header.Set("Content-Type", "application/json")
		return m.do(req, &created)
	})
	if err != nil {
		return Event{}, err
	}
	return fromGraphEvent(created)
}

func (m *MicrosoftProvider) DeleteEvent(ctx context.Context, creds Credentials, eventID string) error {
	m.init()
	return retryTransient(ctx, m.MaxRetries, m.retryInterval, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, m.BaseURL+"/me/events/"+url.PathEscape(eventID), nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		return m.do(req, nil)
	})
}

func (m *MicrosoftProvider) RefreshToken(ctx context.Context, refreshToken string) (TokenResponse, error) {
	m.init()

	form := url.Values{}
	form.Set("client_id", m.ClientID)
	form.Set("client_secret", m.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("scope", msGraphScope)

	endpoint := fmt.Sprintf("%s/%s/oauth2/v2.0/token", m.LoginBaseURL, m.Tenant)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.Client.Do(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode >= http.StatusInternalServerError {
			return TokenResponse{}, fmt.Errorf("%w: token endpoint returned %s", ErrUnavailable, resp.Status)
		}
		return TokenResponse{}, fmt.Errorf("%w: token endpoint returned %s", ErrAuth, resp.Status)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return TokenResponse{}, err
	}
	if payload.RefreshToken == "" {
		payload.RefreshToken = refreshToken
	}
	return TokenResponse{AccessToken: payload.AccessToken, RefreshToken: payload.RefreshToken, ExpiresIn: payload.ExpiresIn}, nil
}

// do executes a Graph request, classifies the status for the retry
// loop, and decodes the response into out when provided.
func (m *MicrosoftProvider) do(req *http.Request, out any) error {
	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: graph returned %s", ErrAuth, resp.Status))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: graph returned %s", ErrUnavailable, resp.Status)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return backoff.Permanent(fmt.Errorf("graph returned %s: %s", resp.Status, body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(err)
	}
	return nil
}

// Graph omits the zone suffix and reports in the requested timezone,
// which is always UTC here.
func fromGraphEvent(ge graphEvent) (Event, error) {
	start, err := parseGraphTime(ge.Start.DateTime)
	if err != nil {
		return Event{}, err
	}
	end, err := parseGraphTime(ge.End.DateTime)
	if err != nil {
		return Event{}, err
	}
	attendees := make([]string, 0, len(ge.Attendees))
	for _, a := range ge.Attendees {
		if a.EmailAddress.Address != "" {
			attendees = append(attendees, a.EmailAddress.Address)
		}
	}
	return Event{
		ID:             ge.ID,
		Summary:        ge.Subject,
		Description:    ge.BodyPreview,
		Start:          start,
		End:            end,
		Attendees:      attendees,
		Location:       ge.Location.DisplayName,
		ConferenceLink: ge.OnlineMeeting.JoinURL,
	}, nil
}

func parseGraphTime(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04:05.0000000", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable graph datetime %q", value)
}
