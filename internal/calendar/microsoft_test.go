package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func graphEventJSON(id, subject, start, end string) map[string]any {
	return map[string]any{
		"id":      id,
		"subject": subject,
		"start":   map[string]string{"dateTime": start},
		"end":     map[string]string{"dateTime": end},
	}
}

func newMicrosoftProvider(baseURL string) *MicrosoftProvider {
	return &MicrosoftProvider{
		ClientID:      "client",
		ClientSecret:  "secret",
		BaseURL:       baseURL,
		LoginBaseURL:  baseURL,
		Client:        &http.Client{Timeout: 2 * time.Second},
		MaxRetries:    2,
		retryInterval: time.Millisecond,
	}
}

func TestMicrosoftGetEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"value": []map[string]any{
				graphEventJSON("ev1", "Standup", "2026-01-06T10:00:00.0000000", "2026-01-06T10:30:00.0000000"),
			},
		})
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	events, err := p.GetEvents(context.Background(), Credentials{AccessToken: "token-1"}, time.Now(), time.Now().Add(24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID != "ev1" || events[0].Summary != "Standup" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	want := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
	if !events[0].Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, events[0].Start)
	}
}

func TestMicrosoftGetEvents_RetriesTransient(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"value": []map[string]any{}})
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	_, err := p.GetEvents(context.Background(), Credentials{AccessToken: "t"}, time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestMicrosoftGetEvents_AuthErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	_, err := p.GetEvents(context.Background(), Credentials{AccessToken: "expired"}, time.Now(), time.Now().Add(time.Hour))
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected a single call for auth failure, got %d", calls)
	}
}

func TestMicrosoftCreateEvent_RequestsTeamsMeeting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["isOnlineMeeting"] != true {
			t.Errorf("expected isOnlineMeeting=true, got %v", body["isOnlineMeeting"])
		}
		if body["onlineMeetingProvider"] != "teamsForBusiness" {
			t.Errorf("expected teamsForBusiness provider, got %v", body["onlineMeetingProvider"])
		}

		created := graphEventJSON("new-ev", "Meeting with Lead", "2026-01-06T14:00:00", "2026-01-06T14:30:00")
		created["onlineMeeting"] = map[string]string{"joinUrl": "https://teams.example/join/abc"}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	ev, err := p.CreateEvent(context.Background(), Credentials{AccessToken: "t"}, EventDraft{
		Summary:           "Meeting with Lead",
		Start:             time.Date(2026, 1, 6, 14, 0, 0, 0, time.UTC),
		End:               time.Date(2026, 1, 6, 14, 30, 0, 0, time.UTC),
		Attendees:         []string{"lead@example.com"},
		RequestConference: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID != "new-ev" {
		t.Fatalf("expected created event id, got %q", ev.ID)
	}
	if ev.ConferenceLink != "https://teams.example/join/abc" {
		t.Fatalf("expected join url, got %q", ev.ConferenceLink)
	}
}

func TestMicrosoftRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.Form.Get("grant_type"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "new-access",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	tok, err := p.RefreshToken(context.Background(), "old-refresh")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "new-access" {
		t.Fatalf("expected new access token, got %q", tok.AccessToken)
	}
	if tok.RefreshToken != "old-refresh" {
		t.Fatalf("expected refresh token to be kept when the response omits it, got %q", tok.RefreshToken)
	}
	if tok.ExpiresIn != 3600 {
		t.Fatalf("expected expires_in 3600, got %d", tok.ExpiresIn)
	}
}

func TestMicrosoftRefreshToken_InvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	p := newMicrosoftProvider(srv.URL)
	_, err := p.RefreshToken(context.Background(), "revoked")
	if !errors.Is(err, ErrAuth) {
		t.Fatalf("expected ErrAuth for rejected grant, got %v", err)
	}
}

func TestParseGraphTime(t *testing.T) {
	for _, value := range []string{
		"2026-01-06T10:00:00.0000000",
		"2026-01-06T10:00:00",
		"2026-01-06T10:00:00Z",
	} {
		got, err := parseGraphTime(value)
		if err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
		want := time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("parse %q: expected %v, got %v", value, want, got)
		}
	}
	if _, err := parseGraphTime("yesterday"); err == nil {
		t.Fatalf("expected error for junk datetime")
	}
}
