package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/dosetrack/dosetrack/internal/domain/medication"
)

const apiBase = "https://www.googleapis.com/calendar/v3/calendars/primary/events"

// googleEvent is the wire shape the Calendar REST API accepts.
type googleEvent struct {
	ID          string `json:"id,omitempty"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone,omitempty"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone,omitempty"`
	} `json:"end"`
	Reminders struct {
		UseDefault bool `json:"useDefault"`
		Overrides  []struct {
			Method  string `json:"method"`
			Minutes int    `json:"minutes"`
		} `json:"overrides,omitempty"`
	} `json:"reminders"`
	ColorID string `json:"colorId,omitempty"`
}

// TokenStore persists per-account Google OAuth tokens. Accounts that never
// connected a calendar have no token and sync is skipped for them.
type TokenStore interface {
	Save(ctx context.Context, ownerID uuid.UUID, token *oauth2.Token) error
	Get(ctx context.Context, ownerID uuid.UUID) (*oauth2.Token, error)
	Delete(ctx context.Context, ownerID uuid.UUID) error
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[uuid.UUID]*oauth2.Token
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[uuid.UUID]*oauth2.Token)}
}

func (s *MemoryTokenStore) Save(_ context.Context, ownerID uuid.UUID, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[ownerID] = token
	return nil
}

func (s *MemoryTokenStore) Get(_ context.Context, ownerID uuid.UUID) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t, ok := s.tokens[ownerID]; ok {
		return t, nil
	}
	return nil, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, ownerID)
	return nil
}

// Config holds the OAuth client for the Google Calendar integration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// GoogleSyncer mirrors dose slots into the caller's primary Google calendar.
// It satisfies medication.CalendarSyncer. All operations are best-effort from
// the caller's perspective; errors surface so the service can log them.
type GoogleSyncer struct {
	oauth  *oauth2.Config
	tokens TokenStore
	client *http.Client
	log    zerolog.Logger
}

func NewGoogleSyncer(cfg Config, tokens TokenStore, log zerolog.Logger) *GoogleSyncer {
	return &GoogleSyncer{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.events"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/auth",
				TokenURL: "https://oauth2.googleapis.com/token",
			},
		},
		tokens: tokens,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

// AuthURL returns the consent URL to start the OAuth flow.
func (g *GoogleSyncer) AuthURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token and stores it for the
// account.
func (g *GoogleSyncer) Exchange(ctx context.Context, ownerID uuid.UUID, code string) error {
	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	return g.tokens.Save(ctx, ownerID, token)
}

// Disconnect removes the stored token for the account.
func (g *GoogleSyncer) Disconnect(ctx context.Context, ownerID uuid.UUID) error {
	return g.tokens.Delete(ctx, ownerID)
}

// Connected reports whether the account has a calendar token on file.
func (g *GoogleSyncer) Connected(ctx context.Context, ownerID uuid.UUID) bool {
	t, err := g.tokens.Get(ctx, ownerID)
	return err == nil && t != nil && t.AccessToken != ""
}

func (g *GoogleSyncer) httpClient(ctx context.Context, ownerID uuid.UUID) (*http.Client, error) {
	token, err := g.tokens.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, nil
	}
	// TokenSource refreshes expired access tokens transparently.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.client)
	return oauth2.NewClient(ctx, g.oauth.TokenSource(ctx, token)), nil
}

// CreateDoseEvents plans and creates one calendar event per dose slot per day
// over the treatment window, returning the created event ids. Accounts
// without a connected calendar get (nil, nil).
func (g *GoogleSyncer) CreateDoseEvents(ctx context.Context, m *medication.Medication) ([]string, error) {
	client, err := g.httpClient(ctx, m.OwnerID)
	if err != nil || client == nil {
		return nil, err
	}

	events := BuildDoseEvents(m, time.Now())
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		id, err := g.createEvent(ctx, client, ev)
		if err != nil {
			// Keep whatever was created so the caller can release it later.
			return ids, fmt.Errorf("create event for %s: %w", m.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DeleteEvents removes previously created events. Missing events and
// disconnected calendars are not errors.
func (g *GoogleSyncer) DeleteEvents(ctx context.Context, ownerID uuid.UUID, eventIDs []string) {
	client, err := g.httpClient(ctx, ownerID)
	if err != nil || client == nil {
		return
	}
	for _, id := range eventIDs {
		if err := g.deleteEvent(ctx, client, id); err != nil {
			g.log.Warn().Err(err).Str("event_id", id).Msg("calendar event delete failed")
		}
	}
}

func (g *GoogleSyncer) createEvent(ctx context.Context, client *http.Client, ev Event) (string, error) {
	ge := googleEvent{
		Summary:     ev.Summary,
		Description: ev.Description,
		ColorID:     ev.ColorID,
	}
	ge.Start.DateTime = ev.Start.Format(time.RFC3339)
	ge.End.DateTime = ev.End.Format(time.RFC3339)
	ge.Reminders.UseDefault = false
	for _, m := range ev.Reminders {
		ge.Reminders.Overrides = append(ge.Reminders.Overrides, struct {
			Method  string `json:"method"`
			Minutes int    `json:"minutes"`
		}{Method: "popup", Minutes: m})
	}

	body, err := json.Marshal(ge)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiBase, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("calendar API %s: %s", resp.Status, string(respBody))
	}

	var created googleEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", err
	}
	return created.ID, nil
}

func (g *GoogleSyncer) deleteEvent(ctx context.Context, client *http.Client, eventID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, apiBase+"/"+eventID, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK &&
		resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusGone {
		return fmt.Errorf("calendar API %s", resp.Status)
	}
	return nil
}
