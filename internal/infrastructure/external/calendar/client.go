package calendar

import (
	"context"
	"fmt"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// TokenUpdateFunc persists a refreshed OAuth token for the owning user
type TokenUpdateFunc func(token *oauth2.Token) error

// Event is the calendar event shape the pipeline works with. Only events
// carrying a conference link become candidate meetings.
type Event struct {
	ID             string
	Summary        string
	MeetingURL     string
	Start          time.Time
	End            time.Time
	Created        time.Time
	OrganizerEmail string
}

// Service creates per-user Google Calendar clients from stored OAuth tokens
type Service struct {
	clientID     string
	clientSecret string
}

// NewService creates a calendar service with the shared OAuth client
func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		// Block on persistence so a refreshed token is never lost
		if err := s.callback(t); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
	}
	return t, nil
}

// calendarService creates a Calendar API client with the user's token,
// refreshing through the shared OAuth client when needed
func (s *Service) calendarService(ctx context.Context, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}

	return srv, nil
}

// ListUpcoming returns the conference-bearing events of the given calendar
// inside the [from, to) window, expanded to single instances and ordered by
// start time. The calendar ID is an address, not necessarily the account's
// primary calendar. All-day events have no usable start instant and are
// skipped.
func (s *Service) ListUpcoming(ctx context.Context, calendarID, accessToken, refreshToken string, onTokenRefresh TokenUpdateFunc, from, to time.Time) ([]Event, error) {
	srv, err := s.calendarService(ctx, accessToken, refreshToken, onTokenRefresh)
	if err != nil {
		return nil, err
	}
	if calendarID == "" {
		calendarID = "primary"
	}

	var resp *calendar.Events
	listFn := func() error {
		resp, err = srv.Events.List(calendarID).
			TimeMin(from.UTC().Format(time.RFC3339)).
			TimeMax(to.UTC().Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			MaxResults(50).
			Context(ctx).
			Do()
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxElapsedTime = 30 * time.Second
	bo.MaxInterval = 10 * time.Second

	if err := backoff.Retry(listFn, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("unable to list calendar events: %w", err)
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		link := conferenceLink(item)
		if link == "" {
			continue
		}
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}

		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}

		var end time.Time
		if item.End != nil && item.End.DateTime != "" {
			end, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}

		var created time.Time
		if item.Created != "" {
			created, _ = time.Parse(time.RFC3339, item.Created)
		}

		var organizer string
		if item.Organizer != nil {
			organizer = item.Organizer.Email
		}

		events = append(events, Event{
			ID:             item.Id,
			Summary:        item.Summary,
			MeetingURL:     link,
			Start:          start.UTC(),
			End:            end.UTC(),
			Created:        created.UTC(),
			OrganizerEmail: organizer,
		})
	}

	return events, nil
}

// conferenceLink extracts the meeting URL from an event, preferring the
// hangout link over conference entry points
func conferenceLink(item *calendar.Event) string {
	if item.HangoutLink != "" {
		return item.HangoutLink
	}
	if item.ConferenceData != nil {
		for _, ep := range item.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" && ep.Uri != "" {
				return ep.Uri
			}
		}
	}
	return ""
}
