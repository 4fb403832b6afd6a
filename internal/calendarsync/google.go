package calendarsync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"interview-scheduler/internal/interval"
)

// OAuthConfig returns the read-only Google Calendar OAuth2 config, or nil
// when any of the credentials is missing.
func OAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

type GoogleSource struct {
	svc        *calendar.Service
	calendarID string
}

func NewGoogleSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, calendarID string) (*GoogleSource, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return NewGoogleSourceFromService(svc, calendarID), nil
}

func NewGoogleSourceFromService(svc *calendar.Service, calendarID string) *GoogleSource {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleSource{svc: svc, calendarID: calendarID}
}

// Events lists single events in the window. All-day, transparent and
// cancelled events do not block time and are skipped.
func (g *GoogleSource) Events(ctx context.Context, window interval.Interval) ([]Event, error) {
	var out []Event
	call := g.svc.Events.List(g.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(window.Start.Format(time.RFC3339)).
		TimeMax(window.End.Format(time.RFC3339)).
		MaxResults(250)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			if ev, ok := googleEvent(item); ok {
				out = append(out, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve events: %w", err)
	}
	return out, nil
}

func googleEvent(item *calendar.Event) (Event, bool) {
	if item.Status == "cancelled" || item.Transparency == "transparent" {
		return Event{}, false
	}
	if item.Start == nil || item.End == nil || item.Start.DateTime == "" || item.End.DateTime == "" {
		return Event{}, false
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return Event{}, false
	}
	uid := item.ICalUID
	if uid == "" {
		uid = item.Id
	}
	return Event{UID: uid, Summary: item.Summary, Start: start, End: end}, true
}
