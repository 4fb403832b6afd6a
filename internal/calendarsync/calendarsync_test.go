package calendarsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/store/memory"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20250106T100000Z\r\n" +
	"DTEND:20250106T103000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20250106\r\n" +
	"DTEND;VALUE=DATE:20250107\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:focus\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Focus\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"DTSTART:20250106T130000Z\r\n" +
	"DTEND:20250106T150000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"SUMMARY:Review\r\n" +
	"DTSTART:20250106T150000Z\r\n" +
	"DTEND:20250106T160000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func monday(hour, min int) time.Time {
	return time.Date(2025, 1, 6, hour, min, 0, 0, time.UTC)
}

var mondayWindow = interval.Interval{Start: monday(0, 0), End: monday(23, 59)}

func TestParseICSSkipsNonBlockingEvents(t *testing.T) {
	src, err := ParseICS(strings.NewReader(sampleICS), time.UTC)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	events, err := src.Events(context.Background(), mondayWindow)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 blocking events, got %+v", events)
	}
	if events[0].UID != "standup" || !events[0].Start.Equal(monday(10, 0)) || !events[0].End.Equal(monday(10, 30)) {
		t.Fatalf("unexpected first event %+v", events[0])
	}

	late, _ := src.Events(context.Background(), interval.Interval{Start: monday(14, 0), End: monday(23, 0)})
	if len(late) != 1 || late[0].UID != "review" {
		t.Fatalf("window filter failed: %+v", late)
	}
}

func TestParseICSRejectsGarbage(t *testing.T) {
	if _, err := ParseICS(strings.NewReader("not a calendar"), nil); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := scheduling.New(scheduling.Config{}, scheduling.Deps{
		Store:  st,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return monday(7, 0) },
	})
	ing := NewIngester(svc.BusyBlocks, zap.NewNop())
	src, err := ParseICS(strings.NewReader(sampleICS), time.UTC)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	batch := BatchID("ics", "u1", "work")

	for i := 0; i < 2; i++ {
		n, err := ing.Sync(ctx, "t1", "u1", batch, src, mondayWindow)
		if err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 blocks, got %d", n)
		}
	}
	blocks, err := st.ListBusyBlocksBySource(ctx, "t1", model.BusySourceCalendarSync, batch)
	if err != nil {
		t.Fatalf("ListBusyBlocksBySource: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected 2 stored blocks after two syncs, got %d", len(blocks))
	}

	free, err := svc.Availability.FreeIntervals(ctx, "t1", "u1", monday(0, 0), monday(23, 59))
	if err != nil {
		t.Fatalf("FreeIntervals: %v", err)
	}
	if interval.Contains(free, interval.Interval{Start: monday(10, 0), End: monday(10, 30)}) {
		t.Fatalf("synced event still free: %v", free)
	}

	// Synced blocks are system managed.
	err = svc.BusyBlocks.Delete(ctx, scheduling.Actor{UserID: "u1"}, "t1", blocks[0].ID)
	if err == nil {
		t.Fatalf("expected synced block deletion to be forbidden")
	}
}

func TestSyncLeavesBlocksOutsideWindow(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := scheduling.New(scheduling.Config{}, scheduling.Deps{
		Store:  st,
		Logger: zap.NewNop(),
		Now:    func() time.Time { return monday(7, 0) },
	})
	ing := NewIngester(svc.BusyBlocks, zap.NewNop())
	src, err := ParseICS(strings.NewReader(sampleICS), time.UTC)
	if err != nil {
		t.Fatalf("ParseICS: %v", err)
	}
	batch := BatchID("ics", "u1", "work")

	if _, err := ing.Sync(ctx, "t1", "u1", batch, src, mondayWindow); err != nil {
		t.Fatalf("Sync monday: %v", err)
	}
	tuesday := interval.Interval{Start: monday(0, 0).AddDate(0, 0, 1), End: monday(23, 59).AddDate(0, 0, 1)}
	n, err := ing.Sync(ctx, "t1", "u1", batch, src, tuesday)
	if err != nil {
		t.Fatalf("Sync tuesday: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no tuesday blocks, got %d", n)
	}
	blocks, err := st.ListBusyBlocksBySource(ctx, "t1", model.BusySourceCalendarSync, batch)
	if err != nil {
		t.Fatalf("ListBusyBlocksBySource: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("expected monday's 2 blocks to survive a tuesday sync, got %d", len(blocks))
	}

	// A window starting mid-event keeps the part of the old block before it.
	partial := interval.Interval{Start: monday(10, 15), End: monday(23, 59)}
	if _, err := ing.Sync(ctx, "t1", "u1", batch, src, partial); err != nil {
		t.Fatalf("Sync partial: %v", err)
	}
	blocks, err = st.ListBusyBlocksBySource(ctx, "t1", model.BusySourceCalendarSync, batch)
	if err != nil {
		t.Fatalf("ListBusyBlocksBySource: %v", err)
	}
	spans := make([]interval.Interval, 0, len(blocks))
	for _, b := range blocks {
		spans = append(spans, interval.Interval{Start: b.Start, End: b.End})
	}
	spans = interval.Merge(spans)
	want := []interval.Interval{
		{Start: monday(10, 0), End: monday(10, 30)},
		{Start: monday(15, 0), End: monday(16, 0)},
	}
	if len(spans) != len(want) {
		t.Fatalf("expected %v, got %v", want, spans)
	}
	for i := range want {
		if !spans[i].Start.Equal(want[i].Start) || !spans[i].End.Equal(want[i].End) {
			t.Fatalf("expected %v, got %v", want, spans)
		}
	}
}

func TestSyncRejectsInvalidWindow(t *testing.T) {
	ing := NewIngester(nil, zap.NewNop())
	bad := interval.Interval{Start: monday(12, 0), End: monday(9, 0)}
	_, err := ing.Sync(context.Background(), "t1", "u1", "b", nil, bad)
	if !errors.Is(err, scheduling.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestGoogleSourceSkipsAllDayAndTransparent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[
			{"id":"1","iCalUID":"a@x","summary":"Sync","start":{"dateTime":"2025-01-06T10:00:00Z"},"end":{"dateTime":"2025-01-06T11:00:00Z"}},
			{"id":"2","summary":"Holiday","start":{"date":"2025-01-06"},"end":{"date":"2025-01-07"}},
			{"id":"3","summary":"Free","transparency":"transparent","start":{"dateTime":"2025-01-06T12:00:00Z"},"end":{"dateTime":"2025-01-06T13:00:00Z"}},
			{"id":"4","summary":"Gone","status":"cancelled","start":{"dateTime":"2025-01-06T14:00:00Z"},"end":{"dateTime":"2025-01-06T15:00:00Z"}}
		]}`))
	}))
	defer srv.Close()

	svc, err := calendar.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	events, err := NewGoogleSourceFromService(svc, "").Events(context.Background(), mondayWindow)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 || events[0].UID != "a@x" || !events[0].Start.Equal(monday(10, 0)) {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestOAuthConfigRequiresCredentials(t *testing.T) {
	if OAuthConfig("id", "", "http://localhost/cb") != nil {
		t.Fatalf("expected nil config without secret")
	}
	cfg := OAuthConfig("id", "secret", "http://localhost/cb")
	if cfg == nil || len(cfg.Scopes) != 1 || cfg.Scopes[0] != calendar.CalendarReadonlyScope {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
