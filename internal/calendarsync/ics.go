package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"interview-scheduler/internal/interval"
)

// ICSSource reads events from an uploaded iCalendar document.
type ICSSource struct {
	events []Event
}

// ParseICS decodes every calendar in r. Floating times are read in loc.
func ParseICS(r io.Reader, loc *time.Location) (*ICSSource, error) {
	if loc == nil {
		loc = time.UTC
	}
	dec := ical.NewDecoder(r)
	src := &ICSSource{}
	decoded := 0
	for {
		cal, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode ics: %w", err)
		}
		decoded++
		for _, ev := range cal.Events() {
			e, ok, err := icsEvent(ev, loc)
			if err != nil {
				return nil, err
			}
			if ok {
				src.events = append(src.events, e)
			}
		}
	}
	if decoded == 0 {
		return nil, errors.New("decode ics: no calendar found")
	}
	return src, nil
}

func icsEvent(ev ical.Event, loc *time.Location) (Event, bool, error) {
	if p := ev.Props.Get(ical.PropTransparency); p != nil && p.Value == "TRANSPARENT" {
		return Event{}, false, nil
	}
	if p := ev.Props.Get(ical.PropStatus); p != nil && p.Value == "CANCELLED" {
		return Event{}, false, nil
	}
	dtstart := ev.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil || dtstart.ValueType() == ical.ValueDate {
		// All-day events do not block working time.
		return Event{}, false, nil
	}

	start, err := ev.DateTimeStart(loc)
	if err != nil {
		return Event{}, false, fmt.Errorf("event start: %w", err)
	}
	end, err := ev.DateTimeEnd(loc)
	if err != nil {
		return Event{}, false, fmt.Errorf("event end: %w", err)
	}
	if end.IsZero() {
		end = start.Add(time.Hour)
	}

	var uid, summary string
	if p := ev.Props.Get(ical.PropUID); p != nil {
		uid = p.Value
	}
	if p := ev.Props.Get(ical.PropSummary); p != nil {
		summary = p.Value
	}
	return Event{UID: uid, Summary: summary, Start: start, End: end}, true, nil
}

func (s *ICSSource) Events(_ context.Context, window interval.Interval) ([]Event, error) {
	var out []Event
	for _, e := range s.events {
		if e.Start.Before(window.End) && e.End.After(window.Start) {
			out = append(out, e)
		}
	}
	return out, nil
}
