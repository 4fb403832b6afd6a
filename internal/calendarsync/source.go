// Package calendarsync turns external calendar events into calendar_sync
// busy blocks.
package calendarsync

import (
	"context"
	"time"

	"interview-scheduler/internal/interval"
)

// Event is a timed, opaque external event. Only its span matters here.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

type Source interface {
	// Events returns the events overlapping window.
	Events(ctx context.Context, window interval.Interval) ([]Event, error)
}
