package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/cache"
	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store/memory"
)

const tenant = "t1"

var admin = Actor{UserID: "admin", Admin: true}

// mon returns a time on Monday 2025-01-06 in UTC.
func mon(hour, min int) time.Time {
	return time.Date(2025, 1, 6, hour, min, 0, 0, time.UTC)
}

type recordingReminders struct {
	mu        sync.Mutex
	scheduled []string
	cancelled []string
	err       error
}

func (r *recordingReminders) Schedule(_ context.Context, slot *model.InterviewSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, slot.ID)
	return r.err
}

func (r *recordingReminders) Cancel(_ context.Context, _, slotID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, slotID)
	return r.err
}

type fixture struct {
	svc       *Service
	store     *memory.Store
	cache     *cache.Memory
	reminders *recordingReminders
	now       time.Time
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.New(),
		reminders: &recordingReminders{},
		now:       now,
	}
	clock := func() time.Time { return f.now }
	f.cache = cache.NewMemoryWithClock(clock)
	f.svc = New(Config{DefaultTimezone: "UTC"}, Deps{
		Store:     f.store,
		Cache:     f.cache,
		Reminders: f.reminders,
		Logger:    zap.NewNop(),
		Now:       clock,
	})
	return f
}

func (f *fixture) setHours(t *testing.T, user string, weekly ...model.WeeklyPattern) {
	t.Helper()
	if _, err := f.svc.WorkingHours.Set(context.Background(), admin, tenant, user, WorkingHoursInput{
		Weekly:   weekly,
		Timezone: "UTC",
	}); err != nil {
		t.Fatalf("set working hours for %s: %v", user, err)
	}
}

func (f *fixture) busy(t *testing.T, user string, start, end time.Time) *model.BusyBlock {
	t.Helper()
	b, err := f.svc.BusyBlocks.Create(context.Background(), admin, tenant, user, BusyBlockInput{Start: start, End: end})
	if err != nil {
		t.Fatalf("create busy block: %v", err)
	}
	return b
}

func (f *fixture) slot(t *testing.T, start, end time.Time, users ...string) *model.InterviewSlot {
	t.Helper()
	var ps []model.Participant
	for _, u := range users {
		ps = append(ps, model.UserParticipant(u))
	}
	s, err := f.svc.Slots.Create(context.Background(), tenant, CreateSlotInput{
		Participants: ps, Start: start, End: end,
	})
	if err != nil {
		t.Fatalf("create slot: %v", err)
	}
	return s
}

func (f *fixture) book(t *testing.T, slotID, candidate string) *model.InterviewSlot {
	t.Helper()
	s, err := f.svc.Slots.Book(context.Background(), tenant, slotID, BookInput{
		Candidate: model.CandidateParticipant(candidate, candidate+"@example.com", "", ""),
		BookedBy:  "recruiter",
	})
	if err != nil {
		t.Fatalf("book slot: %v", err)
	}
	return s
}

func monday(start, end string) model.WeeklyPattern {
	return model.WeeklyPattern{DayOfWeek: int(time.Monday), StartTime: start, EndTime: end}
}

func iv(start, end time.Time) interval.Interval {
	return interval.Interval{Start: start, End: end}
}

func equalIntervals(a, b []interval.Interval) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			return false
		}
	}
	return true
}

func expectErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}
