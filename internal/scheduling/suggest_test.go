package scheduling

import (
	"context"
	"testing"
	"time"

	"interview-scheduler/internal/interval"
)

func TestSuggestRejectsLargePanel(t *testing.T) {
	f := newFixture(t, mon(7, 0))
	users := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"}
	_, err := f.svc.Suggestions.Suggest(context.Background(), SuggestRequest{
		TenantID: tenant, InterviewerIDs: users, Start: mon(0, 0), End: mon(23, 0),
	})
	expectErr(t, err, ErrValidation)
}

func TestSuggestRejectsUnknownPreference(t *testing.T) {
	f := newFixture(t, mon(7, 0))
	_, err := f.svc.Suggestions.Suggest(context.Background(), SuggestRequest{
		TenantID: tenant, InterviewerIDs: []string{"u1"}, Start: mon(0, 0), End: mon(23, 0),
		PreferredTimeOfDay: "night",
	})
	expectErr(t, err, ErrValidation)
}

func TestSuggestOrdersByScore(t *testing.T) {
	f := newFixture(t, mon(7, 0))
	f.setHours(t, "u1", monday("09:00", "17:00"))
	f.setHours(t, "u2", monday("09:00", "17:00"))

	got, err := f.svc.Suggestions.Suggest(context.Background(), SuggestRequest{
		TenantID:           tenant,
		InterviewerIDs:     []string{"u1", "u2"},
		Start:              mon(0, 0),
		End:                mon(23, 59),
		DurationMins:       60,
		PreferredTimeOfDay: "evening",
		Limit:              3,
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	// Afternoon is adjacent to evening: 50 + 5 + 25 (no load) + 10 (within a day).
	for i, s := range got {
		if s.Score != 90 {
			t.Fatalf("suggestion %d: expected score 90, got %d (%v)", i, s.Score, s.Reasons)
		}
		if bucketOf(s.Start) != bucketAfternoon {
			t.Fatalf("suggestion %d starts at %s, expected afternoon", i, s.Start.Format("15:04"))
		}
		if i > 0 && s.Start.Before(got[i-1].Start) {
			t.Fatalf("ties must be ordered by start")
		}
		if !s.Availability["u1"] || !s.Availability["u2"] || len(s.Reasons) != 3 {
			t.Fatalf("unexpected suggestion %+v", s)
		}
	}
}

func TestSuggestPenalisesBackToBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, mon(7, 0))
	f.setHours(t, "u1", monday("09:00", "17:00"))
	f.setHours(t, "u2", monday("09:00", "17:00"))
	f.book(t, f.slot(t, mon(12, 0), mon(13, 0), "u2").ID, "c1")

	got, err := f.svc.Suggestions.Suggest(ctx, SuggestRequest{
		TenantID:        tenant,
		InterviewerIDs:  []string{"u1"},
		CandidateID:     "c1",
		Start:           mon(0, 0),
		End:             mon(23, 59),
		DurationMins:    60,
		AvoidBackToBack: true,
		MinGapMins:      60,
		Limit:           20,
	})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	scores := map[int]int{}
	for _, s := range got {
		scores[s.Start.Hour()] = s.Score
	}
	// 13:10 is 10 minutes after the candidate's interview; 15:10 is over two hours away.
	if scores[13] >= scores[15] {
		t.Fatalf("expected back-to-back slot to rank lower: %v", scores)
	}
	if got[0].Start.Hour() == 13 {
		t.Fatalf("back-to-back slot ranked first")
	}
}

func TestTimeOfDayScore(t *testing.T) {
	cases := []struct {
		want, got bucket
		delta     int
	}{
		{bucketMorning, bucketMorning, 20},
		{bucketMorning, bucketAfternoon, 5},
		{bucketEvening, bucketAfternoon, 5},
		{bucketMorning, bucketEvening, -10},
		{bucketMorning, bucketNone, -10},
	}
	for _, c := range cases {
		if d, _ := timeOfDayScore(c.want, c.got); d != c.delta {
			t.Fatalf("timeOfDayScore(%s, %s) = %d, want %d", c.want, c.got, d, c.delta)
		}
	}
}

func TestLoadScoreUsesPopulationVariance(t *testing.T) {
	users := []string{"a", "b"}
	cases := []struct {
		counts map[string]int
		delta  int
	}{
		{map[string]int{}, 25},
		{map[string]int{"a": 1, "b": 1}, 25},
		{map[string]int{"a": 2, "b": 0}, 15},
		{map[string]int{"a": 5, "b": 0}, 5},
		{map[string]int{"a": 6, "b": 0}, -5},
	}
	for _, c := range cases {
		if d, _ := loadScore(c.counts, users); d != c.delta {
			t.Fatalf("loadScore(%v) = %d, want %d", c.counts, d, c.delta)
		}
	}
}

func TestGapScore(t *testing.T) {
	slot := iv(mon(10, 0), mon(11, 0))
	hour := time.Hour
	cases := []struct {
		history []time.Time
		delta   int
	}{
		{nil, 10},
		{[]time.Time{mon(11, 20)}, -20},
		{[]time.Time{mon(11, 45)}, -10},
		{[]time.Time{mon(12, 30)}, 0},
		{[]time.Time{mon(13, 0)}, 10},
	}
	for _, c := range cases {
		var hist []interval.Interval
		for _, s := range c.history {
			hist = append(hist, iv(s, s.Add(hour)))
		}
		if d, _ := gapScore(slot, hist, hour); d != c.delta {
			t.Fatalf("gapScore(%v) = %d, want %d", c.history, d, c.delta)
		}
	}
}

func TestRecencyAndClamp(t *testing.T) {
	if d, _ := recencyScore(2 * time.Hour); d != 10 {
		t.Fatalf("expected +10, got %d", d)
	}
	if d, _ := recencyScore(48 * time.Hour); d != 7 {
		t.Fatalf("expected +7, got %d", d)
	}
	if d, _ := recencyScore(6 * 24 * time.Hour); d != 3 {
		t.Fatalf("expected +3, got %d", d)
	}
	if d, _ := recencyScore(10 * 24 * time.Hour); d != 0 {
		t.Fatalf("expected 0, got %d", d)
	}
	if clamp(120, 0, 100) != 100 || clamp(-3, 0, 100) != 0 || clamp(42, 0, 100) != 42 {
		t.Fatalf("clamp out of range")
	}
}
