package interval

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, day, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 1, day, hour, min, 0, 0, time.UTC)
}

func iv(t *testing.T, day, h1, m1, h2, m2 int) Interval {
	t.Helper()
	return Interval{Start: mustTime(t, day, h1, m1), End: mustTime(t, day, h2, m2)}
}

func equalLists(a, b []Interval) bool {
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

func TestNewRejectsEmptyRange(t *testing.T) {
	if _, err := New(mustTime(t, 6, 10, 0), mustTime(t, 6, 10, 0)); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := New(mustTime(t, 6, 10, 0), mustTime(t, 6, 11, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSortStable(t *testing.T) {
	a := Interval{Start: mustTime(t, 6, 9, 0), End: mustTime(t, 6, 10, 0)}
	b := Interval{Start: mustTime(t, 6, 9, 0), End: mustTime(t, 6, 12, 0)}
	c := Interval{Start: mustTime(t, 6, 8, 0), End: mustTime(t, 6, 9, 0)}

	got := Sort([]Interval{a, b, c})
	want := []Interval{c, a, b}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMergeOverlappingAndTouching(t *testing.T) {
	in := []Interval{
		iv(t, 6, 13, 0, 14, 0),
		iv(t, 6, 9, 0, 10, 0),
		iv(t, 6, 10, 0, 11, 0),
		iv(t, 6, 10, 30, 10, 45),
	}
	got := Merge(in)
	want := []Interval{iv(t, 6, 9, 0, 11, 0), iv(t, 6, 13, 0, 14, 0)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSubtractEmptyBusyIsIdentity(t *testing.T) {
	available := []Interval{iv(t, 6, 9, 0, 12, 0), iv(t, 6, 13, 0, 17, 0)}
	got := Subtract(available, nil)
	if !equalLists(got, available) {
		t.Fatalf("expected %+v, got %+v", available, got)
	}
}

func TestSubtractSplitsAroundBusy(t *testing.T) {
	available := []Interval{iv(t, 6, 9, 0, 17, 0)}
	busy := []Interval{iv(t, 6, 12, 0, 13, 0), iv(t, 6, 8, 0, 9, 30), iv(t, 6, 16, 30, 18, 0)}

	got := Subtract(available, busy)
	want := []Interval{iv(t, 6, 9, 30, 12, 0), iv(t, 6, 13, 0, 16, 30)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	for _, g := range got {
		if !g.End.After(g.Start) {
			t.Fatalf("non-positive interval in result: %+v", g)
		}
	}
}

func TestSubtractFullyCovered(t *testing.T) {
	got := Subtract([]Interval{iv(t, 6, 10, 0, 11, 0)}, []Interval{iv(t, 6, 9, 0, 12, 0)})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestIntersectListsSingle(t *testing.T) {
	l := []Interval{iv(t, 6, 9, 0, 10, 0), iv(t, 6, 11, 0, 12, 0)}
	got := IntersectLists([][]Interval{l})
	if !equalLists(got, l) {
		t.Fatalf("expected %+v, got %+v", l, got)
	}
}

func TestIntersectListsEmptyShortCircuits(t *testing.T) {
	l := []Interval{iv(t, 6, 9, 0, 10, 0)}
	if got := IntersectLists([][]Interval{l, {}}); len(got) != 0 {
		t.Fatalf("expected empty, got %+v", got)
	}
	if got := IntersectLists(nil); len(got) != 0 {
		t.Fatalf("expected empty for no lists, got %+v", got)
	}
}

func TestIntersectListsCommutativeAndBounded(t *testing.T) {
	a := []Interval{iv(t, 6, 9, 0, 12, 0), iv(t, 6, 13, 0, 17, 0)}
	b := []Interval{iv(t, 6, 10, 0, 14, 0), iv(t, 6, 16, 0, 18, 0)}

	ab := IntersectLists([][]Interval{a, b})
	ba := IntersectLists([][]Interval{b, a})
	if !equalLists(ab, ba) {
		t.Fatalf("intersection not commutative: %+v vs %+v", ab, ba)
	}

	want := []Interval{iv(t, 6, 10, 0, 12, 0), iv(t, 6, 13, 0, 14, 0), iv(t, 6, 16, 0, 17, 0)}
	if !equalLists(ab, want) {
		t.Fatalf("expected %+v, got %+v", want, ab)
	}

	limit := TotalDuration(a)
	if TotalDuration(b) < limit {
		limit = TotalDuration(b)
	}
	if TotalDuration(ab) > limit {
		t.Fatalf("intersection longer than inputs: %v > %v", TotalDuration(ab), limit)
	}
}

func TestSliceIntoSlotsDropsTailAndNeverOverlaps(t *testing.T) {
	got := SliceIntoSlots([]Interval{iv(t, 6, 10, 0, 12, 10)}, 30, false)
	if len(got) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(got))
	}
	for i, s := range got {
		if s.Duration() != 30*time.Minute {
			t.Fatalf("slot %d has duration %v", i, s.Duration())
		}
		if i > 0 && got[i-1].End.After(s.Start) {
			t.Fatalf("slots %d and %d overlap", i-1, i)
		}
	}
}

func TestSliceIntoSlotsAlignsToHalfHour(t *testing.T) {
	got := SliceIntoSlots([]Interval{iv(t, 6, 9, 10, 11, 0)}, 30, true)
	want := []Interval{iv(t, 6, 9, 30, 10, 0), iv(t, 6, 10, 0, 10, 30), iv(t, 6, 10, 30, 11, 0)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	got = SliceIntoSlots([]Interval{iv(t, 6, 9, 40, 11, 0)}, 60, true)
	want = []Interval{iv(t, 6, 10, 0, 11, 0)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSliceIntoSlotsZeroDuration(t *testing.T) {
	if got := SliceIntoSlots([]Interval{iv(t, 6, 9, 0, 10, 0)}, 0, false); len(got) != 0 {
		t.Fatalf("expected no slots, got %+v", got)
	}
}

func TestApplyBuffers(t *testing.T) {
	got := ApplyBuffers([]Interval{iv(t, 6, 9, 0, 17, 0), iv(t, 6, 18, 0, 18, 15)}, 10, 10)
	want := []Interval{iv(t, 6, 9, 10, 16, 50)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestFilterByMinNotice(t *testing.T) {
	slots := []Interval{iv(t, 6, 8, 30, 9, 30), iv(t, 6, 9, 0, 10, 0), iv(t, 6, 10, 0, 11, 0)}
	got := FilterByMinNotice(slots, 60, mustTime(t, 6, 8, 0))
	want := []Interval{iv(t, 6, 9, 0, 10, 0), iv(t, 6, 10, 0, 11, 0)}
	if !equalLists(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestContainsClipAndGap(t *testing.T) {
	free := []Interval{iv(t, 6, 9, 0, 12, 0)}
	if !Contains(free, iv(t, 6, 9, 0, 12, 0)) {
		t.Fatalf("expected exact fit to be contained")
	}
	if Contains(free, iv(t, 6, 11, 30, 12, 30)) {
		t.Fatalf("expected overhanging interval not to be contained")
	}

	clipped := Clip(free, iv(t, 6, 10, 0, 20, 0))
	if !equalLists(clipped, []Interval{iv(t, 6, 10, 0, 12, 0)}) {
		t.Fatalf("unexpected clip result %+v", clipped)
	}

	if g := Gap(iv(t, 6, 9, 0, 10, 0), iv(t, 6, 10, 45, 11, 0)); g != 45*time.Minute {
		t.Fatalf("expected 45m gap, got %v", g)
	}
	if g := Gap(iv(t, 6, 10, 45, 11, 0), iv(t, 6, 9, 0, 10, 0)); g != 45*time.Minute {
		t.Fatalf("expected symmetric gap, got %v", g)
	}
	if g := Gap(iv(t, 6, 9, 0, 10, 0), iv(t, 6, 9, 30, 11, 0)); g != 0 {
		t.Fatalf("expected zero gap for overlap, got %v", g)
	}
}
