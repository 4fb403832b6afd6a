// Package interval implements set algebra over half-open time intervals.
package interval

import (
	"errors"
	"sort"
	"time"
)

var ErrInvalidRange = errors.New("interval end must be after start")

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func New(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return Interval{}, ErrInvalidRange
	}
	return Interval{Start: start, End: end}, nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Covers reports whether other lies entirely inside iv.
func (iv Interval) Covers(other Interval) bool {
	return !iv.Start.After(other.Start) && !iv.End.Before(other.End)
}

// Overlaps uses half-open semantics: touching intervals do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Sort returns a copy ordered by start. Equal starts keep their input order.
func Sort(list []Interval) []Interval {
	out := make([]Interval, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// Merge collapses overlapping and touching intervals.
func Merge(list []Interval) []Interval {
	if len(list) == 0 {
		return []Interval{}
	}
	sorted := Sort(list)
	out := []Interval{sorted[0]}
	for _, next := range sorted[1:] {
		last := &out[len(out)-1]
		if !next.Start.After(last.End) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		out = append(out, next)
	}
	return out
}

// Subtract removes every busy range from the available ranges.
func Subtract(available, busy []Interval) []Interval {
	merged := Merge(busy)
	out := make([]Interval, 0, len(available))

	for _, av := range available {
		pieces := []Interval{av}
		for _, b := range merged {
			var next []Interval
			for _, p := range pieces {
				if !b.Overlaps(p) {
					next = append(next, p)
					continue
				}
				if b.Start.After(p.Start) {
					next = append(next, Interval{Start: p.Start, End: b.Start})
				}
				if b.End.Before(p.End) {
					next = append(next, Interval{Start: b.End, End: p.End})
				}
			}
			pieces = next
			if len(pieces) == 0 {
				break
			}
		}
		for _, p := range pieces {
			if p.Valid() {
				out = append(out, p)
			}
		}
	}
	return out
}

// IntersectLists returns the ranges common to every list.
func IntersectLists(lists [][]Interval) []Interval {
	if len(lists) == 0 {
		return []Interval{}
	}
	acc := Merge(lists[0])
	for _, l := range lists[1:] {
		if len(acc) == 0 {
			return []Interval{}
		}
		acc = intersectPair(acc, Merge(l))
	}
	return acc
}

func intersectPair(a, b []Interval) []Interval {
	out := []Interval{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := maxTime(a[i].Start, b[j].Start)
		end := minTime(a[i].End, b[j].End)
		if end.After(start) {
			out = append(out, Interval{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// SliceIntoSlots cuts each interval into consecutive slots of durationMins.
// With alignToHalfHour the first slot of each interval starts on the next
// :00 or :30 mark in the interval's own location.
func SliceIntoSlots(list []Interval, durationMins int, alignToHalfHour bool) []Interval {
	out := []Interval{}
	if durationMins <= 0 {
		return out
	}
	d := time.Duration(durationMins) * time.Minute

	for _, iv := range list {
		cur := iv.Start
		if alignToHalfHour {
			cur = alignHalfHour(cur)
		}
		for !cur.Add(d).After(iv.End) {
			out = append(out, Interval{Start: cur, End: cur.Add(d)})
			cur = cur.Add(d)
		}
	}
	return out
}

func alignHalfHour(t time.Time) time.Time {
	base := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
	if t.Equal(base) {
		return t
	}
	half := base.Add(30 * time.Minute)
	if !t.After(half) {
		return half
	}
	return base.Add(time.Hour)
}

// ApplyBuffers trims beforeMins from every start and afterMins from every end.
func ApplyBuffers(list []Interval, beforeMins, afterMins int) []Interval {
	out := make([]Interval, 0, len(list))
	for _, iv := range list {
		trimmed := Interval{
			Start: iv.Start.Add(time.Duration(beforeMins) * time.Minute),
			End:   iv.End.Add(-time.Duration(afterMins) * time.Minute),
		}
		if trimmed.Valid() {
			out = append(out, trimmed)
		}
	}
	return out
}

// FilterByMinNotice drops slots that start before now+minNoticeMins.
func FilterByMinNotice(slots []Interval, minNoticeMins int, now time.Time) []Interval {
	earliest := now.Add(time.Duration(minNoticeMins) * time.Minute)
	out := make([]Interval, 0, len(slots))
	for _, s := range slots {
		if !s.Start.Before(earliest) {
			out = append(out, s)
		}
	}
	return out
}

// Contains reports whether some interval in list fully covers candidate.
func Contains(list []Interval, candidate Interval) bool {
	for _, iv := range list {
		if iv.Covers(candidate) {
			return true
		}
	}
	return false
}

// Clip restricts every interval to window, dropping what falls outside.
func Clip(list []Interval, window Interval) []Interval {
	out := make([]Interval, 0, len(list))
	for _, iv := range list {
		c := Interval{Start: maxTime(iv.Start, window.Start), End: minTime(iv.End, window.End)}
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

func TotalDuration(list []Interval) time.Duration {
	var total time.Duration
	for _, iv := range list {
		if iv.Valid() {
			total += iv.Duration()
		}
	}
	return total
}

// Gap is the distance between two intervals; zero when they overlap or touch.
func Gap(a, b Interval) time.Duration {
	if a.Overlaps(b) {
		return 0
	}
	if !a.End.After(b.Start) {
		return b.Start.Sub(a.End)
	}
	return a.Start.Sub(b.End)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
