package scheduling

import (
	"fmt"
	"time"

	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
)

// defaultWeekly is used for users without working hours: 08:00-20:00 every day.
func defaultWeekly() []model.WeeklyPattern {
	out := make([]model.WeeklyPattern, 0, 7)
	for d := 0; d < 7; d++ {
		out = append(out, model.WeeklyPattern{DayOfWeek: d, StartTime: "08:00", EndTime: "20:00"})
	}
	return out
}

// expandWeekly turns weekly patterns into concrete intervals inside
// [from, to). Days are walked in loc so that wall-clock times survive DST
// changes; results are returned in UTC, merged.
func expandWeekly(patterns []model.WeeklyPattern, loc *time.Location, from, to time.Time) ([]interval.Interval, error) {
	window := interval.Interval{Start: from, End: to}
	f := from.In(loc)
	var out []interval.Interval

	for day := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc); day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, p := range patterns {
			if int(day.Weekday()) != p.DayOfWeek {
				continue
			}
			startTOD, err := parseHHMM(p.StartTime)
			if err != nil {
				return nil, err
			}
			endTOD, err := parseHHMM(p.EndTime)
			if err != nil {
				return nil, err
			}
			if !endTOD.After(startTOD) {
				return nil, validationf("end_time must be after start_time for day %d", p.DayOfWeek)
			}
			y, m, d := day.Date()
			iv := interval.Interval{
				Start: time.Date(y, m, d, startTOD.Hour(), startTOD.Minute(), 0, 0, loc).UTC(),
				End:   time.Date(y, m, d, endTOD.Hour(), endTOD.Minute(), 0, 0, loc).UTC(),
			}
			out = append(out, iv)
		}
	}
	return interval.Merge(interval.Clip(out, window)), nil
}

func parseHHMM(s string) (time.Time, error) {
	// Take first 5 chars "HH:MM"
	if len(s) < 5 {
		return time.Time{}, validationf("invalid time string: %s", s)
	}
	s = s[:5] // "09:00:00" -> "09:00"
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, validationf("invalid time string: %s", s)
	}
	return tt, nil
}

func validateWeekly(patterns []model.WeeklyPattern) error {
	if len(patterns) == 0 {
		return validationf("weekly must contain at least one pattern")
	}
	for i, p := range patterns {
		if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
			return validationf("weekly[%d]: day_of_week must be 0-6", i)
		}
		start, err := parseHHMM(p.StartTime)
		if err != nil {
			return fmt.Errorf("weekly[%d]: %w", i, err)
		}
		end, err := parseHHMM(p.EndTime)
		if err != nil {
			return fmt.Errorf("weekly[%d]: %w", i, err)
		}
		if !end.After(start) {
			return validationf("weekly[%d]: end_time must be after start_time", i)
		}
	}
	return nil
}
