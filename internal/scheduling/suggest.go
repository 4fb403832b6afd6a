package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/store"
)

const (
	baseScore            = 50
	defaultSuggestions   = 10
	defaultMinGapMins    = 60
	candidateHistorySpan = 7 * 24 * time.Hour
)

type SuggestRequest struct {
	TenantID       string    `json:"-"`
	InterviewerIDs []string  `json:"interviewer_ids"`
	CandidateID    string    `json:"candidate_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	DurationMins   int       `json:"duration_mins"`
	RuleID         string    `json:"rule_id"`
	// PreferredTimeOfDay is one of morning, afternoon, evening.
	PreferredTimeOfDay string `json:"preferred_time_of_day"`
	PreferredDays      []int  `json:"preferred_days"`
	AvoidBackToBack    bool   `json:"avoid_back_to_back"`
	MinGapMins         int    `json:"min_gap_mins"`
	Timezone           string `json:"timezone"`
	Limit              int    `json:"limit"`
}

type Suggestion struct {
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Score        int             `json:"score"`
	Reasons      []string        `json:"reasons"`
	Availability map[string]bool `json:"availability"`
}

// Ranker scores bookable slots against preferences, interviewer load and the
// candidate's other interviews.
type Ranker struct {
	store  store.Store
	engine *Engine
	cfg    Config
	now    func() time.Time
}

type bucket int

const (
	bucketNone bucket = iota
	bucketMorning
	bucketAfternoon
	bucketEvening
)

var bucketNames = map[string]bucket{
	"morning":   bucketMorning,
	"afternoon": bucketAfternoon,
	"evening":   bucketEvening,
}

func (b bucket) String() string {
	for name, v := range bucketNames {
		if v == b {
			return name
		}
	}
	return "off-hours"
}

func bucketOf(t time.Time) bucket {
	switch h := t.Hour(); {
	case h >= 8 && h < 12:
		return bucketMorning
	case h >= 12 && h < 17:
		return bucketAfternoon
	case h >= 17 && h < 21:
		return bucketEvening
	}
	return bucketNone
}

func (r *Ranker) validate(req *SuggestRequest) (*time.Location, error) {
	req.InterviewerIDs = uniqueStrings(req.InterviewerIDs)
	if len(req.InterviewerIDs) == 0 {
		return nil, validationf("at least one interviewer is required")
	}
	if len(req.InterviewerIDs) > r.cfg.MaxPanelSize {
		return nil, validationf("panel size %d exceeds maximum %d", len(req.InterviewerIDs), r.cfg.MaxPanelSize)
	}
	if err := validRange(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.PreferredTimeOfDay != "" {
		if _, ok := bucketNames[req.PreferredTimeOfDay]; !ok {
			return nil, validationf("preferred_time_of_day must be morning, afternoon or evening")
		}
	}
	for _, d := range req.PreferredDays {
		if d < 0 || d > 6 {
			return nil, validationf("preferred_days must be 0-6")
		}
	}
	if req.MinGapMins < 0 || req.Limit < 0 {
		return nil, validationf("min_gap_mins and limit must not be negative")
	}
	if req.MinGapMins == 0 {
		req.MinGapMins = defaultMinGapMins
	}
	if req.Limit == 0 {
		req.Limit = defaultSuggestions
	}
	return loadLocation(req.Timezone)
}

// Suggest returns the best-scoring slots, highest score first and earlier
// start on ties.
func (r *Ranker) Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error) {
	loc, err := r.validate(&req)
	if err != nil {
		return nil, err
	}

	avail, err := r.engine.MultiUserAvailability(ctx, MultiRequest{
		TenantID:     req.TenantID,
		UserIDs:      req.InterviewerIDs,
		Start:        req.Start,
		End:          req.End,
		DurationMins: req.DurationMins,
		RuleID:       req.RuleID,
	})
	if err != nil {
		return nil, err
	}

	counts, err := r.store.CountScheduledInterviews(ctx, req.TenantID, req.InterviewerIDs, req.Start, req.End)
	if err != nil {
		return nil, storeErr(err, "interview counts")
	}
	loadDelta, loadReason := loadScore(counts, req.InterviewerIDs)

	var history []interval.Interval
	if req.AvoidBackToBack && req.CandidateID != "" {
		ivs, err := r.store.ListCandidateInterviews(ctx, req.TenantID, req.CandidateID,
			req.Start.Add(-candidateHistorySpan), req.End.Add(candidateHistorySpan))
		if err != nil {
			return nil, storeErr(err, "candidate interviews")
		}
		for _, iv := range ivs {
			history = append(history, interval.Interval{Start: iv.Start, End: iv.End})
		}
	}

	now := r.now()
	out := make([]Suggestion, 0, len(avail.Combined))
	for _, slot := range avail.Combined {
		score := baseScore
		var reasons []string
		add := func(delta int, reason string) {
			score += delta
			reasons = append(reasons, fmt.Sprintf("%s (%+d)", reason, delta))
		}

		local := slot.Start.In(loc)
		if req.PreferredTimeOfDay != "" {
			add(timeOfDayScore(bucketNames[req.PreferredTimeOfDay], bucketOf(local)))
		}
		if len(req.PreferredDays) > 0 {
			add(dayScore(req.PreferredDays, local.Weekday()))
		}
		add(loadDelta, loadReason)
		if req.AvoidBackToBack && req.CandidateID != "" {
			if delta, reason := gapScore(slot, history, time.Duration(req.MinGapMins)*time.Minute); delta != 0 {
				add(delta, reason)
			}
		}
		if delta, reason := recencyScore(slot.Start.Sub(now)); delta != 0 {
			add(delta, reason)
		}

		availability := make(map[string]bool, len(req.InterviewerIDs))
		for _, u := range req.InterviewerIDs {
			availability[u] = interval.Contains(avail.PerUser[u], slot)
		}
		out = append(out, Suggestion{
			Start:        slot.Start,
			End:          slot.End,
			Score:        clamp(score, 0, 100),
			Reasons:      reasons,
			Availability: availability,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Start.Before(out[j].Start)
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func timeOfDayScore(want, got bucket) (int, string) {
	switch {
	case want == got:
		return 20, fmt.Sprintf("in preferred %s window", want)
	case got != bucketNone && (got-want == 1 || want-got == 1):
		return 5, fmt.Sprintf("%s is next to preferred %s window", got, want)
	}
	return -10, fmt.Sprintf("%s outside preferred %s window", got, want)
}

func dayScore(days []int, wd time.Weekday) (int, string) {
	for _, d := range days {
		if d == int(wd) {
			return 15, fmt.Sprintf("%s is a preferred day", wd)
		}
	}
	return -5, fmt.Sprintf("%s is not a preferred day", wd)
}

// loadScore rates how evenly scheduled interviews are spread across the
// panel, using population variance of per-interviewer counts.
func loadScore(counts map[string]int, users []string) (int, string) {
	total := 0
	for _, u := range users {
		total += counts[u]
	}
	if total == 0 {
		return 25, "no prior interviews for the panel"
	}
	mean := float64(total) / float64(len(users))
	var variance float64
	for _, u := range users {
		d := float64(counts[u]) - mean
		variance += d * d
	}
	variance /= float64(len(users))

	switch {
	case variance < 1:
		return 25, fmt.Sprintf("interviewer load balanced (variance %.2f)", variance)
	case variance < 4:
		return 15, fmt.Sprintf("interviewer load mostly balanced (variance %.2f)", variance)
	case variance < 9:
		return 5, fmt.Sprintf("interviewer load uneven (variance %.2f)", variance)
	}
	return -5, fmt.Sprintf("interviewer load unbalanced (variance %.2f)", variance)
}

func gapScore(slot interval.Interval, history []interval.Interval, minGap time.Duration) (int, string) {
	if len(history) == 0 {
		return 10, "candidate has no nearby interviews"
	}
	nearest := interval.Gap(slot, history[0])
	for _, h := range history[1:] {
		if g := interval.Gap(slot, h); g < nearest {
			nearest = g
		}
	}
	switch {
	case nearest < minGap/2:
		return -20, fmt.Sprintf("only %s from candidate's other interview", nearest)
	case nearest < minGap:
		return -10, fmt.Sprintf("%s from candidate's other interview", nearest)
	case nearest >= 2*minGap:
		return 10, fmt.Sprintf("%s clear of candidate's other interviews", nearest)
	}
	return 0, ""
}

func recencyScore(until time.Duration) (int, string) {
	switch {
	case until <= 24*time.Hour:
		return 10, "within a day"
	case until <= 72*time.Hour:
		return 7, "within three days"
	case until <= 7*24*time.Hour:
		return 3, "within a week"
	}
	return 0, ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
