package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/cache"
	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

const oneDay = 24 * time.Hour

// Engine computes free time per user and across panels. Results are cached
// per user and day-aligned window; every mutation of working hours or busy
// blocks must call InvalidateUser before it returns.
type Engine struct {
	store store.Store
	cache cache.Cache
	rules *RuleEngine
	log   *zap.Logger
	cfg   Config
	now   func() time.Time
}

func userPrefix(tenantID, userID string) string {
	return fmt.Sprintf("avail:%s:%s:", tenantID, userID)
}

func tenantPrefix(tenantID string) string {
	return fmt.Sprintf("avail:%s:", tenantID)
}

// dayWindow widens [start, end) to whole UTC days.
func dayWindow(start, end time.Time) (time.Time, time.Time) {
	from := start.UTC().Truncate(oneDay)
	to := end.UTC().Truncate(oneDay)
	if to.Before(end.UTC()) {
		to = to.Add(oneDay)
	}
	return from, to
}

func windowKey(tenantID, userID, kind string, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s:%s", userPrefix(tenantID, userID), kind,
		from.Format("2006-01-02"), to.Add(-oneDay).Format("2006-01-02"))
}

func validRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationf("start and end are required")
	}
	if !end.After(start) {
		return validationf("end must be after start")
	}
	return nil
}

// FreeIntervals returns the user's free time inside [start, end).
func (e *Engine) FreeIntervals(ctx context.Context, tenantID, userID string, start, end time.Time) ([]interval.Interval, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	from, to := dayWindow(start, end)
	window := interval.Interval{Start: start, End: end}
	key := windowKey(tenantID, userID, "free", from, to)

	if cached, ok := e.cacheGet(ctx, key); ok {
		return interval.Clip(cached, window), nil
	}

	weekly, loc, err := e.workingPattern(ctx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	working, err := expandWeekly(weekly, loc, from, to)
	if err != nil {
		return nil, err
	}
	busy, err := e.busyIntervals(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, err
	}
	free := interval.Subtract(working, busy)
	e.cacheSet(ctx, key, free, e.cfg.FreeTTL)
	return interval.Clip(free, window), nil
}

func (e *Engine) busyIntervals(ctx context.Context, tenantID, userID string, from, to time.Time) ([]interval.Interval, error) {
	key := windowKey(tenantID, userID, "busy", from, to)
	if cached, ok := e.cacheGet(ctx, key); ok {
		return cached, nil
	}
	blocks, err := e.store.ListBusyBlocks(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, storeErr(err, "busy blocks")
	}
	out := make([]interval.Interval, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, interval.Interval{Start: b.Start.UTC(), End: b.End.UTC()})
	}
	out = interval.Merge(out)
	e.cacheSet(ctx, key, out, e.cfg.BusyTTL)
	return out, nil
}

// workingPattern returns the user's current weekly pattern and its location,
// falling back to the default pattern when none is recorded.
func (e *Engine) workingPattern(ctx context.Context, tenantID, userID string) ([]model.WeeklyPattern, *time.Location, error) {
	wh, err := e.store.CurrentWorkingHours(ctx, tenantID, userID, e.now())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, storeErr(err, "working hours")
	}

	weekly := defaultWeekly()
	tz := ""
	if wh != nil {
		weekly = wh.Weekly
		tz = wh.Timezone
	}
	if tz == "" {
		tz, err = e.resolveTimezone(ctx, tenantID, userID)
		if err != nil {
			return nil, nil, err
		}
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		e.log.Warn("unknown timezone, using UTC",
			zap.String("tenant_id", tenantID), zap.String("user_id", userID), zap.String("timezone", tz))
		loc = time.UTC
	}
	return weekly, loc, nil
}

func (e *Engine) resolveTimezone(ctx context.Context, tenantID, userID string) (string, error) {
	profile, err := e.store.GetUserProfile(ctx, tenantID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", storeErr(err, "user profile")
	}
	settings, err := e.store.GetTenantSettings(ctx, tenantID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return "", storeErr(err, "tenant settings")
	}
	return ResolveTimezone(settings, profile, e.cfg.DefaultTimezone), nil
}

func (e *Engine) cacheGet(ctx context.Context, key string) ([]interval.Interval, bool) {
	raw, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var out []interval.Interval
	if err := json.Unmarshal(raw, &out); err != nil {
		e.log.Warn("cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return out, true
}

func (e *Engine) cacheSet(ctx context.Context, key string, list []interval.Interval, ttl time.Duration) {
	raw, err := json.Marshal(list)
	if err != nil {
		return
	}
	if err := e.cache.Set(ctx, key, raw, ttl); err != nil {
		e.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (e *Engine) InvalidateUser(ctx context.Context, tenantID, userID string) error {
	return e.cache.DeletePrefix(ctx, userPrefix(tenantID, userID))
}

func (e *Engine) InvalidateTenant(ctx context.Context, tenantID string) error {
	return e.cache.DeletePrefix(ctx, tenantPrefix(tenantID))
}

func (e *Engine) invalidateUsers(ctx context.Context, tenantID string, userIDs []string) {
	for _, u := range uniqueStrings(userIDs) {
		if err := e.InvalidateUser(ctx, tenantID, u); err != nil {
			e.log.Error("cache invalidation failed",
				zap.String("tenant_id", tenantID), zap.String("user_id", u), zap.Error(err))
		}
	}
}

type MultiRequest struct {
	TenantID     string
	UserIDs      []string
	Start        time.Time
	End          time.Time
	DurationMins int
	RuleID       string
}

type MultiResult struct {
	PerUser  map[string][]interval.Interval `json:"per_user"`
	Combined []interval.Interval            `json:"combined"`
	Rule     *model.SchedulingRule          `json:"rule"`
}

// MultiUserAvailability intersects the users' free time and cuts it into
// bookable slots under the rule's buffers and minimum notice.
func (e *Engine) MultiUserAvailability(ctx context.Context, req MultiRequest) (*MultiResult, error) {
	users := uniqueStrings(req.UserIDs)
	if len(users) == 0 {
		return nil, validationf("at least one user is required")
	}
	if err := validRange(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.DurationMins < 0 {
		return nil, validationf("duration must not be negative")
	}

	var (
		rule *model.SchedulingRule
		err  error
	)
	if req.RuleID != "" {
		rule, err = e.rules.Get(ctx, req.TenantID, req.RuleID)
	} else {
		rule, err = e.rules.DefaultRule(ctx, req.TenantID)
	}
	if err != nil {
		return nil, err
	}

	perUser := make(map[string][]interval.Interval, len(users))
	lists := make([][]interval.Interval, 0, len(users))
	for _, u := range users {
		free, err := e.FreeIntervals(ctx, req.TenantID, u, req.Start, req.End)
		if err != nil {
			return nil, err
		}
		perUser[u] = free
		lists = append(lists, free)
	}

	duration := req.DurationMins
	if duration == 0 {
		duration = rule.DefaultSlotMins
	}
	combined := interval.IntersectLists(lists)
	combined = interval.ApplyBuffers(combined, rule.BufferBeforeMins, rule.BufferAfterMins)
	combined = interval.SliceIntoSlots(combined, duration, e.cfg.AlignToHalfHour)
	combined = interval.FilterByMinNotice(combined, rule.MinNoticeMins, e.now())

	return &MultiResult{PerUser: perUser, Combined: combined, Rule: rule}, nil
}

// IsSlotAvailable reports whether every user has a free interval covering
// [start, end).
func (e *Engine) IsSlotAvailable(ctx context.Context, tenantID string, userIDs []string, start, end time.Time) (bool, error) {
	if err := validRange(start, end); err != nil {
		return false, err
	}
	want := interval.Interval{Start: start, End: end}
	for _, u := range uniqueStrings(userIDs) {
		free, err := e.FreeIntervals(ctx, tenantID, u, start, end)
		if err != nil {
			return false, err
		}
		if !interval.Contains(free, want) {
			return false, nil
		}
	}
	return true, nil
}

type TeamResult struct {
	PerUser     map[string][]interval.Interval `json:"per_user"`
	FreeMinutes map[string]int                 `json:"free_minutes"`
	Common      []interval.Interval            `json:"common"`
}

// TeamAvailability reports each member's free time and the unsliced common time.
func (e *Engine) TeamAvailability(ctx context.Context, tenantID string, userIDs []string, start, end time.Time) (*TeamResult, error) {
	users := uniqueStrings(userIDs)
	if len(users) == 0 {
		return nil, validationf("at least one user is required")
	}
	res := &TeamResult{
		PerUser:     make(map[string][]interval.Interval, len(users)),
		FreeMinutes: make(map[string]int, len(users)),
	}
	lists := make([][]interval.Interval, 0, len(users))
	for _, u := range users {
		free, err := e.FreeIntervals(ctx, tenantID, u, start, end)
		if err != nil {
			return nil, err
		}
		res.PerUser[u] = free
		res.FreeMinutes[u] = int(interval.TotalDuration(free) / time.Minute)
		lists = append(lists, free)
	}
	res.Common = interval.IntersectLists(lists)
	return res, nil
}

// UserLocation is the location the user's working hours are read in. Floating
// times from the user's external calendars are interpreted there too.
func (e *Engine) UserLocation(ctx context.Context, tenantID, userID string) (*time.Location, error) {
	_, loc, err := e.workingPattern(ctx, tenantID, userID)
	return loc, err
}
