package app

import "time"

type availabilityRequest struct {
	UserIDs      []string  `json:"user_ids" binding:"required"`
	From         time.Time `json:"from" binding:"required"`
	To           time.Time `json:"to" binding:"required"`
	DurationMins int       `json:"duration_mins"`
	RuleID       string    `json:"rule_id"`
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

type rescheduleRequest struct {
	Start time.Time `json:"start" binding:"required"`
	End   time.Time `json:"end" binding:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type syncWindow struct {
	CalendarID string    `json:"calendar_id"`
	From       time.Time `json:"from" binding:"required"`
	To         time.Time `json:"to" binding:"required"`
}
