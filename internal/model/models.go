package model

import (
	"time"
)

// WeeklyPattern is one recurring working window, e.g. Monday 09:00-17:00.
// DayOfWeek follows time.Weekday: 0 is Sunday.
type WeeklyPattern struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type WorkingHours struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	UserID        string          `json:"user_id"`
	Weekly        []WeeklyPattern `json:"weekly"`
	Timezone      string          `json:"timezone"`
	EffectiveFrom *time.Time      `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// IsCurrent reports whether now falls inside [EffectiveFrom, EffectiveTo).
// A nil bound is open.
func (w WorkingHours) IsCurrent(now time.Time) bool {
	if w.EffectiveFrom != nil && w.EffectiveFrom.After(now) {
		return false
	}
	return w.EffectiveTo == nil || w.EffectiveTo.After(now)
}

type BusySource string

const (
	BusySourceManual       BusySource = "manual"
	BusySourceCalendarSync BusySource = "calendar_sync"
	BusySourceInterview    BusySource = "interview"
)

func (s BusySource) Valid() bool {
	switch s {
	case BusySourceManual, BusySourceCalendarSync, BusySourceInterview:
		return true
	}
	return false
}

// BusyBlock reserves time for one user. SourceID points at the interview or
// sync batch that wrote it; system writers replace their blocks by deleting
// everything with the same (Source, SourceID) before inserting.
type BusyBlock struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	UserID    string     `json:"user_id"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Reason    string     `json:"reason,omitempty"`
	Source    BusySource `json:"source"`
	SourceID  string     `json:"source_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type SchedulingRule struct {
	ID               string    `json:"id"`
	TenantID         string    `json:"tenant_id"`
	Name             string    `json:"name"`
	MinNoticeMins    int       `json:"min_notice_mins"`
	BufferBeforeMins int       `json:"buffer_before_mins"`
	BufferAfterMins  int       `json:"buffer_after_mins"`
	DefaultSlotMins  int       `json:"default_slot_mins"`
	AllowOverlapping bool      `json:"allow_overlapping"`
	IsDefault        bool      `json:"is_default"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusBooked, SlotStatusCancelled:
		return true
	}
	return false
}

type InterviewSlot struct {
	ID           string         `json:"id"`
	TenantID     string         `json:"tenant_id"`
	OrganizerID  string         `json:"organizer_id"`
	Participants []Participant  `json:"participants"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	Timezone     string         `json:"timezone"`
	Status       SlotStatus     `json:"status"`
	InterviewID  *string        `json:"interview_id,omitempty"`
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// UserIDs lists the ids of the User participants in order.
func (s *InterviewSlot) UserIDs() []string {
	var ids []string
	for _, p := range s.Participants {
		if p.Kind == ParticipantUser {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s *InterviewSlot) Candidate() (Participant, bool) {
	for _, p := range s.Participants {
		if p.Kind == ParticipantCandidate {
			return p, true
		}
	}
	return Participant{}, false
}

type InterviewStatus string

const (
	InterviewStatusScheduled InterviewStatus = "SCHEDULED"
	InterviewStatusCancelled InterviewStatus = "CANCELLED"
)

type Interview struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	SlotID         string          `json:"slot_id"`
	CandidateID    string          `json:"candidate_id"`
	InterviewerIDs []string        `json:"interviewer_ids"`
	Title          string          `json:"title,omitempty"`
	Start          time.Time       `json:"start"`
	End            time.Time       `json:"end"`
	Status         InterviewStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type UserProfile struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	Timezone string `json:"timezone,omitempty"`
}

type TenantSettings struct {
	TenantID string `json:"tenant_id"`
	Timezone string `json:"timezone,omitempty"`
}
