// Package store declares the persistence ports used by the scheduling core.
// Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"interview-scheduler/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a transaction lost a race (lock timeout, serialization
	// failure, deadline). Callers may retry.
	ErrConflict = errors.New("concurrent update conflict")
)

type SlotFilter struct {
	OrganizerID string
	Status      model.SlotStatus
	From        time.Time
	To          time.Time
	Limit       int
	Offset      int
}

// Repo is the set of queries available both inside and outside a transaction.
type Repo interface {
	InsertWorkingHours(ctx context.Context, wh *model.WorkingHours) error
	// CurrentWorkingHours returns the newest record whose effective_to is null or after now.
	CurrentWorkingHours(ctx context.Context, tenantID, userID string, now time.Time) (*model.WorkingHours, error)
	ListWorkingHours(ctx context.Context, tenantID, userID string) ([]model.WorkingHours, error)

	InsertBusyBlocks(ctx context.Context, blocks []model.BusyBlock) error
	GetBusyBlock(ctx context.Context, tenantID, id string) (*model.BusyBlock, error)
	DeleteBusyBlock(ctx context.Context, tenantID, id string) error
	// ListBusyBlocks returns the user's blocks overlapping [from, to).
	ListBusyBlocks(ctx context.Context, tenantID, userID string, from, to time.Time) ([]model.BusyBlock, error)
	ListBusyBlocksBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string) ([]model.BusyBlock, error)
	DeleteBusyBlocksBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string) (int64, error)

	InsertRule(ctx context.Context, r *model.SchedulingRule) error
	UpdateRule(ctx context.Context, r *model.SchedulingRule) error
	GetRule(ctx context.Context, tenantID, id string) (*model.SchedulingRule, error)
	GetDefaultRule(ctx context.Context, tenantID string) (*model.SchedulingRule, error)
	ListRules(ctx context.Context, tenantID string) ([]model.SchedulingRule, error)
	DeleteRule(ctx context.Context, tenantID, id string) error
	// ClearDefaultRules unsets is_default on every rule of the tenant except exceptID.
	ClearDefaultRules(ctx context.Context, tenantID, exceptID string) error

	InsertSlots(ctx context.Context, slots []*model.InterviewSlot) error
	GetSlot(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error)
	// GetSlotForUpdate loads the slot and holds its row lock until the
	// surrounding transaction ends.
	GetSlotForUpdate(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error)
	UpdateSlot(ctx context.Context, s *model.InterviewSlot) error
	DeleteSlot(ctx context.Context, tenantID, id string) error
	ListSlots(ctx context.Context, tenantID string, f SlotFilter) ([]model.InterviewSlot, error)

	InsertInterview(ctx context.Context, iv *model.Interview) error
	GetInterview(ctx context.Context, tenantID, id string) (*model.Interview, error)
	UpdateInterview(ctx context.Context, iv *model.Interview) error
	// CountScheduledInterviews counts SCHEDULED interviews per interviewer starting in [from, to).
	CountScheduledInterviews(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) (map[string]int, error)
	ListCandidateInterviews(ctx context.Context, tenantID, candidateID string, from, to time.Time) ([]model.Interview, error)

	GetUserProfile(ctx context.Context, tenantID, userID string) (*model.UserProfile, error)
	UpsertUserProfile(ctx context.Context, p *model.UserProfile) error
	GetTenantSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error)
	UpsertTenantSettings(ctx context.Context, s *model.TenantSettings) error
}

type Store interface {
	Repo
	// WithTx runs fn in one transaction; fn's Repo must not escape it.
	WithTx(ctx context.Context, fn func(tx Repo) error) error
}
