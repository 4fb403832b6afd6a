// Package scheduling is the availability and slot booking core: free-time
// computation, scheduling rules, the slot state machine and suggestion
// ranking.
package scheduling

import (
	"context"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/cache"
	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

const (
	DefaultFreeTTL      = 5 * time.Minute
	DefaultBusyTTL      = time.Minute
	DefaultTxTimeout    = 10 * time.Second
	DefaultMaxPanelSize = 8
)

type Config struct {
	FreeTTL         time.Duration
	BusyTTL         time.Duration
	TxTimeout       time.Duration
	MaxPanelSize    int
	DefaultTimezone string
	AlignToHalfHour bool
}

func (c Config) withDefaults() Config {
	if c.FreeTTL <= 0 {
		c.FreeTTL = DefaultFreeTTL
	}
	if c.BusyTTL <= 0 {
		c.BusyTTL = DefaultBusyTTL
	}
	if c.TxTimeout <= 0 {
		c.TxTimeout = DefaultTxTimeout
	}
	if c.MaxPanelSize <= 0 {
		c.MaxPanelSize = DefaultMaxPanelSize
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "UTC"
	}
	return c
}

// Reminders plans delayed reminder jobs for booked slots.
type Reminders interface {
	Schedule(ctx context.Context, slot *model.InterviewSlot) error
	Cancel(ctx context.Context, tenantID, slotID string) error
}

// Automation is notified after slot transitions commit.
type Automation interface {
	SlotBooked(ctx context.Context, slot *model.InterviewSlot) error
	SlotRescheduled(ctx context.Context, slot *model.InterviewSlot, previous interval.Interval) error
	SlotCancelled(ctx context.Context, slot *model.InterviewSlot) error
}

type Deps struct {
	Store      store.Store
	Cache      cache.Cache
	Reminders  Reminders
	Automation Automation
	Logger     *zap.Logger
	Now        func() time.Time
}

// Service groups the scheduling components sharing one store and cache.
type Service struct {
	Availability *Engine
	Rules        *RuleEngine
	WorkingHours *WorkingHoursService
	BusyBlocks   *BusyBlockService
	Slots        *SlotService
	Suggestions  *Ranker
}

func New(cfg Config, d Deps) *Service {
	cfg = cfg.withDefaults()
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Cache == nil {
		d.Cache = cache.NewMemory()
	}
	if d.Reminders == nil {
		d.Reminders = noopReminders{}
	}
	if d.Automation == nil {
		d.Automation = NewLogAutomation(d.Logger)
	}

	rules := &RuleEngine{store: d.Store, log: d.Logger, now: d.Now}
	engine := &Engine{store: d.Store, cache: d.Cache, rules: rules, log: d.Logger, cfg: cfg, now: d.Now}
	return &Service{
		Availability: engine,
		Rules:        rules,
		WorkingHours: &WorkingHoursService{store: d.Store, engine: engine, now: d.Now},
		BusyBlocks:   &BusyBlockService{store: d.Store, engine: engine, now: d.Now},
		Slots: &SlotService{
			store:      d.Store,
			engine:     engine,
			reminders:  d.Reminders,
			automation: d.Automation,
			log:        d.Logger,
			cfg:        cfg,
			now:        d.Now,
		},
		Suggestions: &Ranker{store: d.Store, engine: engine, cfg: cfg, now: d.Now},
	}
}

type noopReminders struct{}

func (noopReminders) Schedule(context.Context, *model.InterviewSlot) error { return nil }
func (noopReminders) Cancel(context.Context, string, string) error         { return nil }

// LogAutomation records slot transitions in the log. It stands in for the
// interview automation collaborator.
type LogAutomation struct {
	log *zap.Logger
}

func NewLogAutomation(log *zap.Logger) *LogAutomation {
	return &LogAutomation{log: log}
}

func (a *LogAutomation) SlotBooked(_ context.Context, slot *model.InterviewSlot) error {
	a.log.Info("slot booked", slotFields(slot)...)
	return nil
}

func (a *LogAutomation) SlotRescheduled(_ context.Context, slot *model.InterviewSlot, previous interval.Interval) error {
	a.log.Info("slot rescheduled", append(slotFields(slot),
		zap.Time("previous_start", previous.Start), zap.Time("previous_end", previous.End))...)
	return nil
}

func (a *LogAutomation) SlotCancelled(_ context.Context, slot *model.InterviewSlot) error {
	a.log.Info("slot cancelled", slotFields(slot)...)
	return nil
}

func slotFields(slot *model.InterviewSlot) []zap.Field {
	fields := []zap.Field{
		zap.String("tenant_id", slot.TenantID),
		zap.String("slot_id", slot.ID),
		zap.Time("start", slot.Start),
		zap.Time("end", slot.End),
	}
	if slot.InterviewID != nil {
		fields = append(fields, zap.String("interview_id", *slot.InterviewID))
	}
	return fields
}

// Actor is the principal performing a mutation.
type Actor struct {
	UserID string
	Admin  bool
}

func (a Actor) CanManage(userID string) bool {
	return a.Admin || (a.UserID != "" && a.UserID == userID)
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
