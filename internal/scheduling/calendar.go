package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

// WorkingHoursInput replaces a user's working hours. A record with a future
// EffectiveFrom is stored but only becomes current once that time passes.
type WorkingHoursInput struct {
	Weekly        []model.WeeklyPattern `json:"weekly"`
	Timezone      string                `json:"timezone"`
	EffectiveFrom *time.Time            `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time            `json:"effective_to,omitempty"`
}

type WorkingHoursService struct {
	store  store.Store
	engine *Engine
	now    func() time.Time
}

// Get returns the user's current working hours.
func (s *WorkingHoursService) Get(ctx context.Context, tenantID, userID string) (*model.WorkingHours, error) {
	wh, err := s.store.CurrentWorkingHours(ctx, tenantID, userID, s.now())
	if err != nil {
		return nil, storeErr(err, "working hours for user "+userID)
	}
	return wh, nil
}

func (s *WorkingHoursService) History(ctx context.Context, tenantID, userID string) ([]model.WorkingHours, error) {
	list, err := s.store.ListWorkingHours(ctx, tenantID, userID)
	if err != nil {
		return nil, storeErr(err, "working hours")
	}
	return list, nil
}

// Set records a new working-hours version for the user. Older versions are
// kept; the newest unexpired one is current.
func (s *WorkingHoursService) Set(ctx context.Context, actor Actor, tenantID, userID string, in WorkingHoursInput) (*model.WorkingHours, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if err := validateWeekly(in.Weekly); err != nil {
		return nil, err
	}
	if in.Timezone == "" {
		return nil, validationf("timezone is required")
	}
	if _, err := loadLocation(in.Timezone); err != nil {
		return nil, err
	}
	if in.EffectiveFrom != nil && in.EffectiveTo != nil && !in.EffectiveTo.After(*in.EffectiveFrom) {
		return nil, validationf("effective_to must be after effective_from")
	}

	wh := &model.WorkingHours{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		UserID:        userID,
		Weekly:        in.Weekly,
		Timezone:      in.Timezone,
		EffectiveFrom: in.EffectiveFrom,
		EffectiveTo:   in.EffectiveTo,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.InsertWorkingHours(ctx, wh); err != nil {
		return nil, storeErr(err, "working hours")
	}
	s.engine.invalidateUsers(ctx, tenantID, []string{userID})
	return wh, nil
}

type BusyBlockInput struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

type BusyBlockService struct {
	store  store.Store
	engine *Engine
	now    func() time.Time
}

// Create adds a manual busy block for the user.
func (s *BusyBlockService) Create(ctx context.Context, actor Actor, tenantID, userID string, in BusyBlockInput) (*model.BusyBlock, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if err := validRange(in.Start, in.End); err != nil {
		return nil, err
	}
	b := model.BusyBlock{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		UserID:    userID,
		Start:     in.Start.UTC(),
		End:       in.End.UTC(),
		Reason:    in.Reason,
		Source:    model.BusySourceManual,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertBusyBlocks(ctx, []model.BusyBlock{b}); err != nil {
		return nil, storeErr(err, "busy block")
	}
	s.engine.invalidateUsers(ctx, tenantID, []string{userID})
	return &b, nil
}

func (s *BusyBlockService) List(ctx context.Context, tenantID, userID string, from, to time.Time) ([]model.BusyBlock, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	list, err := s.store.ListBusyBlocks(ctx, tenantID, userID, from, to)
	if err != nil {
		return nil, storeErr(err, "busy blocks")
	}
	return list, nil
}

// Delete removes a manual block. Sync and interview blocks belong to their
// writers and are Forbidden here.
func (s *BusyBlockService) Delete(ctx context.Context, actor Actor, tenantID, id string) error {
	b, err := s.store.GetBusyBlock(ctx, tenantID, id)
	if err != nil {
		return storeErr(err, "busy block "+id)
	}
	if b.Source != model.BusySourceManual {
		return ErrForbidden
	}
	if !actor.CanManage(b.UserID) {
		return ErrForbidden
	}
	if err := s.store.DeleteBusyBlock(ctx, tenantID, id); err != nil {
		return storeErr(err, "busy block "+id)
	}
	s.engine.invalidateUsers(ctx, tenantID, []string{b.UserID})
	return nil
}

// ReplaceBySource swaps the blocks written under (source, sourceID) that
// overlap window for blocks, in one transaction. Blocks of the batch outside
// window are kept, and a block straddling the window edge keeps its outside
// part. Repeating the call with the same input leaves the same blocks behind.
func (s *BusyBlockService) ReplaceBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string, window interval.Interval, blocks []model.BusyBlock) error {
	if !source.Valid() || source == model.BusySourceManual {
		return validationf("source %q cannot be replaced", source)
	}
	if sourceID == "" {
		return validationf("source_id is required")
	}
	if !window.Valid() {
		return validationf("replace window must have start < end")
	}
	window = interval.Interval{Start: window.Start.UTC(), End: window.End.UTC()}
	now := s.now().UTC()
	users := make([]string, 0, len(blocks))
	rows := make([]model.BusyBlock, 0, len(blocks))
	for _, b := range blocks {
		if err := validRange(b.Start, b.End); err != nil {
			return err
		}
		if b.Start.Before(window.Start) || b.End.After(window.End) {
			return validationf("block %s-%s falls outside the replace window", b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339))
		}
		b.ID = uuid.NewString()
		b.TenantID = tenantID
		b.Source = source
		b.SourceID = sourceID
		b.Start = b.Start.UTC()
		b.End = b.End.UTC()
		b.CreatedAt = now
		rows = append(rows, b)
		users = append(users, b.UserID)
	}

	err := s.store.WithTx(ctx, func(tx store.Repo) error {
		old, err := tx.ListBusyBlocksBySource(ctx, tenantID, source, sourceID)
		if err != nil {
			return err
		}
		for _, b := range old {
			if !b.Start.Before(window.End) || !b.End.After(window.Start) {
				continue
			}
			users = append(users, b.UserID)
			if err := tx.DeleteBusyBlock(ctx, tenantID, b.ID); err != nil {
				return err
			}
			for _, rest := range interval.Subtract([]interval.Interval{{Start: b.Start, End: b.End}}, []interval.Interval{window}) {
				kept := b
				kept.ID = uuid.NewString()
				kept.Start, kept.End = rest.Start, rest.End
				rows = append(rows, kept)
			}
		}
		return tx.InsertBusyBlocks(ctx, rows)
	})
	if err != nil {
		return storeErr(err, "busy blocks")
	}
	s.engine.invalidateUsers(ctx, tenantID, users)
	return nil
}

// DeleteBySource removes every block written under (source, sourceID).
func (s *BusyBlockService) DeleteBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string) (int64, error) {
	var (
		users []string
		n     int64
	)
	err := s.store.WithTx(ctx, func(tx store.Repo) error {
		old, err := tx.ListBusyBlocksBySource(ctx, tenantID, source, sourceID)
		if err != nil {
			return err
		}
		for _, b := range old {
			users = append(users, b.UserID)
		}
		n, err = tx.DeleteBusyBlocksBySource(ctx, tenantID, source, sourceID)
		return err
	})
	if err != nil {
		return 0, storeErr(err, "busy blocks")
	}
	s.engine.invalidateUsers(ctx, tenantID, users)
	return n, nil
}

// SetUserTimezone records the user's profile timezone. It only affects users
// whose working hours carry no timezone of their own.
func (s *WorkingHoursService) SetUserTimezone(ctx context.Context, actor Actor, tenantID, userID, tz string) (*model.UserProfile, error) {
	if !actor.CanManage(userID) {
		return nil, ErrForbidden
	}
	if tz != "" {
		if _, err := loadLocation(tz); err != nil {
			return nil, err
		}
	}
	p := &model.UserProfile{TenantID: tenantID, UserID: userID, Timezone: tz}
	if err := s.store.UpsertUserProfile(ctx, p); err != nil {
		return nil, storeErr(err, "user profile")
	}
	s.engine.invalidateUsers(ctx, tenantID, []string{userID})
	return p, nil
}

// SetTenantTimezone records the tenant fallback timezone and drops every
// cached availability result of the tenant.
func (s *WorkingHoursService) SetTenantTimezone(ctx context.Context, actor Actor, tenantID, tz string) (*model.TenantSettings, error) {
	if !actor.Admin {
		return nil, ErrForbidden
	}
	if tz != "" {
		if _, err := loadLocation(tz); err != nil {
			return nil, err
		}
	}
	settings := &model.TenantSettings{TenantID: tenantID, Timezone: tz}
	if err := s.store.UpsertTenantSettings(ctx, settings); err != nil {
		return nil, storeErr(err, "tenant settings")
	}
	if err := s.engine.InvalidateTenant(ctx, tenantID); err != nil {
		s.engine.log.Error("tenant cache invalidation failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
	return settings, nil
}
