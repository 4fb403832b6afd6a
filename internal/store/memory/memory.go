// Package memory implements store.Store in process memory. Transactions are
// serialised and applied atomically, which gives the same booking guarantees
// as row locks in PostgreSQL. Used by tests and by `serve --memory`.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

type db struct {
	mu *sync.Mutex // nil inside a transaction; the Store already holds it

	workingHours []model.WorkingHours
	busy         map[string]model.BusyBlock
	rules        map[string]model.SchedulingRule
	slots        map[string]model.InterviewSlot
	interviews   map[string]model.Interview
	profiles     map[string]model.UserProfile
	tenants      map[string]model.TenantSettings
}

type Store struct {
	*db
	mu sync.Mutex
}

func New() *Store {
	s := &Store{}
	s.db = newDB(&s.mu)
	return s
}

func newDB(mu *sync.Mutex) *db {
	return &db{
		mu:         mu,
		busy:       make(map[string]model.BusyBlock),
		rules:      make(map[string]model.SchedulingRule),
		slots:      make(map[string]model.InterviewSlot),
		interviews: make(map[string]model.Interview),
		profiles:   make(map[string]model.UserProfile),
		tenants:    make(map[string]model.TenantSettings),
	}
}

func (d *db) lock() func() {
	if d.mu == nil {
		return func() {}
	}
	d.mu.Lock()
	return d.mu.Unlock
}

func (d *db) clone() *db {
	c := newDB(nil)
	c.workingHours = append([]model.WorkingHours(nil), d.workingHours...)
	for k, v := range d.busy {
		c.busy[k] = v
	}
	for k, v := range d.rules {
		c.rules[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = cloneSlot(v)
	}
	for k, v := range d.interviews {
		c.interviews[k] = cloneInterview(v)
	}
	for k, v := range d.profiles {
		c.profiles[k] = v
	}
	for k, v := range d.tenants {
		c.tenants[k] = v
	}
	return c
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Repo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return store.ErrConflict
	}
	tx := s.db.clone()
	if err := fn(tx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return store.ErrConflict
	}
	s.db.adopt(tx)
	return nil
}

// adopt replaces d's contents with tx's. The caller holds d.mu, and d itself
// stays in place so callers outside a transaction keep writing to live state.
func (d *db) adopt(tx *db) {
	d.workingHours = tx.workingHours
	d.busy = tx.busy
	d.rules = tx.rules
	d.slots = tx.slots
	d.interviews = tx.interviews
	d.profiles = tx.profiles
	d.tenants = tx.tenants
}

func profileKey(tenantID, userID string) string {
	return tenantID + "/" + userID
}

func cloneSlot(s model.InterviewSlot) model.InterviewSlot {
	s.Participants = append([]model.Participant(nil), s.Participants...)
	if s.Metadata != nil {
		md := make(map[string]any, len(s.Metadata))
		for k, v := range s.Metadata {
			md[k] = v
		}
		s.Metadata = md
	}
	if s.InterviewID != nil {
		id := *s.InterviewID
		s.InterviewID = &id
	}
	return s
}

func cloneInterview(iv model.Interview) model.Interview {
	iv.InterviewerIDs = append([]string(nil), iv.InterviewerIDs...)
	return iv
}

// Working hours

func (d *db) InsertWorkingHours(_ context.Context, wh *model.WorkingHours) error {
	defer d.lock()()
	c := *wh
	c.Weekly = append([]model.WeeklyPattern(nil), wh.Weekly...)
	d.workingHours = append(d.workingHours, c)
	return nil
}

func (d *db) CurrentWorkingHours(_ context.Context, tenantID, userID string, now time.Time) (*model.WorkingHours, error) {
	defer d.lock()()
	var best *model.WorkingHours
	for i := range d.workingHours {
		wh := d.workingHours[i]
		if wh.TenantID != tenantID || wh.UserID != userID || !wh.IsCurrent(now) {
			continue
		}
		if best == nil || !wh.CreatedAt.Before(best.CreatedAt) {
			c := wh
			best = &c
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (d *db) ListWorkingHours(_ context.Context, tenantID, userID string) ([]model.WorkingHours, error) {
	defer d.lock()()
	var out []model.WorkingHours
	for _, wh := range d.workingHours {
		if wh.TenantID == tenantID && wh.UserID == userID {
			out = append(out, wh)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Busy blocks

func (d *db) InsertBusyBlocks(_ context.Context, blocks []model.BusyBlock) error {
	defer d.lock()()
	for _, b := range blocks {
		if _, exists := d.busy[b.ID]; exists {
			return store.ErrConflict
		}
	}
	for _, b := range blocks {
		d.busy[b.ID] = b
	}
	return nil
}

func (d *db) GetBusyBlock(_ context.Context, tenantID, id string) (*model.BusyBlock, error) {
	defer d.lock()()
	b, ok := d.busy[id]
	if !ok || b.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return &b, nil
}

func (d *db) DeleteBusyBlock(_ context.Context, tenantID, id string) error {
	defer d.lock()()
	b, ok := d.busy[id]
	if !ok || b.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(d.busy, id)
	return nil
}

func sortBusy(list []model.BusyBlock) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].UserID != list[j].UserID {
			return list[i].UserID < list[j].UserID
		}
		return list[i].Start.Before(list[j].Start)
	})
}

func (d *db) ListBusyBlocks(_ context.Context, tenantID, userID string, from, to time.Time) ([]model.BusyBlock, error) {
	defer d.lock()()
	var out []model.BusyBlock
	for _, b := range d.busy {
		if b.TenantID == tenantID && b.UserID == userID && b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	sortBusy(out)
	return out, nil
}

func (d *db) ListBusyBlocksBySource(_ context.Context, tenantID string, source model.BusySource, sourceID string) ([]model.BusyBlock, error) {
	defer d.lock()()
	var out []model.BusyBlock
	for _, b := range d.busy {
		if b.TenantID == tenantID && b.Source == source && b.SourceID == sourceID {
			out = append(out, b)
		}
	}
	sortBusy(out)
	return out, nil
}

func (d *db) DeleteBusyBlocksBySource(_ context.Context, tenantID string, source model.BusySource, sourceID string) (int64, error) {
	defer d.lock()()
	var n int64
	for id, b := range d.busy {
		if b.TenantID == tenantID && b.Source == source && b.SourceID == sourceID {
			delete(d.busy, id)
			n++
		}
	}
	return n, nil
}

// Profiles

func (d *db) GetUserProfile(_ context.Context, tenantID, userID string) (*model.UserProfile, error) {
	defer d.lock()()
	p, ok := d.profiles[profileKey(tenantID, userID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (d *db) UpsertUserProfile(_ context.Context, p *model.UserProfile) error {
	defer d.lock()()
	d.profiles[profileKey(p.TenantID, p.UserID)] = *p
	return nil
}

func (d *db) GetTenantSettings(_ context.Context, tenantID string) (*model.TenantSettings, error) {
	defer d.lock()()
	s, ok := d.tenants[tenantID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (d *db) UpsertTenantSettings(_ context.Context, s *model.TenantSettings) error {
	defer d.lock()()
	d.tenants[s.TenantID] = *s
	return nil
}
