package memory

import (
	"context"
	"sort"
	"time"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

// Rules

func (d *db) hasOtherDefault(tenantID, id string) bool {
	for _, r := range d.rules {
		if r.TenantID == tenantID && r.IsDefault && r.ID != id {
			return true
		}
	}
	return false
}

func (d *db) InsertRule(_ context.Context, r *model.SchedulingRule) error {
	defer d.lock()()
	if _, exists := d.rules[r.ID]; exists {
		return store.ErrConflict
	}
	if r.IsDefault && d.hasOtherDefault(r.TenantID, r.ID) {
		return store.ErrConflict
	}
	d.rules[r.ID] = *r
	return nil
}

func (d *db) UpdateRule(_ context.Context, r *model.SchedulingRule) error {
	defer d.lock()()
	old, ok := d.rules[r.ID]
	if !ok || old.TenantID != r.TenantID {
		return store.ErrNotFound
	}
	if r.IsDefault && d.hasOtherDefault(r.TenantID, r.ID) {
		return store.ErrConflict
	}
	c := *r
	c.CreatedAt = old.CreatedAt
	d.rules[r.ID] = c
	return nil
}

func (d *db) GetRule(_ context.Context, tenantID, id string) (*model.SchedulingRule, error) {
	defer d.lock()()
	r, ok := d.rules[id]
	if !ok || r.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (d *db) GetDefaultRule(_ context.Context, tenantID string) (*model.SchedulingRule, error) {
	defer d.lock()()
	for _, r := range d.rules {
		if r.TenantID == tenantID && r.IsDefault {
			return &r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (d *db) ListRules(_ context.Context, tenantID string) ([]model.SchedulingRule, error) {
	defer d.lock()()
	var out []model.SchedulingRule
	for _, r := range d.rules {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (d *db) DeleteRule(_ context.Context, tenantID, id string) error {
	defer d.lock()()
	r, ok := d.rules[id]
	if !ok || r.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(d.rules, id)
	return nil
}

func (d *db) ClearDefaultRules(_ context.Context, tenantID, exceptID string) error {
	defer d.lock()()
	now := time.Now().UTC()
	for id, r := range d.rules {
		if r.TenantID == tenantID && r.IsDefault && id != exceptID {
			r.IsDefault = false
			r.UpdatedAt = now
			d.rules[id] = r
		}
	}
	return nil
}

// Slots

func (d *db) InsertSlots(_ context.Context, slots []*model.InterviewSlot) error {
	defer d.lock()()
	for _, s := range slots {
		if _, exists := d.slots[s.ID]; exists {
			return store.ErrConflict
		}
	}
	for _, s := range slots {
		d.slots[s.ID] = cloneSlot(*s)
	}
	return nil
}

func (d *db) GetSlot(_ context.Context, tenantID, id string) (*model.InterviewSlot, error) {
	defer d.lock()()
	s, ok := d.slots[id]
	if !ok || s.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	c := cloneSlot(s)
	return &c, nil
}

// GetSlotForUpdate needs no row lock here: transactions already run one at a time.
func (d *db) GetSlotForUpdate(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error) {
	return d.GetSlot(ctx, tenantID, id)
}

func (d *db) UpdateSlot(_ context.Context, s *model.InterviewSlot) error {
	defer d.lock()()
	old, ok := d.slots[s.ID]
	if !ok || old.TenantID != s.TenantID {
		return store.ErrNotFound
	}
	c := cloneSlot(*s)
	c.CreatedAt = old.CreatedAt
	d.slots[s.ID] = c
	return nil
}

func (d *db) DeleteSlot(_ context.Context, tenantID, id string) error {
	defer d.lock()()
	s, ok := d.slots[id]
	if !ok || s.TenantID != tenantID {
		return store.ErrNotFound
	}
	delete(d.slots, id)
	return nil
}

func (d *db) ListSlots(_ context.Context, tenantID string, f store.SlotFilter) ([]model.InterviewSlot, error) {
	defer d.lock()()
	var out []model.InterviewSlot
	for _, s := range d.slots {
		if s.TenantID != tenantID {
			continue
		}
		if f.OrganizerID != "" && s.OrganizerID != f.OrganizerID {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && !s.End.After(f.From) {
			continue
		}
		if !f.To.IsZero() && !s.Start.Before(f.To) {
			continue
		}
		out = append(out, cloneSlot(s))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})

	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
		if len(out) > f.Limit {
			out = out[:f.Limit]
		}
	}
	return out, nil
}

// Interviews

func (d *db) InsertInterview(_ context.Context, iv *model.Interview) error {
	defer d.lock()()
	if _, exists := d.interviews[iv.ID]; exists {
		return store.ErrConflict
	}
	d.interviews[iv.ID] = cloneInterview(*iv)
	return nil
}

func (d *db) GetInterview(_ context.Context, tenantID, id string) (*model.Interview, error) {
	defer d.lock()()
	iv, ok := d.interviews[id]
	if !ok || iv.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	c := cloneInterview(iv)
	return &c, nil
}

func (d *db) UpdateInterview(_ context.Context, iv *model.Interview) error {
	defer d.lock()()
	old, ok := d.interviews[iv.ID]
	if !ok || old.TenantID != iv.TenantID {
		return store.ErrNotFound
	}
	c := cloneInterview(*iv)
	c.CreatedAt = old.CreatedAt
	d.interviews[iv.ID] = c
	return nil
}

func (d *db) CountScheduledInterviews(_ context.Context, tenantID string, userIDs []string, from, to time.Time) (map[string]int, error) {
	defer d.lock()()
	counts := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	for _, iv := range d.interviews {
		if iv.TenantID != tenantID || iv.Status != model.InterviewStatusScheduled {
			continue
		}
		if iv.Start.Before(from) || !iv.Start.Before(to) {
			continue
		}
		for _, uid := range iv.InterviewerIDs {
			if _, tracked := counts[uid]; tracked {
				counts[uid]++
			}
		}
	}
	return counts, nil
}

func (d *db) ListCandidateInterviews(_ context.Context, tenantID, candidateID string, from, to time.Time) ([]model.Interview, error) {
	defer d.lock()()
	var out []model.Interview
	for _, iv := range d.interviews {
		if iv.TenantID != tenantID || iv.CandidateID != candidateID || iv.Status != model.InterviewStatusScheduled {
			continue
		}
		if iv.Start.Before(to) && iv.End.After(from) {
			out = append(out, cloneInterview(iv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
