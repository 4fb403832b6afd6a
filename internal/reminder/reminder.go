// Package reminder plans delayed reminder jobs for booked interview slots.
// Delivery is handled by whoever drains the queue.
package reminder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"interview-scheduler/internal/model"
)

type Kind string

const (
	KindDayBefore  Kind = "24h"
	KindHourBefore Kind = "1h"
)

var offsets = []struct {
	kind   Kind
	before time.Duration
}{
	{KindDayBefore, 24 * time.Hour},
	{KindHourBefore, time.Hour},
}

type Job struct {
	Key      string    `json:"key"`
	TenantID string    `json:"tenant_id"`
	SlotID   string    `json:"slot_id"`
	Kind     Kind      `json:"kind"`
	RunAt    time.Time `json:"run_at"`
}

func Key(slotID string, kind Kind) string {
	return fmt.Sprintf("reminder:%s:%s", slotID, kind)
}

// Queue is a delayed-job queue. Enqueue must ignore a job whose key is
// already queued.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	DeleteBySlot(ctx context.Context, tenantID, slotID string) (int64, error)
}

// Plan returns the reminder jobs for slot relative to its start. Jobs whose
// run time is not after now are skipped.
func Plan(slot *model.InterviewSlot, now time.Time) []Job {
	var jobs []Job
	for _, o := range offsets {
		runAt := slot.Start.Add(-o.before)
		if !runAt.After(now) {
			continue
		}
		jobs = append(jobs, Job{
			Key:      Key(slot.ID, o.kind),
			TenantID: slot.TenantID,
			SlotID:   slot.ID,
			Kind:     o.kind,
			RunAt:    runAt.UTC(),
		})
	}
	return jobs
}

type Planner struct {
	queue Queue
	log   *zap.Logger
	now   func() time.Time
}

func NewPlanner(q Queue, log *zap.Logger, now func() time.Time) *Planner {
	if now == nil {
		now = time.Now
	}
	return &Planner{queue: q, log: log, now: now}
}

func (p *Planner) Schedule(ctx context.Context, slot *model.InterviewSlot) error {
	jobs := Plan(slot, p.now())
	for _, j := range jobs {
		if err := p.queue.Enqueue(ctx, j); err != nil {
			return fmt.Errorf("enqueue %s: %w", j.Key, err)
		}
	}
	p.log.Debug("reminders planned", zap.String("slot_id", slot.ID), zap.Int("jobs", len(jobs)))
	return nil
}

func (p *Planner) Cancel(ctx context.Context, tenantID, slotID string) error {
	n, err := p.queue.DeleteBySlot(ctx, tenantID, slotID)
	if err != nil {
		return fmt.Errorf("delete reminders for slot %s: %w", slotID, err)
	}
	p.log.Debug("reminders removed", zap.String("slot_id", slotID), zap.Int64("jobs", n))
	return nil
}
