package reminder

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MemoryQueue keeps jobs in process memory.
type MemoryQueue struct {
	mu   sync.Mutex
	jobs map[string]Job
}

func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{jobs: make(map[string]Job)}
}

func (q *MemoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, exists := q.jobs[job.Key]; !exists {
		q.jobs[job.Key] = job
	}
	return nil
}

func (q *MemoryQueue) DeleteBySlot(_ context.Context, tenantID, slotID string) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var n int64
	for k, j := range q.jobs {
		if j.TenantID == tenantID && j.SlotID == slotID {
			delete(q.jobs, k)
			n++
		}
	}
	return n, nil
}

// Jobs returns the queued jobs ordered by run time.
func (q *MemoryQueue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

// PostgresQueue stores jobs in the reminder_jobs table.
type PostgresQueue struct {
	pool *pgxpool.Pool
}

func NewPostgresQueue(pool *pgxpool.Pool) *PostgresQueue {
	return &PostgresQueue{pool: pool}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, job Job) error {
	_, err := q.pool.Exec(ctx,
		`INSERT INTO reminder_jobs (key, tenant_id, slot_id, kind, run_at)
         VALUES ($1,$2,$3,$4,$5) ON CONFLICT (key) DO NOTHING`,
		job.Key, job.TenantID, job.SlotID, string(job.Kind), job.RunAt)
	return err
}

func (q *PostgresQueue) DeleteBySlot(ctx context.Context, tenantID, slotID string) (int64, error) {
	tag, err := q.pool.Exec(ctx, `DELETE FROM reminder_jobs WHERE tenant_id=$1 AND slot_id=$2`, tenantID, slotID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
