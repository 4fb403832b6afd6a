package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

const slotColumns = `id, tenant_id, organizer_id, participants, start_at, end_at, timezone,
                     status, interview_id, metadata, created_at, updated_at`

func scanSlot(row pgx.Row) (*model.InterviewSlot, error) {
	var (
		s            model.InterviewSlot
		participants []byte
		metadata     []byte
		status       string
	)
	if err := row.Scan(&s.ID, &s.TenantID, &s.OrganizerID, &participants, &s.Start, &s.End,
		&s.Timezone, &status, &s.InterviewID, &metadata, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	s.Status = model.SlotStatus(status)
	if err := json.Unmarshal(participants, &s.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &s, nil
}

func encodeSlotJSON(s *model.InterviewSlot) (participants, metadata []byte, err error) {
	participants, err = json.Marshal(s.Participants)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal participants: %w", err)
	}
	md := s.Metadata
	if md == nil {
		md = map[string]any{}
	}
	metadata, err = json.Marshal(md)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return participants, metadata, nil
}

func (r *repo) InsertSlots(ctx context.Context, slots []*model.InterviewSlot) error {
	if len(slots) == 0 {
		return nil
	}
	q := `INSERT INTO interview_slots (` + slotColumns + `)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	batch := &pgx.Batch{}
	for _, s := range slots {
		participants, metadata, err := encodeSlotJSON(s)
		if err != nil {
			return err
		}
		batch.Queue(q, s.ID, s.TenantID, s.OrganizerID, participants, s.Start, s.End, s.Timezone,
			string(s.Status), s.InterviewID, metadata, s.CreatedAt, s.UpdatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range slots {
		if _, err := br.Exec(); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

func (r *repo) GetSlot(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM interview_slots WHERE tenant_id=$1 AND id=$2`
	return scanSlot(r.q.QueryRow(ctx, q, tenantID, id))
}

func (r *repo) GetSlotForUpdate(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM interview_slots WHERE tenant_id=$1 AND id=$2 FOR UPDATE`
	return scanSlot(r.q.QueryRow(ctx, q, tenantID, id))
}

func (r *repo) UpdateSlot(ctx context.Context, s *model.InterviewSlot) error {
	participants, metadata, err := encodeSlotJSON(s)
	if err != nil {
		return err
	}
	q := `UPDATE interview_slots
          SET participants=$1, start_at=$2, end_at=$3, timezone=$4, status=$5,
              interview_id=$6, metadata=$7, updated_at=$8
          WHERE tenant_id=$9 AND id=$10`
	tag, err := r.q.Exec(ctx, q, participants, s.Start, s.End, s.Timezone, string(s.Status),
		s.InterviewID, metadata, s.UpdatedAt, s.TenantID, s.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *repo) DeleteSlot(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM interview_slots WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *repo) ListSlots(ctx context.Context, tenantID string, f store.SlotFilter) ([]model.InterviewSlot, error) {
	where := []string{"tenant_id=$1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.OrganizerID != "" {
		add("organizer_id=$%d", f.OrganizerID)
	}
	if f.Status != "" {
		add("status=$%d", string(f.Status))
	}
	if !f.From.IsZero() {
		add("end_at > $%d", f.From)
	}
	if !f.To.IsZero() {
		add("start_at < $%d", f.To)
	}

	q := `SELECT ` + slotColumns + ` FROM interview_slots WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY start_at`
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.InterviewSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const interviewColumns = `id, tenant_id, slot_id, candidate_id, interviewer_ids, title,
                          start_at, end_at, status, created_at, updated_at`

func scanInterview(row pgx.Row) (*model.Interview, error) {
	var (
		iv     model.Interview
		status string
	)
	if err := row.Scan(&iv.ID, &iv.TenantID, &iv.SlotID, &iv.CandidateID, &iv.InterviewerIDs,
		&iv.Title, &iv.Start, &iv.End, &status, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	iv.Status = model.InterviewStatus(status)
	return &iv, nil
}

func (r *repo) InsertInterview(ctx context.Context, iv *model.Interview) error {
	q := `INSERT INTO interviews (` + interviewColumns + `)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, q, iv.ID, iv.TenantID, iv.SlotID, iv.CandidateID, iv.InterviewerIDs,
		iv.Title, iv.Start, iv.End, string(iv.Status), iv.CreatedAt, iv.UpdatedAt)
	return mapErr(err)
}

func (r *repo) GetInterview(ctx context.Context, tenantID, id string) (*model.Interview, error) {
	q := `SELECT ` + interviewColumns + ` FROM interviews WHERE tenant_id=$1 AND id=$2`
	return scanInterview(r.q.QueryRow(ctx, q, tenantID, id))
}

func (r *repo) UpdateInterview(ctx context.Context, iv *model.Interview) error {
	q := `UPDATE interviews
          SET candidate_id=$1, interviewer_ids=$2, title=$3, start_at=$4, end_at=$5, status=$6, updated_at=$7
          WHERE tenant_id=$8 AND id=$9`
	tag, err := r.q.Exec(ctx, q, iv.CandidateID, iv.InterviewerIDs, iv.Title, iv.Start, iv.End,
		string(iv.Status), iv.UpdatedAt, iv.TenantID, iv.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *repo) CountScheduledInterviews(ctx context.Context, tenantID string, userIDs []string, from, to time.Time) (map[string]int, error) {
	counts := make(map[string]int, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	if len(userIDs) == 0 {
		return counts, nil
	}

	q := `SELECT u.id, count(i.id)
          FROM unnest($2::text[]) AS u(id)
          LEFT JOIN interviews i
            ON i.tenant_id=$1 AND u.id = ANY(i.interviewer_ids)
           AND i.status=$3 AND i.start_at >= $4 AND i.start_at < $5
          GROUP BY u.id`
	rows, err := r.q.Query(ctx, q, tenantID, userIDs, string(model.InterviewStatusScheduled), from, to)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			n  int64
		)
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = int(n)
	}
	return counts, rows.Err()
}

func (r *repo) ListCandidateInterviews(ctx context.Context, tenantID, candidateID string, from, to time.Time) ([]model.Interview, error) {
	q := `SELECT ` + interviewColumns + ` FROM interviews
          WHERE tenant_id=$1 AND candidate_id=$2 AND status=$3 AND start_at < $5 AND end_at > $4
          ORDER BY start_at`
	rows, err := r.q.Query(ctx, q, tenantID, candidateID, string(model.InterviewStatusScheduled), from, to)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}
