package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"interview-scheduler/internal/model"
)

func (r *repo) InsertWorkingHours(ctx context.Context, wh *model.WorkingHours) error {
	weekly, err := json.Marshal(wh.Weekly)
	if err != nil {
		return fmt.Errorf("marshal weekly: %w", err)
	}
	q := `INSERT INTO working_hours
          (id, tenant_id, user_id, weekly, timezone, effective_from, effective_to, created_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = r.q.Exec(ctx, q, wh.ID, wh.TenantID, wh.UserID, weekly, wh.Timezone,
		wh.EffectiveFrom, wh.EffectiveTo, wh.CreatedAt)
	return mapErr(err)
}

const workingHoursColumns = `id, tenant_id, user_id, weekly, timezone, effective_from, effective_to, created_at`

func scanWorkingHours(row pgx.Row) (*model.WorkingHours, error) {
	var (
		wh     model.WorkingHours
		weekly []byte
	)
	if err := row.Scan(&wh.ID, &wh.TenantID, &wh.UserID, &weekly, &wh.Timezone,
		&wh.EffectiveFrom, &wh.EffectiveTo, &wh.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(weekly, &wh.Weekly); err != nil {
		return nil, fmt.Errorf("decode weekly: %w", err)
	}
	return &wh, nil
}

func (r *repo) CurrentWorkingHours(ctx context.Context, tenantID, userID string, now time.Time) (*model.WorkingHours, error) {
	q := `SELECT ` + workingHoursColumns + ` FROM working_hours
          WHERE tenant_id=$1 AND user_id=$2 AND (effective_from IS NULL OR effective_from <= $3)
            AND (effective_to IS NULL OR effective_to > $3)
          ORDER BY created_at DESC LIMIT 1`
	wh, err := scanWorkingHours(r.q.QueryRow(ctx, q, tenantID, userID, now))
	if err != nil {
		return nil, mapErr(err)
	}
	return wh, nil
}

func (r *repo) ListWorkingHours(ctx context.Context, tenantID, userID string) ([]model.WorkingHours, error) {
	q := `SELECT ` + workingHoursColumns + ` FROM working_hours
          WHERE tenant_id=$1 AND user_id=$2 ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, q, tenantID, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.WorkingHours
	for rows.Next() {
		wh, err := scanWorkingHours(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *wh)
	}
	return out, rows.Err()
}

func (r *repo) InsertBusyBlocks(ctx context.Context, blocks []model.BusyBlock) error {
	if len(blocks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	q := `INSERT INTO busy_blocks
          (id, tenant_id, user_id, start_at, end_at, reason, source, source_id, created_at)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	for _, b := range blocks {
		batch.Queue(q, b.ID, b.TenantID, b.UserID, b.Start, b.End, b.Reason, string(b.Source), b.SourceID, b.CreatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range blocks {
		if _, err := br.Exec(); err != nil {
			return mapErr(err)
		}
	}
	return nil
}

const busyColumns = `id, tenant_id, user_id, start_at, end_at, reason, source, source_id, created_at`

func scanBusy(row pgx.Row) (*model.BusyBlock, error) {
	var (
		b      model.BusyBlock
		source string
	)
	if err := row.Scan(&b.ID, &b.TenantID, &b.UserID, &b.Start, &b.End, &b.Reason,
		&source, &b.SourceID, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Source = model.BusySource(source)
	return &b, nil
}

func (r *repo) listBusy(ctx context.Context, q string, args ...any) ([]model.BusyBlock, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.BusyBlock
	for rows.Next() {
		b, err := scanBusy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *repo) GetBusyBlock(ctx context.Context, tenantID, id string) (*model.BusyBlock, error) {
	q := `SELECT ` + busyColumns + ` FROM busy_blocks WHERE tenant_id=$1 AND id=$2`
	b, err := scanBusy(r.q.QueryRow(ctx, q, tenantID, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return b, nil
}

func (r *repo) DeleteBusyBlock(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM busy_blocks WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) ListBusyBlocks(ctx context.Context, tenantID, userID string, from, to time.Time) ([]model.BusyBlock, error) {
	q := `SELECT ` + busyColumns + ` FROM busy_blocks
          WHERE tenant_id=$1 AND user_id=$2 AND start_at < $4 AND end_at > $3
          ORDER BY start_at`
	return r.listBusy(ctx, q, tenantID, userID, from, to)
}

func (r *repo) ListBusyBlocksBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string) ([]model.BusyBlock, error) {
	q := `SELECT ` + busyColumns + ` FROM busy_blocks
          WHERE tenant_id=$1 AND source=$2 AND source_id=$3
          ORDER BY user_id, start_at`
	return r.listBusy(ctx, q, tenantID, string(source), sourceID)
}

func (r *repo) DeleteBusyBlocksBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM busy_blocks WHERE tenant_id=$1 AND source=$2 AND source_id=$3`,
		tenantID, string(source), sourceID)
	if err != nil {
		return 0, mapErr(err)
	}
	return tag.RowsAffected(), nil
}

func (r *repo) GetUserProfile(ctx context.Context, tenantID, userID string) (*model.UserProfile, error) {
	p := model.UserProfile{TenantID: tenantID, UserID: userID}
	err := r.q.QueryRow(ctx, `SELECT timezone FROM user_profiles WHERE tenant_id=$1 AND user_id=$2`,
		tenantID, userID).Scan(&p.Timezone)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *repo) UpsertUserProfile(ctx context.Context, p *model.UserProfile) error {
	q := `INSERT INTO user_profiles (tenant_id, user_id, timezone) VALUES ($1,$2,$3)
          ON CONFLICT (tenant_id, user_id) DO UPDATE SET timezone = EXCLUDED.timezone`
	_, err := r.q.Exec(ctx, q, p.TenantID, p.UserID, p.Timezone)
	return mapErr(err)
}

func (r *repo) GetTenantSettings(ctx context.Context, tenantID string) (*model.TenantSettings, error) {
	s := model.TenantSettings{TenantID: tenantID}
	err := r.q.QueryRow(ctx, `SELECT timezone FROM tenant_settings WHERE tenant_id=$1`, tenantID).Scan(&s.Timezone)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *repo) UpsertTenantSettings(ctx context.Context, s *model.TenantSettings) error {
	q := `INSERT INTO tenant_settings (tenant_id, timezone) VALUES ($1,$2)
          ON CONFLICT (tenant_id) DO UPDATE SET timezone = EXCLUDED.timezone`
	_, err := r.q.Exec(ctx, q, s.TenantID, s.Timezone)
	return mapErr(err)
}
