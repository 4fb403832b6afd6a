package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"interview-scheduler/internal/model"
)

const ruleColumns = `id, tenant_id, name, min_notice_mins, buffer_before_mins, buffer_after_mins,
                     default_slot_mins, allow_overlapping, is_default, created_at, updated_at`

func scanRule(row pgx.Row) (*model.SchedulingRule, error) {
	var r model.SchedulingRule
	if err := row.Scan(&r.ID, &r.TenantID, &r.Name, &r.MinNoticeMins, &r.BufferBeforeMins,
		&r.BufferAfterMins, &r.DefaultSlotMins, &r.AllowOverlapping, &r.IsDefault,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (r *repo) InsertRule(ctx context.Context, rule *model.SchedulingRule) error {
	q := `INSERT INTO scheduling_rules (` + ruleColumns + `)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.q.Exec(ctx, q, rule.ID, rule.TenantID, rule.Name, rule.MinNoticeMins,
		rule.BufferBeforeMins, rule.BufferAfterMins, rule.DefaultSlotMins,
		rule.AllowOverlapping, rule.IsDefault, rule.CreatedAt, rule.UpdatedAt)
	return mapErr(err)
}

func (r *repo) UpdateRule(ctx context.Context, rule *model.SchedulingRule) error {
	q := `UPDATE scheduling_rules
          SET name=$1, min_notice_mins=$2, buffer_before_mins=$3, buffer_after_mins=$4,
              default_slot_mins=$5, allow_overlapping=$6, is_default=$7, updated_at=$8
          WHERE tenant_id=$9 AND id=$10`
	tag, err := r.q.Exec(ctx, q, rule.Name, rule.MinNoticeMins, rule.BufferBeforeMins,
		rule.BufferAfterMins, rule.DefaultSlotMins, rule.AllowOverlapping, rule.IsDefault,
		rule.UpdatedAt, rule.TenantID, rule.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) GetRule(ctx context.Context, tenantID, id string) (*model.SchedulingRule, error) {
	q := `SELECT ` + ruleColumns + ` FROM scheduling_rules WHERE tenant_id=$1 AND id=$2`
	return scanRule(r.q.QueryRow(ctx, q, tenantID, id))
}

func (r *repo) GetDefaultRule(ctx context.Context, tenantID string) (*model.SchedulingRule, error) {
	q := `SELECT ` + ruleColumns + ` FROM scheduling_rules WHERE tenant_id=$1 AND is_default LIMIT 1`
	return scanRule(r.q.QueryRow(ctx, q, tenantID))
}

func (r *repo) ListRules(ctx context.Context, tenantID string) ([]model.SchedulingRule, error) {
	q := `SELECT ` + ruleColumns + ` FROM scheduling_rules WHERE tenant_id=$1 ORDER BY created_at`
	rows, err := r.q.Query(ctx, q, tenantID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var out []model.SchedulingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, rows.Err()
}

func (r *repo) DeleteRule(ctx context.Context, tenantID, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM scheduling_rules WHERE tenant_id=$1 AND id=$2`, tenantID, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return mapErr(pgx.ErrNoRows)
	}
	return nil
}

func (r *repo) ClearDefaultRules(ctx context.Context, tenantID, exceptID string) error {
	_, err := r.q.Exec(ctx,
		`UPDATE scheduling_rules SET is_default=false, updated_at=now() WHERE tenant_id=$1 AND is_default AND id<>$2`,
		tenantID, exceptID)
	return mapErr(err)
}
