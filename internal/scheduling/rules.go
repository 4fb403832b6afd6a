package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

// RuleInput is the writable part of a SchedulingRule.
type RuleInput struct {
	Name             string `json:"name"`
	MinNoticeMins    int    `json:"min_notice_mins"`
	BufferBeforeMins int    `json:"buffer_before_mins"`
	BufferAfterMins  int    `json:"buffer_after_mins"`
	DefaultSlotMins  int    `json:"default_slot_mins"`
	AllowOverlapping bool   `json:"allow_overlapping"`
	IsDefault        bool   `json:"is_default"`
}

func (in RuleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return validationf("name is required")
	}
	if in.MinNoticeMins < 0 || in.BufferBeforeMins < 0 || in.BufferAfterMins < 0 {
		return validationf("minutes must not be negative")
	}
	if in.DefaultSlotMins <= 0 {
		return validationf("default_slot_mins must be positive")
	}
	return nil
}

func defaultRuleInput() RuleInput {
	return RuleInput{
		Name:             "Default",
		MinNoticeMins:    60,
		BufferBeforeMins: 10,
		BufferAfterMins:  10,
		DefaultSlotMins:  60,
		IsDefault:        true,
	}
}

// RuleEngine manages per-tenant scheduling rules. A tenant has at most one
// default rule at any time.
type RuleEngine struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func (r *RuleEngine) Get(ctx context.Context, tenantID, id string) (*model.SchedulingRule, error) {
	rule, err := r.store.GetRule(ctx, tenantID, id)
	if err != nil {
		return nil, storeErr(err, "rule "+id)
	}
	return rule, nil
}

func (r *RuleEngine) List(ctx context.Context, tenantID string) ([]model.SchedulingRule, error) {
	rules, err := r.store.ListRules(ctx, tenantID)
	if err != nil {
		return nil, storeErr(err, "rules")
	}
	return rules, nil
}

// DefaultRule returns the tenant's default rule, creating the built-in one
// when the tenant has none.
func (r *RuleEngine) DefaultRule(ctx context.Context, tenantID string) (*model.SchedulingRule, error) {
	rule, err := r.store.GetDefaultRule(ctx, tenantID)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, storeErr(err, "default rule")
	}

	created := r.newRule(tenantID, defaultRuleInput())
	err = r.store.WithTx(ctx, func(tx store.Repo) error {
		existing, err := tx.GetDefaultRule(ctx, tenantID)
		if err == nil {
			created = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.InsertRule(ctx, created)
	})
	if errors.Is(err, store.ErrConflict) {
		// Another request created it first.
		rule, err = r.store.GetDefaultRule(ctx, tenantID)
		return rule, storeErr(err, "default rule")
	}
	if err != nil {
		return nil, storeErr(err, "default rule")
	}
	r.log.Info("created default scheduling rule", zap.String("tenant_id", tenantID), zap.String("rule_id", created.ID))
	return created, nil
}

func (r *RuleEngine) newRule(tenantID string, in RuleInput) *model.SchedulingRule {
	now := r.now().UTC()
	return &model.SchedulingRule{
		ID:               uuid.NewString(),
		TenantID:         tenantID,
		Name:             strings.TrimSpace(in.Name),
		MinNoticeMins:    in.MinNoticeMins,
		BufferBeforeMins: in.BufferBeforeMins,
		BufferAfterMins:  in.BufferAfterMins,
		DefaultSlotMins:  in.DefaultSlotMins,
		AllowOverlapping: in.AllowOverlapping,
		IsDefault:        in.IsDefault,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func (r *RuleEngine) Create(ctx context.Context, tenantID string, in RuleInput) (*model.SchedulingRule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	rule := r.newRule(tenantID, in)
	err := r.store.WithTx(ctx, func(tx store.Repo) error {
		if rule.IsDefault {
			if err := tx.ClearDefaultRules(ctx, tenantID, rule.ID); err != nil {
				return err
			}
		}
		return tx.InsertRule(ctx, rule)
	})
	if err != nil {
		return nil, storeErr(err, "rule")
	}
	return rule, nil
}

// Update replaces the rule's fields. Promoting it to default clears the
// previous default in the same transaction.
func (r *RuleEngine) Update(ctx context.Context, tenantID, id string, in RuleInput) (*model.SchedulingRule, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated *model.SchedulingRule
	err := r.store.WithTx(ctx, func(tx store.Repo) error {
		rule, err := tx.GetRule(ctx, tenantID, id)
		if err != nil {
			return err
		}
		rule.Name = strings.TrimSpace(in.Name)
		rule.MinNoticeMins = in.MinNoticeMins
		rule.BufferBeforeMins = in.BufferBeforeMins
		rule.BufferAfterMins = in.BufferAfterMins
		rule.DefaultSlotMins = in.DefaultSlotMins
		rule.AllowOverlapping = in.AllowOverlapping
		rule.IsDefault = in.IsDefault
		rule.UpdatedAt = r.now().UTC()

		if rule.IsDefault {
			if err := tx.ClearDefaultRules(ctx, tenantID, rule.ID); err != nil {
				return err
			}
		}
		if err := tx.UpdateRule(ctx, rule); err != nil {
			return err
		}
		updated = rule
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "rule "+id)
	}
	return updated, nil
}

func (r *RuleEngine) Delete(ctx context.Context, tenantID, id string) error {
	err := r.store.WithTx(ctx, func(tx store.Repo) error {
		rule, err := tx.GetRule(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if rule.IsDefault {
			return conflictf("the default rule cannot be deleted")
		}
		return tx.DeleteRule(ctx, tenantID, id)
	})
	return storeErr(err, "rule "+id)
}
