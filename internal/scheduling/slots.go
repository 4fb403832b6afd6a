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

type CreateSlotInput struct {
	OrganizerID  string              `json:"organizer_id"`
	Participants []model.Participant `json:"participants"`
	Start        time.Time           `json:"start"`
	End          time.Time           `json:"end"`
	Timezone     string              `json:"timezone"`
	Metadata     map[string]any      `json:"metadata"`
}

type GenerateInput struct {
	OrganizerID  string         `json:"organizer_id"`
	UserIDs      []string       `json:"user_ids"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	DurationMins int            `json:"duration_mins"`
	RuleID       string         `json:"rule_id"`
	Timezone     string         `json:"timezone"`
	Metadata     map[string]any `json:"metadata"`
}

type BookInput struct {
	Candidate model.Participant `json:"candidate"`
	BookedBy  string            `json:"booked_by"`
	Title     string            `json:"title"`
}

// SlotService runs the slot state machine:
// AVAILABLE -> BOOKED -> CANCELLED, and AVAILABLE -> CANCELLED.
type SlotService struct {
	store      store.Store
	engine     *Engine
	reminders  Reminders
	automation Automation
	log        *zap.Logger
	cfg        Config
	now        func() time.Time
}

func (s *SlotService) Get(ctx context.Context, tenantID, id string) (*model.InterviewSlot, error) {
	slot, err := s.store.GetSlot(ctx, tenantID, id)
	if err != nil {
		return nil, storeErr(err, "slot "+id)
	}
	return slot, nil
}

func (s *SlotService) List(ctx context.Context, tenantID string, f store.SlotFilter) ([]model.InterviewSlot, error) {
	if !f.From.IsZero() && !f.To.IsZero() && !f.To.After(f.From) {
		return nil, validationf("to must be after from")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return nil, validationf("limit and offset must not be negative")
	}
	list, err := s.store.ListSlots(ctx, tenantID, f)
	if err != nil {
		return nil, storeErr(err, "slots")
	}
	return list, nil
}

func (s *SlotService) timezone(tz string) (string, error) {
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	if _, err := loadLocation(tz); err != nil {
		return "", err
	}
	return tz, nil
}

// Create adds an AVAILABLE slot after checking that every user participant
// is free for the whole range.
func (s *SlotService) Create(ctx context.Context, tenantID string, in CreateSlotInput) (*model.InterviewSlot, error) {
	if err := validRange(in.Start, in.End); err != nil {
		return nil, err
	}
	for _, p := range in.Participants {
		if err := p.Validate(); err != nil {
			return nil, validationf("%v", err)
		}
	}
	tz, err := s.timezone(in.Timezone)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	slot := &model.InterviewSlot{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		OrganizerID:  in.OrganizerID,
		Participants: in.Participants,
		Start:        in.Start.UTC(),
		End:          in.End.UTC(),
		Timezone:     tz,
		Status:       model.SlotStatusAvailable,
		Metadata:     in.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	users := uniqueStrings(slot.UserIDs())
	if len(users) == 0 {
		return nil, validationf("at least one user participant is required")
	}
	if slot.OrganizerID == "" {
		slot.OrganizerID = users[0]
	}
	if slot.Metadata == nil {
		slot.Metadata = map[string]any{}
	}

	ok, err := s.engine.IsSlotAvailable(ctx, tenantID, users, slot.Start, slot.End)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflictf("participants are not available for the requested time")
	}
	if err := s.store.InsertSlots(ctx, []*model.InterviewSlot{slot}); err != nil {
		return nil, storeErr(err, "slot")
	}
	return slot, nil
}

// Generate creates one AVAILABLE slot per bookable window the users share.
func (s *SlotService) Generate(ctx context.Context, tenantID string, in GenerateInput) ([]*model.InterviewSlot, error) {
	tz, err := s.timezone(in.Timezone)
	if err != nil {
		return nil, err
	}
	res, err := s.engine.MultiUserAvailability(ctx, MultiRequest{
		TenantID:     tenantID,
		UserIDs:      in.UserIDs,
		Start:        in.Start,
		End:          in.End,
		DurationMins: in.DurationMins,
		RuleID:       in.RuleID,
	})
	if err != nil {
		return nil, err
	}

	users := uniqueStrings(in.UserIDs)
	organizer := in.OrganizerID
	if organizer == "" {
		organizer = users[0]
	}
	now := s.now().UTC()
	slots := make([]*model.InterviewSlot, 0, len(res.Combined))
	for _, iv := range res.Combined {
		participants := make([]model.Participant, 0, len(users))
		for _, u := range users {
			participants = append(participants, model.UserParticipant(u))
		}
		md := map[string]any{"generated": true, "ruleId": res.Rule.ID}
		for k, v := range in.Metadata {
			md[k] = v
		}
		slots = append(slots, &model.InterviewSlot{
			ID:           uuid.NewString(),
			TenantID:     tenantID,
			OrganizerID:  organizer,
			Participants: participants,
			Start:        iv.Start.UTC(),
			End:          iv.End.UTC(),
			Timezone:     tz,
			Status:       model.SlotStatusAvailable,
			Metadata:     md,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if len(slots) == 0 {
		return slots, nil
	}

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		return tx.InsertSlots(ctx, slots)
	})
	if err != nil {
		return nil, storeErr(err, "slots")
	}
	return slots, nil
}

func interviewBlocks(slot *model.InterviewSlot, interviewID string, now time.Time) []model.BusyBlock {
	users := uniqueStrings(slot.UserIDs())
	blocks := make([]model.BusyBlock, 0, len(users))
	for _, u := range users {
		blocks = append(blocks, model.BusyBlock{
			ID:        uuid.NewString(),
			TenantID:  slot.TenantID,
			UserID:    u,
			Start:     slot.Start,
			End:       slot.End,
			Reason:    "interview",
			Source:    model.BusySourceInterview,
			SourceID:  interviewID,
			CreatedAt: now,
		})
	}
	return blocks
}

// replaceInterviewBlocks applies the delete-by-source contract for the
// interview's blocks inside tx.
func replaceInterviewBlocks(ctx context.Context, tx store.Repo, slot *model.InterviewSlot, interviewID string, now time.Time) error {
	if _, err := tx.DeleteBusyBlocksBySource(ctx, slot.TenantID, model.BusySourceInterview, interviewID); err != nil {
		return err
	}
	return tx.InsertBusyBlocks(ctx, interviewBlocks(slot, interviewID, now))
}

// Book moves an AVAILABLE slot to BOOKED for the candidate. The status check
// runs on the row-locked slot inside the transaction; a concurrent booker
// that loses gets ErrConflict.
func (s *SlotService) Book(ctx context.Context, tenantID, slotID string, in BookInput) (*model.InterviewSlot, error) {
	if in.Candidate.Kind != model.ParticipantCandidate {
		return nil, validationf("candidate participant is required")
	}
	if err := in.Candidate.Validate(); err != nil {
		return nil, validationf("%v", err)
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var booked *model.InterviewSlot
	err := s.store.WithTx(txCtx, func(tx store.Repo) error {
		slot, err := tx.GetSlotForUpdate(txCtx, tenantID, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotStatusAvailable {
			return conflictf("slot no longer available")
		}
		now := s.now().UTC()

		if cur, ok := slot.Candidate(); !ok {
			slot.Participants = append(slot.Participants, in.Candidate)
		} else if cur.ID != in.Candidate.ID {
			return conflictf("slot already has candidate %s", cur.ID)
		}

		if slot.InterviewID == nil {
			iv := &model.Interview{
				ID:             uuid.NewString(),
				TenantID:       tenantID,
				SlotID:         slot.ID,
				CandidateID:    in.Candidate.ID,
				InterviewerIDs: uniqueStrings(slot.UserIDs()),
				Title:          in.Title,
				Start:          slot.Start,
				End:            slot.End,
				Status:         model.InterviewStatusScheduled,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := tx.InsertInterview(txCtx, iv); err != nil {
				return err
			}
			slot.InterviewID = &iv.ID
		} else {
			iv, err := tx.GetInterview(txCtx, tenantID, *slot.InterviewID)
			if err != nil {
				return err
			}
			iv.CandidateID = in.Candidate.ID
			iv.Start, iv.End = slot.Start, slot.End
			iv.Status = model.InterviewStatusScheduled
			iv.UpdatedAt = now
			if err := tx.UpdateInterview(txCtx, iv); err != nil {
				return err
			}
		}

		slot.Status = model.SlotStatusBooked
		if slot.Metadata == nil {
			slot.Metadata = map[string]any{}
		}
		slot.Metadata["bookedBy"] = in.BookedBy
		slot.Metadata["bookedAt"] = now.Format(time.RFC3339)
		slot.UpdatedAt = now
		if err := tx.UpdateSlot(txCtx, slot); err != nil {
			return err
		}
		if err := replaceInterviewBlocks(txCtx, tx, slot, *slot.InterviewID, now); err != nil {
			return err
		}
		booked = slot
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "slot "+slotID)
	}

	s.engine.invalidateUsers(ctx, tenantID, booked.UserIDs())
	s.sideEffect("schedule reminders", booked, s.reminders.Schedule(ctx, booked))
	s.sideEffect("notify booked", booked, s.automation.SlotBooked(ctx, booked))
	return booked, nil
}

// Reschedule moves a BOOKED slot to [newStart, newEnd). The slot's own
// interview blocks are released before the availability check; when the new
// time is not free they are restored and ErrConflict is returned.
func (s *SlotService) Reschedule(ctx context.Context, tenantID, slotID string, newStart, newEnd time.Time) (*model.InterviewSlot, error) {
	if err := validRange(newStart, newEnd); err != nil {
		return nil, err
	}
	newStart, newEnd = newStart.UTC(), newEnd.UTC()

	slot, err := s.store.GetSlot(ctx, tenantID, slotID)
	if err != nil {
		return nil, storeErr(err, "slot "+slotID)
	}
	if slot.Status != model.SlotStatusBooked {
		return nil, conflictf("only booked slots can be rescheduled")
	}
	if slot.InterviewID == nil {
		return nil, conflictf("booked slot has no interview")
	}
	interviewID := *slot.InterviewID
	users := slot.UserIDs()
	previous := interval.Interval{Start: slot.Start, End: slot.End}

	var released []model.BusyBlock
	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		var err error
		released, err = tx.ListBusyBlocksBySource(ctx, tenantID, model.BusySourceInterview, interviewID)
		if err != nil {
			return err
		}
		_, err = tx.DeleteBusyBlocksBySource(ctx, tenantID, model.BusySourceInterview, interviewID)
		return err
	})
	if err != nil {
		return nil, storeErr(err, "busy blocks")
	}
	s.engine.invalidateUsers(ctx, tenantID, users)

	ok, err := s.engine.IsSlotAvailable(ctx, tenantID, users, newStart, newEnd)
	if err != nil || !ok {
		s.restoreBlocks(ctx, tenantID, slotID, interviewID, released, users)
		if err != nil {
			return nil, err
		}
		return nil, conflictf("participants are not available at the new time")
	}

	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var (
		moved *model.InterviewSlot
		stale bool
	)
	err = s.store.WithTx(txCtx, func(tx store.Repo) error {
		cur, err := tx.GetSlotForUpdate(txCtx, tenantID, slotID)
		if err != nil {
			return err
		}
		if cur.Status != model.SlotStatusBooked {
			stale = true
			return conflictf("slot is no longer booked")
		}
		now := s.now().UTC()
		cur.Start, cur.End = newStart, newEnd
		if cur.Metadata == nil {
			cur.Metadata = map[string]any{}
		}
		cur.Metadata["rescheduledAt"] = now.Format(time.RFC3339)
		cur.UpdatedAt = now
		if err := tx.UpdateSlot(txCtx, cur); err != nil {
			return err
		}
		if err := replaceInterviewBlocks(txCtx, tx, cur, interviewID, now); err != nil {
			return err
		}
		iv, err := tx.GetInterview(txCtx, tenantID, interviewID)
		if err != nil {
			return err
		}
		iv.Start, iv.End = newStart, newEnd
		iv.UpdatedAt = now
		if err := tx.UpdateInterview(txCtx, iv); err != nil {
			return err
		}
		moved = cur
		return nil
	})
	if err != nil {
		if !stale {
			s.restoreBlocks(ctx, tenantID, slotID, interviewID, released, users)
		}
		return nil, storeErr(err, "slot "+slotID)
	}

	s.engine.invalidateUsers(ctx, tenantID, moved.UserIDs())
	s.sideEffect("cancel reminders", moved, s.reminders.Cancel(ctx, tenantID, moved.ID))
	s.sideEffect("schedule reminders", moved, s.reminders.Schedule(ctx, moved))
	s.sideEffect("notify rescheduled", moved, s.automation.SlotRescheduled(ctx, moved, previous))
	return moved, nil
}

// restoreBlocks puts back the blocks released by a failed reschedule so the
// users are never left under-blocked. Nothing is restored once the slot is no
// longer BOOKED for interviewID, since a concurrent cancel already released it.
func (s *SlotService) restoreBlocks(ctx context.Context, tenantID, slotID, interviewID string, blocks []model.BusyBlock, users []string) {
	rctx := context.WithoutCancel(ctx)
	err := s.store.WithTx(rctx, func(tx store.Repo) error {
		slot, err := tx.GetSlotForUpdate(rctx, tenantID, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotStatusBooked || slot.InterviewID == nil || *slot.InterviewID != interviewID {
			s.log.Info("slot changed during reschedule, not restoring busy blocks",
				zap.String("tenant_id", tenantID), zap.String("slot_id", slotID), zap.String("status", string(slot.Status)))
			return nil
		}
		if _, err := tx.DeleteBusyBlocksBySource(rctx, tenantID, model.BusySourceInterview, interviewID); err != nil {
			return err
		}
		return tx.InsertBusyBlocks(rctx, blocks)
	})
	if err != nil {
		s.log.Error("restoring interview busy blocks failed",
			zap.String("tenant_id", tenantID), zap.String("interview_id", interviewID), zap.Error(err))
	}
	s.engine.invalidateUsers(rctx, tenantID, users)
}

// Cancel moves a non-cancelled slot to CANCELLED, releasing its busy blocks
// and cancelling the linked interview.
func (s *SlotService) Cancel(ctx context.Context, tenantID, slotID, reason string) (*model.InterviewSlot, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout)
	defer cancel()

	var cancelled *model.InterviewSlot
	err := s.store.WithTx(txCtx, func(tx store.Repo) error {
		slot, err := tx.GetSlotForUpdate(txCtx, tenantID, slotID)
		if err != nil {
			return err
		}
		if slot.Status == model.SlotStatusCancelled {
			return conflictf("slot already cancelled")
		}
		now := s.now().UTC()

		if slot.InterviewID != nil {
			if _, err := tx.DeleteBusyBlocksBySource(txCtx, tenantID, model.BusySourceInterview, *slot.InterviewID); err != nil {
				return err
			}
			iv, err := tx.GetInterview(txCtx, tenantID, *slot.InterviewID)
			if err != nil {
				return err
			}
			iv.Status = model.InterviewStatusCancelled
			iv.UpdatedAt = now
			if err := tx.UpdateInterview(txCtx, iv); err != nil {
				return err
			}
		}

		slot.Status = model.SlotStatusCancelled
		if slot.Metadata == nil {
			slot.Metadata = map[string]any{}
		}
		slot.Metadata["cancelledAt"] = now.Format(time.RFC3339)
		if reason != "" {
			slot.Metadata["cancelReason"] = reason
		}
		slot.UpdatedAt = now
		if err := tx.UpdateSlot(txCtx, slot); err != nil {
			return err
		}
		cancelled = slot
		return nil
	})
	if err != nil {
		return nil, storeErr(err, "slot "+slotID)
	}

	s.engine.invalidateUsers(ctx, tenantID, cancelled.UserIDs())
	s.sideEffect("cancel reminders", cancelled, s.reminders.Cancel(ctx, tenantID, cancelled.ID))
	s.sideEffect("notify cancelled", cancelled, s.automation.SlotCancelled(ctx, cancelled))
	return cancelled, nil
}

// Delete removes an AVAILABLE or CANCELLED slot. Booked slots must be
// cancelled first.
func (s *SlotService) Delete(ctx context.Context, tenantID, slotID string) error {
	err := s.store.WithTx(ctx, func(tx store.Repo) error {
		slot, err := tx.GetSlotForUpdate(ctx, tenantID, slotID)
		if err != nil {
			return err
		}
		if slot.Status == model.SlotStatusBooked {
			return conflictf("booked slots must be cancelled before deletion")
		}
		return tx.DeleteSlot(ctx, tenantID, slotID)
	})
	return storeErr(err, "slot "+slotID)
}

func (s *SlotService) sideEffect(name string, slot *model.InterviewSlot, err error) {
	if err == nil {
		return
	}
	s.log.Warn("slot side effect failed",
		zap.String("effect", name),
		zap.String("tenant_id", slot.TenantID),
		zap.String("slot_id", slot.ID),
		zap.Error(err))
}
