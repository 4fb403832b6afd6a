package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"interview-scheduler/internal/model"
	"interview-scheduler/internal/store"
)

var _ store.Store = (*Store)(nil)

func at(hour int) time.Time {
	return time.Date(2025, 1, 6, hour, 0, 0, 0, time.UTC)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx store.Repo) error {
		if err := tx.InsertBusyBlocks(ctx, []model.BusyBlock{{
			ID: "b1", TenantID: "t1", UserID: "u1", Start: at(9), End: at(10), Source: model.BusySourceManual,
		}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.GetBusyBlock(ctx, "t1", "b1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(tx store.Repo) error {
		return tx.InsertBusyBlocks(ctx, []model.BusyBlock{{
			ID: "b1", TenantID: "t1", UserID: "u1", Start: at(9), End: at(10), Source: model.BusySourceManual,
		}})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	blocks, err := s.ListBusyBlocks(ctx, "t1", "u1", at(0), at(23))
	if err != nil || len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %v (%v)", blocks, err)
	}
}

func TestListBusyBlocksOverlapOnly(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.InsertBusyBlocks(ctx, []model.BusyBlock{
		{ID: "a", TenantID: "t1", UserID: "u1", Start: at(8), End: at(9)},
		{ID: "b", TenantID: "t1", UserID: "u1", Start: at(9), End: at(11)},
		{ID: "c", TenantID: "t1", UserID: "u1", Start: at(12), End: at(13)},
	})
	got, _ := s.ListBusyBlocks(ctx, "t1", "u1", at(9), at(12))
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", got)
	}
}

func TestCurrentWorkingHoursPicksNewestUnexpired(t *testing.T) {
	ctx := context.Background()
	s := New()
	expired := at(1)
	_ = s.InsertWorkingHours(ctx, &model.WorkingHours{ID: "old", TenantID: "t1", UserID: "u1", CreatedAt: at(0)})
	_ = s.InsertWorkingHours(ctx, &model.WorkingHours{ID: "gone", TenantID: "t1", UserID: "u1", CreatedAt: at(2), EffectiveTo: &expired})
	_ = s.InsertWorkingHours(ctx, &model.WorkingHours{ID: "new", TenantID: "t1", UserID: "u1", CreatedAt: at(1)})

	wh, err := s.CurrentWorkingHours(ctx, "t1", "u1", at(5))
	if err != nil {
		t.Fatalf("CurrentWorkingHours: %v", err)
	}
	if wh.ID != "new" {
		t.Fatalf("expected new, got %s", wh.ID)
	}
	if _, err := s.CurrentWorkingHours(ctx, "t1", "u2", at(5)); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCurrentWorkingHoursSkipsNotYetEffective(t *testing.T) {
	ctx := context.Background()
	s := New()
	from := at(8)
	_ = s.InsertWorkingHours(ctx, &model.WorkingHours{ID: "now", TenantID: "t1", UserID: "u1", CreatedAt: at(0)})
	_ = s.InsertWorkingHours(ctx, &model.WorkingHours{ID: "later", TenantID: "t1", UserID: "u1", CreatedAt: at(1), EffectiveFrom: &from})

	wh, err := s.CurrentWorkingHours(ctx, "t1", "u1", at(5))
	if err != nil {
		t.Fatalf("CurrentWorkingHours: %v", err)
	}
	if wh.ID != "now" {
		t.Fatalf("expected now before effective_from, got %s", wh.ID)
	}
	wh, err = s.CurrentWorkingHours(ctx, "t1", "u1", at(8))
	if err != nil {
		t.Fatalf("CurrentWorkingHours: %v", err)
	}
	if wh.ID != "later" {
		t.Fatalf("expected later once effective, got %s", wh.ID)
	}
}

func TestWritesOutsideTxSurviveCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	entered := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)

	go func() {
		txDone <- s.WithTx(ctx, func(tx store.Repo) error {
			close(entered)
			<-release
			return tx.InsertBusyBlocks(ctx, []model.BusyBlock{{
				ID: "in-tx", TenantID: "t1", UserID: "u1", Start: at(9), End: at(10), Source: model.BusySourceManual,
			}})
		})
	}()
	<-entered

	insertDone := make(chan error, 1)
	go func() {
		insertDone <- s.InsertBusyBlocks(ctx, []model.BusyBlock{{
			ID: "outside", TenantID: "t1", UserID: "u1", Start: at(11), End: at(12), Source: model.BusySourceManual,
		}})
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	if err := <-txDone; err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := <-insertDone; err != nil {
		t.Fatalf("InsertBusyBlocks: %v", err)
	}
	for _, id := range []string{"in-tx", "outside"} {
		if _, err := s.GetBusyBlock(ctx, "t1", id); err != nil {
			t.Fatalf("block %s lost: %v", id, err)
		}
	}
}

func TestSecondDefaultRuleConflicts(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.InsertRule(ctx, &model.SchedulingRule{ID: "r1", TenantID: "t1", IsDefault: true}); err != nil {
		t.Fatalf("InsertRule: %v", err)
	}
	if err := s.InsertRule(ctx, &model.SchedulingRule{ID: "r2", TenantID: "t1", IsDefault: true}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := s.InsertRule(ctx, &model.SchedulingRule{ID: "r3", TenantID: "t2", IsDefault: true}); err != nil {
		t.Fatalf("other tenant default: %v", err)
	}
}

func TestSlotValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := New()
	slot := &model.InterviewSlot{
		ID: "s1", TenantID: "t1", Start: at(9), End: at(10),
		Participants: []model.Participant{model.UserParticipant("u1")},
		Metadata:     map[string]any{"k": "v"},
		Status:       model.SlotStatusAvailable,
	}
	if err := s.InsertSlots(ctx, []*model.InterviewSlot{slot}); err != nil {
		t.Fatalf("InsertSlots: %v", err)
	}
	slot.Metadata["k"] = "changed"

	got, _ := s.GetSlot(ctx, "t1", "s1")
	got.Participants[0].ID = "mutated"
	again, _ := s.GetSlot(ctx, "t1", "s1")
	if again.Metadata["k"] != "v" || again.Participants[0].ID != "u1" {
		t.Fatalf("stored slot was mutated: %+v", again)
	}
}

func TestListSlotsFilterAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	var slots []*model.InterviewSlot
	for h := 9; h < 14; h++ {
		slots = append(slots, &model.InterviewSlot{
			ID: string(rune('a' + h - 9)), TenantID: "t1", OrganizerID: "o1",
			Start: at(h), End: at(h + 1), Status: model.SlotStatusAvailable,
		})
	}
	slots[1].Status = model.SlotStatusBooked
	_ = s.InsertSlots(ctx, slots)

	avail, _ := s.ListSlots(ctx, "t1", store.SlotFilter{Status: model.SlotStatusAvailable})
	if len(avail) != 4 {
		t.Fatalf("expected 4 available, got %d", len(avail))
	}
	page, _ := s.ListSlots(ctx, "t1", store.SlotFilter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "b" || page[1].ID != "c" {
		t.Fatalf("unexpected page %+v", page)
	}
	ranged, _ := s.ListSlots(ctx, "t1", store.SlotFilter{From: at(10), To: at(12)})
	if len(ranged) != 2 {
		t.Fatalf("expected 2 in range, got %d", len(ranged))
	}
}

func TestCountScheduledInterviews(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.InsertInterview(ctx, &model.Interview{ID: "i1", TenantID: "t1", InterviewerIDs: []string{"u1", "u2"}, Start: at(9), End: at(10), Status: model.InterviewStatusScheduled})
	_ = s.InsertInterview(ctx, &model.Interview{ID: "i2", TenantID: "t1", InterviewerIDs: []string{"u1"}, Start: at(11), End: at(12), Status: model.InterviewStatusScheduled})
	_ = s.InsertInterview(ctx, &model.Interview{ID: "i3", TenantID: "t1", InterviewerIDs: []string{"u1"}, Start: at(13), End: at(14), Status: model.InterviewStatusCancelled})

	counts, err := s.CountScheduledInterviews(ctx, "t1", []string{"u1", "u2", "u3"}, at(0), at(23))
	if err != nil {
		t.Fatalf("CountScheduledInterviews: %v", err)
	}
	if counts["u1"] != 2 || counts["u2"] != 1 || counts["u3"] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
