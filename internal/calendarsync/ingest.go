package calendarsync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"interview-scheduler/internal/interval"
	"interview-scheduler/internal/model"
	"interview-scheduler/internal/scheduling"
)

// Replacer swaps the blocks of one (source, sourceID) batch that overlap
// window atomically and invalidates the affected users' availability.
type Replacer interface {
	ReplaceBySource(ctx context.Context, tenantID string, source model.BusySource, sourceID string, window interval.Interval, blocks []model.BusyBlock) error
}

type Ingester struct {
	blocks Replacer
	log    *zap.Logger
}

func NewIngester(blocks Replacer, log *zap.Logger) *Ingester {
	return &Ingester{blocks: blocks, log: log}
}

// BatchID names the sync batch for a user's calendar. Re-syncing the same
// calendar replaces the previous batch.
func BatchID(provider, userID, calendarID string) string {
	return fmt.Sprintf("%s:%s:%s", provider, userID, calendarID)
}

// Sync pulls events in window from src and stores them as the user's
// calendar_sync blocks for batchID. Blocks the batch holds outside window are
// left alone. It returns the number of blocks written.
func (in *Ingester) Sync(ctx context.Context, tenantID, userID, batchID string, src Source, window interval.Interval) (int, error) {
	if !window.Valid() {
		return 0, fmt.Errorf("%w: invalid sync window", scheduling.ErrValidation)
	}
	events, err := src.Events(ctx, window)
	if err != nil {
		return 0, err
	}

	spans := make([]interval.Interval, 0, len(events))
	for _, e := range events {
		spans = append(spans, interval.Interval{Start: e.Start.UTC(), End: e.End.UTC()})
	}
	spans = interval.Merge(interval.Clip(spans, window))

	blocks := make([]model.BusyBlock, 0, len(spans))
	for _, s := range spans {
		blocks = append(blocks, model.BusyBlock{
			UserID: userID,
			Start:  s.Start,
			End:    s.End,
			Reason: "calendar",
		})
	}
	if err := in.blocks.ReplaceBySource(ctx, tenantID, model.BusySourceCalendarSync, batchID, window, blocks); err != nil {
		return 0, err
	}
	in.log.Info("calendar synced",
		zap.String("tenant_id", tenantID),
		zap.String("user_id", userID),
		zap.String("batch_id", batchID),
		zap.Int("events", len(events)),
		zap.Int("blocks", len(blocks)))
	return len(blocks), nil
}
