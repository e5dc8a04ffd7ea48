package realtime

import (
	"context"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/domain/geo"
	"quickbite/internal/logger"
	"quickbite/internal/ports"
)

// Broadcaster periodically pushes a snapshot of recently active drivers to
// every fleet-monitoring subscriber. Exactly one Broadcaster runs per process;
// it is started once from the composition root, not per connection.
type Broadcaster struct {
	logger *logger.Logger
	store  ports.LocationRepository
	topics ports.TopicPublisher
	period time.Duration
	window time.Duration
}

func NewBroadcaster(logger *logger.Logger, store ports.LocationRepository, topics ports.TopicPublisher, period, window time.Duration) *Broadcaster {
	return &Broadcaster{
		logger: logger,
		store:  store,
		topics: topics,
		period: period,
		window: window,
	}
}

// Run ticks until ctx is cancelled. Each tick is independent: a failed query
// skips that tick only.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Info(ctx, "broadcaster_started", "Fleet snapshot broadcaster started", map[string]any{
		"period": b.period.String(),
		"window": b.window.String(),
	})

	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info(ctx, "broadcaster_stopped", "Fleet snapshot broadcaster stopped", nil)
			return
		case <-ticker.C:
			b.tick(ctx)
		}
	}
}

func (b *Broadcaster) tick(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	since := time.Now().Add(-b.window)
	records, err := b.store.QueryActive(queryCtx, geo.EntityKindDriver, since)
	if err != nil {
		snapshotTicks.WithLabelValues("error").Inc()
		b.logger.Error(ctx, "snapshot_query_failed", "Failed to query active drivers", err, nil)
		return
	}

	snapshot := make([]contracts.AdminDriverSnapshot, 0, len(records))
	for _, rec := range records {
		snapshot = append(snapshot, contracts.AdminDriverSnapshot{
			DriverID:    rec.EntityID,
			Name:        rec.DisplayName,
			Latitude:    rec.Position.Lat,
			Longitude:   rec.Position.Lng,
			Address:     rec.Address,
			LastUpdated: rec.LastUpdated.UTC().Format(time.RFC3339),
		})
	}

	delivered := b.topics.Publish(contracts.TopicAdminMonitoring, contracts.ServerEvent{
		Type: contracts.EventAdminDriversUpdate,
		Data: snapshot,
	})

	snapshotTicks.WithLabelValues("ok").Inc()
	b.logger.Debug(ctx, "snapshot_broadcast", "Broadcast fleet snapshot", map[string]any{
		"drivers":   len(snapshot),
		"delivered": delivered,
	})
}
