package tracking

import (
	"context"

	"quickbite/internal/contracts"
	"quickbite/internal/logger"
	"quickbite/internal/ports"
)

// Dispatcher pushes a driver's accepted position to the sessions tracking
// that driver's active order.
type Dispatcher struct {
	topics ports.TopicPublisher
	logger *logger.Logger
}

func NewDispatcher(topics ports.TopicPublisher, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{topics: topics, logger: logger}
}

// Notify delivers the update to the order's topic. An order nobody is
// tracking is a normal no-op.
func (d *Dispatcher) Notify(ctx context.Context, orderID string, upd contracts.DriverLocationUpdated) {
	delivered := d.topics.Publish(contracts.OrderTopic(orderID), contracts.ServerEvent{
		Type: contracts.EventDriverLocationUpdated,
		Data: upd,
	})

	d.logger.Debug(d.logger.WithOrderID(ctx, orderID), "order_update_dispatched",
		"Dispatched driver location to order trackers",
		map[string]any{"driver_id": upd.DriverID, "delivered": delivered})
}
