package contracts

// Exchanges
const (
	ExchangeLocationFanout = "location_fanout"
)

// Queues bound to the fanout so platform consumers never miss updates
// published before they start.
const (
	QueueLocationUpdatesOrders        = "location_updates_orders"
	QueueLocationUpdatesNotifications = "location_updates_notifications"
)
