package contracts

import "encoding/json"

// Client-emitted event names.
const (
	EventDriverUpdateLocation = "driver:updateLocation"
	EventOrderTrack           = "order:track"
	EventAdminMonitorDrivers  = "admin:monitorDrivers"
)

// Server-emitted event names.
const (
	EventDriverLocationUpdated = "driver:locationUpdated"
	EventAdminDriversUpdate    = "admin:driversUpdate"
)

// Topics.
const TopicAdminMonitoring = "admin:monitoring"

// OrderTopic is the per-order tracking topic name.
func OrderTopic(orderID string) string {
	return "order:" + orderID
}

// ClientEvent is the envelope every inbound WebSocket frame carries.
type ClientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerEvent is the envelope for every outbound WebSocket frame.
type ServerEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// DriverLocationUpdate is the driver:updateLocation payload. Coordinates are
// pointers so an absent field is distinguishable from a zero coordinate.
type DriverLocationUpdate struct {
	DriverID  string   `json:"driverId"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	OrderID   string   `json:"orderId,omitempty"`
}

// DriverLocationUpdated is pushed to order:<orderId> subscribers. Timestamp
// is a server-assigned epoch in milliseconds.
type DriverLocationUpdated struct {
	DriverID  string  `json:"driverId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// AdminDriverSnapshot is one element of the admin:driversUpdate payload.
type AdminDriverSnapshot struct {
	DriverID    string  `json:"driverId"`
	Name        string  `json:"name,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address,omitempty"`
	LastUpdated string  `json:"lastUpdated"` // ISO-8601 UTC
}
