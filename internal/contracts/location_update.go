package contracts

import "time"

// LocationUpdateMessage is broadcast by the geo-location service for every
// accepted driver position. Exchange: ExchangeLocationFanout (fanout, no
// routing key); order and notification services consume it.
type LocationUpdateMessage struct {
	DriverID  string    `json:"driver_id"`
	OrderID   string    `json:"order_id,omitempty"`
	Location  GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
