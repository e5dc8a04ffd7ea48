package ports

import (
	"context"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/domain/geo"
)

// LocationRepository defines the methods for managing last-known locations.
type LocationRepository interface {
	// Upsert writes the record keyed by entity identity. The store assigns
	// LastUpdated; concurrent writers are last-write-wins.
	Upsert(ctx context.Context, rec geo.LocationRecord) (geo.LocationRecord, error)
	// UpdateByEntity mutates an existing record; geo.ErrNotFound when absent.
	UpdateByEntity(ctx context.Context, entityID string, pos geo.Position, address string) (geo.LocationRecord, error)
	// QueryActive returns records of the given kind updated at or after
	// since, display names joined in, newest first.
	QueryActive(ctx context.Context, kind geo.EntityKind, since time.Time) ([]geo.LocationRecord, error)
	// ListAll returns every record with display names joined in.
	ListAll(ctx context.Context) ([]geo.LocationRecord, error)
}

// EventPublisher publishes raw messages to the broker.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// TopicPublisher delivers an event to every live session of a topic and
// reports how many sessions it reached.
type TopicPublisher interface {
	Publish(topic string, event any) int
}

// UpdateIngestor accepts raw driver position updates from sessions.
// Invalid payloads are dropped without a reply, so there is nothing to
// return to the caller.
type UpdateIngestor interface {
	IngestDriverUpdate(ctx context.Context, upd contracts.DriverLocationUpdate)
}

// AddLocationInput carries a full administrative location registration.
type AddLocationInput struct {
	EntityID  string
	Kind      string
	Address   string
	Latitude  *float64
	Longitude *float64
}

// UpdateLocationInput carries a partial position/address update.
type UpdateLocationInput struct {
	Latitude  *float64
	Longitude *float64
	Address   string
}

// TrackingService is the full surface of the tracking core: real-time
// ingestion plus the location CRUD the HTTP API fronts.
type TrackingService interface {
	UpdateIngestor
	AddLocation(ctx context.Context, in AddLocationInput) (geo.LocationRecord, error)
	UpdateLocation(ctx context.Context, entityID string, in UpdateLocationInput) (geo.LocationRecord, error)
	ListLocations(ctx context.Context) ([]geo.LocationRecord, error)
}
