package tracking

import (
	"context"
	"encoding/json"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/domain/geo"
	"quickbite/internal/logger"
	"quickbite/internal/ports"

	"github.com/google/uuid"
)

const producerName = "geo-location-service"

// Service is the tracking core: it validates and persists driver position
// updates, dispatches them to order trackers, fans them out to the broker,
// and backs the administrative location API.
type Service struct {
	logger     *logger.Logger
	store      ports.LocationRepository
	dispatcher *Dispatcher
	publisher  ports.EventPublisher
}

var _ ports.TrackingService = (*Service)(nil)

func NewService(logger *logger.Logger, store ports.LocationRepository, dispatcher *Dispatcher, publisher ports.EventPublisher) *Service {
	return &Service{
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
		publisher:  publisher,
	}
}

// IngestDriverUpdate processes one driver:updateLocation payload. Updates
// missing driverId, latitude or longitude are dropped without a reply. On
// success the stored position, order-topic dispatch and broker fanout all
// carry the same coordinates.
func (s *Service) IngestDriverUpdate(ctx context.Context, upd contracts.DriverLocationUpdate) {
	if upd.DriverID == "" || upd.Latitude == nil || upd.Longitude == nil {
		updatesDropped.WithLabelValues("missing_field").Inc()
		s.logger.Debug(ctx, "location_update_dropped", "Dropping incomplete location update", map[string]any{
			"driver_id":     upd.DriverID,
			"has_latitude":  upd.Latitude != nil,
			"has_longitude": upd.Longitude != nil,
		})
		return
	}

	rec := geo.LocationRecord{
		EntityID: upd.DriverID,
		Kind:     geo.EntityKindDriver,
		Position: geo.Position{Lat: *upd.Latitude, Lng: *upd.Longitude},
	}

	stored, err := s.store.Upsert(ctx, rec)
	if err != nil {
		updatesDropped.WithLabelValues("store_error").Inc()
		s.logger.Error(ctx, "location_upsert_failed", "Failed to persist driver location", err, map[string]any{
			"driver_id": upd.DriverID,
		})
		return
	}

	updatesIngested.Inc()

	event := contracts.DriverLocationUpdated{
		DriverID:  upd.DriverID,
		Latitude:  stored.Position.Lat,
		Longitude: stored.Position.Lng,
		Timestamp: stored.LastUpdated.UnixMilli(),
	}

	if upd.OrderID != "" {
		s.dispatcher.Notify(ctx, upd.OrderID, event)
	}

	s.fanout(ctx, upd.OrderID, stored)
}

// fanout publishes the accepted position to the platform exchange. Broker
// failures never affect the ingestion outcome.
func (s *Service) fanout(ctx context.Context, orderID string, rec geo.LocationRecord) {
	msg := contracts.LocationUpdateMessage{
		DriverID: rec.EntityID,
		OrderID:  orderID,
		Location: contracts.GeoPoint{
			Lat:     rec.Position.Lat,
			Lng:     rec.Position.Lng,
			Address: rec.Address,
		},
		Timestamp: rec.LastUpdated,
		Envelope: contracts.Envelope{
			CorrelationID: uuid.NewString(),
			Producer:      producerName,
			SentAt:        time.Now().UTC(),
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error(ctx, "fanout_marshal_failed", "Failed to encode location fanout message", err, nil)
		return
	}

	if err := s.publisher.Publish(contracts.ExchangeLocationFanout, "", body); err != nil {
		s.logger.Error(ctx, "fanout_publish_failed", "Failed to publish location update to broker", err, map[string]any{
			"driver_id": rec.EntityID,
		})
	}
}

// AddLocation registers a full location record for any tracked entity.
func (s *Service) AddLocation(ctx context.Context, in ports.AddLocationInput) (geo.LocationRecord, error) {
	kind, err := geo.ParseEntityKind(in.Kind)
	if err != nil {
		return geo.LocationRecord{}, err
	}
	if in.Latitude == nil {
		return geo.LocationRecord{}, geo.ErrInvalidLatitude
	}
	if in.Longitude == nil {
		return geo.LocationRecord{}, geo.ErrInvalidLongitude
	}
	if in.Address == "" {
		return geo.LocationRecord{}, geo.ErrMissingAddress
	}

	rec := geo.LocationRecord{
		EntityID: in.EntityID,
		Kind:     kind,
		Address:  in.Address,
		Position: geo.Position{Lat: *in.Latitude, Lng: *in.Longitude},
	}

	stored, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return geo.LocationRecord{}, err
	}

	s.logger.Info(ctx, "location_added", "Location record saved", map[string]any{
		"entity_id": stored.EntityID,
		"kind":      stored.Kind.String(),
	})
	return stored, nil
}

// UpdateLocation mutates an existing record's position and optionally its
// address. geo.ErrNotFound when the entity has no record yet.
func (s *Service) UpdateLocation(ctx context.Context, entityID string, in ports.UpdateLocationInput) (geo.LocationRecord, error) {
	if entityID == "" {
		return geo.LocationRecord{}, geo.ErrMissingEntityID
	}
	if in.Latitude == nil {
		return geo.LocationRecord{}, geo.ErrInvalidLatitude
	}
	if in.Longitude == nil {
		return geo.LocationRecord{}, geo.ErrInvalidLongitude
	}

	pos := geo.Position{Lat: *in.Latitude, Lng: *in.Longitude}
	if err := pos.Validate(); err != nil {
		return geo.LocationRecord{}, err
	}

	stored, err := s.store.UpdateByEntity(ctx, entityID, pos, in.Address)
	if err != nil {
		return geo.LocationRecord{}, err
	}

	s.logger.Info(ctx, "location_updated", "Location record updated", map[string]any{
		"entity_id": stored.EntityID,
	})
	return stored, nil
}

// ListLocations returns every stored record with display names joined in.
func (s *Service) ListLocations(ctx context.Context) ([]geo.LocationRecord, error) {
	return s.store.ListAll(ctx)
}
