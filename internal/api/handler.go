package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quickbite/internal/domain/geo"
	"quickbite/internal/domain/user"
	"quickbite/internal/jwt"
	"quickbite/internal/logger"
	"quickbite/internal/ports"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LocationHTTPHandler fronts the location CRUD with JWT-protected routes.
type LocationHTTPHandler struct {
	svc    ports.TrackingService
	logger *logger.Logger
	auth   *jwt.Manager
}

func NewLocationHTTPHandler(svc ports.TrackingService, logger *logger.Logger, auth *jwt.Manager) *LocationHTTPHandler {
	return &LocationHTTPHandler{svc: svc, logger: logger, auth: auth}
}

// RegisterRoutes mounts the location API. Every /api/location route requires
// a valid token of any platform role; health and metrics stay open.
func (h *LocationHTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	authed := jwt.AuthMiddlewareFunc(h.auth,
		user.RoleCustomer, user.RoleRestaurant, user.RoleDriver, user.RoleAdmin)

	mux.HandleFunc("POST /api/location/add-location", authed(h.addLocation))
	mux.HandleFunc("PUT /api/location/update-location/{userId}", authed(h.updateLocation))
	mux.HandleFunc("GET /api/location/all-locations", authed(h.allLocations))

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("GET /metrics", promhttp.Handler())
}

type addLocationRequest struct {
	UserID    string   `json:"userId"`
	Type      string   `json:"type"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type updateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address,omitempty"`
}

type locationResponse struct {
	UserID      string  `json:"userId"`
	Type        string  `json:"type"`
	Name        string  `json:"name,omitempty"`
	Address     string  `json:"address,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	LastUpdated string  `json:"lastUpdated"`
}

func (h *LocationHTTPHandler) addLocation(w http.ResponseWriter, r *http.Request) {
	ctx := h.logger.WithRequestID(r.Context(), uuid.NewString())

	var req addLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.AddLocation(ctx, ports.AddLocationInput{
		EntityID:  req.UserID,
		Kind:      req.Type,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.respondServiceError(ctx, w, "add_location_failed", err)
		return
	}

	h.jsonResponse(w, http.StatusCreated, toLocationResponse(rec))
}

func (h *LocationHTTPHandler) updateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := h.logger.WithRequestID(r.Context(), uuid.NewString())
	entityID := r.PathValue("userId")

	var req updateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.svc.UpdateLocation(ctx, entityID, ports.UpdateLocationInput{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
	})
	if err != nil {
		h.respondServiceError(ctx, w, "update_location_failed", err)
		return
	}

	h.jsonResponse(w, http.StatusOK, toLocationResponse(rec))
}

func (h *LocationHTTPHandler) allLocations(w http.ResponseWriter, r *http.Request) {
	ctx := h.logger.WithRequestID(r.Context(), uuid.NewString())

	recs, err := h.svc.ListLocations(ctx)
	if err != nil {
		h.respondServiceError(ctx, w, "list_locations_failed", err)
		return
	}

	out := make([]locationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toLocationResponse(rec))
	}
	h.jsonResponse(w, http.StatusOK, out)
}

func (h *LocationHTTPHandler) health(w http.ResponseWriter, _ *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toLocationResponse(rec geo.LocationRecord) locationResponse {
	return locationResponse{
		UserID:      rec.EntityID,
		Type:        rec.Kind.String(),
		Name:        rec.DisplayName,
		Address:     rec.Address,
		Latitude:    rec.Position.Lat,
		Longitude:   rec.Position.Lng,
		LastUpdated: rec.LastUpdated.UTC().Format(time.RFC3339),
	}
}

func (h *LocationHTTPHandler) respondServiceError(ctx context.Context, w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, geo.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "location record not found")
	case errors.Is(err, geo.ErrMissingEntityID),
		errors.Is(err, geo.ErrInvalidKind),
		errors.Is(err, geo.ErrInvalidLatitude),
		errors.Is(err, geo.ErrInvalidLongitude),
		errors.Is(err, geo.ErrMissingAddress):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(ctx, action, "Location request failed", err, nil)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *LocationHTTPHandler) jsonResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *LocationHTTPHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.jsonResponse(w, status, map[string]string{"error": msg})
}
