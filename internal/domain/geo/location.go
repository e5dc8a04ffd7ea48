package geo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingEntityID  = errors.New("entity ID is required")
	ErrInvalidKind      = errors.New("invalid entity kind")
	ErrInvalidLatitude  = errors.New("latitude must be within [-90, 90]")
	ErrInvalidLongitude = errors.New("longitude must be within [-180, 180]")
	ErrMissingAddress   = errors.New("address is required")
	ErrNotFound         = errors.New("location record not found")
)

// EntityKind classifies who a location record belongs to.
type EntityKind string

const (
	EntityKindUser       EntityKind = "user"
	EntityKindRestaurant EntityKind = "restaurant"
	EntityKindDriver     EntityKind = "driver"
)

// ParseEntityKind normalizes and validates a raw kind string.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindUser, EntityKindRestaurant, EntityKindDriver:
		return true
	}
	return false
}

func (k EntityKind) String() string { return string(k) }

// Position is a geographic point in WGS84, longitude first to match the
// stored point representation.
type Position struct {
	Lng float64
	Lat float64
}

func (p Position) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return ErrInvalidLatitude
	}
	if p.Lng < -180 || p.Lng > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// LocationRecord is the persisted last-known location of one tracked entity.
// There is at most one record per entity; every write is an upsert.
type LocationRecord struct {
	EntityID    string
	Kind        EntityKind
	Address     string
	Position    Position
	DisplayName string // joined from the users table, informational
	LastUpdated time.Time
}

// Validate checks the fields a write must carry. DisplayName and LastUpdated
// are store-owned and not validated here.
func (r *LocationRecord) Validate() error {
	if strings.TrimSpace(r.EntityID) == "" {
		return ErrMissingEntityID
	}
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, r.Kind)
	}
	return r.Position.Validate()
}
