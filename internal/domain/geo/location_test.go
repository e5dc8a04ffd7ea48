package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEntityKind(t *testing.T) {
	kind, err := ParseEntityKind("  Driver ")
	require.NoError(t, err)
	require.Equal(t, EntityKindDriver, kind)

	for _, raw := range []string{"", "courier", "admin"} {
		_, err := ParseEntityKind(raw)
		require.ErrorIs(t, err, ErrInvalidKind, raw)
	}
}

func TestPositionValidate(t *testing.T) {
	require.NoError(t, Position{Lat: 90, Lng: -180}.Validate())
	require.NoError(t, Position{Lat: 0, Lng: 0}.Validate())
	require.ErrorIs(t, Position{Lat: 90.1, Lng: 0}.Validate(), ErrInvalidLatitude)
	require.ErrorIs(t, Position{Lat: -90.1, Lng: 0}.Validate(), ErrInvalidLatitude)
	require.ErrorIs(t, Position{Lat: 0, Lng: 180.5}.Validate(), ErrInvalidLongitude)
	require.ErrorIs(t, Position{Lat: 0, Lng: -181}.Validate(), ErrInvalidLongitude)
}

func TestLocationRecordValidate(t *testing.T) {
	valid := LocationRecord{
		EntityID: "D1",
		Kind:     EntityKindDriver,
		Position: Position{Lat: 40.0, Lng: -74.0},
	}
	require.NoError(t, valid.Validate())

	missingID := valid
	missingID.EntityID = "  "
	require.ErrorIs(t, missingID.Validate(), ErrMissingEntityID)

	badKind := valid
	badKind.Kind = "courier"
	require.ErrorIs(t, badKind.Validate(), ErrInvalidKind)

	badPos := valid
	badPos.Position.Lat = 120
	require.ErrorIs(t, badPos.Validate(), ErrInvalidLatitude)
}
