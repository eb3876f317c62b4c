package waypoints

import (
	"school-route-service/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePairs(t *testing.T) {
	got := Encode([]domain.Coordinates{
		{Lat: 38.1527, Lon: -102.7204},
		{Lat: 38.0875, Lon: -102.62},
	})

	assert.Equal(t, "[[38.1527,-102.7204],[38.0875,-102.62]]", got)
}

func TestEncodeEmptyIsAbsent(t *testing.T) {
	assert.Equal(t, "", Encode(nil))
	assert.Equal(t, "", EncodeObjects([]domain.Coordinates{}))
}

func TestEncodeNeverUsesExponent(t *testing.T) {
	got := Encode([]domain.Coordinates{{Lat: 0.00000001, Lon: -0.5}})
	assert.Equal(t, "[[0.00000001,-0.5]]", got)
}

func TestRoundTrip(t *testing.T) {
	cases := [][]domain.Coordinates{
		{},
		{{Lat: 38.1527, Lon: -102.7204}},
		{{Lat: 1.5, Lon: 2.25}, {Lat: -33.8688, Lon: 151.2093}, {Lat: 0, Lon: 0}},
	}

	for _, points := range cases {
		got := Decode(Encode(points))
		require.Len(t, got, len(points))
		for i := range points {
			assert.Equal(t, points[i], got[i])
		}

		got = Decode(EncodeObjects(points))
		require.Len(t, got, len(points))
		for i := range points {
			assert.Equal(t, points[i], got[i])
		}
	}
}

func TestDecodeObjectShape(t *testing.T) {
	got := Decode(`[{"Latitude": 38.15, "Longitude": -102.72}, {"latitude": "38.2", "longitude": "-102.8"}]`)

	require.Len(t, got, 2)
	assert.Equal(t, domain.Coordinates{Lat: 38.15, Lon: -102.72}, got[0])
	assert.Equal(t, domain.Coordinates{Lat: 38.2, Lon: -102.8}, got[1])
}

func TestDecodeSkipsBadEntries(t *testing.T) {
	got := Decode(`[[1,2],[3],["x",4],null,{"Latitude":5},{"Latitude":6,"Longitude":7},"junk",[8,9,10]]`)

	assert.Equal(t, []domain.Coordinates{
		{Lat: 1, Lon: 2},
		{Lat: 6, Lon: 7},
		{Lat: 8, Lon: 9},
	}, got)
}

func TestDecodeMalformedInput(t *testing.T) {
	inputs := []string{"", "   ", "null", "{", "not json", `{"Latitude":1,"Longitude":2}`, "[[1,2]"}

	for _, in := range inputs {
		got := Decode(in)
		assert.NotNil(t, got, "input %q", in)
		assert.Empty(t, got, "input %q", in)
	}
}

func TestFromStopsKeepsOrder(t *testing.T) {
	stops := []*domain.Stop{
		{Sequence: 1, Location: domain.Coordinates{Lat: 1, Lon: 1}},
		{Sequence: 2, Location: domain.Coordinates{Lat: 2, Lon: 2}},
	}

	assert.Equal(t, []domain.Coordinates{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}}, FromStops(stops))
}
