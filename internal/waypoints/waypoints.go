// Package waypoints converts an ordered coordinate sequence to and from the
// compact text stored alongside a route and consumed by map rendering.
//
// The canonical form is an array of [lat, lon] pairs. An array of
// {"Latitude": .., "Longitude": ..} objects is also written on request and
// accepted on read for compatibility with older stored routes.
package waypoints

import (
	"encoding/json"
	"math"
	"school-route-service/internal/domain"
	"strconv"
	"strings"
)

// Encode returns the [[lat,lon],...] form. An empty sequence encodes to "".
func Encode(points []domain.Coordinates) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, p := range points {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('[')
		b.WriteString(formatFloat(p.Lat))
		b.WriteByte(',')
		b.WriteString(formatFloat(p.Lon))
		b.WriteByte(']')
	}
	b.WriteByte(']')

	return b.String()
}

// EncodeObjects returns the [{"Latitude":..,"Longitude":..},...] form.
func EncodeObjects(points []domain.Coordinates) string {
	if len(points) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, p := range points {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"Latitude":`)
		b.WriteString(formatFloat(p.Lat))
		b.WriteString(`,"Longitude":`)
		b.WriteString(formatFloat(p.Lon))
		b.WriteByte('}')
	}
	b.WriteByte(']')

	return b.String()
}

// FromStops collects stop locations in sequence order.
func FromStops(stops []*domain.Stop) []domain.Coordinates {
	out := make([]domain.Coordinates, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Location)
	}
	return out
}

// Decode parses either stored shape. Entries that do not yield two finite
// numbers are skipped; empty or malformed input yields an empty slice.
func Decode(s string) []domain.Coordinates {
	out := []domain.Coordinates{}

	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		return out
	}

	for _, raw := range entries {
		if c, ok := decodeEntry(raw); ok {
			out = append(out, c)
		}
	}

	return out
}

func decodeEntry(raw json.RawMessage) (domain.Coordinates, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return domain.Coordinates{}, false
	}

	switch trimmed[0] {
	case '[':
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) < 2 {
			return domain.Coordinates{}, false
		}
		lat, ok := parseNumber(pair[0])
		if !ok {
			return domain.Coordinates{}, false
		}
		lon, ok := parseNumber(pair[1])
		if !ok {
			return domain.Coordinates{}, false
		}
		return domain.Coordinates{Lat: lat, Lon: lon}, true

	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return domain.Coordinates{}, false
		}
		var latRaw, lonRaw json.RawMessage
		for k, v := range obj {
			switch strings.ToLower(k) {
			case "latitude", "lat":
				latRaw = v
			case "longitude", "lon", "lng":
				lonRaw = v
			}
		}
		if latRaw == nil || lonRaw == nil {
			return domain.Coordinates{}, false
		}
		lat, ok := parseNumber(latRaw)
		if !ok {
			return domain.Coordinates{}, false
		}
		lon, ok := parseNumber(lonRaw)
		if !ok {
			return domain.Coordinates{}, false
		}
		return domain.Coordinates{Lat: lat, Lon: lon}, true
	}

	return domain.Coordinates{}, false
}

// parseNumber accepts a JSON number or a numeric string using '.' as the
// decimal separator.
func parseNumber(raw json.RawMessage) (float64, bool) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		text = strings.TrimSpace(str)
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
