package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		text     string
		lat, lon float64
		ok       bool
	}{
		{"40.4168, -3.7038", 40.4168, -3.7038, true},
		{"40.4168,-3.7038", 40.4168, -3.7038, true},
		{"+40,-3", 40, -3, true},
		{"40, 3", 40, 3, true},
		{"  40.1, 3.2  ", 40.1, 3.2, true},
		{"40.4168,  -3.7038", 0, 0, false}, // two spaces
		{"40.4168; -3.7038", 0, 0, false},
		{"come to 40.4168, -3.7038", 0, 0, false},
		{"hello there", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		lat, lon, ok := ParseCoordinates(tt.text)
		assert.Equal(t, tt.ok, ok, "text %q", tt.text)
		if tt.ok {
			assert.InDelta(t, tt.lat, lat, 1e-9, "text %q", tt.text)
			assert.InDelta(t, tt.lon, lon, 1e-9, "text %q", tt.text)
		}
	}
}

func TestMapsLink(t *testing.T) {
	link := MapsLink("Plaza Mayor", 40.4168, -3.7038)
	assert.Equal(t,
		`<a href="https://www.google.com/maps/place/40.4168,-3.7038">Plaza Mayor</a>`,
		link)
}

func TestRenderReport(t *testing.T) {
	got := renderReport("LINK", "Larvitar✨, Catch 3 dragon-type Pokemon\n💯: 842",
		"Reported by", "ash")
	assert.Equal(t,
		"LINK\n<b>Larvitar✨</b>,<i> Catch 3 dragon-type Pokemon</i>\n💯: 842\nReported by @ash",
		got)
}

func TestRenderUnknown(t *testing.T) {
	got := renderUnknown("LINK", "Magikarp✨/Dratini, Make an excellent throw",
		"❓", "Reported by", "ash")
	assert.Equal(t,
		"LINK\n<b>❓</b>,<i> Make an excellent throw</i>\nReported by @ash",
		got)
}

func TestSelectionPayloadRoundTrip(t *testing.T) {
	payload := encodeSelection("Magikarp✨", -3.7038, 40.4168, "Plaza, Mayor", 42)

	reward, lon, lat, pokestop, locationID, err := decodeSelection(payload)
	require.NoError(t, err)
	assert.Equal(t, "Magikarp✨", reward)
	assert.InDelta(t, -3.7038, lon, 1e-9)
	assert.InDelta(t, 40.4168, lat, 1e-9)
	// Commas inside the point-of-interest name survive the round trip.
	assert.Equal(t, "Plaza, Mayor", pokestop)
	assert.Equal(t, 42, locationID)
}

func TestDecodeSelectionMalformed(t *testing.T) {
	for _, payload := range []string{"", "a,b,c", "r,x,1.0,poi,5", "r,1.0,2.0,poi,NaNid"} {
		_, _, _, _, _, err := decodeSelection(payload)
		assert.Error(t, err, "payload %q", payload)
	}
}
