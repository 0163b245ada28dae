package texts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimezones(t *testing.T) {
	zones := Timezones()
	assert.Len(t, zones, 27)
	assert.Equal(t, "GMT-12", zones[0])
	assert.Equal(t, "GMT0", zones[12])
	assert.Equal(t, "GMT+14", zones[26])
}

func TestValidTimezone(t *testing.T) {
	assert.True(t, ValidTimezone("GMT+1"))
	assert.True(t, ValidTimezone("GMT-12"))
	assert.False(t, ValidTimezone("GMT+15"))
	assert.False(t, ValidTimezone("UTC"))
}
