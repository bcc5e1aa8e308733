package geo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMilesBetween(t *testing.T) {
	table := NewZipTable(map[string]Coord{
		"30303": {Lat: 33.7525, Lon: -84.3888},
		"30309": {Lat: 33.7983, Lon: -84.3884},
	})

	// ~3.17 straight-line miles, 3.8 with the buffer.
	assert.Equal(t, int64(4), table.MilesBetween("30303", "30309"))
	assert.Equal(t, int64(0), table.MilesBetween("30303", "30303-1234"))
	assert.Equal(t, DefaultMiles, table.MilesBetween("30303", "99999"))

	var empty *ZipTable
	assert.Equal(t, DefaultMiles, empty.MilesBetween("30303", "30309"))
}

func TestReadZipTable(t *testing.T) {
	table, err := ReadZipTable(strings.NewReader("zip,lat,lon\n30303, 33.7525, -84.3888\n"))
	require.NoError(t, err)

	c, ok := table.Lookup("30303")
	require.True(t, ok)
	assert.InDelta(t, 33.7525, c.Lat, 1e-9)

	_, err = ReadZipTable(strings.NewReader("30303,33.7,-84.3\n30309,x,y\n"))
	assert.Error(t, err)
}
