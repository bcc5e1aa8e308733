// Package geo estimates driving distance between ZIP codes for mobile
// bookings.
package geo

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	earthRadiusMiles = 3958.8
	roadBuffer       = 1.2
	// DefaultMiles is charged when either ZIP is unknown.
	DefaultMiles int64 = 10
)

type Estimator interface {
	MilesBetween(zipA, zipB string) int64
}

type Coord struct {
	Lat float64
	Lon float64
}

type ZipTable struct {
	coords map[string]Coord
}

func NewZipTable(coords map[string]Coord) *ZipTable {
	t := &ZipTable{coords: make(map[string]Coord, len(coords))}
	for zip, c := range coords {
		t.coords[normalize(zip)] = c
	}
	return t
}

// LoadZipTable reads "zip,lat,lon" rows. A header row is skipped.
func LoadZipTable(path string) (*ZipTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip table: %w", err)
	}
	defer f.Close()
	return ReadZipTable(f)
}

func ReadZipTable(r io.Reader) (*ZipTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true

	coords := map[string]Coord{}
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read zip table: %w", err)
		}

		lat, latErr := strconv.ParseFloat(rec[1], 64)
		lon, lonErr := strconv.ParseFloat(rec[2], 64)
		if latErr != nil || lonErr != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("zip table line %d: bad coordinates", line)
		}
		coords[rec[0]] = Coord{Lat: lat, Lon: lon}
	}
	return NewZipTable(coords), nil
}

func (t *ZipTable) Lookup(zip string) (Coord, bool) {
	if t == nil {
		return Coord{}, false
	}
	c, ok := t.coords[normalize(zip)]
	return c, ok
}

// MilesBetween returns the great-circle distance with a 20% road buffer,
// rounded up, or DefaultMiles when a ZIP is unknown.
func (t *ZipTable) MilesBetween(zipA, zipB string) int64 {
	a, okA := t.Lookup(zipA)
	b, okB := t.Lookup(zipB)
	if !okA || !okB {
		return DefaultMiles
	}
	return int64(math.Ceil(Haversine(a, b) * roadBuffer))
}

func Haversine(a, b Coord) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	s1 := math.Sin(dLat / 2)
	s2 := math.Sin(dLon / 2)
	q := s1*s1 + math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*s2*s2
	return earthRadiusMiles * 2 * math.Atan2(math.Sqrt(q), math.Sqrt(1-q))
}

// normalize keeps the five-digit prefix of ZIP+4 codes.
func normalize(zip string) string {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexByte(zip, '-'); i > 0 {
		zip = zip[:i]
	}
	return zip
}
