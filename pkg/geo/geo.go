/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package geo fills in location and reverse DNS details of external
// connections the backend left blank.
package geo

import (
	"errors"
	"fmt"
	"net"

	"github.com/carverauto/netscope/pkg/logger"
	"github.com/carverauto/netscope/pkg/models"
	"github.com/oschwald/maxminddb-golang"
)

const namesLang = "en"

// Location is the subset of a GeoIP city record the dashboard shows.
type Location struct {
	City    string
	Country string
	Lat     float64
	Lon     float64
}

type cityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  *float64 `maxminddb:"latitude"`
		Longitude *float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// Lookuper resolves an IP to a location.
type Lookuper interface {
	Lookup(ip net.IP) (Location, bool, error)
}

// Enricher fills City, Country, Lat and Lon from a GeoIP database. A nil
// *Enricher is valid and enriches nothing.
type Enricher struct {
	db     Lookuper
	logger logger.Logger
}

// Open loads the MaxMind database at path. An empty path disables
// enrichment and returns a nil Enricher.
func Open(path string, log logger.Logger) (*Enricher, error) {
	if path == "" {
		return nil, nil
	}

	reader, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geoip database %s: %w", path, err)
	}

	log.Info().Str("path", path).Str("type", reader.Metadata.DatabaseType).Msg("GeoIP database loaded")

	return NewEnricher(&mmdb{reader: reader}, log), nil
}

func NewEnricher(db Lookuper, log logger.Logger) *Enricher {
	return &Enricher{db: db, logger: log}
}

// Enrich returns a copy of conns with missing location fields filled.
// Values sent by the backend are never overwritten.
func (e *Enricher) Enrich(conns []models.ExternalConnection) []models.ExternalConnection {
	out := make([]models.ExternalConnection, len(conns))
	copy(out, conns)

	if e == nil {
		return out
	}

	for i := range out {
		c := &out[i]
		if c.HasLocation() && c.City != "" && c.Country != "" {
			continue
		}

		ip := net.ParseIP(c.IP)
		if ip == nil {
			continue
		}

		loc, ok, err := e.db.Lookup(ip)
		if err != nil {
			e.logger.Debug().Err(err).Str("ip", c.IP).Msg("GeoIP lookup failed")

			continue
		}

		if !ok {
			continue
		}

		fill(c, loc)
	}

	return out
}

func fill(c *models.ExternalConnection, loc Location) {
	if c.City == "" {
		c.City = loc.City
	}

	if c.Country == "" {
		c.Country = loc.Country
	}

	if !c.HasLocation() {
		lat, lon := loc.Lat, loc.Lon
		c.Lat, c.Lon = &lat, &lon
	}
}

// Close releases the database.
func (e *Enricher) Close() error {
	if e == nil {
		return nil
	}

	if c, ok := e.db.(interface{ Close() error }); ok {
		return c.Close()
	}

	return nil
}

type mmdb struct {
	reader *maxminddb.Reader
}

var errNoCoordinates = errors.New("record has no coordinates")

func (m *mmdb) Lookup(ip net.IP) (Location, bool, error) {
	var rec cityRecord

	offset, err := m.reader.LookupOffset(ip)
	if err != nil {
		return Location{}, false, err
	}

	if offset == maxminddb.NotFound {
		return Location{}, false, nil
	}

	if err := m.reader.Decode(offset, &rec); err != nil {
		return Location{}, false, err
	}

	if rec.Location.Latitude == nil || rec.Location.Longitude == nil {
		return Location{}, false, errNoCoordinates
	}

	country := rec.Country.Names[namesLang]
	if country == "" {
		country = rec.Country.ISOCode
	}

	return Location{
		City:    rec.City.Names[namesLang],
		Country: country,
		Lat:     *rec.Location.Latitude,
		Lon:     *rec.Location.Longitude,
	}, true, nil
}

func (m *mmdb) Close() error {
	return m.reader.Close()
}
