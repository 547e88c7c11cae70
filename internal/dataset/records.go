// Package dataset turns raw launch-database rows into typed launch records.
package dataset

import (
	"math"
	"time"
)

// Column names of the UCS satellite database.
const (
	ColName        = "Name of Satellite"
	ColLaunchSite  = "Launch Site"
	ColLaunchDate  = "Date of Launch"
	ColOwner       = "Country of Operator/Owner"
	ColOrbitClass  = "Class of Orbit"
	ColOrbitType   = "Type of Orbit"
	ColPerigee     = "Perigee (km)"
	ColApogee      = "Apogee (km)"
	ColInclination = "Inclination (degrees)"
	ColPeriod      = "Period (minutes)"
)

// Defaults for missing or unusable numeric cells.
const (
	DefaultPerigeeKm      = 300
	DefaultApogeeKm       = 400
	DefaultInclinationDeg = 0
	DefaultPeriodMinutes  = 100
)

// Row is one raw spreadsheet row keyed by column name. Cell values are
// untrusted: strings, numbers or nil.
type Row map[string]any

// LaunchRecord is one normalized launch event.
type LaunchRecord struct {
	Name       string
	LaunchSite string
	LaunchDate string    // date cell as found in the source
	Date       time.Time // parsed LaunchDate
	Owner      string
	OrbitClass string
	OrbitType  string

	Perigee     float64 // km
	Apogee      float64 // km
	Inclination float64 // radians
	Period      float64 // minutes
}

// MeanAltitude returns the average of perigee and apogee in km.
func (r LaunchRecord) MeanAltitude() float64 {
	return (r.Perigee + r.Apogee) / 2
}

// Normalize filters and converts raw rows. Rows without a launch site or
// without a usable launch date are dropped; numeric cells fall back to
// defaults. Output keeps input order.
func Normalize(rows []Row) []LaunchRecord {
	records := make([]LaunchRecord, 0, len(rows))
	for _, row := range rows {
		rec, ok := normalizeRow(row)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func normalizeRow(row Row) (LaunchRecord, bool) {
	site := Text(row[ColLaunchSite])
	dateText := Text(row[ColLaunchDate])
	if site == "" || dateText == "" {
		return LaunchRecord{}, false
	}

	date, ok := ParseDate(row[ColLaunchDate])
	if !ok {
		return LaunchRecord{}, false
	}

	inclinationDeg := numberOr(row[ColInclination], DefaultInclinationDeg)

	return LaunchRecord{
		Name:        Text(row[ColName]),
		LaunchSite:  site,
		LaunchDate:  dateText,
		Date:        date,
		Owner:       Text(row[ColOwner]),
		OrbitClass:  Text(row[ColOrbitClass]),
		OrbitType:   Text(row[ColOrbitType]),
		Perigee:     numberOr(row[ColPerigee], DefaultPerigeeKm),
		Apogee:      numberOr(row[ColApogee], DefaultApogeeKm),
		Inclination: inclinationDeg * math.Pi / 180,
		Period:      positiveOr(row[ColPeriod], DefaultPeriodMinutes),
	}, true
}

// numberOr parses v, treating zero like a missing value.
func numberOr(v any, def float64) float64 {
	f, ok := ParseNumber(v)
	if !ok || f == 0 {
		return def
	}
	return f
}

// positiveOr is numberOr for fields that divide: negative values also
// fall back to def.
func positiveOr(v any, def float64) float64 {
	f := numberOr(v, def)
	if f < 0 {
		return def
	}
	return f
}
