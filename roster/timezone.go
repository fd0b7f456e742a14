package roster

import (
	"sync"
	"time"

	// Embedded zone database so conversions don't depend on the host.
	_ "time/tzdata"
)

// =============================================================================
// TIMEZONE CONVERSION - The only place local wall-clock meets UTC
// =============================================================================

var zoneCache sync.Map // name -> *time.Location

// LoadZone resolves an IANA zone name. Unknown names are validation errors.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, Invalid("timezone", "timezone is required")
	}
	if loc, ok := zoneCache.Load(name); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ValidationError{Field: "timezone", Message: "unknown timezone " + name, Cause: err}
	}
	zoneCache.Store(name, loc)
	return loc, nil
}

// LocalToUTC interprets date+clock as wall-clock time in loc. Nonexistent
// and ambiguous wall times follow the Go zone database's resolution.
func LocalToUTC(date Date, clock Clock, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, clock.Hour, clock.Minute, 0, 0, loc).UTC()
}

// UTCToLocal is the inverse of LocalToUTC.
func UTCToLocal(instant time.Time, loc *time.Location) (Date, Clock) {
	local := instant.In(loc)
	return dateOf(local), Clock{Hour: local.Hour(), Minute: local.Minute()}
}

// ConvertLocalToUTC is LocalToUTC with a zone name.
func ConvertLocalToUTC(date Date, clock Clock, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return LocalToUTC(date, clock, loc), nil
}

// ConvertUTCToLocal is UTCToLocal with a zone name.
func ConvertUTCToLocal(instant time.Time, zone string) (Date, Clock, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return Date{}, Clock{}, err
	}
	d, c := UTCToLocal(instant, loc)
	return d, c, nil
}

// ShiftWindow returns the UTC bounds of a shift starting on date. When the
// end clock is at or before the start clock the shift ends on date + 1.
//
// A clock inside a spring-forward gap is resolved independently for each
// end, which can put the end at or before the start. The end is then
// placed the shift's wall-clock length after the start.
func ShiftWindow(date Date, start, end Clock, loc *time.Location) (time.Time, time.Time) {
	wall := end.Minutes() - start.Minutes()
	endDate := date
	if wall <= 0 {
		endDate = date.AddDays(1)
		wall += MinutesPerDay
	}
	s, e := LocalToUTC(date, start, loc), LocalToUTC(endDate, end, loc)
	if !e.After(s) {
		e = s.Add(time.Duration(wall) * time.Minute)
	}
	return s, e
}
