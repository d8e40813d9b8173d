package timeutil

import "time"

// Layout is the wall-clock format used everywhere call times appear:
// the app stores and displays times like "8:00 AM".
const Layout = "3:04 PM"

// Converter converts wall-clock time-of-day strings between timezones.
// The zero-value clock uses real time; tests inject a fixed one to pin
// daylight-saving behavior.
type Converter struct {
	Now func() time.Time
}

var std = Converter{}

func (c Converter) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Convert re-expresses a "h:mm a" time-of-day from one IANA timezone in
// another. The time string carries no date, so it is anchored to today's
// calendar date in the destination zone; converting the same stored value
// on different days across a DST transition can therefore yield different
// results. An empty input returns empty, and anything that fails to parse
// (bad time, unknown zone) is returned unchanged — conversion is never
// fatal for user-editable text.
func (c Converter) Convert(timeOfDay, fromZone, toZone string) string {
	if timeOfDay == "" {
		return ""
	}

	fromLoc, err := time.LoadLocation(fromZone)
	if err != nil {
		return timeOfDay
	}
	toLoc, err := time.LoadLocation(toZone)
	if err != nil {
		return timeOfDay
	}

	parsed, err := time.Parse(Layout, timeOfDay)
	if err != nil {
		return timeOfDay
	}

	// Anchor to today's date in the destination zone so the result lands on
	// the day the user will actually see.
	y, m, d := c.now().In(toLoc).Date()
	instant := time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, fromLoc)

	return instant.In(toLoc).Format(Layout)
}

// ToUTC converts a local time-of-day string to its UTC equivalent.
func (c Converter) ToUTC(timeOfDay, fromZone string) string {
	return c.Convert(timeOfDay, fromZone, "UTC")
}

// FromUTC converts a stored UTC time-of-day string to a local zone.
func (c Converter) FromUTC(timeOfDay, toZone string) string {
	return c.Convert(timeOfDay, "UTC", toZone)
}

// Convert is the package-level form backed by the real clock.
func Convert(timeOfDay, fromZone, toZone string) string {
	return std.Convert(timeOfDay, fromZone, toZone)
}

func ToUTC(timeOfDay, fromZone string) string {
	return std.ToUTC(timeOfDay, fromZone)
}

func FromUTC(timeOfDay, toZone string) string {
	return std.FromUTC(timeOfDay, toZone)
}

// ValidZone reports whether the given IANA identifier resolves.
func ValidZone(zone string) bool {
	if zone == "" {
		return false
	}
	_, err := time.LoadLocation(zone)
	return err == nil
}
