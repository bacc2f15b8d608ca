package schedule

import (
	"fmt"
	"time"
)

// Converter turns local wall-clock date/time pairs from a fixed source
// timezone into UTC times of day.
type Converter struct {
	loc *time.Location
}

func NewConverter(zone string) (*Converter, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Converter{loc: loc}, nil
}

// ToUTC parses date ("2006-01-02") and timeOfDay ("HH:MM") as a wall-clock
// instant in the source zone and returns the UTC "HH:MM". Only the time
// component is returned; callers keep the original local calendar date even
// when the UTC instant crosses midnight.
func (c *Converter) ToUTC(date, timeOfDay string) (string, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeOfDay, c.loc)
	if err != nil {
		return "", fmt.Errorf("parse local datetime: %w", err)
	}
	return t.UTC().Format("15:04"), nil
}

// Zone returns the IANA name of the source timezone.
func (c *Converter) Zone() string {
	return c.loc.String()
}

// Location exposes the underlying location for calendar event construction.
func (c *Converter) Location() *time.Location {
	return c.loc
}
