package protocol

import (
	"fmt"
	"strings"
	"time"
)

// dateTimeLayout is the wire layout of dateTimeTimeZone values. The offset
// is carried separately in the timeZone field.
const dateTimeLayout = "2006-01-02T15:04:05"

// DateTimeTimeZone is the Outlook representation of a wall-clock time with
// an attached timezone name.
type DateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// BuildDateTime converts a time into a DateTimeTimeZone in the protocol's
// preferred timezone, using the Windows timezone name the service expects.
func (p *Protocol) BuildDateTime(t time.Time) DateTimeTimeZone {
	loc := p.Timezone
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return DateTimeTimeZone{
		DateTime: local.Format(dateTimeLayout),
		TimeZone: WindowsTimezone(loc.String()),
	}
}

// ParseDateTime converts a DateTimeTimeZone from the service into a time in
// the named zone. Windows timezone names are translated to IANA before
// lookup. A missing or unknown zone falls back to UTC.
func ParseDateTime(d DateTimeTimeZone) (time.Time, error) {
	if d.DateTime == "" {
		return time.Time{}, fmt.Errorf("empty dateTime value")
	}

	loc := time.UTC
	if d.TimeZone != "" && d.TimeZone != "UTC" {
		name := IANATimezone(d.TimeZone)
		if parsed, err := time.LoadLocation(name); err == nil {
			loc = parsed
		}
	}

	// The service may include fractional seconds.
	value := d.DateTime
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		value = value[:idx]
	}

	t, err := time.ParseInLocation(dateTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse dateTime %q: %w", d.DateTime, err)
	}
	return t, nil
}
