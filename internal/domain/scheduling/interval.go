package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time with no date component, stored as seconds
// since midnight. Availability windows are defined in TimeOfDay because they
// recur weekly and are date-agnostic.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM:SS" or "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: malformed time of day %q", ErrInvalidInput, s)
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: malformed time of day %q", ErrInvalidInput, s)
		}
		fields[i] = n
	}
	h, m, sec := fields[0], fields[1], fields[2]
	if h > 23 || m > 59 || sec > 59 {
		return 0, fmt.Errorf("%w: time of day out of range %q", ErrInvalidInput, s)
	}
	return TimeOfDay(h*3600 + m*60 + sec), nil
}

// TimeOfDayFrom extracts the wall-clock component of t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*3600 + t.Minute()*60 + t.Second())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", int(t)/3600, int(t)/60%60, int(t)%60)
}

// Add returns the time of day advanced by d. The result may exceed 24h;
// callers compare, they do not wrap.
func (t TimeOfDay) Add(d time.Duration) TimeOfDay {
	return t + TimeOfDay(d/time.Second)
}

// At anchors the time of day to the calendar day of date, in date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(t)/3600, int(t)/60%60, int(t)%60, 0, date.Location())
}

// MarshalJSON renders the time as "HH:MM:SS".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON accepts "HH:MM:SS" or "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ClockRange is a half-open [Start, End) range of wall-clock time within a
// single day.
type ClockRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Overlaps reports whether two half-open ranges intersect. Ranges that only
// touch at a boundary do not overlap.
func (r ClockRange) Overlaps(other ClockRange) bool {
	return r.Start < other.End && other.Start < r.End
}

// Contains reports whether other lies entirely within r. A range ending
// exactly at r.End is contained.
func (r ClockRange) Contains(other ClockRange) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Interval is a half-open [Start, End) span of absolute time.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. An interval
// ending exactly when another starts is not a conflict.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// ParseSpan parses an appointment duration. Accepted forms are "HH:MM:SS",
// "HH:MM", "N hours" and "N minutes". Anything else is rejected as
// ErrInvalidInput; there is deliberately no silent default.
func ParseSpan(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidInput)
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 && len(parts) != 3 {
			return 0, fmt.Errorf("%w: malformed duration %q", ErrInvalidInput, s)
		}
		var fields [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: malformed duration %q", ErrInvalidInput, s)
			}
			fields[i] = n
		}
		d := time.Duration(fields[0])*time.Hour +
			time.Duration(fields[1])*time.Minute +
			time.Duration(fields[2])*time.Second
		if d <= 0 {
			return 0, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
		}
		return d, nil
	}

	lower := strings.ToLower(s)
	unitOf := func(unit string) (int, bool) {
		if !strings.Contains(lower, unit) {
			return 0, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.Fields(lower)[0]))
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	}
	if n, ok := unitOf("hour"); ok {
		return time.Duration(n) * time.Hour, nil
	}
	if n, ok := unitOf("minute"); ok {
		return time.Duration(n) * time.Minute, nil
	}
	return 0, fmt.Errorf("%w: unparseable duration %q", ErrInvalidInput, s)
}

// FormatSpan renders a duration as "HH:MM:SS".
func FormatSpan(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, total/60%60, total%60)
}

// DayOfWeekName maps a date to its lowercase weekday name using the date's
// local calendar day.
func DayOfWeekName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

var validDays = map[string]bool{
	"sunday": true, "monday": true, "tuesday": true, "wednesday": true,
	"thursday": true, "friday": true, "saturday": true,
}

// ValidDayOfWeek reports whether s is a lowercase weekday name.
func ValidDayOfWeek(s string) bool {
	return validDays[s]
}
