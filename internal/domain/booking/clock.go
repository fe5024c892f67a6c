package booking

import (
	"regexp"
	"time"
)

const (
	DateLayout = "2006-01-02"
	HMLayout   = "15:04"
	HMSLayout  = "15:04:05"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	hmRe   = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ParseDate reads a YYYY-MM-DD calendar date as wall-clock midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if !dateRe.MatchString(s) {
		return time.Time{}, ErrInvalidDate
	}
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func IsDate(s string) bool {
	_, err := ParseDate(s, time.UTC)
	return err == nil
}

// IsHM reports whether s is a zero-padded HH:MM wall-clock time.
func IsHM(s string) bool {
	if !hmRe.MatchString(s) {
		return false
	}
	_, err := time.Parse(HMLayout, s)
	return err == nil
}

// WeekdayOf returns the weekday of a YYYY-MM-DD date in loc.
func WeekdayOf(date string, loc *time.Location) (time.Weekday, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return 0, err
	}
	return d.Weekday(), nil
}

// ToMinute truncates "HH:MM[:SS]" to "HH:MM". It returns "" for anything
// that does not start with a valid HH:MM.
func ToMinute(s string) string {
	if len(s) < 5 {
		return ""
	}
	hm := s[:5]
	if !IsHM(hm) {
		return ""
	}
	return hm
}

// ToSeconds expands "HH:MM" to the stored "HH:MM:SS" form.
func ToSeconds(hm string) string {
	if len(hm) == 5 {
		return hm + ":00"
	}
	return hm
}

// Midnight returns local midnight of t in loc.
func Midnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
