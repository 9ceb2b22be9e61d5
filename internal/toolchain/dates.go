package toolchain

import (
	"errors"
	"fmt"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
	"2006/01/02",
	"02.01.2006",
}

func dateFunctions(cfg *config) []function {
	return []function{
		{"Now", func() time.Time { return cfg.now() }},
		{"Today", func() time.Time {
			now := cfg.now()
			y, m, d := now.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		}},
		{"ToDate", toDate},
		{"Date", func(year, month, day int) (time.Time, error) {
			return date(year, month, day, 0, 0, 0)
		}},
		{"Date", date},
		{"TimeSpan", func(days, hours, minutes, seconds int) time.Duration {
			return time.Duration(days)*24*time.Hour +
				time.Duration(hours)*time.Hour +
				time.Duration(minutes)*time.Minute +
				time.Duration(seconds)*time.Second
		}},
	}
}

func toDate(text *string) (time.Time, error) {
	if text == nil {
		return time.Time{}, errors.New("cannot convert null to a date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *text); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a recognized date", *text)
}

// date builds a UTC timestamp, rejecting components time.Date would
// normalize (month 13, February 30).
func date(year, month, day, hour, minute, second int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d %02d:%02d:%02d", year, month, day, hour, minute, second)
	}
	return t, nil
}
