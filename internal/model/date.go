package model

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the format due dates are entered and printed in.
const DateLayout = "2006-01-02"

// ParseDate reads "", "today", "tomorrow" or a YYYY-MM-DD date in loc,
// relative to at. An empty string yields nil. Dates land at midnight in loc.
func ParseDate(s string, at time.Time, loc *time.Location) (*time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var t time.Time
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "":
		return nil, nil
	case "today":
		y, mo, d := at.In(loc).Date()
		t = time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case "tomorrow":
		y, mo, d := at.In(loc).AddDate(0, 0, 1).Date()
		t = time.Date(y, mo, d, 0, 0, 0, 0, loc)
	default:
		var err error
		t, err = time.ParseInLocation(DateLayout, s, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
		}
	}
	return &t, nil
}
