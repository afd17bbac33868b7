package helpers

import (
	"strings"
	"time"

	"github.com/m3rciful/datepicker/core/calendar"
)

var flexibleDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
}

// ParseFlexibleDate reads a date typed by a user, e.g. "10.11.2024" or
// "2024-11-10". Only the calendar date is kept.
func ParseFlexibleDate(input string) (calendar.Date, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return calendar.Date{}, false
	}
	for _, layout := range flexibleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.DateOf(t), true
		}
	}
	return calendar.Date{}, false
}
