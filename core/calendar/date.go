package calendar

import (
	"fmt"
	"time"
)

const isoLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates the components and returns the date they form.
// Feb 30 and similar overflowing values fail with InvalidDate instead of rolling over.
func NewDate(year, month, day int) (Date, error) {
	if month < 1 || month > 12 {
		return Date{}, Errorf(KindInvalidDate, "invalid date %d-%d-%d: month out of range", year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return Date{}, Errorf(KindInvalidDate, "invalid date %d-%d-%d", year, month, day)
	}
	return Date{Year: year, Month: time.Month(month), Day: day}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the local calendar date reported by now (time.Now when nil).
func Today(now func() time.Time) Date {
	if now == nil {
		now = time.Now
	}
	return DateOf(now())
}

// ParseISO parses a YYYY-MM-DD string.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, Errorf(KindInvalidDate, "invalid date %q", s)
	}
	return DateOf(t), nil
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after o.
func (d Date) Compare(o Date) int {
	return d.midnight().Compare(o.midnight())
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.Compare(o) < 0
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil counts whole days from d to o; negative when o is earlier.
// Uses Unix seconds: a time.Duration saturates past about 292 years.
func (d Date) DaysUntil(o Date) int {
	return int((o.midnight().Unix() - d.midnight().Unix()) / secondsPerDay)
}

// ISO renders YYYY-MM-DD.
func (d Date) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Format renders DD.MM.YYYY, the human facing form.
func (d Date) Format() string {
	return fmt.Sprintf("%02d.%02d.%04d", d.Day, int(d.Month), d.Year)
}

func (d Date) String() string {
	return d.ISO()
}

// MarshalText encodes the date as ISO so JSON payloads carry "YYYY-MM-DD".
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.ISO()), nil
}

// UnmarshalText decodes an ISO date.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseISO(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FormatRange renders "<start> - <end>" using the human date form.
func FormatRange(start, end Date) string {
	return start.Format() + " - " + end.Format()
}
