// Package callbacks encodes calendar actions into inline-button callback data
// and parses them back.
//
// Wire forms:
//
//	prev_<y>_<m>, next_<y>_<m>      navigate
//	ignore                          no-op cell
//	day_<y>_<m>_<d>_<userId>        select a day
//	mode_<mode>_<y>_<m>_<userId>    switch selection mode
package callbacks

import (
	"strconv"
	"strings"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/selection"
)

// Kind tags the Action variant.
type Kind string

const (
	KindNavigate  Kind = "navigate"
	KindSelectDay Kind = "select_day"
	KindSetMode   Kind = "set_mode"
	KindIgnore    Kind = "ignore"
)

// GuestID stands in for an unknown user when encoding.
const GuestID = "guest"

const (
	tokIgnore = "ignore"
	tokDay    = "day"
	tokMode   = "mode"
	sep       = "_"
)

// Action is a decoded callback. Only the fields relevant to Kind are set.
type Action struct {
	Kind      Kind
	Direction calendar.Direction
	Year      int
	Month     int
	Day       int
	Mode      selection.Mode
	UserID    string
}

// Navigate builds a prev/next action for the month currently shown.
func Navigate(dir calendar.Direction, year, month int) Action {
	return Action{Kind: KindNavigate, Direction: dir, Year: year, Month: month}
}

// SelectDay builds a day pick for userID.
func SelectDay(year, month, day int, userID string) Action {
	return Action{Kind: KindSelectDay, Year: year, Month: month, Day: day, UserID: userID}
}

// SetMode builds a mode switch while year/month is shown.
func SetMode(mode selection.Mode, year, month int, userID string) Action {
	return Action{Kind: KindSetMode, Mode: mode, Year: year, Month: month, UserID: userID}
}

// Ignore is the no-op action of padding cells and labels.
func Ignore() Action { return Action{Kind: KindIgnore} }

// Target returns the month a Navigate action leads to.
func (a Action) Target() (int, int, error) {
	return calendar.Shift(a.Year, a.Month, a.Direction)
}

// Encode renders a as callback data.
func (a Action) Encode() string {
	itoa := strconv.Itoa
	switch a.Kind {
	case KindNavigate:
		return join(string(a.Direction), itoa(a.Year), itoa(a.Month))
	case KindSelectDay:
		return join(tokDay, itoa(a.Year), itoa(a.Month), itoa(a.Day), userOrGuest(a.UserID))
	case KindSetMode:
		return join(tokMode, string(a.Mode), itoa(a.Year), itoa(a.Month), userOrGuest(a.UserID))
	}
	return tokIgnore
}

func (a Action) String() string { return a.Encode() }

func join(parts ...string) string { return strings.Join(parts, sep) }

func userOrGuest(id string) string {
	if id == "" {
		return GuestID
	}
	return id
}

// Parse decodes callback data. When the encoded user id is missing,
// fallbackUserID is used; it may also be empty, leaving UserID unset for
// the caller to reject.
func Parse(raw, fallbackUserID string) (Action, error) {
	raw = strings.TrimSpace(raw)
	if raw == tokIgnore {
		return Ignore(), nil
	}
	parts := strings.Split(raw, sep)
	switch head := parts[0]; head {
	case string(calendar.DirectionPrev), string(calendar.DirectionNext):
		if len(parts) != 3 {
			return Action{}, malformed(raw, "want %s_<year>_<month>", head)
		}
		y, m, err := yearMonth(raw, parts[1], parts[2])
		if err != nil {
			return Action{}, err
		}
		return Navigate(calendar.Direction(head), y, m), nil

	case tokDay:
		if len(parts) < 4 {
			return Action{}, malformed(raw, "want day_<year>_<month>_<day>_<userId>")
		}
		y, m, err := yearMonth(raw, parts[1], parts[2])
		if err != nil {
			return Action{}, err
		}
		d, err := number(raw, "day", parts[3], 1, 31)
		if err != nil {
			return Action{}, err
		}
		return SelectDay(y, m, d, userTail(parts[4:], fallbackUserID)), nil

	case tokMode:
		if len(parts) < 4 {
			return Action{}, malformed(raw, "want mode_<single|range>_<year>_<month>_<userId>")
		}
		mode, err := selection.ParseMode(parts[1])
		if err != nil {
			return Action{}, malformed(raw, "unknown mode %q", parts[1])
		}
		y, m, err := yearMonth(raw, parts[2], parts[3])
		if err != nil {
			return Action{}, err
		}
		return SetMode(mode, y, m, userTail(parts[4:], fallbackUserID)), nil
	}
	return Action{}, malformed(raw, "unknown action %q", parts[0])
}

// userTail rejoins the trailing tokens so ids containing the separator
// survive the round trip.
func userTail(tail []string, fallback string) string {
	if id := strings.Join(tail, sep); id != "" {
		return id
	}
	return fallback
}

func yearMonth(raw, ys, ms string) (int, int, error) {
	y, err := number(raw, "year", ys, 1, 9999)
	if err != nil {
		return 0, 0, err
	}
	m, err := number(raw, "month", ms, 1, 12)
	if err != nil {
		return 0, 0, err
	}
	return y, m, nil
}

func number(raw, field, s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed(raw, "%s %q is not a number", field, s)
	}
	if n < lo || n > hi {
		return 0, malformed(raw, "%s %d out of range", field, n)
	}
	return n, nil
}

func malformed(raw, format string, args ...any) error {
	return calendar.Errorf(calendar.KindMalformedActionID, "malformed action %q: "+format, append([]any{raw}, args...)...)
}
