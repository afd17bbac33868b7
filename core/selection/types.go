// Package selection tracks each user's in-progress date or date-range pick.
package selection

import (
	"strings"

	"github.com/m3rciful/datepicker/core/calendar"
)

// Mode selects between a single date and a start/end range.
type Mode string

const (
	// ModeSingle holds at most one date.
	ModeSingle Mode = "single"
	// ModeRange holds a start date and, once completed, an end date.
	ModeRange Mode = "range"
)

// ParseMode accepts "single" or "range" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeRange:
		return ModeRange, nil
	}
	return "", calendar.Errorf(calendar.KindInvalidMode, "invalid mode %q; allowed: single, range", s)
}

// State names the position of a user in the selection state machine.
type State string

const (
	StateEmpty         State = "empty"
	StateSingleSet     State = "single_set"
	StateRangeStart    State = "range_start"
	StateRangeComplete State = "range_complete"
)

// Status reports range progress in a Result.
type Status string

const (
	StatusStartSelected Status = "start_selected"
	StatusComplete      Status = "complete"
)

// Selection is a user's current pick. In range mode with two dates,
// Dates[0] is never after Dates[1].
type Selection struct {
	Mode  Mode
	Dates []calendar.Date
}

// State derives the machine state from mode and date count.
func (s Selection) State() State {
	switch {
	case len(s.Dates) == 0:
		return StateEmpty
	case s.Mode == ModeSingle:
		return StateSingleSet
	case len(s.Dates) == 1:
		return StateRangeStart
	default:
		return StateRangeComplete
	}
}

// Formatted renders one date as DD.MM.YYYY or two as "<start> - <end>".
func (s Selection) Formatted() string {
	switch len(s.Dates) {
	case 0:
		return ""
	case 1:
		return s.Dates[0].Format()
	default:
		return calendar.FormatRange(s.Dates[0], s.Dates[1])
	}
}

func (s Selection) clone() Selection {
	return Selection{Mode: s.Mode, Dates: append([]calendar.Date(nil), s.Dates...)}
}

// Result describes the outcome of Apply.
type Result struct {
	Mode      Mode           `json:"mode"`
	Status    Status         `json:"status,omitempty"`
	Date      *calendar.Date `json:"date,omitempty"`
	StartDate *calendar.Date `json:"startDate,omitempty"`
	EndDate   *calendar.Date `json:"endDate,omitempty"`
	DaysCount int            `json:"daysCount,omitempty"`
	Formatted string         `json:"formatted"`
	Message   string         `json:"message"`
}

// View is the read-side projection of a user's selection.
type View struct {
	HasSelection bool     `json:"hasSelection"`
	Mode         Mode     `json:"mode,omitempty"`
	Dates        []string `json:"dates,omitempty"`
	Formatted    string   `json:"formatted,omitempty"`
	Message      string   `json:"message,omitempty"`
}

const (
	msgNoSelection = "Нет активного выбора"
	msgCleared     = "Выбор очищен"
	msgPickEnd     = "Выберите конечную дату периода"
)

// MessageNoSelection is shown when a user has nothing selected.
func MessageNoSelection() string { return msgNoSelection }

// MessageCleared confirms a removed selection.
func MessageCleared() string { return msgCleared }
