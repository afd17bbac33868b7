package state

import "github.com/m3rciful/datepicker/core/selection"

// Session is what the user is looking at.
type Session struct {
	Mode  selection.Mode
	Year  int
	Month int
}

// ShowsMonth reports whether a month is recorded.
func (s Session) ShowsMonth() bool {
	return s.Year > 0 && s.Month >= 1 && s.Month <= 12
}

// Manager stores view sessions by Telegram user id.
type Manager interface {
	// Get returns the user's session or a fresh single-mode one.
	Get(userID int64) Session
	// SetMonth records the month on screen.
	SetMonth(userID int64, year, month int)
	// SetMode records the selection mode and the month it was chosen on.
	SetMode(userID int64, mode selection.Mode, year, month int)
	// Len counts stored sessions.
	Len() int
}
