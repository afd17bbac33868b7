package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Data returns the raw callback data of the update. Telebot strips its own
// "\f<unique>|" routing prefix into Unique, so that form is restored here.
func Data(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		if cb.Data == "" {
			return cb.Unique
		}
		return cb.Unique + "|" + cb.Data
	}
	return strings.TrimPrefix(cb.Data, "\f")
}

// FromContext parses the callback data of c. The fallback user id is the
// Telegram sender, so buttons encoded for "guest" still resolve.
func FromContext(c tele.Context, fallbackUserID string) (Action, error) {
	a, err := Parse(Data(c), fallbackUserID)
	if err != nil {
		return Action{}, err
	}
	if a.UserID == GuestID && fallbackUserID != "" {
		a.UserID = fallbackUserID
	}
	return a, nil
}

const currentKey = "cb_action"

// SetCurrent stores the decoded action on c for downstream handlers.
func SetCurrent(c tele.Context, a Action) { c.Set(currentKey, a) }

// Current returns the action stored by SetCurrent.
func Current(c tele.Context) (Action, bool) {
	a, ok := c.Get(currentKey).(Action)
	return a, ok
}
