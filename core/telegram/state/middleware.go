package state

import tele "gopkg.in/telebot.v4"

const sessionKey = "view_session"

// WithSession loads the sender's session into the handler context.
func WithSession(mgr Manager) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if u := c.Sender(); u != nil {
				c.Set(sessionKey, mgr.Get(u.ID))
			}
			return next(c)
		}
	}
}

// FromContext returns the session stored by WithSession.
func FromContext(c tele.Context) (Session, bool) {
	s, ok := c.Get(sessionKey).(Session)
	return s, ok
}
