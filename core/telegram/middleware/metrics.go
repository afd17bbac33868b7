package middleware

import tele "gopkg.in/telebot.v4"

const (
	keyMessages = "messages"
	keyKeyboard = "kb"
)

// metricsContext counts outgoing messages and keyboard usage per update.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(opts []any, err error) error {
	if err != nil {
		return err
	}
	n, _ := m.Get(keyMessages).(int)
	m.Set(keyMessages, n+1)
	if hasKeyboard(opts) {
		m.Set(keyKeyboard, true)
	}
	return nil
}

func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}

func (m metricsContext) Send(what any, opts ...any) error {
	return m.count(opts, m.Context.Send(what, opts...))
}

func (m metricsContext) Reply(what any, opts ...any) error {
	return m.count(opts, m.Context.Reply(what, opts...))
}

func (m metricsContext) Edit(what any, opts ...any) error {
	return m.count(opts, m.Context.Edit(what, opts...))
}

func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.count(opts, m.Context.EditOrSend(what, opts...))
}

// MessageMetricsMiddleware wraps the context so handler summaries can report
// how many messages were sent and whether a keyboard was attached.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(keyMessages, 0)
		c.Set(keyKeyboard, false)
		return next(metricsContext{Context: c})
	}
}

// GetCounters reads the message count and keyboard flag for the update.
func GetCounters(c tele.Context) (int, bool) {
	n, _ := c.Get(keyMessages).(int)
	kb, _ := c.Get(keyKeyboard).(bool)
	return n, kb
}
