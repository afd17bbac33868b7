package middleware

import (
	"log/slog"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/logger"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/datepicker/core/telegram/helpers"
)

// seenUpdates remembers recently logged update ids so the receipt line is
// written once even when the middleware wraps several branches.
type seenUpdates struct {
	mu   sync.Mutex
	at   map[int]time.Time
	keep time.Duration
}

var recent = &seenUpdates{at: make(map[int]time.Time), keep: 10 * time.Second}

func (s *seenUpdates) firstTime(id int, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.at {
		if now.Sub(t) > s.keep {
			delete(s.at, k)
		}
	}
	if _, ok := s.at[id]; ok {
		return false
	}
	s.at[id] = now
	return true
}

// LoggerMiddleware builds the logging context for the update (rid, user,
// chat) and writes a sampled debug receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		upd := c.Update()
		userID := tghelpers.SenderID(c)
		var chatID int64
		if chat := c.Chat(); chat != nil {
			chatID = chat.ID
		}
		rid := logger.BuildRID(upd.ID, chatID, userID)
		c.Set("rid", rid)
		ctx := tghelpers.BuildContext(c)

		if logger.ShouldSampleDebug() && recent.firstTime(upd.ID, time.Now()) {
			attrs := []slog.Attr{slog.String("status", "ok")}
			switch {
			case upd.Callback != nil:
				attrs = append(attrs, slog.String("action", logger.SanitizeLimit(callbacks.Data(c), 128)))
			case upd.Message != nil:
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(c.Text(), 256)))
			}
			if u := c.Sender(); u != nil && u.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}
