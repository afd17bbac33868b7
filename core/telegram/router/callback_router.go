package router

import (
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/logger"
	tg "github.com/m3rciful/datepicker/core/telegram"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/datepicker/core/telegram/helpers"
	"github.com/m3rciful/datepicker/core/telegram/ui"
)

// CallbackOptions customises fallback behaviour for callbacks.
type CallbackOptions struct {
	// Fallback answers undecodable data and unbound kinds; the registry
	// default is used when nil or when it returns no handler.
	Fallback ui.FallbackProvider
}

// CallbackRoute decodes every inline-button press into an Action and hands
// it to the handler registered for its kind. Undecodable data and unbound
// kinds go to the not-found handler.
func CallbackRoute(reg *tg.Registry, opts CallbackOptions) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}
		raw := callbacks.Data(c)
		extras := []slog.Attr{slog.String("action", logger.SanitizeLimit(raw, 64))}

		var notFound tele.HandlerFunc
		if opts.Fallback != nil {
			notFound = opts.Fallback.UnknownCallback()
		}
		if notFound == nil {
			notFound = reg.CallbackNotFound()
		}

		act, err := callbacks.FromContext(c, tghelpers.OwnerID(c))
		if err != nil {
			extras = append(extras, slog.String("cause", "malformed"))
			return handleWithSummary(c, "callback.unknown", func() error {
				return runOrAck(c, notFound)
			}, extras...)
		}
		callbacks.SetCurrent(c, act)

		name := "callback." + string(act.Kind)
		h, ok := reg.Callback(act.Kind)
		if !ok {
			extras = append(extras, slog.String("cause", "not_found"))
			h = notFound
		}
		return handleWithSummary(c, name, func() error {
			return runOrAck(c, h)
		}, extras...)
	}
	return tg.Route{Endpoint: tele.OnCallback, Handler: handler}
}

func runOrAck(c tele.Context, h tele.HandlerFunc) error {
	if h == nil {
		return c.Respond()
	}
	return h(c)
}
