package router

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	tg "github.com/m3rciful/datepicker/core/telegram"
	"github.com/m3rciful/datepicker/core/telegram/ui"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	Fallback ui.FallbackProvider
}

// TextRoutes handles plain text: slashless command aliases first, then the
// registry's text fallback, then Fallback.UnknownText.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	var unknown tele.HandlerFunc
	if opts.Fallback != nil {
		unknown = opts.Fallback.UnknownText()
	}
	handler := func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil && !cmd.AdminOnly {
				return handleWithSummary(c, "command."+normalizeHandlerName(key), func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", func() error { return fb(c) })
			}
		}
		if unknown != nil {
			return handleWithSummary(c, "unknown_text", func() error { return unknown(c) })
		}
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
