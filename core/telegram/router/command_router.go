package router

import (
	"context"
	"log/slog"
	"sort"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/logger"
	tg "github.com/m3rciful/datepicker/core/telegram"
	"github.com/m3rciful/datepicker/core/telegram/commands"
	"github.com/m3rciful/datepicker/core/telegram/middleware"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes binds every registered command and its aliases, admin
// commands behind AdminOnlyMiddleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	admin := middleware.AdminOnlyMiddleware(middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	})

	cmds := reg.Commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	routes := make([]tg.Route, 0, len(cmds))
	for _, name := range names {
		h := commandHandler(name, cmds[name])
		if cmds[name].AdminOnly {
			h = admin(h)
		}
		routes = append(routes, tg.Route{Endpoint: name, Handler: h})
		for _, alias := range cmds[name].Aliases {
			if alias != "" && alias[0] == '/' {
				routes = append(routes, tg.Route{Endpoint: alias, Handler: h})
			}
		}
	}

	logger.LogEvent(context.Background(), logger.TWire, slog.LevelInfo, "wire.complete",
		slog.Int("commands", len(cmds)),
		slog.Any("callbacks", reg.CallbackKinds()),
	)
	return routes
}

func commandHandler(name string, cmd commands.Command) tele.HandlerFunc {
	handlerName := "command." + normalizeHandlerName(name)
	return func(c tele.Context) error {
		return handleWithSummary(c, handlerName, func() error {
			return cmd.Handler(c)
		})
	}
}
