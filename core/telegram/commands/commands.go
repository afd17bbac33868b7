// Package commands describes slash commands exposed by the bot.
package commands

import tele "gopkg.in/telebot.v4"

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are hidden from the menu and rejected for other users.
	AdminOnly bool
	Hidden    bool
	Aliases   []string
}
