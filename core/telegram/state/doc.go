// Package state keeps per-user calendar view sessions for the bot: the
// selection mode the user switched to and the month currently on screen.
// Sessions live in memory only.
package state
