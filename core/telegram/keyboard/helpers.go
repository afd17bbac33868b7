package keyboard

import tele "gopkg.in/telebot.v4"

// InlineRows wraps prepared inline buttons into a markup.
func InlineRows(rows [][]tele.InlineButton) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: rows}
}
