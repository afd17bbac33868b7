package keyboard

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
)

// Button is one calendar cell: a label and the action it triggers.
type Button struct {
	Label  string
	Action callbacks.Action
}

// Rows is a calendar keyboard, top to bottom.
type Rows [][]Button

const (
	labelPrev  = "◀️"
	labelNext  = "▶️"
	labelBlank = " "

	itemSep   = "::"
	buttonSep = "|"
	rowSep    = "---"
)

// Build lays out the month: navigation header, weekday names, one row per
// week, and the mode switch with the active mode checked.
func Build(year, month int, mode selection.Mode, userID string) (Rows, error) {
	grid, err := calendar.Generate(year, month)
	if err != nil {
		return nil, err
	}
	ignore := callbacks.Ignore()

	rows := make(Rows, 0, len(grid)+3)
	rows = append(rows, []Button{
		{labelPrev, callbacks.Navigate(calendar.DirectionPrev, year, month)},
		{Title(year, month), ignore},
		{labelNext, callbacks.Navigate(calendar.DirectionNext, year, month)},
	})

	names := make([]Button, len(calendar.WeekdayNames))
	for i, n := range calendar.WeekdayNames {
		names[i] = Button{n, ignore}
	}
	rows = append(rows, names)

	for _, week := range grid {
		row := make([]Button, len(week))
		for i, day := range week {
			if day == calendar.Empty {
				row[i] = Button{labelBlank, ignore}
				continue
			}
			row[i] = Button{strconv.Itoa(day), callbacks.SelectDay(year, month, day, userID)}
		}
		rows = append(rows, row)
	}

	single, rng := "📅 Одна дата", "📆 Период"
	switch mode {
	case selection.ModeSingle:
		single = "✅ Одна дата"
	case selection.ModeRange:
		rng = "✅ Период"
	}
	rows = append(rows, []Button{
		{single, callbacks.SetMode(selection.ModeSingle, year, month, userID)},
		{rng, callbacks.SetMode(selection.ModeRange, year, month, userID)},
	})
	return rows, nil
}

// Title is the header label, e.g. "Ноябрь 2024".
func Title(year, month int) string {
	return fmt.Sprintf("%s %d", calendar.MonthName(month), year)
}

// Prompt is the message text sent along with the keyboard.
func Prompt(year, month int) string {
	return fmt.Sprintf("Выберите дату (%s)", Title(year, month))
}

// Markup converts rows into a Telegram inline keyboard. Callback data is the
// bare action id so every press reaches the generic callback handler.
func Markup(rows Rows) *tele.ReplyMarkup {
	out := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		out[i] = make([]tele.InlineButton, len(row))
		for j, b := range row {
			out[i][j] = tele.InlineButton{Text: b.Label, Data: b.Action.Encode()}
		}
	}
	return InlineRows(out)
}

// Flatten renders rows as "label::action" items joined by "|", with a
// "---" item between rows.
func Flatten(rows Rows) string {
	var items []string
	for _, row := range rows {
		for _, b := range row {
			items = append(items, b.Label+itemSep+b.Action.Encode())
		}
		items = append(items, rowSep)
	}
	for len(items) > 0 && items[len(items)-1] == rowSep {
		items = items[:len(items)-1]
	}
	return strings.Join(items, buttonSep)
}

// Inline wraps Flatten in the ##INLINE:...## envelope used by chat
// platforms that take keyboards inside message text.
func Inline(rows Rows) string {
	return "##INLINE:" + Flatten(rows) + "##"
}
