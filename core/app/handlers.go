package app

import (
	"errors"
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/logger"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
	"github.com/m3rciful/datepicker/core/telegram/format"
	tghelpers "github.com/m3rciful/datepicker/core/telegram/helpers"
	"github.com/m3rciful/datepicker/core/telegram/keyboard"
)

const (
	msgGreeting     = "Привет! Я помогу выбрать дату или период."
	msgUnknownText  = "Не понимаю. Отправьте дату, например 10.11.2024, или команду /calendar."
	msgUnsupported  = "Unsupported action"
	msgSlowDown     = "Слишком часто, попробуйте позже"
	msgAdminOnly    = "Команда доступна только администратору."
	msgForeignPress = "Это календарь другого пользователя"
	msgCurrent      = "Текущий выбор: "
	msgModeSingle   = "Режим: одна дата"
	msgModeRange    = "Режим: период"
)

func (b *Bot) handleStart(c tele.Context) error {
	today := calendar.Today(b.now)
	return b.sendCalendar(c, msgGreeting+"\n", today.Year, int(today.Month))
}

// handleCalendar reopens the month the user last looked at.
func (b *Bot) handleCalendar(c tele.Context) error {
	if sess := b.session(c); sess.ShowsMonth() {
		return b.sendCalendar(c, "", sess.Year, sess.Month)
	}
	today := calendar.Today(b.now)
	return b.sendCalendar(c, "", today.Year, int(today.Month))
}

// sendCalendar sends a fresh keyboard for year/month in the user's view mode.
func (b *Bot) sendCalendar(c tele.Context, prefix string, year, month int) error {
	sess := b.session(c)
	rows, err := keyboard.Build(year, month, sess.Mode, tghelpers.OwnerID(c))
	if err != nil {
		return err
	}
	b.sessions.SetMonth(tghelpers.SenderID(c), year, month)
	return tghelpers.SendText(c, prefix+keyboard.Prompt(year, month), keyboard.Markup(rows))
}

func (b *Bot) handleSelection(c tele.Context) error {
	view := b.store.Snapshot(tghelpers.OwnerID(c))
	if !view.HasSelection {
		return tghelpers.SendText(c, selection.MessageNoSelection())
	}
	text := format.EscapeMarkdownV2(msgCurrent) + format.Bold(format.EscapeMarkdownV2(view.Formatted))
	return tghelpers.SendMDV2(c, text)
}

func (b *Bot) handleClear(c tele.Context) error {
	if b.store.Clear(tghelpers.BuildContext(c), tghelpers.OwnerID(c)) {
		return tghelpers.SendText(c, selection.MessageCleared())
	}
	return tghelpers.SendText(c, selection.MessageNoSelection())
}

func (b *Bot) handleStats(c tele.Context) error {
	text := fmt.Sprintf("Активных выборов: %d\nСессий календаря: %d", b.store.Len(), b.sessions.Len())
	return tghelpers.SendText(c, text)
}

// handleDateText applies a typed date as if its day button was pressed.
func (b *Bot) handleDateText(c tele.Context) error {
	d, ok := tghelpers.ParseFlexibleDate(c.Text())
	if !ok {
		return b.UnknownText()(c)
	}
	b.sessions.SetMonth(tghelpers.SenderID(c), d.Year, int(d.Month))
	return b.apply(c, tghelpers.OwnerID(c), d.Year, int(d.Month), d.Day)
}

// apply runs a selection in the session mode and reports the outcome.
// Input errors are shown to the user, not returned.
func (b *Bot) apply(c tele.Context, userID string, year, month, day int) error {
	ctx := tghelpers.BuildContext(c)
	res, err := b.store.Apply(ctx, userID, year, month, day, b.session(c).Mode)
	if err != nil {
		var cerr *calendar.Error
		if errors.As(err, &cerr) {
			logger.Warn(ctx, "tg", "selection.rejected",
				slog.String("err", cerr.Error()),
				slog.String("err_code", cerr.Code()),
			)
			return tghelpers.SendText(c, cerr.Error())
		}
		return err
	}
	return tghelpers.SendMDV2(c, format.EscapeMarkdownV2(res.Message))
}

func (b *Bot) onNavigate(c tele.Context) error {
	act, _ := callbacks.Current(c)
	year, month, err := act.Target()
	if err != nil {
		return tghelpers.Answer(c, msgUnsupported)
	}
	b.sessions.SetMonth(tghelpers.SenderID(c), year, month)
	if err := b.render(c, year, month, b.session(c).Mode); err != nil {
		return err
	}
	return tghelpers.Answer(c, "")
}

func (b *Bot) onSelectDay(c tele.Context) error {
	act, _ := callbacks.Current(c)
	if act.UserID != tghelpers.OwnerID(c) {
		return tghelpers.Answer(c, msgForeignPress)
	}
	if err := tghelpers.Answer(c, ""); err != nil {
		return err
	}
	return b.apply(c, act.UserID, act.Year, act.Month, act.Day)
}

func (b *Bot) onSetMode(c tele.Context) error {
	act, _ := callbacks.Current(c)
	if act.UserID != tghelpers.OwnerID(c) {
		return tghelpers.Answer(c, msgForeignPress)
	}
	if err := b.store.ChangeMode(tghelpers.BuildContext(c), act.UserID, act.Mode); err != nil {
		return tghelpers.Answer(c, msgUnsupported)
	}
	b.sessions.SetMode(tghelpers.SenderID(c), act.Mode, act.Year, act.Month)
	if err := b.render(c, act.Year, act.Month, act.Mode); err != nil {
		return err
	}
	toast := msgModeSingle
	if act.Mode == selection.ModeRange {
		toast = msgModeRange
	}
	return tghelpers.Answer(c, toast)
}

func (b *Bot) onIgnore(c tele.Context) error {
	return tghelpers.Answer(c, "")
}

// render replaces the keyboard message with the given month.
func (b *Bot) render(c tele.Context, year, month int, mode selection.Mode) error {
	rows, err := keyboard.Build(year, month, mode, tghelpers.OwnerID(c))
	if err != nil {
		return err
	}
	return tghelpers.EditOrSendMDV2(c, format.EscapeMarkdownV2(keyboard.Prompt(year, month)), keyboard.Markup(rows))
}
