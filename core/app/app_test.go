package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/datepicker/core/selection"
	tg "github.com/m3rciful/datepicker/core/telegram"
	"github.com/m3rciful/datepicker/core/telegram/state"
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
	mode   tele.ParseMode
	edit   bool
}

type fakeContext struct {
	tele.Context
	out     []sent
	answers []string
}

func (f *fakeContext) record(what any, edit bool, opts []any) {
	s := sent{edit: edit}
	s.text, _ = what.(string)
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			s.markup, s.mode = so.ReplyMarkup, so.ParseMode
		}
	}
	f.out = append(f.out, s)
}

func (f *fakeContext) Send(what any, opts ...any) error {
	f.record(what, false, opts)
	return nil
}

func (f *fakeContext) EditOrSend(what any, opts ...any) error {
	f.record(what, true, opts)
	return nil
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	text := ""
	if len(resp) > 0 && resp[0] != nil {
		text = resp[0].Text
	}
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeContext) last(t *testing.T) sent {
	t.Helper()
	require.NotEmpty(t, f.out)
	return f.out[len(f.out)-1]
}

type harness struct {
	bot    *Bot
	store  *selection.Store
	tgBot  *tele.Bot
	routes map[any]tele.HandlerFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := selection.NewStore()
	b, err := New(Options{
		Store:    store,
		Sessions: state.NewMemoryManager(),
		AdminID:  1,
		Now:      func() time.Time { return time.Date(2024, time.November, 15, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	reg := tg.NewRegistry()
	require.NoError(t, b.Register(reg))
	routes := map[any]tele.HandlerFunc{}
	for _, r := range b.Routes(reg) {
		routes[r.Endpoint] = r.Handler
	}
	tgBot, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return &harness{bot: b, store: store, tgBot: tgBot, routes: routes}
}

func (h *harness) message(t *testing.T, endpoint any, userID int64, text string) *fakeContext {
	t.Helper()
	upd := tele.Update{ID: 1, Message: &tele.Message{
		Text:   text,
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
	}}
	c := &fakeContext{Context: h.tgBot.NewContext(upd)}
	handler, ok := h.routes[endpoint]
	require.True(t, ok, "no route for %v", endpoint)
	require.NoError(t, handler(c))
	return c
}

func (h *harness) press(t *testing.T, userID int64, data string) *fakeContext {
	t.Helper()
	upd := tele.Update{ID: 2, Callback: &tele.Callback{
		ID:      "cb",
		Data:    data,
		Sender:  &tele.User{ID: userID},
		Message: &tele.Message{ID: 10, Chat: &tele.Chat{ID: userID}},
	}}
	c := &fakeContext{Context: h.tgBot.NewContext(upd)}
	require.NoError(t, h.routes[tele.OnCallback](c))
	return c
}

func TestCalendarCommandSendsCurrentMonth(t *testing.T) {
	h := newHarness(t)
	c := h.message(t, "/calendar", 42, "/calendar")
	out := c.last(t)
	assert.Equal(t, "Выберите дату (Ноябрь 2024)", out.text)
	require.NotNil(t, out.markup)
	kb := out.markup.InlineKeyboard
	require.Len(t, kb, 8)
	assert.Equal(t, "prev_2024_11", kb[0][0].Data)
	assert.Equal(t, "day_2024_11_1_42", kb[2][4].Data)
	assert.Equal(t, "✅ Одна дата", kb[7][0].Text)

	start := h.message(t, "/start", 42, "/start")
	assert.Contains(t, start.last(t).text, "Привет!")
}

func TestDateTextAppliesSelection(t *testing.T) {
	h := newHarness(t)
	c := h.message(t, tele.OnText, 42, "10.11.2024")
	out := c.last(t)
	assert.Equal(t, tele.ModeMarkdownV2, out.mode)
	assert.Equal(t, `Выбрана дата: 10\.11\.2024`, out.text)

	sel, ok := h.store.Get("42")
	require.True(t, ok)
	assert.Equal(t, selection.ModeSingle, sel.Mode)

	bad := h.message(t, tele.OnText, 42, "привет")
	assert.Equal(t, msgUnknownText, bad.last(t).text)

	invalid := h.message(t, tele.OnText, 42, "31.02.2024")
	assert.Equal(t, msgUnknownText, invalid.last(t).text)
}

func TestRangeFlowThroughCallbacks(t *testing.T) {
	h := newHarness(t)

	c := h.press(t, 42, "mode_range_2024_11_42")
	assert.Equal(t, []string{msgModeRange}, c.answers)
	out := c.last(t)
	assert.True(t, out.edit)
	assert.Equal(t, "✅ Период", out.markup.InlineKeyboard[7][1].Text)

	c = h.press(t, 42, "day_2024_11_10_42")
	assert.Equal(t, "Выберите конечную дату периода", c.last(t).text)

	c = h.press(t, 42, "day_2024_11_5_42")
	assert.Equal(t, `Выбран период: 05\.11\.2024 \- 10\.11\.2024 \(6 дн\.\)`, c.last(t).text)

	view := h.store.Snapshot("42")
	assert.Equal(t, []string{"2024-11-05", "2024-11-10"}, view.Dates)

	c = h.press(t, 42, "mode_single_2024_11_42")
	assert.Equal(t, []string{msgModeSingle}, c.answers)
	_, ok := h.store.Get("42")
	assert.False(t, ok)
}

func TestNavigateEditsKeyboard(t *testing.T) {
	h := newHarness(t)
	c := h.press(t, 42, "next_2024_12")
	out := c.last(t)
	assert.True(t, out.edit)
	assert.Equal(t, `Выберите дату \(Январь 2025\)`, out.text)
	assert.Equal(t, "Январь 2025", out.markup.InlineKeyboard[0][1].Text)
	assert.Equal(t, []string{""}, c.answers)
}

func TestCalendarReopensLastMonth(t *testing.T) {
	h := newHarness(t)
	h.press(t, 42, "mode_range_2024_11_42")
	h.press(t, 42, "next_2024_12")

	out := h.message(t, "/calendar", 42, "/calendar").last(t)
	assert.Equal(t, "Выберите дату (Январь 2025)", out.text)
	assert.Equal(t, "next_2025_1", out.markup.InlineKeyboard[0][2].Data)
	assert.Equal(t, "✅ Период", out.markup.InlineKeyboard[7][1].Text)

	other := h.message(t, "/calendar", 7, "/calendar").last(t)
	assert.Equal(t, "Выберите дату (Ноябрь 2024)", other.text)

	start := h.message(t, "/start", 42, "/start").last(t)
	assert.Equal(t, "Привет! Я помогу выбрать дату или период.\nВыберите дату (Ноябрь 2024)", start.text)
	assert.Equal(t, "✅ Период", start.markup.InlineKeyboard[7][1].Text)

	again := h.message(t, "/calendar", 42, "/calendar").last(t)
	assert.Equal(t, "Выберите дату (Ноябрь 2024)", again.text)
}

func TestCallbackEdgeCases(t *testing.T) {
	h := newHarness(t)

	c := h.press(t, 42, "ignore")
	assert.Equal(t, []string{""}, c.answers)
	assert.Empty(t, c.out)

	c = h.press(t, 42, "bogus_1")
	assert.Equal(t, []string{msgUnsupported}, c.answers)

	c = h.press(t, 7, "day_2024_11_10_42")
	assert.Equal(t, []string{msgForeignPress}, c.answers)
	_, ok := h.store.Get("42")
	assert.False(t, ok)

	c = h.press(t, 42, "day_2024_11_10_guest")
	assert.Equal(t, `Выбрана дата: 10\.11\.2024`, c.last(t).text)
}

func TestSelectionClearAndStats(t *testing.T) {
	h := newHarness(t)
	c := h.message(t, "/selection", 42, "/selection")
	assert.Equal(t, selection.MessageNoSelection(), c.last(t).text)

	h.message(t, tele.OnText, 42, "2024-11-10")
	c = h.message(t, "/selection", 42, "/selection")
	assert.Equal(t, `Текущий выбор: *10\.11\.2024*`, c.last(t).text)

	c = h.message(t, "/stats", 1, "/stats")
	assert.Contains(t, c.last(t).text, "Активных выборов: 1")

	c = h.message(t, "/stats", 42, "/stats")
	assert.Equal(t, msgAdminOnly, c.last(t).text)

	c = h.message(t, "/clear", 42, "/clear")
	assert.Equal(t, selection.MessageCleared(), c.last(t).text)
	c = h.message(t, "/clear", 42, "/clear")
	assert.Equal(t, selection.MessageNoSelection(), c.last(t).text)
}

func TestRunOptions(t *testing.T) {
	h := newHarness(t)
	opts, err := h.bot.RunOptions(nil)
	require.NoError(t, err)
	assert.NotNil(t, opts.Registry)
	assert.NotEmpty(t, opts.Routes)
	names := make([]string, 0, len(opts.Middlewares))
	for _, m := range opts.Middlewares {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"recover", "logger", "metrics", "session"}, names)

	_, err = New(Options{})
	assert.Error(t, err)
}
