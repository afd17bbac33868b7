package keyboard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
)

func TestBuildNovember2024(t *testing.T) {
	rows, err := Build(2024, 11, selection.ModeSingle, "u1")
	require.NoError(t, err)

	// header + weekdays + 5 weeks + mode row
	require.Len(t, rows, 8)

	header := rows[0]
	require.Len(t, header, 3)
	assert.Equal(t, "◀️", header[0].Label)
	assert.Equal(t, "prev_2024_11", header[0].Action.Encode())
	assert.Equal(t, "Ноябрь 2024", header[1].Label)
	assert.Equal(t, "ignore", header[1].Action.Encode())
	assert.Equal(t, "next_2024_11", header[2].Action.Encode())

	for i, b := range rows[1] {
		assert.Equal(t, calendar.WeekdayNames[i], b.Label)
		assert.Equal(t, "ignore", b.Action.Encode())
	}

	first := rows[2]
	for i := 0; i < 4; i++ {
		assert.Equal(t, " ", first[i].Label)
		assert.Equal(t, "ignore", first[i].Action.Encode())
	}
	assert.Equal(t, "1", first[4].Label)
	assert.Equal(t, "day_2024_11_1_u1", first[4].Action.Encode())

	mode := rows[len(rows)-1]
	require.Len(t, mode, 2)
	assert.Equal(t, "✅ Одна дата", mode[0].Label)
	assert.Equal(t, "mode_single_2024_11_u1", mode[0].Action.Encode())
	assert.Equal(t, "📆 Период", mode[1].Label)
	assert.Equal(t, "mode_range_2024_11_u1", mode[1].Action.Encode())
}

func TestBuildRangeModeAndGuest(t *testing.T) {
	rows, err := Build(2024, 2, selection.ModeRange, "")
	require.NoError(t, err)
	mode := rows[len(rows)-1]
	assert.Equal(t, "📅 Одна дата", mode[0].Label)
	assert.Equal(t, "✅ Период", mode[1].Label)
	assert.Equal(t, "mode_range_2024_2_guest", mode[1].Action.Encode())

	var days int
	for _, row := range rows[2 : len(rows)-1] {
		require.Len(t, row, 7)
		for _, b := range row {
			if b.Label != " " {
				days++
				assert.True(t, strings.HasSuffix(b.Action.Encode(), "_guest"))
			}
		}
	}
	assert.Equal(t, 29, days)
}

func TestBuildInvalidMonth(t *testing.T) {
	_, err := Build(2024, 13, selection.ModeSingle, "u")
	assert.ErrorIs(t, err, calendar.ErrInvalidMonth)
}

func TestMarkupUsesRawActionIDs(t *testing.T) {
	rows, err := Build(2024, 11, selection.ModeSingle, "u1")
	require.NoError(t, err)
	m := Markup(rows)
	require.Len(t, m.InlineKeyboard, len(rows))
	btn := m.InlineKeyboard[2][4]
	assert.Equal(t, "1", btn.Text)
	assert.Equal(t, "day_2024_11_1_u1", btn.Data)
	assert.Empty(t, btn.Unique)
}

func TestFlatten(t *testing.T) {
	rows := Rows{
		{{Label: "a", Action: callbacks.Ignore()}},
		{{Label: "b", Action: callbacks.Ignore()}, {Label: "c", Action: callbacks.Ignore()}},
		{},
	}
	assert.Equal(t, "a::ignore|---|b::ignore|c::ignore", Flatten(rows))
	assert.Empty(t, Flatten(nil))
}

func TestInlineNovember2024(t *testing.T) {
	rows, err := Build(2024, 11, selection.ModeRange, "u1")
	require.NoError(t, err)
	got := Inline(rows)

	assert.True(t, strings.HasPrefix(got, "##INLINE:◀️::prev_2024_11|Ноябрь 2024::ignore|▶️::next_2024_11|---|Пн::ignore|"))
	assert.True(t, strings.HasSuffix(got, "|---|📅 Одна дата::mode_single_2024_11_u1|✅ Период::mode_range_2024_11_u1##"))
	assert.NotContains(t, got, "---##")
	assert.Equal(t, 7, strings.Count(got, "|---|"))
	assert.Contains(t, got, "| ::ignore|")
	assert.Contains(t, got, "|30::day_2024_11_30_u1|")
}

func TestPrompt(t *testing.T) {
	assert.Equal(t, "Выберите дату (Декабрь 2025)", Prompt(2025, 12))
}
