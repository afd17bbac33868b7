package selection

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/datepicker/core/calendar"
)

func date(t *testing.T, y, m, d int) calendar.Date {
	t.Helper()
	v, err := calendar.NewDate(y, m, d)
	require.NoError(t, err)
	return v
}

func TestApplySingleOverwrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeSingle)
	require.NoError(t, err)
	res, err := s.Apply(ctx, "u1", 2024, 11, 20, ModeSingle)
	require.NoError(t, err)

	assert.Equal(t, ModeSingle, res.Mode)
	assert.Equal(t, "20.11.2024", res.Formatted)
	assert.Equal(t, "Выбрана дата: 20.11.2024", res.Message)
	require.NotNil(t, res.Date)
	assert.Equal(t, "2024-11-20", res.Date.ISO())

	sel, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, []calendar.Date{date(t, 2024, 11, 20)}, sel.Dates)
	assert.Equal(t, StateSingleSet, sel.State())
}

func TestApplyRangeOrdersDates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, err := s.Apply(ctx, "u1", 2024, 11, 20, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusStartSelected, first.Status)
	assert.Equal(t, "Выберите конечную дату периода", first.Message)

	res, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 11, res.DaysCount)
	assert.Equal(t, "10.11.2024 - 20.11.2024", res.Formatted)
	assert.Equal(t, "Выбран период: 10.11.2024 - 20.11.2024 (11 дн.)", res.Message)
	require.NotNil(t, res.StartDate)
	require.NotNil(t, res.EndDate)
	assert.Equal(t, "2024-11-10", res.StartDate.ISO())
	assert.Equal(t, "2024-11-20", res.EndDate.ISO())

	sel, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, []calendar.Date{date(t, 2024, 11, 10), date(t, 2024, 11, 20)}, sel.Dates)
	assert.Equal(t, StateRangeComplete, sel.State())
}

func TestApplyRangeSameDayCountsOne(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2024, 12, 31, ModeRange)
	require.NoError(t, err)
	res, err := s.Apply(ctx, "u1", 2024, 12, 31, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, 1, res.DaysCount)
}

func TestApplyRangeAcrossYear(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2025, 1, 2, ModeRange)
	require.NoError(t, err)
	res, err := s.Apply(ctx, "u1", 2024, 12, 30, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, 4, res.DaysCount)
}

func TestApplyRangeSpansCenturies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 1, 1, 1, ModeRange)
	require.NoError(t, err)
	res, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)
	assert.Equal(t, 739200, res.DaysCount)
	assert.Equal(t, "Выбран период: 01.01.0001 - 10.11.2024 (739200 дн.)", res.Message)
}

func TestThirdRangeClickRestarts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	for _, d := range []int{5, 9} {
		_, err := s.Apply(ctx, "u1", 2024, 11, d, ModeRange)
		require.NoError(t, err)
	}
	res, err := s.Apply(ctx, "u1", 2024, 11, 15, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusStartSelected, res.Status)

	sel, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, []calendar.Date{date(t, 2024, 11, 15)}, sel.Dates)
	assert.Equal(t, StateRangeStart, sel.State())
}

func TestRangeAfterSingleStartsFresh(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2024, 11, 3, ModeSingle)
	require.NoError(t, err)
	res, err := s.Apply(ctx, "u1", 2024, 11, 8, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusStartSelected, res.Status)
	assert.Equal(t, 0, res.DaysCount)
}

func TestApplyErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Apply(ctx, "", 2024, 11, 10, ModeSingle)
	assert.ErrorIs(t, err, calendar.ErrMissingUserID)

	_, err = s.Apply(ctx, "u1", 2024, 2, 30, ModeSingle)
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	_, err = s.Apply(ctx, "u1", 2024, 2, 3, Mode("multi"))
	assert.ErrorIs(t, err, calendar.ErrInvalidMode)

	_, ok := s.Get("u1")
	assert.False(t, ok, "failed applies must not create an entry")
	assert.Equal(t, 0, s.Len())
}

func TestClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	assert.False(t, s.Clear(ctx, "ghost"))
	assert.False(t, s.Clear(ctx, "ghost"))

	_, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeSingle)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Clear(ctx, "u1"))
	assert.False(t, s.Clear(ctx, "u1"))
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.entries)
}

func TestChangeModeDiscardsMidRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeRange)
	require.NoError(t, err)

	require.NoError(t, s.ChangeMode(ctx, "u1", ModeSingle))
	_, ok := s.Get("u1")
	assert.False(t, ok)

	// The next range pick starts over rather than completing the old range.
	res, err := s.Apply(ctx, "u1", 2024, 11, 12, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusStartSelected, res.Status)

	assert.ErrorIs(t, s.ChangeMode(ctx, "", ModeRange), calendar.ErrMissingUserID)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2024, 11, 10, ModeSingle)
	require.NoError(t, err)

	sel, _ := s.Get("u1")
	sel.Dates[0] = date(t, 1999, 1, 1)

	again, _ := s.Get("u1")
	assert.Equal(t, date(t, 2024, 11, 10), again.Dates[0])
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	empty := s.Snapshot("u1")
	assert.False(t, empty.HasSelection)
	assert.Equal(t, "Нет активного выбора", empty.Message)

	_, _ = s.Apply(ctx, "u1", 2024, 11, 20, ModeRange)
	_, _ = s.Apply(ctx, "u1", 2024, 11, 10, ModeRange)
	v := s.Snapshot("u1")
	assert.True(t, v.HasSelection)
	assert.Equal(t, ModeRange, v.Mode)
	assert.Equal(t, []string{"2024-11-10", "2024-11-20"}, v.Dates)
	assert.Equal(t, "10.11.2024 - 20.11.2024", v.Formatted)
}

func TestUsersAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, _ = s.Apply(ctx, "a", 2024, 11, 1, ModeRange)
	_, _ = s.Apply(ctx, "b", 2024, 11, 2, ModeSingle)

	res, err := s.Apply(ctx, "a", 2024, 11, 3, ModeRange)
	require.NoError(t, err)
	assert.Equal(t, StatusComplete, res.Status)

	b, _ := s.Get("b")
	assert.Equal(t, ModeSingle, b.Mode)
	assert.Equal(t, 2, s.Len())
}

func TestConcurrentSecondDatesSerialize(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.Apply(ctx, "u1", 2024, 11, 1, ModeRange)
	require.NoError(t, err)

	const n = 32
	results := make([]Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := s.Apply(ctx, "u1", 2024, 11, 2+i%20, ModeRange)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	// Submissions alternate complete/start: no two can both observe RangeStart
	// and complete against the same start date.
	complete, start := 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusComplete:
			complete++
		case StatusStartSelected:
			start++
		}
	}
	assert.Equal(t, n/2, complete)
	assert.Equal(t, n/2, start)

	// An even number of picks after RangeStart lands back on RangeStart.
	sel, ok := s.Get("u1")
	require.True(t, ok)
	assert.Equal(t, StateRangeStart, sel.State())
	assert.Len(t, sel.Dates, 1)
}
