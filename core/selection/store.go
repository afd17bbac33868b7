package selection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/logger"
)

// Store owns every user's Selection for the lifetime of the process.
// Mutations for one user id are serialized by a per-key lock; different
// user ids never wait on each other beyond the short map lookup.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	active  atomic.Int64
}

type entry struct {
	mu   sync.Mutex
	refs int
	sel  *Selection
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) acquire(userID string) *entry {
	s.mu.Lock()
	e, ok := s.entries[userID]
	if !ok {
		e = &entry{}
		s.entries[userID] = e
	}
	e.refs++
	s.mu.Unlock()

	e.mu.Lock()
	return e
}

func (s *Store) release(userID string, e *entry) {
	e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	e.refs--
	// With no other holder left, e.sel is stable and safe to inspect here.
	if e.refs == 0 && e.sel == nil {
		delete(s.entries, userID)
	}
}

// set replaces the held selection; the caller holds e.mu.
func (s *Store) set(e *entry, sel *Selection) {
	switch {
	case e.sel == nil && sel != nil:
		s.active.Add(1)
	case e.sel != nil && sel == nil:
		s.active.Add(-1)
	}
	e.sel = sel
}

// Apply records a date pick for userID under mode and reports the transition.
func (s *Store) Apply(ctx context.Context, userID string, year, month, day int, mode Mode) (Result, error) {
	if strings.TrimSpace(userID) == "" {
		return Result{}, calendar.ErrMissingUserID
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return Result{}, err
	}
	date, err := calendar.NewDate(year, month, day)
	if err != nil {
		return Result{}, err
	}

	e := s.acquire(userID)
	defer s.release(userID, e)

	from := StateEmpty
	if e.sel != nil {
		from = e.sel.State()
	}

	var res Result
	switch {
	case mode == ModeSingle:
		s.set(e, &Selection{Mode: ModeSingle, Dates: []calendar.Date{date}})
		res = singleResult(date)
	case from == StateRangeStart:
		start, end := e.sel.Dates[0], date
		if end.Before(start) {
			start, end = end, start
		}
		s.set(e, &Selection{Mode: ModeRange, Dates: []calendar.Date{start, end}})
		res = completeResult(start, end)
	default:
		// Empty, SingleSet and RangeComplete all begin a fresh range.
		s.set(e, &Selection{Mode: ModeRange, Dates: []calendar.Date{date}})
		res = startResult(date)
	}

	logger.LogEvent(ctx, logger.SEL, slog.LevelDebug, "selection.apply",
		slog.String("status", "ok"),
		slog.String("user", userID),
		slog.String("mode", string(mode)),
		slog.String("from", string(from)),
		slog.String("to", string(e.sel.State())),
		slog.String("date", date.ISO()),
	)
	return res, nil
}

func singleResult(d calendar.Date) Result {
	return Result{
		Mode:      ModeSingle,
		Date:      &d,
		Formatted: d.Format(),
		Message:   "Выбрана дата: " + d.Format(),
	}
}

func startResult(d calendar.Date) Result {
	return Result{
		Mode:      ModeRange,
		Status:    StatusStartSelected,
		StartDate: &d,
		Formatted: d.Format(),
		Message:   msgPickEnd,
	}
}

func completeResult(start, end calendar.Date) Result {
	days := start.DaysUntil(end) + 1
	formatted := calendar.FormatRange(start, end)
	return Result{
		Mode:      ModeRange,
		Status:    StatusComplete,
		StartDate: &start,
		EndDate:   &end,
		DaysCount: days,
		Formatted: formatted,
		Message:   fmt.Sprintf("Выбран период: %s (%d дн.)", formatted, days),
	}
}

// Get returns a copy of the user's selection, if any.
func (s *Store) Get(userID string) (Selection, bool) {
	e := s.acquire(userID)
	defer s.release(userID, e)
	if e.sel == nil {
		return Selection{}, false
	}
	return e.sel.clone(), true
}

// Snapshot projects the user's selection for read endpoints.
func (s *Store) Snapshot(userID string) View {
	sel, ok := s.Get(userID)
	if !ok {
		return View{HasSelection: false, Message: msgNoSelection}
	}
	dates := make([]string, 0, len(sel.Dates))
	for _, d := range sel.Dates {
		dates = append(dates, d.ISO())
	}
	return View{
		HasSelection: true,
		Mode:         sel.Mode,
		Dates:        dates,
		Formatted:    sel.Formatted(),
	}
}

// Clear removes the user's selection. It reports whether one existed;
// clearing an absent user is not an error.
func (s *Store) Clear(ctx context.Context, userID string) bool {
	e := s.acquire(userID)
	defer s.release(userID, e)
	existed := e.sel != nil
	s.set(e, nil)
	logger.LogEvent(ctx, logger.SEL, slog.LevelDebug, "selection.clear",
		slog.String("status", "ok"),
		slog.String("user", userID),
		slog.Bool("existed", existed),
	)
	return existed
}

// ChangeMode discards any selection held for userID. Partial range state has
// no meaning under the other mode, so nothing is carried over.
func (s *Store) ChangeMode(ctx context.Context, userID string, mode Mode) error {
	if strings.TrimSpace(userID) == "" {
		return calendar.ErrMissingUserID
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return err
	}
	e := s.acquire(userID)
	defer s.release(userID, e)
	s.set(e, nil)
	logger.LogEvent(ctx, logger.SEL, slog.LevelDebug, "selection.mode",
		slog.String("status", "ok"),
		slog.String("user", userID),
		slog.String("mode", string(mode)),
	)
	return nil
}

// Len reports the number of users with an active selection.
func (s *Store) Len() int {
	return int(s.active.Load())
}
