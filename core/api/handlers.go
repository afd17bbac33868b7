package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/m3rciful/datepicker/core/buildinfo"
	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/logger"
	"github.com/m3rciful/datepicker/core/selection"
	"github.com/m3rciful/datepicker/core/telegram/callbacks"
	"github.com/m3rciful/datepicker/core/telegram/keyboard"
)

const serviceName = "Calendar API"

type indexResponse struct {
	Success   bool              `json:"success"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Examples  map[string]string `json:"examples"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Success: true,
		Service: serviceName,
		Version: buildinfo.Version,
		Endpoints: map[string]string{
			"GET /api/calendar":              "month grid as JSON",
			"GET /api/calendar/keyboard":     "inline keyboard structure",
			"GET /api/calendar/protalk":      "keyboard in ##INLINE## text form",
			"POST /api/select":               "apply a date pick",
			"GET /api/selection/{userId}":    "current selection",
			"DELETE /api/selection/{userId}": "clear selection",
			"GET /api/navigate":              "shift month",
			"POST /api/webhook/protalk":      "decode a button press",
			"GET /health":                    "liveness",
		},
		Examples: map[string]string{
			"calendar": "/api/calendar?year=2024&month=11&mode=single",
			"keyboard": "/api/calendar/keyboard?year=2024&month=11&userId=123&mode=single",
		},
	})
}

type healthResponse struct {
	Success          bool    `json:"success"`
	Status           string  `json:"status"`
	Service          string  `json:"service"`
	Version          string  `json:"version"`
	Uptime           float64 `json:"uptime"`
	Timestamp        string  `json:"timestamp"`
	ActiveSelections int     `json:"activeSelections"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Success:          true,
		Status:           "healthy",
		Service:          serviceName,
		Version:          buildinfo.Version,
		Uptime:           now.Sub(s.started).Seconds(),
		Timestamp:        now.UTC().Format(time.RFC3339),
		ActiveSelections: s.store.Len(),
	})
}

type calendarMeta struct {
	FirstDayOfWeek int `json:"firstDayOfWeek"`
	DaysInMonth    int `json:"daysInMonth"`
}

type calendarResponse struct {
	Success   bool           `json:"success"`
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	MonthName string         `json:"monthName"`
	Mode      selection.Mode `json:"mode"`
	Calendar  calendar.Grid  `json:"calendar"`
	Metadata  calendarMeta   `json:"metadata"`
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthQuery(r, s.now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := modeQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	grid, err := calendar.Generate(year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendarResponse{
		Success:   true,
		Year:      year,
		Month:     month,
		MonthName: calendar.MonthName(month),
		Mode:      mode,
		Calendar:  grid,
		Metadata:  calendarMeta{FirstDayOfWeek: 1, DaysInMonth: grid.Days()},
	})
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type keyboardResponse struct {
	Success        bool             `json:"success"`
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
	Year           int              `json:"year"`
	Month          int              `json:"month"`
	Mode           selection.Mode   `json:"mode"`
}

// keyboardRequest reads the query shared by the keyboard renderings.
func (s *Server) keyboardRequest(r *http.Request) (keyboard.Rows, int, int, selection.Mode, error) {
	year, month, err := yearMonthQuery(r, s.now)
	if err != nil {
		return nil, 0, 0, "", err
	}
	mode, err := modeQuery(r)
	if err != nil {
		return nil, 0, 0, "", err
	}
	rows, err := keyboard.Build(year, month, mode, r.URL.Query().Get("userId"))
	if err != nil {
		return nil, 0, 0, "", err
	}
	return rows, year, month, mode, nil
}

func (s *Server) handleKeyboard(w http.ResponseWriter, r *http.Request) {
	rows, year, month, mode, err := s.keyboardRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([][]inlineButton, len(rows))
	for i, row := range rows {
		out[i] = make([]inlineButton, len(row))
		for j, b := range row {
			out[i][j] = inlineButton{Text: b.Label, CallbackData: b.Action.Encode()}
		}
	}
	writeJSON(w, http.StatusOK, keyboardResponse{
		Success:        true,
		InlineKeyboard: out,
		Year:           year,
		Month:          month,
		Mode:           mode,
	})
}

type protalkResponse struct {
	Success       bool           `json:"success"`
	ProtalkFormat string         `json:"protalk_format"`
	Text          string         `json:"text"`
	Year          int            `json:"year"`
	Month         int            `json:"month"`
	Mode          selection.Mode `json:"mode"`
}

func (s *Server) handleProtalk(w http.ResponseWriter, r *http.Request) {
	rows, year, month, mode, err := s.keyboardRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, protalkResponse{
		Success:       true,
		ProtalkFormat: keyboard.Inline(rows),
		Text:          keyboard.Prompt(year, month),
		Year:          year,
		Month:         month,
		Mode:          mode,
	})
}

type selectResponse struct {
	Success bool `json:"success"`
	selection.Result
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mode := selection.ModeSingle
	if req.Mode != "" {
		m, err := selection.ParseMode(req.Mode)
		if err != nil {
			writeError(w, r, err)
			return
		}
		mode = m
	}
	userID := string(req.UserID)
	ctx := logger.WithUserID(r.Context(), userID)
	res, err := s.store.Apply(ctx, userID, int(req.Year), int(req.Month), int(req.Day), mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectResponse{Success: true, Result: res})
}

type viewResponse struct {
	Success bool `json:"success"`
	selection.View
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewResponse{Success: true, View: s.store.Snapshot(r.PathValue("userId"))})
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")
	msg := selection.MessageNoSelection()
	if s.store.Clear(logger.WithUserID(r.Context(), userID), userID) {
		msg = selection.MessageCleared()
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

type navigateResponse struct {
	Success   bool   `json:"success"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"monthName"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	year, month, err := yearMonthQuery(r, s.now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	year, month, err = calendar.Shift(year, month, calendar.Direction(r.URL.Query().Get("direction")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponse{
		Success:   true,
		Year:      year,
		Month:     month,
		MonthName: calendar.MonthName(month),
	})
}

type navigateTarget struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"monthName"`
}

type webhookParsed struct {
	Action    string             `json:"action"`
	Direction calendar.Direction `json:"direction,omitempty"`
	Year      int                `json:"year,omitempty"`
	Month     int                `json:"month,omitempty"`
	Day       int                `json:"day,omitempty"`
	UserID    string             `json:"userId,omitempty"`
	Mode      selection.Mode     `json:"mode,omitempty"`
	Target    *navigateTarget    `json:"target,omitempty"`
}

type webhookResponse struct {
	Success      bool          `json:"success"`
	CallbackData string        `json:"callback_data"`
	Parsed       webhookParsed `json:"parsed"`
}

// handleWebhook decodes a button press. Day picks are only described, the
// caller follows up with /api/select; mode switches clear the selection here.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	action, err := callbacks.Parse(req.CallbackData, string(req.UserID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx := logger.WithUserID(r.Context(), action.UserID)

	var parsed webhookParsed
	switch action.Kind {
	case callbacks.KindSelectDay:
		mode := selection.ModeSingle
		if sel, ok := s.store.Get(action.UserID); ok {
			mode = sel.Mode
		}
		parsed = webhookParsed{
			Action: "select_date",
			Year:   action.Year,
			Month:  action.Month,
			Day:    action.Day,
			UserID: action.UserID,
			Mode:   mode,
		}
	case callbacks.KindNavigate:
		y, m, err := action.Target()
		if err != nil {
			writeError(w, r, err)
			return
		}
		parsed = webhookParsed{
			Action:    "navigate",
			Direction: action.Direction,
			Year:      action.Year,
			Month:     action.Month,
			Target:    &navigateTarget{Year: y, Month: m, MonthName: calendar.MonthName(m)},
		}
	case callbacks.KindSetMode:
		if action.UserID != "" {
			if err := s.store.ChangeMode(ctx, action.UserID, action.Mode); err != nil {
				writeError(w, r, err)
				return
			}
		}
		parsed = webhookParsed{
			Action: "change_mode",
			Mode:   action.Mode,
			Year:   action.Year,
			Month:  action.Month,
			UserID: action.UserID,
		}
	default:
		parsed = webhookParsed{Action: "ignore"}
	}

	logger.LogEvent(ctx, logger.API, slog.LevelDebug, "webhook.parsed",
		slog.String("action", parsed.Action),
	)
	writeJSON(w, http.StatusOK, webhookResponse{
		Success:      true,
		CallbackData: req.CallbackData,
		Parsed:       parsed,
	})
}
