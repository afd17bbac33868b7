package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/datepicker/core/calendar"
	"github.com/m3rciful/datepicker/core/selection"
)

const maxBodyBytes = 64 << 10

// looseString accepts a JSON string or number, so chat platforms that send
// numeric user ids are understood.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}

// looseInt accepts a JSON number or a numeric string.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		return err
	}
	*n = looseInt(v)
	return nil
}

type selectRequest struct {
	UserID looseString `json:"userId"`
	Year   looseInt    `json:"year"`
	Month  looseInt    `json:"month"`
	Day    looseInt    `json:"day"`
	Mode   string      `json:"mode"`
}

type webhookRequest struct {
	CallbackData string      `json:"callback_data"`
	UserID       looseString `json:"user_id"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

// requestError is a transport-level 400 that is not a core error kind.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

// yearMonthQuery reads ?year&month, defaulting each to today's value when
// absent. Present but non-numeric values are rejected.
func yearMonthQuery(r *http.Request, now func() time.Time) (int, int, error) {
	today := calendar.Today(now)
	year, err := intQuery(r, "year", today.Year, calendar.KindInvalidDate)
	if err != nil {
		return 0, 0, err
	}
	month, err := intQuery(r, "month", int(today.Month), calendar.KindInvalidMonth)
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func intQuery(r *http.Request, key string, def int, kind calendar.Kind) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, calendar.Errorf(kind, "%s %q is not a number", key, raw)
	}
	return n, nil
}

func modeQuery(r *http.Request) (selection.Mode, error) {
	raw := r.URL.Query().Get("mode")
	if strings.TrimSpace(raw) == "" {
		return selection.ModeSingle, nil
	}
	return selection.ParseMode(raw)
}
