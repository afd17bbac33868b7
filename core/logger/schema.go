package logger

import (
	"strings"
	"time"
)

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

var statusNames = map[string]bool{
	"ok":           true,
	"fail":         true,
	"skip":         true,
	"retry":        true,
	"rate_limited": true,
	"cancelled":    true,
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := levelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

// StatusOf maps an operation result onto the status vocabulary.
func StatusOf(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

// Elapsed is the time since start in whole milliseconds, the unit of
// every duration_ms field.
func Elapsed(start time.Time) int64 {
	return toMS(time.Since(start))
}

func toMS(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond).Milliseconds()
}

// normalizeStatus lowercases status and reports whether it is a known value.
func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "", false
	}
	return status, statusNames[status]
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"method",
	"path",
	"http_code",
	"action",
	"mode",
	"date",
	"start",
	"end",
	"days",
	"year",
	"month",
	"active",
	"outcome",
	"duration_ms",
	"listen",
	"err",
	"err_code",
	"cause",
	"retryable",
	"attempts",
	"backoff_ms",
	"rate_limited",
}
