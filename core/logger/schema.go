package logger

import "strings"

var levelNames = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var knownOutcomes = map[string]struct{}{
	"ok":        {},
	"fail":      {},
	"ignored":   {},
	"fallback":  {},
	"cancelled": {},
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

func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	_, ok := knownOutcomes[outcome]
	return outcome, ok
}

// defaultKeyOrder puts identity and correlation first, then the fields an
// operator scans for when reading bot traffic.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"handler",
	"kind",
	"topic",
	"state",
	"outcome",
	"fallback",
	"duration_ms",
	"messages",
	"kb",
	"cb_key",
	"payload",
	"action",
	"endpoint",
	"elapsed_ms",
	"http_status",
	"mode",
	"listen",
	"public_url",
	"source",
	"topics",
	"db",
	"host",
	"port",
	"version",
	"err",
	"err_kind",
	"err_code",
	"error",
	"error_kind",
	"cause",
}
