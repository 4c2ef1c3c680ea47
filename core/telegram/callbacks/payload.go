package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseData splits Telebot's "\f<unique>|<payload>" callback encoding.
// Data without the form-feed prefix is treated as a bare unique.
func ParseData(data string) (unique, payload string) {
	raw := strings.TrimPrefix(data, "\f")
	unique, payload, _ = strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// ParseCallbackData parses the data of cb. Returns empty strings for nil.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	return ParseData(cb.Data)
}

// Split returns unique and payload of cb. When telebot matched a button
// endpoint it has already split Data and set Unique; generic OnCallback
// handlers receive the raw encoding.
func Split(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	return ParseCallbackData(cb)
}
