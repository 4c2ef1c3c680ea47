package format

import "unicode/utf16"

// Bot API limits on outgoing content.
const (
	// MaxMessageLength is the text limit of sendMessage and editMessageText.
	MaxMessageLength = 4096
	// MaxCallbackData is the byte limit of inline button callback_data.
	MaxCallbackData = 64
)

// TextLength counts s in UTF-16 code units, the unit Telegram measures text in.
// MarkdownV2 escapes are counted too, so the result is an upper bound for
// the rendered length.
func TextLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// FitsMessage reports whether s is within MaxMessageLength.
func FitsMessage(s string) bool {
	return TextLength(s) <= MaxMessageLength
}
