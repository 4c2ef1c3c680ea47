package router

import (
	"strings"
	"time"

	tg "github.com/prostogovorite/helpbot/core/telegram"
	tghelpers "github.com/prostogovorite/helpbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoutes handles plain text: slash commands telebot did not route
// (aliases, "/start@otherbot"), then the registry text fallback.
func TextRoutes(reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if reg != nil {
			if strings.HasPrefix(text, "/") {
				if key, cmd, ok := reg.LookupCommand(commandName(text)); ok && cmd.Handler != nil {
					name := "command." + normalizeHandlerName(key)
					return handleWithSummary(c, name, start, func() error { return cmd.Handler(c) })
				}
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "text", start, func() error { return fb(c) })
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error { return opts.UnknownText(c) })
		}

		tghelpers.ReportOutcome(c, tghelpers.Outcome{Outcome: "ignored"})
		logHandlerSummary(c, "unknown_text", start, nil)
		return nil
	}

	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}

// commandName strips arguments and the @botname suffix from a slash command.
func commandName(text string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}
