package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/prostogovorite/helpbot/core/logger"
	tghelpers "github.com/prostogovorite/helpbot/core/telegram/helpers"
	"github.com/prostogovorite/helpbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error, extras ...slog.Attr) error {
	tghelpers.WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, start, err, extras...)
	return err
}

// logHandlerSummary writes the single handler.handled line for an update.
// The outcome reported by the handler wins over the one derived from err.
func logHandlerSummary(c tele.Context, handlerName string, start time.Time, err error, extras ...slog.Attr) {
	ctx := tghelpers.WithHandler(c, handlerName)
	reported, ok := tghelpers.OutcomeFrom(c)

	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	if ok && reported.Outcome != "" {
		outcome = reported.Outcome
	}
	status := "ok"
	switch outcome {
	case "fail", "fallback":
		status = "fail"
	case "ignored":
		status = "skip"
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", reported.Messages),
		slog.Bool("kb", reported.KB),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", handlerName),
		)
	}
	attrs = append(attrs, reported.Attrs...)
	attrs = append(attrs, extras...)
	logger.LogEvent(ctx, logger.Component(logger.CompTelegram), slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var se *sender.Error
	if errors.As(err, &se) && se.Kind != "" {
		return strings.ToUpper(se.Kind)
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
