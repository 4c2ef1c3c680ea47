// Package sender runs outbound Telegram API calls with uniform logging and
// error classification. Calls are synchronous: the caller owns the outcome.
package sender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prostogovorite/helpbot/core/logger"
	"github.com/prostogovorite/helpbot/core/telegram/netutil"
)

// Error is returned for failed calls. Msg has bot tokens redacted.
type Error struct {
	Action string
	Kind   string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("telegram %s: %s", e.Action, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classified kind of err, or "" when err did not come from Do.
func KindOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Do executes run and logs the outcome under the tg.sender component.
// endpoint names the Bot API method for the log line.
func Do(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	err := run()
	elapsed := time.Since(start)
	if err == nil {
		logger.Debug(ctx, "tg.sender", "send.success",
			append(logAttrs(ctx, action, endpoint), slog.Int("elapsed_ms", durationToMS(elapsed)))...)
		return nil
	}

	se := &Error{
		Action: action,
		Kind:   netutil.Classify(err),
		Status: netutil.HTTPStatus(err),
		Msg:    netutil.Redact(err),
		Err:    err,
	}
	attrs := append(logAttrs(ctx, action, endpoint),
		slog.String("error", se.Msg),
		slog.String("error_kind", se.Kind),
		slog.Int("elapsed_ms", durationToMS(elapsed)),
	)
	if se.Status != 0 {
		attrs = append(attrs, slog.Int("http_status", se.Status))
	}
	logger.Warn(ctx, "tg.sender", "send.fail", attrs...)
	return se
}

func logAttrs(ctx context.Context, action, endpoint string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", action),
	}
	if endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", endpoint))
	}
	if chatID := logger.ChatIDFrom(ctx); chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID))
	}
	if userID := logger.UserIDFrom(ctx); userID != 0 {
		attrs = append(attrs, slog.Int64("user_id", userID))
	}
	return attrs
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(logger.RoundMS(d) / time.Millisecond)
}
