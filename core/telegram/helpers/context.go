package helpers

import (
	"context"
	"log/slog"

	"github.com/prostogovorite/helpbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	contextKey = "logger_ctx"
	outcomeKey = "handler_outcome"
)

// StoreContext attaches reusable context to tele.Context for downstream helpers.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(contextKey, ctx)
}

// ContextFrom telegram context if previously stored by middleware.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	if v := c.Get(contextKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx, true
		}
	}
	return nil, false
}

// BuildContext constructs a context.Context from tele.Context,
// enriching it with RID and update/user/chat metadata for consistent service logging.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}

	upd := c.Update()
	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}

	rid, _ := c.Get("rid").(string)
	if rid == "" {
		rid = logger.BuildRID(upd.ID, chatID, userID)
	}

	ctx := context.Background()
	ctx = logger.WithRID(ctx, rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTelegram))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler enriches stored context with handler metadata for downstream logs.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}

// Outcome is what a handler reports about the update it processed. The
// router folds it into the handler.handled summary line.
type Outcome struct {
	// Outcome is one of ok, fail, ignored, fallback.
	Outcome  string
	Messages int
	KB       bool
	Attrs    []slog.Attr
}

// ReportOutcome records the handler outcome on the telebot context.
func ReportOutcome(c tele.Context, o Outcome) {
	if c == nil {
		return
	}
	c.Set(outcomeKey, o)
}

// OutcomeFrom returns the outcome reported by the handler, if any.
func OutcomeFrom(c tele.Context) (Outcome, bool) {
	if c == nil {
		return Outcome{}, false
	}
	o, ok := c.Get(outcomeKey).(Outcome)
	return o, ok
}
