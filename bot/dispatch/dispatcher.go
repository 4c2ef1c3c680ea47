// Package dispatch turns inbound interactions into replies. It owns the
// fallback policy: a failed reply gets exactly one plain-text notice, and a
// failed notice is logged and dropped. Dispatch never panics.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prostogovorite/helpbot/bot/catalog"
	"github.com/prostogovorite/helpbot/bot/menu"
	"github.com/prostogovorite/helpbot/core/logger"
	"github.com/prostogovorite/helpbot/core/telegram/sender"
)

// Delivery selects how topic replies reach the chat.
type Delivery string

const (
	// DeliveryEdit replaces the message the pressed button belongs to.
	// Events without such a message are answered with a new one.
	DeliveryEdit Delivery = "edit"
	// DeliverySend always posts a new message.
	DeliverySend Delivery = "send"
)

// ParseDelivery accepts "edit" or "send"; empty means edit.
func ParseDelivery(raw string) (Delivery, error) {
	switch Delivery(strings.ToLower(strings.TrimSpace(raw))) {
	case "", DeliveryEdit:
		return DeliveryEdit, nil
	case DeliverySend:
		return DeliverySend, nil
	}
	return "", fmt.Errorf("dispatch: unknown delivery %q", raw)
}

// State is the terminal state of one interaction.
type State string

const (
	StateResponded State = "responded"
	StateIgnored   State = "ignored"
	StateFailed    State = "failed"
)

// Result describes what a single Dispatch call did.
type Result struct {
	Kind  string
	State State
	Topic string
	// Unknown is set when Topic is not in the catalog.
	Unknown bool
	// Messages counts replies the gateway accepted, fallback included.
	Messages int
	Fallback bool
	Err      error
}

// Options configure a Dispatcher.
type Options struct {
	Catalog         *catalog.Catalog
	Menu            *menu.Builder
	Gateway         Gateway
	Delivery        Delivery
	IncludePreamble bool
	// Logger defaults to the context logger.
	Logger *slog.Logger
}

// Dispatcher is stateless and safe for concurrent use.
type Dispatcher struct {
	catalog  *catalog.Catalog
	menu     *menu.Builder
	gw       Gateway
	delivery Delivery
	preamble bool
	log      *slog.Logger
}

// New validates opts.
func New(opts Options) (*Dispatcher, error) {
	if opts.Catalog == nil {
		return nil, errors.New("dispatch: catalog is required")
	}
	if opts.Menu == nil {
		return nil, errors.New("dispatch: menu builder is required")
	}
	if opts.Gateway == nil {
		return nil, errors.New("dispatch: gateway is required")
	}
	delivery, err := ParseDelivery(string(opts.Delivery))
	if err != nil {
		return nil, err
	}
	if opts.IncludePreamble {
		if err := opts.Catalog.CheckPreamble(); err != nil {
			return nil, err
		}
	}
	return &Dispatcher{
		catalog:  opts.Catalog,
		menu:     opts.Menu,
		gw:       opts.Gateway,
		delivery: delivery,
		preamble: opts.IncludePreamble,
		log:      opts.Logger,
	}, nil
}

// Dispatch handles ev to completion. Panics raised anywhere below are
// recovered here and reported as an InternalError in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (res Result) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ev == nil {
		return Result{State: StateIgnored}
	}
	f := &flow{d: d, sender: ev.From()}
	f.res.Kind = ev.Kind()
	defer func() {
		if r := recover(); r != nil {
			f.panicked(ctx, newInternalError(r))
		}
		res = f.res
	}()

	switch e := ev.(type) {
	case StartCommand:
		f.start(ctx)
	case TopicSelected:
		f.topic(ctx, e)
	default:
		f.res.State = StateIgnored
	}
	return f.res
}

// flow carries the state of one Dispatch call.
type flow struct {
	d             *Dispatcher
	sender        Sender
	callback      *CallbackMeta
	res           Result
	fallbackTried bool
}

func (f *flow) start(ctx context.Context) {
	f.respond(ctx, OutboundMessage{
		Text:           f.d.catalog.Welcome(),
		Menu:           f.d.menu.Build(),
		Markup:         MarkupMarkdownV2,
		DisablePreview: true,
	}, f.d.catalog.Notices().StartFailed)
}

func (f *flow) topic(ctx context.Context, e TopicSelected) {
	f.callback = e.Callback
	if e.Callback != nil && e.Callback.ID != "" {
		if err := f.d.call("ack", func() error { return f.d.gw.Acknowledge(ctx, e.Callback.ID) }); err != nil {
			f.log(ctx, slog.LevelWarn, "dispatch.ack_failed", errAttrs(err)...)
		}
	}

	id := strings.TrimSpace(e.Ref.ID)
	if id == "" {
		resolved, ok := f.d.catalog.ResolveLabel(e.Ref.Label)
		if !ok {
			f.res.State = StateIgnored
			f.log(ctx, slog.LevelDebug, "dispatch.ignored", slog.String("label", logger.SanitizeLimit(e.Ref.Label, 64)))
			return
		}
		id = resolved
	}
	f.res.Topic = id

	notices := f.d.catalog.Notices()
	body, ok := f.d.catalog.Lookup(id)
	if !ok {
		f.res.Unknown = true
		f.respond(ctx, OutboundMessage{
			Text: notices.UnknownTopic,
			Menu: f.d.menu.Build(),
		}, notices.SendFailed)
		return
	}
	if f.d.preamble {
		body = catalog.WithPreamble(f.d.catalog.Preamble(), body)
	}
	f.respond(ctx, OutboundMessage{
		Text:           body,
		Menu:           f.d.menu.Build(),
		Markup:         MarkupMarkdownV2,
		DisablePreview: true,
	}, notices.SendFailed)
}

// respond delivers msg and falls back to notice on failure.
func (f *flow) respond(ctx context.Context, msg OutboundMessage, notice string) {
	err := f.deliver(ctx, msg, true)
	if err == nil {
		f.res.State = StateResponded
		f.res.Messages++
		attrs := []slog.Attr{slog.String("kind", f.res.Kind)}
		if f.res.Unknown {
			attrs = append(attrs, slog.Bool("unknown", true))
		}
		f.log(ctx, slog.LevelInfo, "dispatch.responded", attrs...)
		return
	}

	f.res.State = StateFailed
	f.res.Err = err
	var ierr *InternalError
	if errors.As(err, &ierr) {
		f.log(ctx, slog.LevelError, "dispatch.panic",
			append(errAttrs(err), slog.String("stack", string(ierr.Stack)))...)
		notice = f.d.catalog.Notices().Internal
	} else {
		f.log(ctx, slog.LevelWarn, "dispatch.send_failed", errAttrs(err)...)
	}
	f.fallback(ctx, notice, err)
}

// fallback sends at most one plain notice per interaction. It is always a
// new message: the edit target may be the reason the reply failed.
func (f *flow) fallback(ctx context.Context, text string, cause error) {
	if f.fallbackTried {
		return
	}
	f.fallbackTried = true
	f.res.Fallback = true
	err := f.deliver(ctx, OutboundMessage{Text: text, Menu: f.d.menu.Build()}, false)
	if err != nil {
		attrs := append(errAttrs(err), slog.String("cause", cause.Error()))
		f.log(ctx, slog.LevelError, "dispatch.fallback_failed", attrs...)
		return
	}
	f.res.Messages++
}

func (f *flow) panicked(ctx context.Context, ierr *InternalError) {
	f.res.State = StateFailed
	f.res.Err = ierr
	f.log(ctx, slog.LevelError, "dispatch.panic",
		slog.String("err", ierr.Error()),
		slog.String("stack", string(ierr.Stack)),
	)
	f.fallback(ctx, f.d.catalog.Notices().Internal, ierr)
}

func (f *flow) deliver(ctx context.Context, msg OutboundMessage, allowEdit bool) error {
	if allowEdit && f.d.delivery == DeliveryEdit && f.callback != nil && f.callback.Source != nil {
		ref := *f.callback.Source
		return f.d.call("edit", func() error { return f.d.gw.Edit(ctx, ref, msg) })
	}
	return f.d.call("send", func() error {
		_, err := f.d.gw.Send(ctx, f.sender.ChatID, msg)
		return err
	})
}

func (f *flow) log(ctx context.Context, level slog.Level, event string, attrs ...slog.Attr) {
	base := []slog.Attr{slog.Int64("user_id", f.sender.UserID)}
	if f.sender.ChatID != f.sender.UserID {
		base = append(base, slog.Int64("chat_id", f.sender.ChatID))
	}
	if f.res.Topic != "" {
		base = append(base, slog.String("topic", f.res.Topic))
	}
	logger.LogEvent(ctx, f.d.log, level, event, append(base, attrs...)...)
}

// call runs one gateway operation, converting a panic into an InternalError.
func (d *Dispatcher) call(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newInternalError(r)
		}
	}()
	if err := fn(); err != nil {
		return &TransportError{Op: op, Err: err}
	}
	return nil
}

func errAttrs(err error) []slog.Attr {
	attrs := []slog.Attr{slog.String("err", err.Error())}
	if kind := sender.KindOf(err); kind != "" {
		attrs = append(attrs, slog.String("err_kind", kind))
	}
	return attrs
}
