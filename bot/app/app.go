// Package app wires the catalog, menu and dispatcher into the Telegram runtime.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prostogovorite/helpbot/bot/catalog"
	"github.com/prostogovorite/helpbot/bot/dispatch"
	"github.com/prostogovorite/helpbot/bot/gateway"
	"github.com/prostogovorite/helpbot/bot/journal"
	"github.com/prostogovorite/helpbot/bot/menu"
	coreconfig "github.com/prostogovorite/helpbot/core/config"
	"github.com/prostogovorite/helpbot/core/logger"
	tg "github.com/prostogovorite/helpbot/core/telegram"
	"github.com/prostogovorite/helpbot/core/telegram/commands"
	tghelpers "github.com/prostogovorite/helpbot/core/telegram/helpers"
	"github.com/prostogovorite/helpbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

const startCommand = "/start"

// Content is the validated, immutable content the bot serves.
type Content struct {
	Catalog *catalog.Catalog
	Menu    *menu.Builder
}

// LoadContent loads the catalog and lays out the menu. Any error here is a
// configuration error and must stop startup.
func LoadContent(ctx context.Context, cfg *coreconfig.Config) (Content, error) {
	if cfg == nil {
		return Content{}, errors.New("app: nil config")
	}
	cat, err := catalog.Load(ctx, cfg.Content.File)
	if err != nil {
		return Content{}, err
	}
	layout, err := menu.ParseLayout(cfg.Menu.Layout)
	if err != nil {
		return Content{}, err
	}
	b, err := menu.NewBuilder(cat, menu.Options{
		Layout:     layout,
		PerRow:     cfg.Menu.PerRow,
		MaxIDBytes: gateway.MaxTopicIDBytes,
	})
	if err != nil {
		return Content{}, err
	}
	return Content{Catalog: cat, Menu: b}, nil
}

// App holds the per-process bot components.
type App struct {
	cfg        *coreconfig.Config
	content    Content
	dispatcher *dispatch.Dispatcher
	journal    journal.Recorder
	now        func() time.Time
}

// New builds the dispatcher on top of gw. rec may be nil.
func New(cfg *coreconfig.Config, content Content, gw dispatch.Gateway, rec journal.Recorder) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	delivery, err := dispatch.ParseDelivery(cfg.Menu.ResponseMode)
	if err != nil {
		return nil, err
	}
	d, err := dispatch.New(dispatch.Options{
		Catalog:         content.Catalog,
		Menu:            content.Menu,
		Gateway:         gw,
		Delivery:        delivery,
		IncludePreamble: cfg.Menu.IncludePreamble,
		Logger:          logger.Component(logger.CompDispatch),
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = journal.Nop{}
	}
	return &App{cfg: cfg, content: content, dispatcher: d, journal: rec, now: time.Now}, nil
}

// Registry declares the /start command, the topic callback and the label
// text fallback. All of them end in the same dispatcher.
func (a *App) Registry() (*tg.Registry, error) {
	reg := tg.NewRegistry()
	desc := a.content.Catalog.CommandDescription(startCommand)
	if desc == "" {
		desc = "Menu"
	}
	if err := reg.RegisterCommand(startCommand, commands.Command{Handler: a.handle, Description: desc}); err != nil {
		return nil, err
	}
	if err := reg.RegisterCallback(gateway.CallbackUnique, a.handle); err != nil {
		return nil, err
	}
	reg.SetCallbackNotFound(a.handle)
	reg.SetTextFallback(a.handle)
	return reg, nil
}

// RunOptions assembles the telegram runtime for bot.
func (a *App) RunOptions(bot *tele.Bot) (tg.RunOptions, error) {
	reg, err := a.Registry()
	if err != nil {
		return tg.RunOptions{}, fmt.Errorf("app: registry: %w", err)
	}
	routes := router.CommandRoutes(reg)
	routes = append(routes, router.CallbackRoute(reg, router.CallbackOptions{}))
	routes = append(routes, router.TextRoutes(reg, router.TextOptions{})...)
	return tg.RunOptions{
		Config:      a.cfg,
		Bot:         bot,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(),
		Routes:      routes,
	}, nil
}

// handle is the single telebot handler. It never returns an error: the
// dispatcher owns failure handling and the outcome goes to the summary line.
func (a *App) handle(c tele.Context) error {
	upd := c.Update()
	ev, ok := gateway.EventFromUpdate(&upd)
	if !ok {
		tghelpers.ReportOutcome(c, tghelpers.Outcome{Outcome: "ignored"})
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	res := a.dispatcher.Dispatch(ctx, ev)
	journal.Write(ctx, a.journal, journal.EntryFrom(ev, res, a.now()))
	tghelpers.ReportOutcome(c, outcomeOf(res))
	return nil
}

func outcomeOf(res dispatch.Result) tghelpers.Outcome {
	o := tghelpers.Outcome{
		Messages: res.Messages,
		KB:       res.Messages > 0,
		Attrs: []slog.Attr{
			slog.String("kind", res.Kind),
			slog.String("state", string(res.State)),
		},
	}
	if res.Topic != "" {
		o.Attrs = append(o.Attrs, slog.String("topic", res.Topic))
	}
	switch {
	case res.State == dispatch.StateIgnored:
		o.Outcome = "ignored"
	case res.State == dispatch.StateFailed && res.Fallback:
		o.Outcome = "fallback"
	case res.State == dispatch.StateFailed:
		o.Outcome = "fail"
	default:
		o.Outcome = "ok"
	}
	if res.Err != nil {
		o.Attrs = append(o.Attrs, slog.String("err", logger.SanitizeLimit(res.Err.Error(), 256)))
	}
	return o
}
