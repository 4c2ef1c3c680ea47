package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prostogovorite/helpbot/bot/gateway"
	"github.com/prostogovorite/helpbot/bot/journal"
	coreconfig "github.com/prostogovorite/helpbot/core/config"
	tghelpers "github.com/prostogovorite/helpbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

type fakeAPI struct {
	calls   []string
	texts   []string
	sendErr error
}

func (f *fakeAPI) Send(_ tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, "send")
	f.texts = append(f.texts, what.(string))
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &tele.Message{ID: 100}, nil
}

func (f *fakeAPI) Edit(_ tele.Editable, what interface{}, _ ...interface{}) (*tele.Message, error) {
	f.calls = append(f.calls, "edit")
	f.texts = append(f.texts, what.(string))
	return &tele.Message{ID: 5}, nil
}

func (f *fakeAPI) Respond(*tele.Callback, ...*tele.CallbackResponse) error {
	f.calls = append(f.calls, "respond")
	return nil
}

type memJournal struct{ entries []journal.Entry }

func (m *memJournal) Record(_ context.Context, e journal.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

type fakeContext struct {
	tele.Context
	upd   tele.Update
	store map[string]any
}

func (f *fakeContext) Update() tele.Update   { return f.upd }
func (f *fakeContext) Get(key string) any    { return f.store[key] }
func (f *fakeContext) Set(key string, v any) { f.store[key] = v }
func (f *fakeContext) Sender() *tele.User    { return &tele.User{ID: 7} }
func (f *fakeContext) Chat() *tele.Chat      { return &tele.Chat{ID: 7} }

func newApp(t *testing.T, mode string) (*App, *fakeAPI, *memJournal) {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "t"},
		Menu:     coreconfig.MenuConfig{ResponseMode: mode},
	}
	if err := coreconfig.Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	content, err := LoadContent(context.Background(), cfg)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	api := &fakeAPI{}
	gw, err := gateway.New(api)
	if err != nil {
		t.Fatalf("gateway: %v", err)
	}
	j := &memJournal{}
	a, err := New(cfg, content, gw, j)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return a, api, j
}

func run(t *testing.T, a *App, upd tele.Update) tghelpers.Outcome {
	t.Helper()
	c := &fakeContext{upd: upd, store: map[string]any{}}
	if err := a.handle(c); err != nil {
		t.Fatalf("handle: %v", err)
	}
	o, ok := tghelpers.OutcomeFrom(c)
	if !ok {
		t.Fatalf("no outcome reported")
	}
	return o
}

func message(text string) tele.Update {
	return tele.Update{ID: 1, Message: &tele.Message{
		ID:     1,
		Text:   text,
		Chat:   &tele.Chat{ID: 7},
		Sender: &tele.User{ID: 7},
	}}
}

func TestStartSendsWelcome(t *testing.T) {
	a, api, j := newApp(t, "")
	o := run(t, a, message("/start"))
	if o.Outcome != "ok" || o.Messages != 1 || !o.KB {
		t.Fatalf("outcome = %+v", o)
	}
	if strings.Join(api.calls, ",") != "send" || api.texts[0] != a.content.Catalog.Welcome() {
		t.Fatalf("calls = %v", api.calls)
	}
	if len(j.entries) != 1 || j.entries[0].Kind != "start" || j.entries[0].State != "responded" {
		t.Fatalf("journal = %+v", j.entries)
	}
}

func TestCallbackAcksThenEdits(t *testing.T) {
	a, api, j := newApp(t, "edit")
	upd := tele.Update{ID: 2, Callback: &tele.Callback{
		ID:      "cb1",
		Sender:  &tele.User{ID: 7},
		Message: &tele.Message{ID: 5, Chat: &tele.Chat{ID: 7}},
		Data:    "\ftopic|hotline",
	}}
	o := run(t, a, upd)
	if o.Outcome != "ok" {
		t.Fatalf("outcome = %+v", o)
	}
	if strings.Join(api.calls, ",") != "respond,edit" {
		t.Fatalf("calls = %v", api.calls)
	}
	body, _ := a.content.Catalog.Lookup("hotline")
	if api.texts[0] != body {
		t.Fatalf("text = %q", api.texts[0])
	}
	if j.entries[0].Topic != "hotline" || j.entries[0].UserID != 7 {
		t.Fatalf("journal = %+v", j.entries)
	}
}

func TestLabelSelectsTopic(t *testing.T) {
	a, api, _ := newApp(t, "send")
	first := a.content.Catalog.Topics()[0]
	o := run(t, a, message(first.Label))
	if o.Outcome != "ok" || strings.Join(api.calls, ",") != "send" {
		t.Fatalf("outcome = %+v calls = %v", o, api.calls)
	}
	if body, _ := a.content.Catalog.Lookup(first.ID); api.texts[0] != body {
		t.Fatalf("text = %q", api.texts[0])
	}
}

func TestUnknownTextIsIgnored(t *testing.T) {
	a, api, j := newApp(t, "")
	o := run(t, a, message("просто текст"))
	if o.Outcome != "ignored" || len(api.calls) != 0 {
		t.Fatalf("outcome = %+v calls = %v", o, api.calls)
	}
	if len(j.entries) != 1 || j.entries[0].State != "ignored" {
		t.Fatalf("journal = %+v", j.entries)
	}
}

func TestSendFailureReportsFallback(t *testing.T) {
	a, api, _ := newApp(t, "send")
	api.sendErr = errors.New("telegram: Bad Request: can't parse entities (400)")
	o := run(t, a, message("/start"))
	if o.Outcome != "fallback" || o.Messages != 0 {
		t.Fatalf("double failure outcome = %+v", o)
	}
	if len(api.calls) != 2 {
		t.Fatalf("expected reply and one fallback, got %v", api.calls)
	}
}

func TestOtherCommandsAreIgnored(t *testing.T) {
	a, api, j := newApp(t, "")
	o := run(t, a, message("/help"))
	if o.Outcome != "ignored" || len(api.calls) != 0 || len(j.entries) != 0 {
		t.Fatalf("outcome = %+v calls = %v journal = %v", o, api.calls, j.entries)
	}
}

func TestRegistryAndRunOptions(t *testing.T) {
	a, _, _ := newApp(t, "")
	reg, err := a.Registry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	cmds := reg.ListCommands(true)
	if len(cmds) != 1 || cmds[0].Text != "start" || cmds[0].Description != "Открыть меню" {
		t.Fatalf("commands = %+v", cmds)
	}
	if _, ok := reg.GetCallback(gateway.CallbackUnique); !ok {
		t.Fatalf("topic callback not registered")
	}
	opts, err := a.RunOptions(nil)
	if err != nil {
		t.Fatalf("run options: %v", err)
	}
	if len(opts.Routes) != 3 || len(opts.Middlewares) != 2 {
		t.Fatalf("routes = %d middlewares = %d", len(opts.Routes), len(opts.Middlewares))
	}
}

func TestLoadContentRejectsBadFile(t *testing.T) {
	cfg := &coreconfig.Config{Content: coreconfig.ContentConfig{File: t.TempDir() + "/missing.yaml"}}
	if _, err := LoadContent(context.Background(), cfg); err == nil {
		t.Fatalf("expected error")
	}
}
