package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/prostogovorite/helpbot/bot/catalog"
	"github.com/prostogovorite/helpbot/bot/dispatch"
	"github.com/prostogovorite/helpbot/bot/menu"
	"github.com/prostogovorite/helpbot/core/telegram/format"
)

type fakeAPI struct {
	sent      []interface{}
	sentTo    []tele.Recipient
	sendOpts  [][]interface{}
	edited    []tele.Editable
	editOpts  [][]interface{}
	responded []*tele.Callback
	sendErr   error
	editErr   error
}

func (f *fakeAPI) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.sentTo = append(f.sentTo, to)
	f.sent = append(f.sent, what)
	f.sendOpts = append(f.sendOpts, opts)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &tele.Message{ID: 99}, nil
}

func (f *fakeAPI) Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.edited = append(f.edited, msg)
	f.editOpts = append(f.editOpts, opts)
	return nil, f.editErr
}

func (f *fakeAPI) Respond(c *tele.Callback, _ ...*tele.CallbackResponse) error {
	f.responded = append(f.responded, c)
	return nil
}

var testMenu = menu.Menu{
	Layout: menu.LayoutInline,
	Rows: [][]menu.Button{
		{{TopicID: "help", Label: "Помощь"}},
		{{TopicID: "hotline", Label: "Телефон"}},
	},
}

func sendOpts(t *testing.T, opts []interface{}) (*tele.SendOptions, bool) {
	t.Helper()
	if len(opts) == 0 {
		t.Fatal("expected send options")
	}
	so, ok := opts[0].(*tele.SendOptions)
	if !ok {
		t.Fatalf("first option is %T", opts[0])
	}
	noPreview := false
	for _, o := range opts[1:] {
		if o == tele.NoPreview {
			noPreview = true
		}
	}
	return so, noPreview
}

func TestSendMarkdownWithInlineMenu(t *testing.T) {
	api := &fakeAPI{}
	gw, _ := New(api)
	ref, err := gw.Send(context.Background(), 42, dispatch.OutboundMessage{
		Text:           `*hi*`,
		Menu:           testMenu,
		Markup:         dispatch.MarkupMarkdownV2,
		DisablePreview: true,
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if ref.ChatID != 42 || ref.MessageID != 99 {
		t.Fatalf("ref = %+v", ref)
	}
	if api.sentTo[0].Recipient() != "42" || api.sent[0] != `*hi*` {
		t.Fatalf("sent %v to %v", api.sent[0], api.sentTo[0])
	}
	so, noPreview := sendOpts(t, api.sendOpts[0])
	if so.ParseMode != tele.ModeMarkdownV2 || !noPreview {
		t.Fatalf("unexpected options %+v preview=%v", so, noPreview)
	}
	kb := so.ReplyMarkup.InlineKeyboard
	if len(kb) != 2 || kb[1][0].Unique != CallbackUnique || kb[1][0].Data != "hotline" || kb[1][0].Text != "Телефон" {
		t.Fatalf("unexpected keyboard %+v", kb)
	}
}

func TestSendPlainNotice(t *testing.T) {
	api := &fakeAPI{}
	gw, _ := New(api)
	if _, err := gw.Send(context.Background(), 1, dispatch.OutboundMessage{Text: "Ошибка.", Menu: testMenu}); err != nil {
		t.Fatalf("send: %v", err)
	}
	so, noPreview := sendOpts(t, api.sendOpts[0])
	if so.ParseMode != tele.ModeDefault || noPreview {
		t.Fatalf("plain notice must not use markdown: %+v", so)
	}
}

func TestSendFailureIsClassified(t *testing.T) {
	api := &fakeAPI{sendErr: &tele.Error{Code: 400, Description: "Bad Request: can't parse entities"}}
	gw, _ := New(api)
	_, err := gw.Send(context.Background(), 1, dispatch.OutboundMessage{Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *tele.Error
	if !errors.As(err, &apiErr) || apiErr.Code != 400 {
		t.Fatalf("api error not reachable: %v", err)
	}
}

func TestEdit(t *testing.T) {
	api := &fakeAPI{}
	gw, _ := New(api)
	err := gw.Edit(context.Background(), dispatch.MessageRef{ChatID: 5, MessageID: 7}, dispatch.OutboundMessage{Text: "x", Menu: testMenu})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	msgID, chatID := api.edited[0].MessageSig()
	if msgID != "7" || chatID != 5 {
		t.Fatalf("edited %s/%d", msgID, chatID)
	}
}

func TestEditNotModifiedIsSuccess(t *testing.T) {
	api := &fakeAPI{editErr: errors.New("telegram: Bad Request: message is not modified: specified new message content and reply markup are exactly the same (400)")}
	gw, _ := New(api)
	if err := gw.Edit(context.Background(), dispatch.MessageRef{ChatID: 5, MessageID: 7}, dispatch.OutboundMessage{Text: "x"}); err != nil {
		t.Fatalf("not modified must be success, got %v", err)
	}
	api.editErr = errors.New("message to edit not found (400)")
	if err := gw.Edit(context.Background(), dispatch.MessageRef{ChatID: 5, MessageID: 7}, dispatch.OutboundMessage{Text: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestAcknowledge(t *testing.T) {
	api := &fakeAPI{}
	gw, _ := New(api)
	if err := gw.Acknowledge(context.Background(), "cb-9"); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(api.responded) != 1 || api.responded[0].ID != "cb-9" {
		t.Fatalf("responded %+v", api.responded)
	}
}

func TestMarkupReplyLayout(t *testing.T) {
	m := testMenu
	m.Layout = menu.LayoutReply
	markup := Markup(m, false)
	if markup == nil || len(markup.ReplyKeyboard) != 2 || markup.ReplyKeyboard[0][0].Text != "Помощь" {
		t.Fatalf("unexpected reply markup %+v", markup)
	}
	if Markup(m, true) != nil {
		t.Fatal("edits cannot carry reply keyboards")
	}
	if Markup(menu.Menu{}, false) != nil {
		t.Fatal("empty menu must not render")
	}
}

func TestMarkupIsFreshPerCall(t *testing.T) {
	a := Markup(testMenu, false)
	b := Markup(testMenu, false)
	a.InlineKeyboard[0][0].Data = "\ftopic|help"
	if b.InlineKeyboard[0][0].Data != "help" {
		t.Fatal("markups must not share buttons")
	}
}

func TestLongestCatalogIDFitsCallbackData(t *testing.T) {
	if MaxTopicIDBytes != 57 {
		t.Fatalf("MaxTopicIDBytes = %d", MaxTopicIDBytes)
	}
	id := strings.Repeat("x", catalog.MaxIDBytes)
	cat, err := catalog.New(catalog.Content{
		Welcome: "Привет",
		Notices: catalog.Notices{UnknownTopic: "?", StartFailed: "s", SendFailed: "f", Internal: "i"},
		Topics:  []catalog.TopicSource{{ID: id, Label: "Длинный", Text: "Текст"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	b, err := menu.NewBuilder(cat, menu.Options{Layout: menu.LayoutInline, MaxIDBytes: MaxTopicIDBytes})
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	btn := Markup(b.Build(), false).InlineKeyboard[0][0]
	data := "\f" + btn.Unique + "|" + btn.Data
	if len(data) > format.MaxCallbackData {
		t.Fatalf("callback data is %d bytes", len(data))
	}
}

func TestEventFromCallback(t *testing.T) {
	u := &tele.Update{Callback: &tele.Callback{
		ID:      "cb-1",
		Sender:  &tele.User{ID: 42},
		Message: &tele.Message{ID: 7, Chat: &tele.Chat{ID: 42}},
		Data:    "\ftopic|find_psy",
	}}
	ev, ok := EventFromUpdate(u)
	if !ok {
		t.Fatal("expected event")
	}
	sel, ok := ev.(dispatch.TopicSelected)
	if !ok {
		t.Fatalf("event %T", ev)
	}
	if sel.Ref.ID != "find_psy" || sel.Sender.UserID != 42 || sel.Callback.ID != "cb-1" {
		t.Fatalf("unexpected event %+v", sel)
	}
	if sel.Callback.Source == nil || sel.Callback.Source.MessageID != 7 {
		t.Fatalf("missing source %+v", sel.Callback)
	}
}

func TestEventFromLegacyCallback(t *testing.T) {
	ev, ok := EventFromUpdate(&tele.Update{Callback: &tele.Callback{
		ID: "cb", Sender: &tele.User{ID: 3}, Data: "hotline",
	}})
	if !ok {
		t.Fatal("expected event")
	}
	sel := ev.(dispatch.TopicSelected)
	if sel.Ref.ID != "hotline" || sel.Sender.ChatID != 3 || sel.Callback.Source != nil {
		t.Fatalf("unexpected event %+v", sel)
	}
}

func TestEventFromMessage(t *testing.T) {
	chat := &tele.Chat{ID: 42}
	from := &tele.User{ID: 42}
	cases := []struct {
		text  string
		kind  string
		label string
	}{
		{"/start", "start", ""},
		{"/start@helpbot", "start", ""},
		{"/start ref", "start", ""},
		{"☎️ Телефон доверия", "topic", "☎️ Телефон доверия"},
	}
	for _, tc := range cases {
		ev, ok := EventFromUpdate(&tele.Update{Message: &tele.Message{Text: tc.text, Chat: chat, Sender: from}})
		if !ok || ev.Kind() != tc.kind {
			t.Fatalf("%q: event %v ok=%v", tc.text, ev, ok)
		}
		if sel, isSel := ev.(dispatch.TopicSelected); isSel && sel.Ref.Label != tc.label {
			t.Fatalf("%q: label %q", tc.text, sel.Ref.Label)
		}
	}
	for _, text := range []string{"", "/help", "/startx"} {
		if _, ok := EventFromUpdate(&tele.Update{Message: &tele.Message{Text: text, Chat: chat, Sender: from}}); ok {
			t.Fatalf("%q must not produce an event", text)
		}
	}
	if _, ok := EventFromUpdate(&tele.Update{}); ok {
		t.Fatal("empty update must not produce an event")
	}
}
