// Package gateway adapts telebot to the dispatcher's Gateway interface.
package gateway

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/prostogovorite/helpbot/bot/catalog"
	"github.com/prostogovorite/helpbot/bot/dispatch"
	"github.com/prostogovorite/helpbot/bot/menu"
	"github.com/prostogovorite/helpbot/core/telegram/callbacks"
	"github.com/prostogovorite/helpbot/core/telegram/format"
	"github.com/prostogovorite/helpbot/core/telegram/keyboard"
	"github.com/prostogovorite/helpbot/core/telegram/sender"
)

// CallbackUnique is the telebot endpoint unique of topic buttons.
const CallbackUnique = "topic"

// MaxTopicIDBytes is the room left for the topic id in callback data,
// which telebot encodes as "\f<unique>|<id>".
const MaxTopicIDBytes = format.MaxCallbackData - len("\f"+CallbackUnique+"|")

// Every id the catalog accepts must fit a button.
const _ = uint(MaxTopicIDBytes - catalog.MaxIDBytes)

// API is the subset of *tele.Bot the gateway needs.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Telegram implements dispatch.Gateway on top of the Bot API.
type Telegram struct {
	api API
}

var _ dispatch.Gateway = (*Telegram)(nil)

// New wraps api.
func New(api API) (*Telegram, error) {
	if api == nil {
		return nil, errors.New("gateway: api is nil")
	}
	return &Telegram{api: api}, nil
}

// Send posts msg to chatID.
func (t *Telegram) Send(ctx context.Context, chatID int64, msg dispatch.OutboundMessage) (dispatch.MessageRef, error) {
	var sent *tele.Message
	err := sender.Do(ctx, "send", "sendMessage", func() error {
		m, err := t.api.Send(tele.ChatID(chatID), msg.Text, sendOptions(msg, false)...)
		sent = m
		return err
	})
	if err != nil {
		return dispatch.MessageRef{}, err
	}
	ref := dispatch.MessageRef{ChatID: chatID}
	if sent != nil {
		ref.MessageID = sent.ID
	}
	return ref, nil
}

// Edit replaces text and inline keyboard of ref. Editing a message into its
// current content is not an error.
func (t *Telegram) Edit(ctx context.Context, ref dispatch.MessageRef, msg dispatch.OutboundMessage) error {
	stored := tele.StoredMessage{MessageID: strconv.Itoa(ref.MessageID), ChatID: ref.ChatID}
	return sender.Do(ctx, "edit", "editMessageText", func() error {
		_, err := t.api.Edit(stored, msg.Text, sendOptions(msg, true)...)
		if IsNotModified(err) {
			return nil
		}
		return err
	})
}

// Acknowledge answers the callback query so the client stops the spinner.
func (t *Telegram) Acknowledge(ctx context.Context, callbackID string) error {
	return sender.Do(ctx, "ack", "answerCallbackQuery", func() error {
		return t.api.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{})
	})
}

// IsNotModified reports the Bot API refusal to edit a message into identical content.
func IsNotModified(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}

// sendOptions builds fresh options per call; telebot rewrites inline
// button data in place while sending.
func sendOptions(msg dispatch.OutboundMessage, edit bool) []interface{} {
	opts := &tele.SendOptions{ReplyMarkup: Markup(msg.Menu, edit)}
	if msg.Markup == dispatch.MarkupMarkdownV2 {
		opts.ParseMode = tele.ModeMarkdownV2
	}
	out := []interface{}{opts}
	if msg.DisablePreview {
		out = append(out, tele.NoPreview)
	}
	return out
}

// Markup renders m. Edited messages accept only inline keyboards, so reply
// layouts are dropped for edits.
func Markup(m menu.Menu, edit bool) *tele.ReplyMarkup {
	if m.IsZero() {
		return nil
	}
	switch m.Layout {
	case menu.LayoutReply:
		if edit {
			return nil
		}
		rows := make([][]string, len(m.Rows))
		for i, row := range m.Rows {
			for _, b := range row {
				rows[i] = append(rows[i], b.Label)
			}
		}
		return keyboard.ReplyButtons(rows...)
	default:
		rows := make([][]keyboard.InlineBtn, len(m.Rows))
		for i, row := range m.Rows {
			for _, b := range row {
				rows[i] = append(rows[i], keyboard.InlineBtn{Text: b.Label, Unique: CallbackUnique, Data: b.TopicID})
			}
		}
		return keyboard.InlineButtonsRows(rows...)
	}
}

// EventFromUpdate converts a raw update into a dispatcher event. It returns
// false for updates the bot does not react to.
func EventFromUpdate(u *tele.Update) (dispatch.Event, bool) {
	if u == nil {
		return nil, false
	}
	if cb := u.Callback; cb != nil {
		return eventFromCallback(cb)
	}
	if m := u.Message; m != nil {
		return eventFromMessage(m)
	}
	return nil, false
}

func eventFromCallback(cb *tele.Callback) (dispatch.Event, bool) {
	unique, payload := callbacks.Split(cb)
	id := payload
	if unique != CallbackUnique {
		// buttons posted before the "topic" endpoint carried the bare id
		id = unique
	}
	s := dispatch.Sender{}
	if cb.Sender != nil {
		s.UserID = cb.Sender.ID
		s.ChatID = cb.Sender.ID
	}
	meta := &dispatch.CallbackMeta{ID: cb.ID}
	if cb.Message != nil && cb.Message.Chat != nil {
		s.ChatID = cb.Message.Chat.ID
		meta.Source = &dispatch.MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID}
	}
	if s.ChatID == 0 {
		return nil, false
	}
	return dispatch.TopicSelected{Sender: s, Ref: dispatch.ByID(id), Callback: meta}, true
}

func eventFromMessage(m *tele.Message) (dispatch.Event, bool) {
	if m.Chat == nil {
		return nil, false
	}
	s := dispatch.Sender{ChatID: m.Chat.ID, UserID: m.Chat.ID}
	if m.Sender != nil {
		s.UserID = m.Sender.ID
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return nil, false
	}
	if isStart(text) {
		return dispatch.StartCommand{Sender: s}, true
	}
	if strings.HasPrefix(text, "/") {
		return nil, false
	}
	return dispatch.TopicSelected{Sender: s, Ref: dispatch.ByLabel(text)}, true
}

// isStart matches "/start", "/start@bot" and "/start payload".
func isStart(text string) bool {
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}
