package dispatch

import (
	"context"

	"github.com/prostogovorite/helpbot/bot/menu"
)

// Sender identifies who triggered an event and where replies go.
// In private chats both ids are equal.
type Sender struct {
	UserID int64
	ChatID int64
}

// MessageRef points at a delivered message.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// CallbackMeta is present when a topic was chosen with an inline button.
type CallbackMeta struct {
	ID string
	// Source is the message the button was attached to, when known.
	Source *MessageRef
}

// TopicRef names a topic either by id (callback payload) or by the raw
// label of a reply keyboard button.
type TopicRef struct {
	ID    string
	Label string
}

// ByID references a topic by identifier.
func ByID(id string) TopicRef { return TopicRef{ID: id} }

// ByLabel references a topic by its button label.
func ByLabel(label string) TopicRef { return TopicRef{Label: label} }

// Event is an inbound interaction. Implemented by StartCommand and TopicSelected.
type Event interface {
	Kind() string
	From() Sender
}

// StartCommand asks for the welcome message and the menu.
type StartCommand struct {
	Sender Sender
}

func (StartCommand) Kind() string   { return "start" }
func (e StartCommand) From() Sender { return e.Sender }

// TopicSelected asks for a topic body.
type TopicSelected struct {
	Sender   Sender
	Ref      TopicRef
	Callback *CallbackMeta
}

func (TopicSelected) Kind() string   { return "topic" }
func (e TopicSelected) From() Sender { return e.Sender }

// Markup is the text dialect of an outbound message.
type Markup int

const (
	MarkupNone Markup = iota
	MarkupMarkdownV2
)

// OutboundMessage is a platform-neutral reply.
type OutboundMessage struct {
	Text           string
	Menu           menu.Menu
	Markup         Markup
	DisablePreview bool
}

// Gateway delivers replies to the messaging platform. Every method blocks
// until the platform answered.
type Gateway interface {
	Send(ctx context.Context, chatID int64, msg OutboundMessage) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, msg OutboundMessage) error
	Acknowledge(ctx context.Context, callbackID string) error
}
