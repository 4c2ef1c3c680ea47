// Package catalog holds the immutable bot content: topics, welcome text,
// optional preamble and the plain-text notices used on failures.
package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/prostogovorite/helpbot/core/logger"
	"github.com/prostogovorite/helpbot/core/telegram/format"
)

//go:embed content.yaml
var defaultContent []byte

// Topic is a single menu entry.
type Topic struct {
	ID    string
	Label string
	// Body is MarkdownV2, already escaped.
	Body string
}

// Notices are plain-text messages sent when a normal response is not possible.
type Notices struct {
	UnknownTopic string `yaml:"unknown_topic"`
	StartFailed  string `yaml:"start_failed"`
	SendFailed   string `yaml:"send_failed"`
	Internal     string `yaml:"internal"`
}

// TopicSource is the file representation of a topic. Exactly one of Body
// (MarkdownV2) or Text (plain, escaped on load) must be set.
type TopicSource struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Body  string `yaml:"body"`
	Text  string `yaml:"text"`
}

// Content is the raw content document before validation.
type Content struct {
	Commands map[string]string `yaml:"commands"`
	Welcome  string            `yaml:"welcome"`
	Preamble string            `yaml:"preamble"`
	Notices  Notices           `yaml:"notices"`
	Topics   []TopicSource     `yaml:"topics"`
}

// ConfigError reports invalid content. It is fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("catalog: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MaxIDBytes caps topic ids. Inline buttons carry the id inside callback
// data, which the Bot API limits to 64 bytes together with the route prefix.
const MaxIDBytes = 48

var (
	errEmpty     = errors.New("must not be empty")
	errDuplicate = errors.New("duplicate value")
	errTooLong   = fmt.Errorf("exceeds %d characters", format.MaxMessageLength)
)

// Catalog is safe for concurrent use; it is never mutated after New.
type Catalog struct {
	welcome  string
	preamble string
	notices  Notices
	commands map[string]string
	topics   []Topic
	byID     map[string]int
	byLabel  map[string]string
}

// New validates c and builds a Catalog.
func New(c Content) (*Catalog, error) {
	if len(c.Topics) == 0 {
		return nil, &ConfigError{Field: "topics", Err: errEmpty}
	}
	cat := &Catalog{
		welcome:  c.Welcome,
		preamble: strings.TrimSpace(c.Preamble),
		notices:  c.Notices,
		commands: make(map[string]string, len(c.Commands)),
		topics:   make([]Topic, 0, len(c.Topics)),
		byID:     make(map[string]int, len(c.Topics)),
		byLabel:  make(map[string]string, len(c.Topics)),
	}
	if err := checkMarkdown("welcome", c.Welcome, true); err != nil {
		return nil, err
	}
	if err := checkMarkdown("preamble", cat.preamble, false); err != nil {
		return nil, err
	}
	notices := [...]struct{ field, text string }{
		{"notices.unknown_topic", c.Notices.UnknownTopic},
		{"notices.start_failed", c.Notices.StartFailed},
		{"notices.send_failed", c.Notices.SendFailed},
		{"notices.internal", c.Notices.Internal},
	}
	for _, n := range notices {
		if strings.TrimSpace(n.text) == "" {
			return nil, &ConfigError{Field: n.field, Err: errEmpty}
		}
		if !format.FitsMessage(n.text) {
			return nil, &ConfigError{Field: n.field, Err: errTooLong}
		}
	}
	for name, desc := range c.Commands {
		name = strings.TrimPrefix(strings.TrimSpace(name), "/")
		if name == "" || strings.TrimSpace(desc) == "" {
			return nil, &ConfigError{Field: "commands", Err: errEmpty}
		}
		cat.commands[name] = strings.TrimSpace(desc)
	}

	for i, src := range c.Topics {
		field := fmt.Sprintf("topics[%d]", i)
		t, err := buildTopic(field, src)
		if err != nil {
			return nil, err
		}
		if _, dup := cat.byID[t.ID]; dup {
			return nil, &ConfigError{Field: field + ".id", Err: fmt.Errorf("%w %q", errDuplicate, t.ID)}
		}
		if _, dup := cat.byLabel[t.Label]; dup {
			return nil, &ConfigError{Field: field + ".label", Err: fmt.Errorf("%w %q", errDuplicate, t.Label)}
		}
		cat.byID[t.ID] = len(cat.topics)
		cat.byLabel[t.Label] = t.ID
		cat.topics = append(cat.topics, t)
	}
	return cat, nil
}

func buildTopic(field string, src TopicSource) (Topic, error) {
	t := Topic{ID: strings.TrimSpace(src.ID), Label: strings.TrimSpace(src.Label)}
	if t.ID == "" {
		return t, &ConfigError{Field: field + ".id", Err: errEmpty}
	}
	if len(t.ID) > MaxIDBytes {
		return t, &ConfigError{Field: field + ".id", Err: fmt.Errorf("%q exceeds %d bytes", t.ID, MaxIDBytes)}
	}
	if t.Label == "" {
		return t, &ConfigError{Field: field + ".label", Err: errEmpty}
	}
	switch {
	case src.Body != "" && src.Text != "":
		return t, &ConfigError{Field: field, Err: errors.New("body and text are mutually exclusive")}
	case src.Text != "":
		t.Body = format.EscapeMarkdownV2(strings.TrimSpace(src.Text))
	default:
		t.Body = src.Body
	}
	if err := checkMarkdown(field+".body", t.Body, true); err != nil {
		return t, err
	}
	return t, nil
}

func checkMarkdown(field, text string, required bool) error {
	if strings.TrimSpace(text) == "" {
		if required {
			return &ConfigError{Field: field, Err: errEmpty}
		}
		return nil
	}
	if !format.FitsMessage(text) {
		return &ConfigError{Field: field, Err: errTooLong}
	}
	if err := format.ValidateMarkdownV2(text); err != nil {
		return &ConfigError{Field: field, Err: err}
	}
	return nil
}

// Parse decodes a YAML content document and validates it.
func Parse(data []byte) (*Catalog, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &ConfigError{Field: "yaml", Err: err}
	}
	return New(c)
}

// Default returns the catalog built from the embedded content.
func Default() (*Catalog, error) {
	return Parse(defaultContent)
}

// Load reads content from path, or the embedded content when path is empty.
func Load(ctx context.Context, path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	source := "embedded"
	data := defaultContent
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		data = raw
		source = path
	}
	cat, err := Parse(data)
	if err != nil {
		logger.Error(ctx, logger.CompCatalog, "catalog.invalid",
			slog.String("source", source),
			slog.String("err", err.Error()),
		)
		return nil, err
	}
	logger.Info(ctx, logger.CompCatalog, "catalog.loaded",
		slog.String("source", source),
		slog.Int("topics", len(cat.topics)),
		slog.Bool("preamble", cat.preamble != ""),
	)
	return cat, nil
}

// Lookup returns the MarkdownV2 body for id.
func (c *Catalog) Lookup(id string) (string, bool) {
	i, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.topics[i].Body, true
}

// ResolveLabel maps a button label back to its topic id.
func (c *Catalog) ResolveLabel(label string) (string, bool) {
	id, ok := c.byLabel[strings.TrimSpace(label)]
	return id, ok
}

// Topics returns topics in declared order. The slice is a copy.
func (c *Catalog) Topics() []Topic {
	return append([]Topic(nil), c.topics...)
}

// IDs returns topic ids in declared order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.topics))
	for i, t := range c.topics {
		ids[i] = t.ID
	}
	return ids
}

func (c *Catalog) Welcome() string  { return c.welcome }
func (c *Catalog) Preamble() string { return c.preamble }
func (c *Catalog) Notices() Notices { return c.notices }

// CheckPreamble verifies that every topic body still fits one message
// once the preamble is prepended to it.
func (c *Catalog) CheckPreamble() error {
	if c.preamble == "" {
		return nil
	}
	for i, t := range c.topics {
		if !format.FitsMessage(WithPreamble(c.preamble, t.Body)) {
			return &ConfigError{
				Field: fmt.Sprintf("topics[%d].body", i),
				Err:   fmt.Errorf("with preamble %w", errTooLong),
			}
		}
	}
	return nil
}

// WithPreamble joins a preamble and a topic body the way replies carry them.
func WithPreamble(preamble, body string) string {
	if preamble == "" {
		return body
	}
	return preamble + "\n\n" + body
}

// CommandDescription returns the menu description for a bot command, without
// the leading slash.
func (c *Catalog) CommandDescription(name string) string {
	return c.commands[strings.TrimPrefix(name, "/")]
}
