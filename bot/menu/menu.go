// Package menu builds the topic menu shown with every bot reply.
package menu

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prostogovorite/helpbot/bot/catalog"
	"github.com/prostogovorite/helpbot/core/telegram/keyboard"
)

// Layout selects how the menu is rendered by the messaging platform.
type Layout string

const (
	// LayoutInline attaches callback buttons carrying topic ids.
	LayoutInline Layout = "inline"
	// LayoutReply shows a persistent keyboard whose buttons send their labels.
	LayoutReply Layout = "reply"
)

// ParseLayout accepts "inline" or "reply"; empty means inline.
func ParseLayout(raw string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LayoutInline:
		return LayoutInline, nil
	case LayoutReply:
		return LayoutReply, nil
	}
	return "", fmt.Errorf("menu: unknown layout %q", raw)
}

// Button is one menu entry.
type Button struct {
	TopicID string
	Label   string
}

// Menu is a platform-neutral keyboard description.
type Menu struct {
	Layout Layout
	Rows   [][]Button
}

// Buttons flattens rows in display order.
func (m Menu) Buttons() []Button {
	var out []Button
	for _, row := range m.Rows {
		out = append(out, row...)
	}
	return out
}

// IsZero reports whether the menu has no buttons.
func (m Menu) IsZero() bool {
	return len(m.Buttons()) == 0
}

// Equal compares layout and rows.
func (m Menu) Equal(o Menu) bool {
	if m.Layout != o.Layout || len(m.Rows) != len(o.Rows) {
		return false
	}
	for i := range m.Rows {
		if !slices.Equal(m.Rows[i], o.Rows[i]) {
			return false
		}
	}
	return true
}

func (m Menu) clone() Menu {
	rows := make([][]Button, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = slices.Clone(row)
	}
	return Menu{Layout: m.Layout, Rows: rows}
}

// Options control the rendered shape.
type Options struct {
	Layout Layout
	// PerRow is the number of buttons per row; values below 1 mean 1.
	PerRow int
	// MaxIDBytes is the longest topic id an inline button can carry.
	// Zero disables the check.
	MaxIDBytes int
}

// Builder produces the same Menu on every call.
type Builder struct {
	menu Menu
}

// NewBuilder lays out every catalog topic in declared order. It fails when
// a button does not resolve back to its catalog topic.
func NewBuilder(cat *catalog.Catalog, opts Options) (*Builder, error) {
	if cat == nil {
		return nil, fmt.Errorf("menu: catalog is nil")
	}
	layout, err := ParseLayout(string(opts.Layout))
	if err != nil {
		return nil, err
	}
	topics := cat.Topics()
	buttons := make([]Button, 0, len(topics))
	for _, t := range topics {
		buttons = append(buttons, Button{TopicID: t.ID, Label: t.Label})
	}
	if layout == LayoutInline && opts.MaxIDBytes > 0 {
		for _, b := range buttons {
			if len(b.TopicID) > opts.MaxIDBytes {
				return nil, fmt.Errorf("menu: topic id %q exceeds %d bytes of callback data", b.TopicID, opts.MaxIDBytes)
			}
		}
	}
	m := Menu{Layout: layout, Rows: keyboard.Chunk(buttons, opts.PerRow)}
	if err := verify(cat, m); err != nil {
		return nil, err
	}
	return &Builder{menu: m}, nil
}

func verify(cat *catalog.Catalog, m Menu) error {
	seen := make(map[string]struct{})
	for _, b := range m.Buttons() {
		if _, ok := cat.Lookup(b.TopicID); !ok {
			return fmt.Errorf("menu: button %q has no catalog topic", b.TopicID)
		}
		if id, ok := cat.ResolveLabel(b.Label); !ok || id != b.TopicID {
			return fmt.Errorf("menu: label %q does not resolve to %q", b.Label, b.TopicID)
		}
		seen[b.TopicID] = struct{}{}
	}
	for _, id := range cat.IDs() {
		if _, ok := seen[id]; !ok {
			return fmt.Errorf("menu: catalog topic %q has no button", id)
		}
	}
	return nil
}

// Build returns a copy of the menu, so callers may not alter shared state.
func (b *Builder) Build() Menu {
	return b.menu.clone()
}
