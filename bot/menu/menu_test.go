package menu

import (
	"testing"

	"github.com/prostogovorite/helpbot/bot/catalog"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestBuildFollowsCatalogOrder(t *testing.T) {
	cat := testCatalog(t)
	b, err := NewBuilder(cat, Options{Layout: LayoutInline})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	m := b.Build()
	if m.Layout != LayoutInline {
		t.Fatalf("layout = %s", m.Layout)
	}
	if len(m.Rows) != len(cat.IDs()) {
		t.Fatalf("rows = %d, want one row per topic", len(m.Rows))
	}
	for i, btn := range m.Buttons() {
		topic := cat.Topics()[i]
		if btn.TopicID != topic.ID || btn.Label != topic.Label {
			t.Fatalf("button %d = %+v, want %s/%s", i, btn, topic.ID, topic.Label)
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	b, err := NewBuilder(testCatalog(t), Options{Layout: LayoutReply, PerRow: 2})
	if err != nil {
		t.Fatalf("builder: %v", err)
	}
	first := b.Build()
	first.Rows[0][0].Label = "mutated"
	second := b.Build()
	third := b.Build()
	if !second.Equal(third) {
		t.Fatal("consecutive builds differ")
	}
	if second.Rows[0][0].Label == "mutated" {
		t.Fatal("Build must return an independent copy")
	}
	if len(second.Rows) != 3 || len(second.Rows[2]) != 1 {
		t.Fatalf("unexpected reply layout %+v", second.Rows)
	}
}

func TestParseLayout(t *testing.T) {
	for raw, want := range map[string]Layout{"": LayoutInline, "Inline": LayoutInline, " reply ": LayoutReply} {
		got, err := ParseLayout(raw)
		if err != nil || got != want {
			t.Fatalf("ParseLayout(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseLayout("grid"); err == nil {
		t.Fatal("expected error for unknown layout")
	}
	if _, err := NewBuilder(testCatalog(t), Options{Layout: "grid"}); err == nil {
		t.Fatal("builder must reject unknown layout")
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	cat := testCatalog(t)
	m := Menu{Layout: LayoutInline, Rows: [][]Button{{{TopicID: "about", Label: "ℹ️"}}}}
	if err := verify(cat, m); err == nil {
		t.Fatal("expected error for unknown topic")
	}
	b, _ := NewBuilder(cat, Options{})
	partial := b.Build()
	partial.Rows = partial.Rows[:1]
	if err := verify(cat, partial); err == nil {
		t.Fatal("expected error for missing topics")
	}
}

func TestInlineIDsMustFitCallbackData(t *testing.T) {
	cat, err := catalog.New(catalog.Content{
		Welcome: "Привет",
		Notices: catalog.Notices{UnknownTopic: "?", StartFailed: "s", SendFailed: "f", Internal: "i"},
		Topics:  []catalog.TopicSource{{ID: "support_group_meetings", Label: "Группы", Text: "Текст"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if _, err := NewBuilder(cat, Options{Layout: LayoutInline, MaxIDBytes: 10}); err == nil {
		t.Fatal("inline layout must reject ids longer than the callback room")
	}
	if _, err := NewBuilder(cat, Options{Layout: LayoutReply, MaxIDBytes: 10}); err != nil {
		t.Fatalf("reply buttons carry labels, not ids: %v", err)
	}
	if _, err := NewBuilder(cat, Options{Layout: LayoutInline}); err != nil {
		t.Fatalf("zero limit disables the check: %v", err)
	}
}
