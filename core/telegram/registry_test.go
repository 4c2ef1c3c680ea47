package telegram

import (
	"testing"

	"github.com/prostogovorite/helpbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func nopHandler(tele.Context) error { return nil }

func TestRegistryCommands(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/start", commands.Command{Handler: nopHandler, Description: "Открыть меню", Aliases: []string{"menu"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/debug", commands.Command{Handler: nopHandler, Description: "diag", Hidden: true}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/start", commands.Command{Handler: nopHandler, Description: "dup"}); err == nil {
		t.Fatalf("duplicate must be rejected")
	}
	if err := reg.RegisterCommand("start", commands.Command{Handler: nopHandler, Description: "x"}); err == nil {
		t.Fatalf("missing slash must be rejected")
	}
	if err := reg.RegisterCommand("/empty", commands.Command{Handler: nopHandler}); err == nil {
		t.Fatalf("missing description must be rejected")
	}

	visible := reg.ListCommands(true)
	if len(visible) != 1 || visible[0].Text != "start" || visible[0].Description != "Открыть меню" {
		t.Fatalf("visible commands = %+v", visible)
	}
	if all := reg.ListCommands(false); len(all) != 2 || all[0].Text != "debug" {
		t.Fatalf("all commands = %+v", all)
	}

	for _, name := range []string{"/start", "start", "/menu", "menu"} {
		key, _, ok := reg.LookupCommand(name)
		if !ok || key != "/start" {
			t.Fatalf("LookupCommand(%q) = %q %v", name, key, ok)
		}
	}
	if _, _, ok := reg.LookupCommand(""); ok {
		t.Fatalf("empty name must not resolve")
	}
}

func TestRegistryCallbacks(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("topic", nopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("topic", nopHandler); err == nil {
		t.Fatalf("duplicate callback must be rejected")
	}
	if err := reg.RegisterCallback("", nopHandler); err == nil {
		t.Fatalf("empty key must be rejected")
	}
	if _, ok := reg.GetCallback("topic"); !ok {
		t.Fatalf("callback not found")
	}
	if got := reg.ListCallbacks(); len(got) != 1 || got[0] != "topic" {
		t.Fatalf("callbacks = %v", got)
	}
	if reg.CallbackNotFound() == nil {
		t.Fatalf("default not-found handler missing")
	}
	reg.SetCallbackNotFound(nil)
	if reg.CallbackNotFound() == nil {
		t.Fatalf("nil must not replace the not-found handler")
	}
}
