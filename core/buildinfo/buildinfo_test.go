package buildinfo

import (
	"strings"
	"testing"
)

func TestInfoString(t *testing.T) {
	s := Info{Version: "v1.2.0", Commit: "abcdef0", GoVersion: "go1.24.0"}.String()
	for _, want := range []string{"helpbot v1.2.0", "commit abcdef0", "built unknown", "go1.24.0"} {
		if !strings.Contains(s, want) {
			t.Fatalf("%q missing %q", s, want)
		}
	}
}

func TestReadKeepsLdflags(t *testing.T) {
	prev := Version
	Version = "v9.9.9"
	defer func() { Version = prev }()
	if got := Read(); got.Version != "v9.9.9" || got.GoVersion == "" {
		t.Fatalf("info = %+v", got)
	}
}
