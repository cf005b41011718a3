package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestLdflagsWin(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := UserAgent(); !strings.HasPrefix(got, "memeforge/v1.2.3 ") {
		t.Errorf("UserAgent() = %q, want memeforge/v1.2.3 prefix", got)
	}
	if !strings.Contains(Template(), "v1.2.3") {
		t.Errorf("Template() = %q, want version", Template())
	}
}

func TestFillFromBuildSettings(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}

	got := fill(Info{Version: "dev", Commit: "none", Date: "unknown"}, bi)
	want := Info{Version: "v0.4.0", Commit: "abc123", Date: "2026-01-02T03:04:05Z"}
	if got != want {
		t.Errorf("fill() = %+v, want %+v", got, want)
	}

	set := Info{Version: "v1.0.0", Commit: "deadbeef", Date: "today"}
	if got := fill(set, bi); got != set {
		t.Errorf("fill() overrode ldflags: %+v", got)
	}

	bi.Main.Version = "(devel)"
	if got := fill(Info{Version: "dev"}, bi); got.Version != "dev" {
		t.Errorf("Version = %q, want dev for devel builds", got.Version)
	}
}
