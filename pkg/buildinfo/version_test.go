package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetPrefersLdflags(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-01T00:00:00Z"

	got := Get()
	if got.Version != "v1.2.3" || got.Commit != "abc123" || got.Date != "2026-01-01T00:00:00Z" {
		t.Errorf("Get() = %+v", got)
	}
	if got.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", got.GoVersion)
	}
}

func TestTemplate(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = "v0.9.0"

	if tmpl := Template(); !strings.HasPrefix(tmpl, "{{.Name}} version v0.9.0\n") {
		t.Errorf("Template() = %q", tmpl)
	}
	if s := String(); !strings.Contains(s, "version: v0.9.0") {
		t.Errorf("String() = %q", s)
	}
}
