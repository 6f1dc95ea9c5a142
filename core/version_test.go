package core

import (
	"strings"
	"testing"
)

func TestGetVersionInfo(t *testing.T) {
	oldV, oldB, oldC := Version, BuildTime, GitCommit
	defer func() { Version, BuildTime, GitCommit = oldV, oldB, oldC }()

	Version, BuildTime, GitCommit = "v1.2.3", "2026-01-02T03:04:05Z", "abc1234"

	want := "v1.2.3 (built 2026-01-02T03:04:05Z, commit abc1234)"
	if got := GetVersionInfo(); got != want {
		t.Errorf("GetVersionInfo() = %q, want %q", got, want)
	}
}

func TestGetVersionInfo_Defaults(t *testing.T) {
	if !strings.HasPrefix(GetVersionInfo(), Version+" ") {
		t.Errorf("GetVersionInfo() = %q, should start with %q", GetVersionInfo(), Version)
	}
}
