package common

import (
	"strings"
	"testing"
)

func TestApplyVersionFile(t *testing.T) {
	saved := [3]string{Version, Build, GitCommit}
	t.Cleanup(func() { Version, Build, GitCommit = saved[0], saved[1], saved[2] })

	Version, Build, GitCommit = "dev", "2026-10-01", "unknown"
	applyVersionFile(strings.NewReader("# release\nversion: 0.4.2\nbuild: ignored\nCommit: abc1234\nnonsense\n"))

	if Version != "0.4.2" {
		t.Errorf("Version = %q, want 0.4.2", Version)
	}
	if Build != "2026-10-01" {
		t.Errorf("Build = %q, ldflags value should win", Build)
	}
	if GitCommit != "abc1234" {
		t.Errorf("GitCommit = %q, want abc1234", GitCommit)
	}
}

func TestGetVersionInfo_IncludesGoVersion(t *testing.T) {
	if v := GetVersionInfo(); !strings.HasPrefix(v.GoVersion, "go") {
		t.Errorf("GoVersion = %q", v.GoVersion)
	}
}
