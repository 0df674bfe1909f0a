package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = old[0], old[1], old[2] })
	Version, Commit, Date = "v1.2.3", "abc123", "2024-01-01"

	if got, want := Template(), "{{.Name}} version v1.2.3\ncommit: abc123\nbuilt: 2024-01-01\n"; got != want {
		t.Errorf("Template() = %q, want %q", got, want)
	}
	if !strings.Contains(String(), "commit: abc123") {
		t.Errorf("String() = %q", String())
	}
}
