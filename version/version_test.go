package version

import (
	"strings"
	"testing"
)

func TestGetUsesLdflagValues(t *testing.T) {
	oldV, oldC := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = oldV, oldC })

	Version, GitCommit = "1.4.0", "abc1234"
	info := Get()
	if info.Version != "1.4.0" || info.GitCommit != "abc1234" {
		t.Errorf("unexpected info %+v", info)
	}
	if !strings.HasPrefix(Short(), "1.4.0-abc1234") {
		t.Errorf("unexpected short version %q", Short())
	}
}
