package version

import (
	"strings"
	"testing"
)

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit(full hash) = %q, want %q", got, "0123456")
	}
	if got := shortCommit("ab12"); got != "ab12" {
		t.Errorf("shortCommit(already short) = %q, want it untouched", got)
	}
}

func TestInfo(t *testing.T) {
	banner := Info()
	if !strings.HasPrefix(banner, "tessera ") {
		t.Errorf("Info() = %q, want the product name first", banner)
	}
	if !strings.Contains(banner, Version) {
		t.Errorf("Info() = %q, missing version %q", banner, Version)
	}
}
