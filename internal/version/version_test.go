package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	prev := Version
	Version = "1.2.0"
	defer func() { Version = prev }()

	out := String()
	if !strings.HasPrefix(out, "billadvisor 1.2.0\n") {
		t.Fatalf("unexpected version line: %q", out)
	}
	if !strings.Contains(out, "commit: "+Commit) {
		t.Fatalf("missing commit in %q", out)
	}
}
