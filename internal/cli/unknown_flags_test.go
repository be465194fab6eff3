package cli

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestUnknownFlagReportsUsage(t *testing.T) {
	t.Parallel()
	for _, sub := range []string{"generate", "init"} {
		root := NewRootCmd()
		root.SetOut(io.Discard)
		root.SetErr(io.Discard)
		root.SetArgs([]string{sub, "--unknown-flag"})

		err := root.Execute()
		if err == nil {
			t.Fatalf("%s: expected error for unknown flag", sub)
		}
		if !errors.Is(err, ErrUsage) {
			t.Fatalf("%s: expected usage error, got %T: %v", sub, err, err)
		}
		if errors.Unwrap(err) == nil {
			t.Fatalf("%s: expected the flag parse error to stay reachable", sub)
		}
		if !strings.Contains(err.Error(), "unknown flag: --unknown-flag") || !strings.Contains(err.Error(), "swagger2ts "+sub) {
			t.Fatalf("%s: unexpected error text: %v", sub, err)
		}
	}
}
