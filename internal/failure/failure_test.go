package failure

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestErrorMessageIncludesDetails(t *testing.T) {
	err := &Error{
		Kind:    InstallFailure,
		Message: "package install failed",
		Command: "npm install --no-audit",
		Err:     errors.New("exit status 1"),
	}
	msg := err.Error()
	for _, want := range []string{"package install failed", "npm install --no-audit", "exit status 1"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
}

func TestErrorListsReasons(t *testing.T) {
	err := &Error{Kind: InvalidProjectName, Message: "bad name", Reasons: []string{"a", "b"}}
	if got := err.Error(); !strings.Contains(got, "\n  * a") || !strings.Contains(got, "\n  * b") {
		t.Fatalf("reasons missing from %q", got)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	base := New(PathAlreadyExists, "target exists")
	wrapped := fmt.Errorf("create: %w", base)
	if !IsKind(wrapped, PathAlreadyExists) {
		t.Fatalf("expected PathAlreadyExists through wrapping")
	}
	if IsKind(wrapped, TemplateNotFound) {
		t.Fatalf("unexpected kind match")
	}
	if !errors.Is(wrapped, &Error{Kind: PathAlreadyExists}) {
		t.Fatalf("errors.Is should match a bare kind target")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(TemplateNotFound, os.ErrNotExist, "read manifest")
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped cause to be reachable")
	}
	if Wrap(TemplateNotFound, nil, "noop") != nil {
		t.Fatalf("wrapping nil should yield nil")
	}
}

func TestFatal(t *testing.T) {
	cases := map[Kind]bool{
		InvalidProjectName:        true,
		PathAlreadyExists:         true,
		UnsupportedRuntimeVersion: true,
		RegistryFetchError:        false,
		ArchiveExtractionError:    false,
		TemplateNotFound:          true,
		InstallFailure:            true,
	}
	for kind, want := range cases {
		if got := Fatal(kind); got != want {
			t.Fatalf("Fatal(%s) = %v, want %v", kind, got, want)
		}
	}
}
