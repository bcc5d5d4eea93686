// Package failure defines the error taxonomy for a project creation run.
// Stages return *Error values tagged with a Kind. Metadata resolution
// degrades on kinds that are not Fatal, every other kind aborts the run, and
// the CLI maps kinds to hints.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags a failure with its place in the taxonomy.
type Kind string

const (
	InvalidProjectName        Kind = "InvalidProjectName"
	PathAlreadyExists         Kind = "PathAlreadyExists"
	UnsupportedRuntimeVersion Kind = "UnsupportedRuntimeVersion"
	RegistryFetchError        Kind = "RegistryFetchError"
	ArchiveExtractionError    Kind = "ArchiveExtractionError"
	TemplateNotFound          Kind = "TemplateNotFound"
	InstallFailure            Kind = "InstallFailure"
)

// Fatal reports whether a failure of this kind terminates the creation.
// Registry and archive failures only degrade metadata resolution.
func Fatal(kind Kind) bool {
	switch kind {
	case RegistryFetchError, ArchiveExtractionError:
		return false
	default:
		return true
	}
}

// Error is the single concrete failure type.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Command string
	Reasons []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(string(e.Kind))
	}
	if e.Path != "" {
		fmt.Fprintf(&b, ": %s", e.Path)
	}
	if e.Command != "" {
		fmt.Fprintf(&b, " (command: %s)", e.Command)
	}
	for _, reason := range e.Reasons {
		fmt.Fprintf(&b, "\n  * %s", reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error of the same kind, so a bare &Error{Kind: k}
// works as a target for errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Kind == e.Kind && other.Message == "" && other.Path == "" && other.Err == nil
}

// New returns a failure of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags err with kind. A nil err yields nil.
func Wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) && fe != nil {
		return fe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a failure of the given kind.
func IsKind(err error, kind Kind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}
