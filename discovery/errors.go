package discovery

import (
	"fmt"
	"strings"
)

// ScanErrors aggregates every error found while scanning, so a single pass
// reports all misplaced, malformed or duplicate markers of a tree.
type ScanErrors []error

func (e ScanErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors found:", len(e))
	for _, err := range e {
		sb.WriteString("\n\t")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (e ScanErrors) Unwrap() []error {
	return e
}

func (e ScanErrors) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// PositionError attaches a source position to a semantic error.
type PositionError struct {
	Pos string
	Err error
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Pos, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}
