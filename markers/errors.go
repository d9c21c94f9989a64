package markers

import (
	"errors"
	"fmt"
	"go/token"
	"strings"
)

// MisplacedMarkerError reports a registered marker applied to a construct its
// definition does not allow.
type MisplacedMarkerError struct {
	Name     string
	Found    TargetType
	Allowed  TargetType
	Position token.Position
}

func (e *MisplacedMarkerError) Error() string {
	return fmt.Sprintf("%s: marker +%s is only valid on a %s, found on a %s", e.Position, e.Name, e.Allowed, e.Found)
}

// MarkerSyntaxError reports a registered marker whose arguments cannot be parsed.
type MarkerSyntaxError struct {
	Name     string
	Text     string
	Position token.Position
	Err      error
}

func (e *MarkerSyntaxError) Error() string {
	return fmt.Sprintf("%s: invalid marker %q: %v", e.Position, e.Text, e.Err)
}

func (e *MarkerSyntaxError) Unwrap() error {
	return e.Err
}

// Errors aggregates every marker error found in a pass.
type Errors []error

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

func (e Errors) Unwrap() []error {
	return e
}

// ErrOrNil returns nil for an empty list.
func (e Errors) ErrOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func IsMisplacedMarkerErr(err error) bool {
	var misplaced *MisplacedMarkerError
	return errors.As(err, &misplaced)
}

func IsMarkerSyntaxErr(err error) bool {
	var syntaxErr *MarkerSyntaxError
	return errors.As(err, &syntaxErr)
}
