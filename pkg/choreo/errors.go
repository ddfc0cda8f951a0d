package choreo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an action is not in the library.
	ErrNotFound = errors.New("action not found")

	// ErrUnknownJoint is reported for references to undeclared joints.
	ErrUnknownJoint = errors.New("unknown joint")

	// ErrUnknownDof is reported for references to undeclared dofs.
	ErrUnknownDof = errors.New("unknown dof")

	// ErrMalformed is reported for values of the wrong shape or kind.
	ErrMalformed = errors.New("malformed value")
)

// ParseError locates a bad value in a choreography document. Building
// continues past a ParseError so one pass reports every problem.
type ParseError struct {
	// Path is a dotted location such as "actions[2].joints[0].moves[1].interpolator".
	Path  string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %q: %v", e.Path, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseErrors extracts every ParseError from an error returned by Build.
func ParseErrors(err error) []*ParseError {
	var out []*ParseError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if pe, ok := err.(*ParseError); ok {
			out = append(out, pe)
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		walk(errors.Unwrap(err))
	}
	walk(err)
	return out
}
