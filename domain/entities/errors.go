package entities

import (
	"errors"
	"fmt"
)

// Error kinds of element resolution. Use errors.Is to classify.
var (
	// ErrNotFound is transient and the only kind the retry policy retries.
	ErrNotFound = errors.New("element not found")

	ErrAmbiguousMatch        = errors.New("ambiguous match")
	ErrIndexOutOfRange       = errors.New("index out of range")
	ErrUnsupportedScope      = errors.New("unsupported scope")
	ErrUnsupportedConversion = errors.New("unsupported selector conversion")
	ErrNotVisible            = errors.New("element not visible")

	// ErrInvalidNode marks malformed descriptors (empty identifier, bad frame index).
	ErrInvalidNode = errors.New("invalid identity node")
)

// ErrMissingAnchor is returned by sibling and ancestor lookups without a root.
var ErrMissingAnchor = fmt.Errorf("%w: scope requires an anchor element", ErrUnsupportedScope)

// LookupError carries the descriptor a failure belongs to
type LookupError struct {
	Op         string
	Strategy   Strategy
	Identifier string
	Scope      Scope
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s %s=%q (%s): %v", e.Op, e.Strategy, e.Identifier, e.Scope, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError - wraps err with the node it occurred on
func NewLookupError(op string, node IdentityNode, err error) error {
	if err == nil {
		return nil
	}
	var le *LookupError
	if errors.As(err, &le) {
		return err
	}
	return &LookupError{
		Op:         op,
		Strategy:   node.Strategy,
		Identifier: node.Identifier,
		Scope:      node.Scope,
		Err:        err,
	}
}

// IsTransient reports whether err may go away on retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrNotFound)
}
