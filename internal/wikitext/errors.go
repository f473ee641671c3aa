package wikitext

import (
	"errors"
	"fmt"
)

// DefaultMaxPasses bounds every fixpoint loop in this package.
const DefaultMaxPasses = 64

// ErrUnresolvedMarkup is matched by every *UnresolvedError.
var ErrUnresolvedMarkup = errors.New("unresolved markup")

// UnresolvedError reports a fixpoint loop that was stopped before it
// converged. The text returned alongside it is a usable partial result.
type UnresolvedError struct {
	Construct string // "wikilink" or "template"
	Passes    int
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%s: %s did not converge after %d passes", ErrUnresolvedMarkup, e.Construct, e.Passes)
}

func (e *UnresolvedError) Unwrap() error {
	return ErrUnresolvedMarkup
}

func maxPasses(n int) int {
	if n <= 0 {
		return DefaultMaxPasses
	}
	return n
}
