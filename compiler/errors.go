package compiler

import "fmt"

// InternalError reports a compiler invariant violation: an AST node shape
// the parser should never have produced. It should never surface to a user
// in practice, hence the distinct symbol from a SyntaxError.
type InternalError struct {
	Message string
}

func (e InternalError) Error() string {
	return fmt.Sprintf("🤖 InternalError: %s", e.Message)
}
