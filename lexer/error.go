package lexer

import "fmt"

// SyntaxError is raised for any input the lexer cannot tokenize: an
// unrecognised character, a malformed number literal, or indentation that
// doesn't line up with an open level.
type SyntaxError struct {
	Line    int32
	Column  int
	Message string
}

func CreateSyntaxError(line int32, column int, message string) SyntaxError {
	return SyntaxError{
		Line:    line,
		Column:  column,
		Message: message,
	}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 syntax error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}
