// Recursive descent parser
// https://en.wikipedia.org/wiki/Recursive_descent_parser
//
// A recursive descent parser is a top-down parser because it starts from
// the top grammar rule and works its way down into the nested
// sub-expressions before reaching the leaves of the syntax tree (terminal
// rules).
package parser

import (
	"fmt"
	"indentlang/ast"
	"indentlang/token"
)

var termTokenTypes = []token.TokenType{
	token.PLUS,
	token.MINUS,
}

var factorTokenTypes = []token.TokenType{
	token.MUL,
	token.DIV,
	token.MOD,
}

type Parser struct {
	tokens   []token.Token
	position int
}

// NOTE: The parser's position indexes the current (not yet consumed)
// token; previous() returns the token consumed just before it

// Make initializes and returns a new Parser instance.
//
// Parameters:
//   - tokens: []token.Token
//     The tokens created by the lexer.
//
// Returns:
//   - *Parser: A pointer to a newly created Parser instance.
func Make(tokens []token.Token) *Parser {
	return &Parser{
		tokens:   tokens,
		position: 0,
	}
}

// peek returns the token at the parser's current position, without
// advancing the parser's position.
func (parser *Parser) peek() token.Token {
	return parser.tokens[parser.position]
}

// peekAt returns the token `offset` positions ahead of the parser's current
// position, without advancing the parser's position. An offset past the end
// of the token stream returns the final EOF token.
func (parser *Parser) peekAt(offset int) token.Token {
	index := parser.position + offset
	if index >= len(parser.tokens) {
		index = len(parser.tokens) - 1
	}
	return parser.tokens[index]
}

// previous retrieves the token at the parser's previous position
// (position - 1).
func (parser *Parser) previous() token.Token {
	return parser.tokens[parser.position-1]
}

// advance increments the parser's position by one unit and consumes the
// current token.
//
// Returns:
//   - token.Token: The token at the previous position
func (parser *Parser) advance() token.Token {
	if !parser.isFinished() {
		parser.position++
	}
	return parser.previous()
}

// isFinished determines if the parser has consumed all the tokens.
func (parser *Parser) isFinished() bool {
	return parser.peek().TokenType == token.EOF
}

// checkType determines if the provided tokenType matches the TokenType at
// the parser's current position.
func (parser *Parser) checkType(tokenType token.TokenType) bool {
	if parser.isFinished() {
		return tokenType == token.EOF
	}
	return parser.peek().TokenType == tokenType
}

// isMatch determines if the TokenType at the current position matches any
// of the provided tokenTypes. If a match is found the parser advances past
// the current token.
func (parser *Parser) isMatch(tokenTypes []token.TokenType) bool {
	for _, tokenType := range tokenTypes {
		if parser.checkType(tokenType) {
			parser.advance()
			return true
		}
	}
	return false
}

// consume advances past the current token if its type matches tokenType,
// otherwise it returns a SyntaxError built from errorMessage.
func (parser *Parser) consume(tokenType token.TokenType, errorMessage string) (token.Token, error) {
	if parser.checkType(tokenType) {
		return parser.advance(), nil
	}
	current := parser.peek()
	return token.Token{}, CreateSyntaxError(current.Line, current.Column, errorMessage)
}

// Parse parses the entire token stream into an ast.Program, continuing
// until the end of input. Errors during parsing are collected but parsing
// continues, skipping to the next statement boundary, to find additional
// errors where possible.
//
// Returns:
//   - ast.Program: the successfully parsed program.
//   - []error: all errors that occurred during parsing.
func (parser *Parser) Parse() (ast.Program, []error) {
	statements := []ast.Stmt{}
	errs := []error{}

	for !parser.isFinished() {
		stmt, err := parser.statement()
		if err != nil {
			errs = append(errs, err)
			parser.synchronize()
			continue
		}
		statements = append(statements, stmt)
	}

	return ast.Program{Body: statements}, errs
}

// synchronize discards tokens until it reaches a plausible statement
// boundary (NEWLINE, DEDENT or EOF), so parsing can recover after a syntax
// error and keep looking for further errors.
func (parser *Parser) synchronize() {
	for !parser.isFinished() {
		tokenType := parser.peek().TokenType
		if tokenType == token.NEWLINE || tokenType == token.DEDENT {
			parser.advance()
			return
		}
		parser.advance()
	}
}

// statement parses a single statement: a conditional, or a simple
// (assignment / bare expression) statement terminated by a NEWLINE.
func (parser *Parser) statement() (ast.Stmt, error) {
	if parser.checkType(token.IF) {
		return parser.ifStatement(token.IF)
	}
	return parser.simpleStatement()
}

// body parses the suite of statements making up an indented block,
// stopping at the matching DEDENT.
func (parser *Parser) body() (ast.Body, error) {
	statements := []ast.Stmt{}
	for !parser.checkType(token.DEDENT) && !parser.isFinished() {
		stmt, err := parser.statement()
		if err != nil {
			return ast.Body{}, err
		}
		statements = append(statements, stmt)
	}
	return ast.Body{Statements: statements}, nil
}

// ifStatement parses an `if`/`elif`/`else` form. `keyword` is either IF (for
// the outermost header) or ELIF (when called recursively to parse an elif
// clause). An elif clause is desugared into a Conditional nested inside the
// enclosing Conditional's Orelse, so the compiler only needs to lower one
// shape.
func (parser *Parser) ifStatement(keyword token.TokenType) (ast.Stmt, error) {
	if _, err := parser.consume(keyword, fmt.Sprintf("expected '%s'", keyword)); err != nil {
		return nil, err
	}

	condition, err := parser.expression()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.COLON, "expected ':'"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.NEWLINE, "expected a newline"); err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.INDENT, "expected an indented block"); err != nil {
		return nil, err
	}
	body, err := parser.body()
	if err != nil {
		return nil, err
	}
	if _, err := parser.consume(token.DEDENT, "expected a dedent"); err != nil {
		return nil, err
	}

	var orelse ast.Body
	switch {
	case parser.checkType(token.ELIF):
		nested, err := parser.ifStatement(token.ELIF)
		if err != nil {
			return nil, err
		}
		orelse = ast.Body{Statements: []ast.Stmt{nested}}
	case parser.isMatch([]token.TokenType{token.ELSE}):
		if _, err := parser.consume(token.COLON, "expected ':'"); err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.NEWLINE, "expected a newline"); err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.INDENT, "expected an indented block"); err != nil {
			return nil, err
		}
		orelse, err = parser.body()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.DEDENT, "expected a dedent"); err != nil {
			return nil, err
		}
	}

	return ast.Conditional{Condition: condition, Body: body, Orelse: orelse}, nil
}

// simpleStatement parses a statement that is either a chained assignment
// or a bare expression, terminated by a NEWLINE.
func (parser *Parser) simpleStatement() (ast.Stmt, error) {
	expr, err := parser.expression()
	if err != nil {
		return nil, err
	}

	if parser.checkType(token.ASSIGN) {
		stmt, err := parser.assignment(expr)
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.NEWLINE, "expected a newline"); err != nil {
			return nil, err
		}
		return stmt, nil
	}

	if _, err := parser.consume(token.NEWLINE, "expected a newline"); err != nil {
		return nil, err
	}
	return ast.ExprStatement{Expression: expr}, nil
}

// assignment parses the target list of a chained assignment
// (`a = b = c = expr`), having already parsed `first` as the leading
// target. Every target but the final right-hand side must be a bare
// Variable.
func (parser *Parser) assignment(first ast.Expr) (ast.Stmt, error) {
	target, ok := first.(ast.Variable)
	if !ok {
		equals := parser.peek()
		return nil, CreateSyntaxError(equals.Line, equals.Column, "invalid assignment target")
	}
	targets := []ast.Variable{target}

	for parser.isMatch([]token.TokenType{token.ASSIGN}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if parser.checkType(token.ASSIGN) {
			next, ok := expr.(ast.Variable)
			if !ok {
				equals := parser.peek()
				return nil, CreateSyntaxError(equals.Line, equals.Column, "invalid assignment target")
			}
			targets = append(targets, next)
			continue
		}
		return ast.Assignment{Targets: targets, Value: expr}, nil
	}

	// unreachable: the loop above always returns once it parses a value
	// that is not itself followed by another '='.
	equals := parser.peek()
	return nil, CreateSyntaxError(equals.Line, equals.Column, "invalid assignment")
}

// expression is the entry point for parsing expressions, starting at the
// lowest-precedence rule (logical `or`).
func (parser *Parser) expression() (ast.Expr, error) {
	return parser.alternative()
}

// alternative parses a (possibly empty) run of `or`-joined conjunctions,
// flattening them into a single N-ary BoolOp rather than a chain of
// nested binary nodes.
func (parser *Parser) alternative() (ast.Expr, error) {
	first, err := parser.conjunction()
	if err != nil {
		return nil, err
	}
	values := []ast.Expr{first}
	for parser.isMatch([]token.TokenType{token.OR}) {
		next, err := parser.conjunction()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return ast.BoolOp{Operator: ast.Or, Values: values}, nil
}

// conjunction parses a run of `and`-joined negations, flattened the same
// way as alternative does for `or`.
func (parser *Parser) conjunction() (ast.Expr, error) {
	first, err := parser.negation()
	if err != nil {
		return nil, err
	}
	values := []ast.Expr{first}
	for parser.isMatch([]token.TokenType{token.AND}) {
		next, err := parser.negation()
		if err != nil {
			return nil, err
		}
		values = append(values, next)
	}
	if len(values) == 1 {
		return values[0], nil
	}
	return ast.BoolOp{Operator: ast.And, Values: values}, nil
}

// negation parses `not` applied to another negation, or falls through to
// arithmetic computation.
func (parser *Parser) negation() (ast.Expr, error) {
	if parser.isMatch([]token.TokenType{token.NOT}) {
		operand, err := parser.negation()
		if err != nil {
			return nil, err
		}
		return ast.Not{Operand: operand}, nil
	}
	return parser.computation()
}

// computation parses left-associative addition and subtraction.
func (parser *Parser) computation() (ast.Expr, error) {
	left, err := parser.term()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(termTokenTypes) {
		operatorToken := parser.previous()
		right, err := parser.term()
		if err != nil {
			return nil, err
		}
		operator := ast.Add
		if operatorToken.TokenType == token.MINUS {
			operator = ast.Sub
		}
		left = ast.BinOp{Left: left, Operator: operator, Right: right}
	}
	return left, nil
}

// term parses left-associative multiplication, division and modulo.
func (parser *Parser) term() (ast.Expr, error) {
	left, err := parser.unary()
	if err != nil {
		return nil, err
	}
	for parser.isMatch(factorTokenTypes) {
		operatorToken := parser.previous()
		right, err := parser.unary()
		if err != nil {
			return nil, err
		}
		var operator ast.Operator
		switch operatorToken.TokenType {
		case token.MUL:
			operator = ast.Mul
		case token.DIV:
			operator = ast.Div
		default:
			operator = ast.Mod
		}
		left = ast.BinOp{Left: left, Operator: operator, Right: right}
	}
	return left, nil
}

// unary parses a prefix `+` or `-` sign, recursing so that signs can stack
// (e.g. `--x`), or falls through to exponentiation.
func (parser *Parser) unary() (ast.Expr, error) {
	if parser.checkType(token.PLUS) || parser.checkType(token.MINUS) {
		operatorToken := parser.advance()
		operand, err := parser.unary()
		if err != nil {
			return nil, err
		}
		operator := ast.Pos
		if operatorToken.TokenType == token.MINUS {
			operator = ast.Neg
		}
		return ast.UnaryOp{Operator: operator, Operand: operand}, nil
	}
	return parser.exponentiation()
}

// exponentiation parses `**`, right-associative, with the exponent parsed
// at unary precedence so that a negative exponent (`2 ** -3`) is accepted
// directly.
func (parser *Parser) exponentiation() (ast.Expr, error) {
	base, err := parser.atom()
	if err != nil {
		return nil, err
	}
	if parser.isMatch([]token.TokenType{token.EXP}) {
		exponent, err := parser.unary()
		if err != nil {
			return nil, err
		}
		return ast.BinOp{Left: base, Operator: ast.Pow, Right: exponent}, nil
	}
	return base, nil
}

// atom parses a parenthesized sub-expression or falls through to a plain
// value.
func (parser *Parser) atom() (ast.Expr, error) {
	if parser.isMatch([]token.TokenType{token.LPA}) {
		expr, err := parser.expression()
		if err != nil {
			return nil, err
		}
		if _, err := parser.consume(token.RPA, "expected ')'"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return parser.value()
}

// value parses the grammar's terminal forms: integer, float and boolean
// literals, and variable references.
func (parser *Parser) value() (ast.Expr, error) {
	switch {
	case parser.checkType(token.INT), parser.checkType(token.FLOAT):
		tok := parser.advance()
		return ast.Constant{Value: tok.Literal}, nil
	case parser.checkType(token.TRUE):
		parser.advance()
		return ast.Constant{Value: true}, nil
	case parser.checkType(token.FALSE):
		parser.advance()
		return ast.Constant{Value: false}, nil
	case parser.checkType(token.IDENTIFIER):
		tok := parser.advance()
		return ast.Variable{Name: tok.Lexeme}, nil
	}

	current := parser.peek()
	return nil, CreateSyntaxError(current.Line, current.Column, "expected an expression")
}
