package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"indentlang/ast"
	"indentlang/compiler"
	"indentlang/lexer"
	"indentlang/parser"
	"indentlang/token"
	"indentlang/vm"
)

// replCmd implements the REPL command
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive REPL session.
`
}
func (r *replCmd) SetFlags(f *flag.FlagSet) {}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Welcome!")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     "",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to start REPL: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	machine := vm.New()
	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			return subcommands.ExitSuccess
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		lex := lexer.New(source)
		tokens, lexErr := lex.Scan()
		if lexErr != nil {
			fmt.Println(lexErr)
			buffer.Reset()
			continue
		}

		if awaitingBlock(tokens) || lex.IndentDepth() > 0 {
			continue
		}

		p := parser.Make(tokens)
		program, parseErrs := p.Parse()
		if len(parseErrs) > 0 {
			if allErrorsAtEOF(parseErrs, tokens[len(tokens)-1]) {
				continue
			}
			for _, parseErr := range parseErrs {
				fmt.Fprintln(os.Stderr, parseErr)
			}
			buffer.Reset()
			continue
		}

		bytecode, err := compiler.CompileProgram(program)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		if err := machine.Run(bytecode); err != nil {
			fmt.Fprintln(os.Stderr, err)
			buffer.Reset()
			continue
		}

		if endsInBareExpression(program) {
			fmt.Println(machine.LastPopped())
		}
		buffer.Reset()
	}
}

// awaitingBlock reports whether the last meaningful token scanned is a
// colon, meaning the statement just typed opens an indented block and the
// REPL should keep collecting lines rather than parse what it has so far.
func awaitingBlock(tokens []token.Token) bool {
	last := lastNonEOF(tokens)
	return last != nil && last.TokenType == token.COLON
}

// allErrorsAtEOF reports whether every parse error is a syntax error
// located at the position of the trailing EOF token. When that holds, the
// input typed so far is merely incomplete (e.g. a dangling operator)
// rather than actually malformed, so the REPL should wait for
// more lines instead of reporting the errors.
func allErrorsAtEOF(errs []error, eof token.Token) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		syntaxErr, ok := err.(parser.SyntaxError)
		if !ok {
			return false
		}
		if syntaxErr.Line != eof.Line || syntaxErr.Column != eof.Column {
			return false
		}
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].TokenType != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// endsInBareExpression reports whether the program's final statement is a
// bare expression, in which case the REPL echoes its value the way an
// interactive session is expected to.
func endsInBareExpression(program ast.Program) bool {
	if len(program.Body) == 0 {
		return false
	}
	_, ok := program.Body[len(program.Body)-1].(ast.ExprStatement)
	return ok
}
